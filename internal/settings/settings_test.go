package settings

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/chronos/internal/db"
)

type fakeScheduler struct {
	active  []string
	cancels int
	next    int
	err     error
}

func (f *fakeScheduler) ScheduleDaily(hour, minute int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.next++
	id := fmt.Sprintf("%d@%02d:%02d", f.next, hour, minute)
	f.active = append(f.active, id)
	return id, nil
}

func (f *fakeScheduler) CancelAll() error {
	f.cancels++
	f.active = nil
	return nil
}

func setup(t *testing.T) (*Settings, *fakeScheduler, *db.DB) {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	sched := &fakeScheduler{}
	return New(d, sched), sched, d
}

func TestLoad_Default(t *testing.T) {
	s, _, _ := setup(t)
	r, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Reminder{Enabled: false, Hour: 8, Minute: 0}, r)
}

func TestToggle_SchedulesAndCancels(t *testing.T) {
	s, sched, _ := setup(t)
	ctx := context.Background()

	r, err := s.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, r.Enabled)
	assert.Equal(t, []string{"1@08:00"}, sched.active)

	r, err = s.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, r.Enabled)
	assert.Empty(t, sched.active)

	loaded, _ := s.Load(ctx)
	assert.False(t, loaded.Enabled)
}

func TestUpdateTime_ReschedulesWhenEnabled(t *testing.T) {
	s, sched, _ := setup(t)
	ctx := context.Background()

	_, err := s.SetEnabled(ctx, true)
	require.NoError(t, err)
	r, err := s.UpdateTime(ctx, 21, 30)
	require.NoError(t, err)

	assert.Equal(t, Reminder{Enabled: true, Hour: 21, Minute: 30}, r)
	assert.Equal(t, []string{"2@21:30"}, sched.active, "exactly one active reminder")
}

func TestUpdateTime_DisabledStaysOff(t *testing.T) {
	s, sched, _ := setup(t)
	ctx := context.Background()

	r, err := s.UpdateTime(ctx, 7, 15)
	require.NoError(t, err)
	assert.False(t, r.Enabled)
	assert.Empty(t, sched.active)

	loaded, _ := s.Load(ctx)
	assert.Equal(t, Reminder{Hour: 7, Minute: 15}, loaded)
}

func TestUpdateTime_Invalid(t *testing.T) {
	s, sched, _ := setup(t)
	ctx := context.Background()

	for _, tc := range [][2]int{{24, 0}, {-1, 0}, {8, 60}, {8, -5}} {
		_, err := s.UpdateTime(ctx, tc[0], tc[1])
		assert.True(t, errors.Is(err, ErrInvalidTime), "%v", tc)
	}
	assert.Zero(t, sched.cancels)
	loaded, _ := s.Load(ctx)
	assert.Equal(t, Default, loaded)
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	s, _, d := setup(t)
	ctx := context.Background()
	require.NoError(t, d.Set(ctx, keyEnabled, "maybe"))
	require.NoError(t, d.Set(ctx, keyTime, `{"hour":99,"minute":0}`))

	r, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default, r)
}

func TestLoad_PersistedFormat(t *testing.T) {
	s, _, d := setup(t)
	ctx := context.Background()
	_, err := s.UpdateTime(ctx, 6, 5)
	require.NoError(t, err)

	raw, ok, err := d.Get(ctx, keyTime)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"hour":6,"minute":5}`, raw)
	raw, _, _ = d.Get(ctx, keyEnabled)
	assert.Equal(t, "false", raw)
}

func TestApply_OnlyOnChange(t *testing.T) {
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	ctx := context.Background()

	// a CLI process persists without a scheduler
	_, err = New(d, nil).SetEnabled(ctx, true)
	require.NoError(t, err)

	sched := &fakeScheduler{}
	daemon := New(d, sched)
	_, err = daemon.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1@08:00"}, sched.active)

	_, err = daemon.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sched.cancels, "unchanged settings are not re-registered")

	_, err = New(d, nil).UpdateTime(ctx, 9, 45)
	require.NoError(t, err)
	_, err = daemon.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2@09:45"}, sched.active)
}

func TestScheduleFailureSurfaces(t *testing.T) {
	s, sched, _ := setup(t)
	sched.err = errors.New("permission denied")

	_, err := s.SetEnabled(context.Background(), true)
	assert.Error(t, err)
}

func TestReminderString(t *testing.T) {
	assert.Equal(t, "08:05 (on)", Reminder{Enabled: true, Hour: 8, Minute: 5}.String())
}
