package discord

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/chris/chronos/internal/db"
	"github.com/chris/chronos/internal/insight"
	"github.com/chris/chronos/internal/journal"
	"github.com/chris/chronos/internal/notify"
)

// --- stripMention ---

func TestStripMention_Standard(t *testing.T) {
	got := stripMention("<@123456> hello", "123456")
	want := " hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_Nickname(t *testing.T) {
	got := stripMention("<@!123456> hello", "123456")
	want := " hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_Both(t *testing.T) {
	got := stripMention("<@123> and <@!123>", "123")
	want := " and "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_NoMention(t *testing.T) {
	got := stripMention("just text", "123")
	if got != "just text" {
		t.Errorf("got %q, want %q", got, "just text")
	}
}

func TestStripMention_WrongUser(t *testing.T) {
	input := "<@999> hello"
	got := stripMention(input, "123")
	if got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestStripMention_Empty(t *testing.T) {
	got := stripMention("", "123")
	if got != "" {
		t.Errorf("got %q, want %q", got, "")
	}
}

// --- splitMessage ---

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("expected single chunk 'hello', got %v", chunks)
	}
}

func TestSplitMessage_ExactLimit(t *testing.T) {
	s := strings.Repeat("a", 2000)
	chunks := splitMessage(s, 2000)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitMessage_SplitsAtNewline(t *testing.T) {
	// 15 chars of "a", then newline, then 15 chars of "b" = 31 chars total
	s := strings.Repeat("a", 15) + "\n" + strings.Repeat("b", 15)
	chunks := splitMessage(s, 20)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	// First chunk should split at the newline (16 chars: 15 a's + newline)
	if chunks[0] != strings.Repeat("a", 15)+"\n" {
		t.Errorf("chunk[0] = %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 15) {
		t.Errorf("chunk[1] = %q", chunks[1])
	}
}

func TestSplitMessage_NoNewlineFallback(t *testing.T) {
	// No newlines, so hard-split at maxLen
	s := strings.Repeat("x", 50)
	chunks := splitMessage(s, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("x", 20) {
		t.Errorf("chunk[0] length = %d, want 20", len(chunks[0]))
	}
	if chunks[1] != strings.Repeat("x", 20) {
		t.Errorf("chunk[1] length = %d, want 20", len(chunks[1]))
	}
	if chunks[2] != strings.Repeat("x", 10) {
		t.Errorf("chunk[2] length = %d, want 10", len(chunks[2]))
	}
}

func TestSplitMessage_Empty(t *testing.T) {
	chunks := splitMessage("", 2000)
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("expected single empty chunk, got %v", chunks)
	}
}

func TestSplitMessage_MultipleNewlines(t *testing.T) {
	// Should prefer the LAST newline before the limit
	s := "line1\nline2\nline3\nline4"
	chunks := splitMessage(s, 12)

	// "line1\nline2\n" is 12 chars, split right there
	if chunks[0] != "line1\nline2\n" {
		t.Errorf("chunk[0] = %q, want %q", chunks[0], "line1\nline2\n")
	}
}

// --- Journal.Respond ---

type stubInsights struct{ calls int }

func (s *stubInsights) LoadDaily(context.Context) insight.State {
	s.calls++
	return insight.State{Phase: insight.PhaseDone, Text: "Based on the journal entries, all good."}
}

func newTestJournal(t *testing.T) (*Journal, *journal.Store, *db.DB, *stubInsights) {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	store := journal.NewStore(d)
	ins := &stubInsights{}
	j := NewJournal(store, ins, d)
	j.now = func() time.Time { return time.Date(2026, 4, 2, 9, 0, 0, 0, time.Local) }
	return j, store, d, ins
}

func TestRespond_SavesEntry(t *testing.T) {
	j, store, _, _ := newTestJournal(t)
	ctx := context.Background()

	reply := j.Respond(ctx, "u1", false, "slept well")
	if reply != "Saved your entry for 2026-04-02." {
		t.Errorf("reply = %q", reply)
	}
	e, err := store.Get(ctx, "2026-04-02")
	if err != nil || e == nil {
		t.Fatalf("Get: %v, %v", e, err)
	}
	if e.Text != "slept well" || e.Prompt != journal.DailyPrompt(j.now()) {
		t.Errorf("entry = %+v", e)
	}
}

func TestRespond_AppendsToToday(t *testing.T) {
	j, store, _, _ := newTestJournal(t)
	ctx := context.Background()

	j.Respond(ctx, "u1", false, "morning")
	reply := j.Respond(ctx, "u1", false, "evening")
	if !strings.HasPrefix(reply, "Added to") {
		t.Errorf("reply = %q", reply)
	}
	e, _ := store.Get(ctx, "2026-04-02")
	if e.Text != "morning\nevening" {
		t.Errorf("text = %q", e.Text)
	}
}

func TestRespond_RemembersDMUser(t *testing.T) {
	j, _, d, _ := newTestJournal(t)
	ctx := context.Background()

	j.Respond(ctx, "guild-user", false, "!prompt")
	if _, ok, _ := d.Get(ctx, notify.KeyDMUser); ok {
		t.Error("guild messages must not set the DM user")
	}
	j.Respond(ctx, "dm-user", true, "!prompt")
	got, _, _ := d.Get(ctx, notify.KeyDMUser)
	if got != "dm-user" {
		t.Errorf("DM user = %q", got)
	}
}

func TestRespond_Commands(t *testing.T) {
	j, _, _, ins := newTestJournal(t)
	ctx := context.Background()

	if got := j.Respond(ctx, "u", false, "!prompt"); !strings.Contains(got, journal.DailyPrompt(j.now())) {
		t.Errorf("!prompt = %q", got)
	}
	if got := j.Respond(ctx, "u", false, "!INSIGHT"); got != "Based on the journal entries, all good." {
		t.Errorf("!insight = %q", got)
	}
	if ins.calls != 1 {
		t.Errorf("LoadDaily calls = %d", ins.calls)
	}
	if got := j.Respond(ctx, "u", false, "!history"); got != "No entries yet." {
		t.Errorf("!history = %q", got)
	}
	if got := j.Respond(ctx, "u", false, "!help"); got != helpText {
		t.Errorf("!help = %q", got)
	}
}

func TestRespond_History(t *testing.T) {
	j, store, _, _ := newTestJournal(t)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		date := fmt.Sprintf("2026-03-%02d", i)
		if err := store.Set(ctx, date, "p", "entry "+date); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	got := j.Respond(ctx, "u", false, "!history")
	if !strings.HasPrefix(got, "**2026-03-12** entry 2026-03-12") {
		t.Errorf("history should start with newest entry, got %q", got)
	}
	if !strings.HasSuffix(got, "…and 2 more") {
		t.Errorf("history should note the remainder, got %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("a\n b", 80); got != "a b" {
		t.Errorf("got %q", got)
	}
	if got := preview(strings.Repeat("x", 10), 5); got != "xxxx…" {
		t.Errorf("got %q", got)
	}
}
