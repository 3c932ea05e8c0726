package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/chronos/internal/insight"
	"github.com/chris/chronos/internal/journal"
	"github.com/chris/chronos/internal/logger"
	"github.com/chris/chronos/internal/notify"
)

const maxMessageLen = 2000

const historyLimit = 10

const helpText = "Send me text and I'll save it as today's entry.\n" +
	"`!prompt` today's prompt\n" +
	"`!insight` your daily insight\n" +
	"`!history` recent entries"

type EntryStore interface {
	Get(ctx context.Context, date string) (*journal.Entry, error)
	Set(ctx context.Context, date, prompt, text string) error
	ListAll(ctx context.Context) ([]journal.Entry, error)
}

type InsightLoader interface {
	LoadDaily(ctx context.Context) insight.State
}

type KV interface {
	Set(ctx context.Context, key, value string) error
}

// Journal answers chat messages against the entry store.
type Journal struct {
	entries  EntryStore
	insights InsightLoader
	kv       KV
	now      func() time.Time
}

func NewJournal(entries EntryStore, insights InsightLoader, kv KV) *Journal {
	return &Journal{entries: entries, insights: insights, kv: kv, now: time.Now}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	reply := b.journal.Respond(context.Background(), m.Author.ID, isDM, content)
	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			logger.Warn("sending reply", "channel", m.ChannelID, "err", err)
		}
	}
}

// Respond handles one message and returns the reply text.
func (j *Journal) Respond(ctx context.Context, authorID string, isDM bool, content string) string {
	if isDM {
		if err := j.kv.Set(ctx, notify.KeyDMUser, authorID); err != nil {
			logger.Warn("remembering DM user", "err", err)
		}
	}

	fields := strings.Fields(content)
	if len(fields) == 0 {
		return helpText
	}
	now := j.now()
	switch strings.ToLower(fields[0]) {
	case "!help":
		return helpText
	case "!prompt":
		return "Today's prompt: " + journal.DailyPrompt(now)
	case "!insight":
		return j.insights.LoadDaily(ctx).Text
	case "!history":
		return j.history(ctx)
	}
	return j.save(ctx, now, content)
}

func (j *Journal) save(ctx context.Context, now time.Time, text string) string {
	date := journal.Today(now)
	prompt := journal.DailyPrompt(now)

	existing, err := j.entries.Get(ctx, date)
	if err != nil {
		logger.Error("loading today's entry", "err", err)
		return "Something went wrong. Try again?"
	}
	verb := "Saved"
	if existing != nil && existing.Text != "" {
		text = existing.Text + "\n" + text
		prompt = existing.Prompt
		verb = "Added to"
	}
	if err := j.entries.Set(ctx, date, prompt, text); err != nil {
		logger.Error("saving entry", "err", err)
		return "Something went wrong. Try again?"
	}
	return fmt.Sprintf("%s your entry for %s.", verb, date)
}

func (j *Journal) history(ctx context.Context) string {
	all, err := j.entries.ListAll(ctx)
	if err != nil {
		logger.Error("listing entries", "err", err)
		return "Something went wrong. Try again?"
	}
	if len(all) == 0 {
		return "No entries yet."
	}
	var b strings.Builder
	for i, e := range all {
		if i == historyLimit {
			fmt.Fprintf(&b, "…and %d more", len(all)-historyLimit)
			break
		}
		fmt.Fprintf(&b, "**%s** %s\n", e.Date, preview(e.Text, 80))
	}
	return strings.TrimRight(b.String(), "\n")
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
