package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chris/chronos/internal/journal"
	"github.com/chris/chronos/internal/llm"
)

// ChatFormat holds the turn markers of a model's chat template.
type ChatFormat struct {
	System    string
	User      string
	Assistant string
	End       string
}

// Zephyr is the turn format TinyLlama-Chat was tuned on.
var Zephyr = ChatFormat{
	System:    "<|system|>",
	User:      "<|user|>",
	Assistant: "<|assistant|>",
	End:       "</s>",
}

// Example is a worked input/output pair shown to the model before the real
// entries.
type Example struct {
	Entries []journal.Entry
	Summary string
}

// Template renders journal entries into a completion prompt.
type Template struct {
	Format          ChatFormat
	SystemDirective string
	FewShot         []Example
	// StopMarkers end generation and mark lines the sanitizer drops.
	StopMarkers []string
	// Seed opens the assistant turn; the model continues it.
	Seed string
}

var DefaultTemplate = Template{
	Format: Zephyr,
	SystemDirective: "You are a health assistant. Read the journal entries and write ONE short paragraph " +
		"(about 50 words) summarizing the writer's sleep, energy and mood trends. " +
		"Summarize only. Do not list the entries, do not ask questions, and do not continue the conversation.",
	FewShot: []Example{{
		Entries: []journal.Entry{
			{Date: "2024-03-04", Text: "Slept five hours. Dragged through work and skipped lunch."},
			{Date: "2024-03-05", Text: "Went to bed early, woke up rested. Walked at lunch and felt calmer."},
		},
		Summary: "Based on the journal entries, sleep improved from a short night to a full, restful one, " +
			"and energy and mood rose with it. Regular meals and a midday walk seem to help; keeping an early bedtime " +
			"looks like the most useful habit to protect.",
	}},
	StopMarkers: []string{"<|user|>", "User:", "Assistant:"},
	Seed:        "Based on the journal entries,",
}

// BuildPrompt renders entries with DefaultTemplate.
func BuildPrompt(entries []journal.Entry, maxEntries int) string {
	return DefaultTemplate.Build(entries, maxEntries)
}

// Window returns the first maxEntries entries (all when maxEntries <= 0)
// re-sorted oldest to newest. entries are expected newest first.
func Window(entries []journal.Entry, maxEntries int) []journal.Entry {
	n := len(entries)
	if maxEntries > 0 && maxEntries < n {
		n = maxEntries
	}
	out := make([]journal.Entry, n)
	copy(out, entries[:n])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Build renders the prompt for the maxEntries most recent entries.
func (t Template) Build(entries []journal.Entry, maxEntries int) string {
	return t.render(Window(entries, maxEntries))
}

func (t Template) render(chronological []journal.Entry) string {
	f := t.Format
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s%s\n", f.System, t.SystemDirective, f.End)
	for _, ex := range t.FewShot {
		fmt.Fprintf(&b, "%s\n", f.User)
		writeEntries(&b, ex.Entries)
		fmt.Fprintf(&b, "%s\n%s\n%s%s\n", f.End, f.Assistant, ex.Summary, f.End)
	}
	fmt.Fprintf(&b, "%s\n", f.User)
	writeEntries(&b, chronological)
	fmt.Fprintf(&b, "%s\n%s\n%s", f.End, f.Assistant, t.Seed)
	return b.String()
}

func writeEntries(b *strings.Builder, entries []journal.Entry) {
	b.WriteString("Journal entries:\n")
	for _, e := range entries {
		fmt.Fprintf(b, "%s\n", entryLine(e))
	}
	b.WriteString("\nWrite the summary now.")
}

func entryLine(e journal.Entry) string {
	return fmt.Sprintf("[%s] %s", e.Date, strings.TrimSpace(e.Text))
}

// Fit trims the window further, oldest first, until the rendered prompt
// plus outputTokens fits in contextTokens. The newest entry always stays.
// The result is ordered oldest to newest.
func (t Template) Fit(entries []journal.Entry, maxEntries, contextTokens, outputTokens int) []journal.Entry {
	window := Window(entries, maxEntries)
	if contextTokens <= 0 {
		return window
	}
	fixed := llm.EstimateTokens(t.render(nil))
	budget := contextTokens - outputTokens - fixed
	return llm.TrimOldest(window, func(e journal.Entry) int {
		return llm.EstimateTokens(entryLine(e)) + 1
	}, budget)
}
