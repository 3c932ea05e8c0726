package journal

import "time"

// Prompts rotate one per day.
var Prompts = []string{
	"How is your energy level today compared to yesterday?",
	"What is one thing you are grateful for regarding your body today?",
	"Did you feel mentally clear or foggy today?",
	"How did you sleep last night, and how does it feel now?",
	"What is one small way you took care of yourself today?",
	"Did you experience any physical discomfort today? If so, where?",
	"How did your mood fluctuate throughout the day?",
	"What is one thing you can do tomorrow to improve your well-being?",
	"Did you drink enough water today?",
	"How did your body react to the food you ate today?",
}

// DailyPrompt picks the prompt for t's calendar day. Every call on the same
// date returns the same prompt.
func DailyPrompt(t time.Time) string {
	return Prompts[t.YearDay()%len(Prompts)]
}
