package llm

// TrimOldest trims items, ordered oldest to newest, to fit within a token
// budget. cost reports the estimated tokens of one item.
//
// The newest item is always kept, even when it alone exceeds the budget,
// and items are dropped from the front (oldest first) until the total fits.
func TrimOldest[T any](items []T, cost func(T) int, maxTokens int) []T {
	if len(items) == 0 {
		return items
	}

	total := 0
	for _, it := range items {
		total += cost(it)
	}
	if total <= maxTokens {
		return items
	}

	dropUntil := 0
	for dropUntil < len(items)-1 && total > maxTokens {
		total -= cost(items[dropUntil])
		dropUntil++
	}
	return items[dropUntil:]
}
