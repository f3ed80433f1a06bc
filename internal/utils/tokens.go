package utils

// charsPerToken is the rune-to-token ratio used when trimming chat history
// for runtimes that replay prior turns.
const charsPerToken = 4

// CountTokens estimates how many prompt tokens a chat message costs.
// Any non-empty message costs at least one.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if n := len([]rune(text)) / charsPerToken; n > 0 {
		return n
	}
	return 1
}

// TruncateToTokenLimit clips a message to the first runes that fit in
// budget tokens. The message is returned unchanged when it already fits.
func TruncateToTokenLimit(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	runes := []rune(text)
	if keep := budget * charsPerToken; keep < len(runes) {
		return string(runes[:keep])
	}
	return text
}
