// Package segment splits oversized model responses into platform-sized
// chunks. It is a pure function of its input: no store, no network, no
// state between calls.
package segment

import "strings"

const cutset = " \t\r\n"

// Split cuts text into an ordered, non-empty sequence of chunks of at most
// maxLen characters. Each cut prefers, in order, the last double newline,
// the last single newline, and the last space inside the window; a
// candidate counts only when it sits at or past the halfway point of the
// window, which keeps an early paragraph marker from producing a
// pathologically short chunk. When no candidate qualifies the cut is hard,
// at exactly maxLen characters. After each cut the remaining tail is
// left-trimmed of whitespace. Input at or under maxLen comes back as a
// single untouched chunk.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 || len([]rune(text)) <= maxLen {
		return []string{text}
	}

	var chunks []string
	rest := []rune(text)
	for len(rest) > maxLen {
		cut := breakPoint(rest[:maxLen])
		chunks = append(chunks, string(rest[:cut]))
		rest = []rune(strings.TrimLeft(string(rest[cut:]), cutset))
	}
	if len(rest) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(rest))
	}
	return chunks
}

// breakPoint picks the cut position inside one window. Lower-preference
// separators are consulted only when the better one lands in the first
// half of the window.
func breakPoint(window []rune) int {
	half := len(window) / 2

	if i := lastDoubleNewline(window); i >= half && i > 0 {
		return i
	}
	if i := lastIndexRune(window, '\n'); i >= half && i > 0 {
		return i
	}
	if i := lastIndexRune(window, ' '); i >= half && i > 0 {
		return i
	}
	return len(window)
}

func lastDoubleNewline(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' && window[i-1] == '\n' {
			return i - 1
		}
	}
	return -1
}

func lastIndexRune(window []rune, r rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == r {
			return i
		}
	}
	return -1
}
