package segment

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortInputUnmodified(t *testing.T) {
	for _, s := range []string{"", "hello", "  leading and trailing  ", strings.Repeat("x", 10)} {
		got := Split(s, 10)
		if len(got) != 1 {
			t.Fatalf("%q: expected 1 chunk, got %d", s, len(got))
		}
		if got[0] != s {
			t.Fatalf("%q: short input must come back untouched, got %q", s, got[0])
		}
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	got := Split("abcdefghijklmnop", 10)
	want := []string{"abcdefghij", "klmnop"}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplit_PrefersDoubleNewline(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph that keeps going"
	got := Split(text, 25)
	if got[0] != "first paragraph" {
		t.Fatalf("expected break at the paragraph boundary, got %q", got[0])
	}
	if strings.HasPrefix(got[1], "\n") || strings.HasPrefix(got[1], " ") {
		t.Fatalf("tail should be left-trimmed, got %q", got[1])
	}
	if got[1] != "second paragraph that" {
		t.Fatalf("unexpected second chunk %q", got[1])
	}
}

func TestSplit_FallsBackToSingleNewlineThenSpace(t *testing.T) {
	// No double newline inside the window: a single newline past the half
	// mark wins over the later space.
	got := Split("abcdefghij klmnop\nqrstu vwxyz abcdefg", 20)
	if got[0] != "abcdefghij klmnop" {
		t.Fatalf("expected newline break, got %q", got[0])
	}

	// No newline at all: last space wins.
	got = Split("words separated by spaces only here", 20)
	if got[0] != "words separated by" {
		t.Fatalf("expected space break, got %q", got[0])
	}
}

func TestSplit_EarlySeparatorIgnored(t *testing.T) {
	// The only paragraph break is in the first half of the window, so the
	// segmenter must not take it; the space later in the window wins.
	text := "ab\n\n" + strings.Repeat("c", 14) + " " + strings.Repeat("d", 10)
	got := Split(text, 20)
	if got[0] == "ab" {
		t.Fatalf("early paragraph break produced a pathologically short chunk: %v", got)
	}
	if len(got[0]) < 10 {
		t.Fatalf("chunk shorter than half window: %q", got[0])
	}
}

func TestSplit_EveryChunkWithinLimit(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200)
	const maxLen = 120
	got := Split(text, maxLen)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > maxLen {
			t.Fatalf("chunk %d exceeds limit: %d > %d", i, n, maxLen)
		}
		if c == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
}

func TestSplit_LosslessUpToBoundaryWhitespace(t *testing.T) {
	text := "alpha beta gamma\n\ndelta epsilon zeta\neta theta iota kappa lambda"
	got := Split(text, 20)

	// Concatenating chunks with single spaces must preserve every word in
	// order; only boundary whitespace is allowed to differ.
	joined := strings.Join(got, " ")
	wantWords := strings.Fields(text)
	gotWords := strings.Fields(joined)
	if len(wantWords) != len(gotWords) {
		t.Fatalf("word count changed: %d -> %d (%v)", len(wantWords), len(gotWords), got)
	}
	for i := range wantWords {
		if wantWords[i] != gotWords[i] {
			t.Fatalf("word %d changed: %q -> %q", i, wantWords[i], gotWords[i])
		}
	}
}

func TestSplit_MultibyteSafe(t *testing.T) {
	text := strings.Repeat("你好世界", 20) // no spaces or newlines, 3-byte runes
	got := Split(text, 15)
	var rebuilt strings.Builder
	for i, c := range got {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if n := utf8.RuneCountInString(c); n > 15 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
		rebuilt.WriteString(c)
	}
	if rebuilt.String() != text {
		t.Fatal("multibyte text not reconstructed losslessly")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("some words\nwith breaks\n\nand paragraphs ", 50)
	a := Split(text, 64)
	b := Split(text, 64)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic chunk %d", i)
		}
	}
}
