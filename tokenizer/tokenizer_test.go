package tokenizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func w(s string) Token { return NewWord(s) }

var br = NewLineBreak()

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Token
	}{
		{"empty", "", nil},
		{"single line", "Hello world", []Token{w("Hello"), w("world"), br}},
		{"paragraph gap", "A\n\nB", []Token{w("A"), br, br, w("B"), br}},
		{"trailing newline", "A\n", []Token{w("A"), br}},
		{"only newline", "\n", []Token{br}},
		{"whitespace line", "A\n   \t \nB", []Token{w("A"), br, br, w("B"), br}},
		{"whitespace only", "   ", []Token{br}},
		{"crlf", "one two\r\nthree", []Token{w("one"), w("two"), br, w("three"), br}},
		{"bare cr", "a\rb", []Token{w("a"), br, w("b"), br}},
		{"form feed", "a\fb", []Token{w("a"), br, w("b"), br}},
		{"unicode line separator", "a\u2028b", []Token{w("a"), br, w("b"), br}},
		{"no-break space splits words", "a\u00a0b", []Token{w("a"), w("b"), br}},
		{"leading and trailing spaces", "  lots   of   space  ", []Token{w("lots"), w("of"), w("space"), br}},
		{"punctuation stays attached", "Hi, there!", []Token{w("Hi,"), w("there!"), br}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.in)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tc.in, err)
			}
			if d := cmp.Diff(tc.want, got); d != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.in, d)
			}
		})
	}
}

func TestTokenizeNormalizesToNFC(t *testing.T) {
	got, err := Tokenize("e\u0301cole")
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	want := []Token{w("\u00e9cole"), br}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("NFC 归一化结果不符 (-want +got):\n%s", d)
	}
}

func TestTokenizePreservesOrder(t *testing.T) {
	in := "the quick brown\nfox jumps\n\nover the lazy dog"
	tokens, err := Tokenize(in)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	var words []string
	for _, tok := range tokens {
		if tok.Kind == Word {
			if tok.Text == "" {
				t.Fatalf("单词 Token 不应为空")
			}
			words = append(words, tok.Text)
		}
	}
	want := []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}
	if d := cmp.Diff(want, words); d != "" {
		t.Errorf("word order mismatch (-want +got):\n%s", d)
	}
	nw, nb := Count(tokens)
	if nw != 9 || nb != 4 {
		t.Fatalf("Count = (%d, %d), want (9, 4)", nw, nb)
	}
}

func TestSplitInitial(t *testing.T) {
	cases := []struct {
		in, initial, rest string
	}{
		{"Hello", "H", "ello"},
		{"A", "A", ""},
		{"", "", ""},
		{"\u00e9cole", "\u00e9", "cole"},
		{"e\u0301x", "e\u0301", "x"},
		{"123", "1", "23"},
	}
	for _, tc := range cases {
		initial, rest := SplitInitial(tc.in)
		if initial != tc.initial || rest != tc.rest {
			t.Errorf("SplitInitial(%q) = (%q, %q), want (%q, %q)", tc.in, initial, rest, tc.initial, tc.rest)
		}
	}
}

func TestKindString(t *testing.T) {
	if Word.String() != "word" || LineBreak.String() != "linebreak" {
		t.Fatalf("unexpected kind names: %s %s", Word, LineBreak)
	}
}
