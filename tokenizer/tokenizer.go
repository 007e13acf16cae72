package tokenizer

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/text/unicode/norm"
)

// 该文件负责把用户粘贴的纯文本拆成排版引擎使用的 Token 序列。

// Kind 区分单词与强制换行。
type Kind int

const (
	Word Kind = iota
	LineBreak
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case LineBreak:
		return "linebreak"
	default:
		return "unknown"
	}
}

// MarshalText 让调试 JSON 中输出可读的类型名。
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Token 是排版的最小单元：一个非空单词，或一个强制换行。
type Token struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

// NewWord 构造单词 Token。
func NewWord(text string) Token { return Token{Kind: Word, Text: text} }

// NewLineBreak 构造换行 Token。
func NewLineBreak() Token { return Token{Kind: LineBreak} }

var (
	// 行边界与 Python str.splitlines 保持一致；空白集合与 str.split() 一致。
	textLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Newline", Pattern: `\r\n|[\n\r\v\f\x{1c}-\x{1e}\x{85}\x{2028}\x{2029}]`},
		{Name: "Space", Pattern: `[\t \x{1f}\p{Zs}]+`},
		{Name: "Word", Pattern: `[^\t\n\v\f\r \x{1c}-\x{1f}\x{85}\p{Z}]+`},
	})

	newlineTokenType = mustTokenType("Newline")
	spaceTokenType   = mustTokenType("Space")
	wordTokenType    = mustTokenType("Word")
)

// Tokenize 按行拆分文本：空行或纯空白行产生一个 LineBreak；
// 其余行按空白拆成若干 Word，并以一个 LineBreak 结尾。空输入不产生任何 Token。
func Tokenize(text string) ([]Token, error) {
	if text == "" {
		return nil, nil
	}
	lex, err := textLexer.LexString("", norm.NFC.String(text))
	if err != nil {
		return nil, fmt.Errorf("tokenizer: 初始化词法分析失败: %w", err)
	}

	var (
		out  []Token
		line []Token
		open bool // 当前行已有内容（单词或空白）
	)
	endLine := func() {
		out = append(out, line...)
		out = append(out, NewLineBreak())
		line = line[:0]
		open = false
	}

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("tokenizer: 词法分析失败: %w", err)
		}
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case newlineTokenType:
			endLine()
		case spaceTokenType:
			open = true
		case wordTokenType:
			line = append(line, NewWord(tok.Value))
			open = true
		}
	}
	// 末尾的换行符不会开启新的一行。
	if open {
		endLine()
	}
	return out, nil
}

// SplitInitial 返回单词的首个字素簇及其余部分，用于首字母高亮。
func SplitInitial(word string) (initial, rest string) {
	if word == "" {
		return "", ""
	}
	runes := []rune(word)
	var seg segmenter.Segmenter
	seg.Init(runes)
	iter := seg.GraphemeIterator()
	if !iter.Next() {
		return word, ""
	}
	g := iter.Grapheme()
	n := g.Offset + len(g.Text)
	if n <= 0 || n > len(runes) {
		n = 1
	}
	return string(runes[:n]), string(runes[n:])
}

// Count 统计 Token 序列中的单词与换行数量。
func Count(tokens []Token) (words, breaks int) {
	for _, t := range tokens {
		switch t.Kind {
		case Word:
			words++
		case LineBreak:
			breaks++
		}
	}
	return words, breaks
}

func mustTokenType(name string) lexer.TokenType {
	symbols := textLexer.Symbols()
	tt, ok := symbols[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
