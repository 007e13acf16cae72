package document

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/redoku/fonts"
	"github.com/ByLCY/redoku/layout"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTest(t *testing.T, kind string, opts ...Option) *Generator {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	g, err := Open(kind, []fonts.Source{fonts.BuiltinSource()}, opts...)
	require.NoError(t, err)
	return g
}

func TestGenerateRejectsEmptyText(t *testing.T) {
	g := openTest(t, BackendCanvas)
	for _, text := range []string{"", "   ", "\n\t\r\n"} {
		_, err := g.Generate(text)
		require.ErrorIs(t, err, ErrEmptyText, "text %q", text)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("postscript", []fonts.Source{fonts.BuiltinSource()})
	require.True(t, errors.Is(err, ErrUnknownBackend), "got %v", err)
}

func TestOpenFailsWithoutFonts(t *testing.T) {
	_, err := Open(BackendCanvas, nil, WithLogger(quietLogger()))
	require.ErrorIs(t, err, fonts.ErrNoFont)
}

func TestOptions(t *testing.T) {
	geo := layout.Geometry{Width: 400, Height: 300, Margin: 20}
	g := openTest(t, BackendCanvas, WithFontSize(30), WithGeometry(geo))
	require.Equal(t, fonts.BuiltinName, g.Font().Name)
	require.Equal(t, 30.0, g.Font().Size)

	res, err := g.Layout("Options")
	require.NoError(t, err)
	require.Equal(t, geo, res.Geometry)
	require.Equal(t, 400.0, res.Pages[0].Width)
}

func TestHelloWorldLayout(t *testing.T) {
	g := openTest(t, BackendCanvas)
	res, err := g.Layout("Hello world")
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Len(t, res.Pages[0].Highlights(), 2)

	words := res.Words()
	require.Len(t, words, 2)
	require.Equal(t, "Hello", words[0].Text)
	require.Equal(t, "world", words[1].Text)
	require.Equal(t, words[0].Y, words[1].Y)
	require.Greater(t, words[1].X, words[0].X)
}

func TestBlankLineAddsParagraphGap(t *testing.T) {
	g := openTest(t, BackendCanvas)
	res, err := g.Layout("A\n\nB")
	require.NoError(t, err)

	words := res.Words()
	require.Len(t, words, 2)
	require.Equal(t, words[0].X, words[1].X)
	font := g.Font()
	want := 2 * (font.LineSpacing() + font.ParagraphGap())
	require.InDelta(t, want, words[0].Y-words[1].Y, 1e-9)
	require.Equal(t, 3, res.Stats.HardBreaks)
}

func TestLayoutIsDeterministic(t *testing.T) {
	g := openTest(t, BackendFPDF)
	text := strings.Repeat("Steady steps make reading lighter.\n", 12)
	first, err := g.Layout(text)
	require.NoError(t, err)
	second, err := g.Layout(text)
	require.NoError(t, err)
	if d := cmp.Diff(first, second); d != "" {
		t.Fatalf("layout differs between runs (-first +second):\n%s", d)
	}
}

func TestGenerateWithEachBackend(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog\n\n", 20)
	for _, kind := range []string{BackendCanvas, BackendFPDF} {
		t.Run(kind, func(t *testing.T) {
			g := openTest(t, kind)
			res, err := g.Layout(text)
			require.NoError(t, err)

			data, err := g.Generate(text)
			require.NoError(t, err)
			require.True(t, bytes.HasPrefix(data, []byte("%PDF")))

			reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)
			require.Equal(t, len(res.Pages), reader.NumPage())
			require.Greater(t, reader.NumPage(), 1)
		})
	}
}

// 两个后端对同一文本的排版结果只在字体度量的舍入上有差异。
func TestBackendsAgreeOnWordPositions(t *testing.T) {
	text := "Reading with a highlighted first letter"
	canvasRes, err := openTest(t, BackendCanvas).Layout(text)
	require.NoError(t, err)
	fpdfRes, err := openTest(t, BackendFPDF).Layout(text)
	require.NoError(t, err)

	a, b := canvasRes.Words(), fpdfRes.Words()
	require.Len(t, b, len(a))
	for i := range a {
		require.Equal(t, a[i].Text, b[i].Text)
		require.Equal(t, a[i].Page, b[i].Page)
		require.LessOrEqual(t, math.Abs(a[i].X-b[i].X), 2.0, "word %q", a[i].Text)
	}
}
