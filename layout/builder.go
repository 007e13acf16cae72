package layout

import (
	"fmt"
	"math"

	"github.com/ByLCY/redoku/tokenizer"
)

// Build 将 Token 序列排版为若干页绘制指令。
// 单词按宽度折行，显式换行额外增加段落间距，超出页面底部时自动分页。
// 即使没有任何 Token，也总会产生一页（仅含背景）。
func Build(tokens []tokenizer.Token, opts BuildOptions) (*Result, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少字体度量后端 Metrics")
	}

	geo := opts.Geometry
	if geo == (Geometry{}) {
		geo = A4
	}
	if geo.MaxWidth() <= 0 || geo.Height-2*geo.Margin <= 0 {
		return nil, fmt.Errorf("layout: 页面尺寸 %gx%g 无法容纳页边距 %g", geo.Width, geo.Height, geo.Margin)
	}

	font := opts.Font
	if font.Size == 0 {
		font.Size = DefaultFontSize
	}
	if font.Size < 0 {
		return nil, fmt.Errorf("layout: 字号必须为正数，实际 %g", font.Size)
	}

	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	ctx := &flowContext{
		geo:       geo,
		font:      font,
		theme:     theme,
		metrics:   opts.Metrics,
		collector: newPageCollector(geo),
	}
	ctx.openPage()

	for _, tok := range tokens {
		switch tok.Kind {
		case tokenizer.LineBreak:
			ctx.lineBreak()
		case tokenizer.Word:
			if tok.Text == "" {
				continue
			}
			ctx.placeWord(tok.Text)
		}
	}

	return &Result{
		Pages:    ctx.collector.pages(),
		Font:     font,
		Geometry: geo,
		Meta:     opts.Meta,
		Stats:    ctx.stats,
	}, nil
}

type pageCollector struct {
	geo  Geometry
	accs []*Page
}

func newPageCollector(geo Geometry) *pageCollector {
	return &pageCollector{geo: geo}
}

func (pc *pageCollector) newPage() *Page {
	p := &Page{
		Index:  len(pc.accs),
		Width:  pc.geo.Width,
		Height: pc.geo.Height,
	}
	pc.accs = append(pc.accs, p)
	return p
}

func (pc *pageCollector) curr() *Page {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[len(pc.accs)-1]
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, p := range pc.accs {
		out[i] = *p
	}
	return out
}

// flowContext 保存排版游标：x/y 为下一个单词的基线起点。
// 放置单词前 x 位于 [XStart, XStart+MaxWidth]（超宽单词除外）；
// 同一页内 y 单调递减，新页时重置为 YStart-字号。
type flowContext struct {
	geo       Geometry
	font      FontSpec
	theme     Theme
	metrics   Metrics
	collector *pageCollector

	cursorX float64
	cursorY float64
	stats   Stats
}

func (ctx *flowContext) emit(op Op) {
	p := ctx.collector.curr()
	p.Ops = append(p.Ops, op)
}

// openPage 开启新页：先绘制背景与面板，再选择字体，然后把游标放回左上角。
func (ctx *flowContext) openPage() {
	ctx.collector.newPage()
	ctx.drawBackground()
	font := ctx.font
	ctx.emit(Op{Kind: OpSetFont, Role: RoleFont, Font: &font})
	ctx.cursorX = ctx.geo.XStart()
	ctx.cursorY = ctx.geo.YStart() - ctx.font.Size
}

func (ctx *flowContext) drawBackground() {
	geo, theme := ctx.geo, ctx.theme
	ctx.emit(Op{Kind: OpFillRect, Role: RolePage, Rect: &Rect{
		Width:  geo.Width,
		Height: geo.Height,
		Fill:   theme.PageColor,
	}})
	pad := theme.PanelPadding
	ctx.emit(Op{Kind: OpFillRect, Role: RolePanel, Rect: &Rect{
		X:      geo.Margin - pad/2,
		Y:      geo.Margin - pad/2,
		Width:  geo.MaxWidth() + pad,
		Height: geo.Height - 2*geo.Margin + pad,
		Radius: theme.PanelRadius,
		Fill:   theme.PanelColor,
	}})
}

// advanceLine 回到行首并下移 dy；越过页面底部时分页。
func (ctx *flowContext) advanceLine(dy float64) {
	ctx.cursorX = ctx.geo.XStart()
	ctx.cursorY -= dy
	if ctx.cursorY < ctx.geo.Margin+ctx.font.Size {
		ctx.pageBreak()
	}
}

func (ctx *flowContext) pageBreak() {
	ctx.stats.PageBreaks++
	ctx.openPage()
}

func (ctx *flowContext) lineBreak() {
	ctx.stats.HardBreaks++
	ctx.advanceLine(ctx.font.LineSpacing() + ctx.font.ParagraphGap())
}

// placeWord 放置一个单词：必要时先折行，然后绘制首字母高亮、首字母与其余部分。
// 自动折行只下移一个行距，不附加段落间距。
func (ctx *flowContext) placeWord(word string) {
	initial, rest := tokenizer.SplitInitial(word)
	wordWidth := ctx.metrics.TextWidth(word, ctx.font)
	initialWidth := ctx.metrics.TextWidth(initial, ctx.font)
	total := wordWidth + ctx.theme.WordSpacing

	if ctx.cursorX+total > ctx.geo.Margin+ctx.geo.MaxWidth() {
		ctx.stats.SoftWraps++
		ctx.advanceLine(ctx.font.LineSpacing())
	}

	ascent := ctx.metrics.Ascent(ctx.font)
	descent := math.Abs(ctx.metrics.Descent(ctx.font))
	x, y := ctx.cursorX, ctx.cursorY

	ctx.emit(Op{Kind: OpFillRect, Role: RoleHighlight, Rect: &Rect{
		X:      x - highlightPadX,
		Y:      y - descent,
		Width:  initialWidth + highlightPadW,
		Height: ascent + descent + highlightPadH,
		Radius: ctx.theme.HighlightRadius,
		Fill:   ctx.theme.HighlightColor,
	}})
	ctx.emit(Op{Kind: OpDrawText, Role: RoleInitial, Text: &TextRun{
		X:       x,
		Y:       y,
		Content: initial,
		Color:   ctx.theme.TextColor,
	}})
	if rest != "" {
		ctx.emit(Op{Kind: OpDrawText, Role: RoleRest, Text: &TextRun{
			X:       x + initialWidth,
			Y:       y,
			Content: rest,
			Color:   ctx.theme.TextColor,
		}})
	}

	ctx.cursorX += total
	ctx.stats.Words++
}
