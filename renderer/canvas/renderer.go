package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/redoku/fonts"
	"github.com/ByLCY/redoku/layout"
	"github.com/ByLCY/redoku/renderer"
)

// Renderer draws layout results via github.com/tdewolff/canvas and measures
// text with the same font faces it renders with.
type Renderer struct {
	fontMu         sync.Mutex
	fontFamilies   map[string]*canvas.FontFamily // by registered name
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ renderer.Backend  = (*Renderer)(nil)
	_ layout.Metrics    = (*Renderer)(nil)
)

// NewRenderer creates a canvas-based renderer with no registered fonts.
// Unknown font names resolve to the built-in fallback family.
func NewRenderer() *Renderer {
	return &Renderer{fontFamilies: map[string]*canvas.FontFamily{}}
}

// Register loads the font into a family under font.Name.
func (r *Renderer) Register(font fonts.Font) error {
	if font.Name == "" {
		return fmt.Errorf("字体缺少注册名")
	}
	family := canvas.NewFontFamily(font.Name)
	if err := family.LoadFont(font.Data, 0, canvas.FontRegular); err != nil {
		return fmt.Errorf("加载字体 %s 失败: %w", font.Origin, err)
	}
	r.fontMu.Lock()
	r.fontFamilies[font.Name] = family
	r.fontMu.Unlock()
	return nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	doc := &document{r: r}
	if result != nil {
		doc.meta = result.Meta
	}
	return renderer.Paint(result, doc)
}

// TextWidth implements layout.Metrics. Widths are returned in pt.
func (r *Renderer) TextWidth(text string, font layout.FontSpec) float64 {
	return r.mustFace(font).TextWidth(text) * layout.MmToPt
}

// Ascent implements layout.Metrics.
func (r *Renderer) Ascent(font layout.FontSpec) float64 {
	return r.mustFace(font).Metrics().Ascent * layout.MmToPt
}

// Descent implements layout.Metrics. The magnitude is returned.
func (r *Renderer) Descent(font layout.FontSpec) float64 {
	return math.Abs(r.mustFace(font).Metrics().Descent) * layout.MmToPt
}

// mustFace panics only when even the built-in fallback font cannot be loaded.
func (r *Renderer) mustFace(font layout.FontSpec) *canvas.FontFace {
	face, err := r.fontFace(font, layout.Color{})
	if err != nil {
		panic(fmt.Sprintf("canvas renderer: %v", err))
	}
	return face
}

// fontFace creates a face for the font; canvas takes the size in pt.
func (r *Renderer) fontFace(font layout.FontSpec, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(font.Name)
	if err != nil {
		return nil, err
	}
	return family.Face(font.Size, colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(name string) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[name]; ok {
		return family, nil
	}
	return r.fallback()
}

// fallback must be called with fontMu held.
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	family := canvas.NewFontFamily("redoku-fallback")
	if err := family.LoadFont(fonts.Builtin().Data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载内置字体失败: %w", err)
	}
	r.fallbackFamily = family
	return family, nil
}

// document is the per-Render canvas.Context state; one canvas per page,
// flushed into the shared PDF writer when the next page begins.
type document struct {
	r    *Renderer
	meta layout.DocumentMeta

	buf    bytes.Buffer
	writer *pdf.PDF
	page   *canvas.Canvas
	ctx    *canvas.Context
}

func (d *document) BeginPage(width, height float64) error {
	w, h := layout.ToMm(width), layout.ToMm(height)
	if d.writer == nil {
		d.writer = pdf.New(&d.buf, w, h, nil)
		applyMeta(d.writer, d.meta)
	} else {
		d.flush()
		d.writer.NewPage(w, h)
	}
	d.page = canvas.New(w, h)
	d.ctx = canvas.NewContext(d.page)
	// Default CartesianI already matches the layout: origin bottom-left, y up.
	d.ctx.SetStrokeColor(color.RGBA{})
	return nil
}

func (d *document) FillRect(rect layout.Rect) error {
	if d.ctx == nil {
		return fmt.Errorf("绘制前未开始页面")
	}
	w, h := layout.ToMm(rect.Width), layout.ToMm(rect.Height)
	path := canvas.Rectangle(w, h)
	if rect.Radius > 0 {
		path = canvas.RoundedRectangle(w, h, layout.ToMm(rect.Radius))
	}
	d.ctx.SetFillColor(colorFromLayout(rect.Fill))
	d.ctx.DrawPath(layout.ToMm(rect.X), layout.ToMm(rect.Y), path)
	return nil
}

func (d *document) DrawText(run layout.TextRun, font layout.FontSpec) error {
	if d.ctx == nil {
		return fmt.Errorf("绘制前未开始页面")
	}
	face, err := d.r.fontFace(font, run.Color)
	if err != nil {
		return err
	}
	// The run position is the baseline origin.
	d.ctx.DrawText(layout.ToMm(run.X), layout.ToMm(run.Y), canvas.NewTextLine(face, run.Content, canvas.Left))
	return nil
}

func (d *document) Finish() ([]byte, error) {
	if d.writer == nil {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	d.flush()
	if err := d.writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return d.buf.Bytes(), nil
}

func (d *document) flush() {
	if d.page != nil {
		d.page.RenderTo(d.writer)
		d.page, d.ctx = nil, nil
	}
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
