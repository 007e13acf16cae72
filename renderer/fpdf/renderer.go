package fpdfrenderer

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"

	"github.com/ByLCY/redoku/fonts"
	"github.com/ByLCY/redoku/layout"
	"github.com/ByLCY/redoku/renderer"
)

const fallbackName = "redoku-fallback"

// Renderer writes layout results with codeberg.org/go-pdf/fpdf. Measurements
// come from a private fpdf instance that holds every registered font.
type Renderer struct {
	mu      sync.Mutex
	fonts   map[string][]byte // by registered name
	order   []string
	measure *fpdf.Fpdf
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ renderer.Backend  = (*Renderer)(nil)
	_ layout.Metrics    = (*Renderer)(nil)
)

// NewRenderer creates an fpdf-based renderer with the built-in font preloaded
// as fallback for unknown names.
func NewRenderer() *Renderer {
	r := &Renderer{fonts: map[string][]byte{}}
	r.fonts[fallbackName] = fonts.Builtin().Data
	r.order = []string{fallbackName}
	r.measure = newMeasure(r.fonts, r.order)
	return r
}

// Register adds a TrueType font under font.Name. fpdf errors are sticky, so
// the font is first tried on a throwaway instance.
func (r *Renderer) Register(font fonts.Font) error {
	if font.Name == "" {
		return fmt.Errorf("字体缺少注册名")
	}
	if err := probe(font.Name, font.Data); err != nil {
		return fmt.Errorf("加载字体 %s 失败: %w", font.Origin, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fonts[font.Name]; !ok {
		r.order = append(r.order, font.Name)
	}
	r.fonts[font.Name] = font.Data
	r.measure = newMeasure(r.fonts, r.order)
	return nil
}

// TextWidth implements layout.Metrics.
func (r *Renderer) TextWidth(text string, font layout.FontSpec) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measure.SetFont(r.resolve(font.Name), "", font.Size)
	return r.measure.GetStringWidth(text)
}

// Ascent implements layout.Metrics.
func (r *Renderer) Ascent(font layout.FontSpec) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc := r.measure.GetFontDesc(r.resolve(font.Name), "")
	return float64(desc.Ascent) * font.Size / 1000
}

// Descent implements layout.Metrics. The magnitude is returned.
func (r *Renderer) Descent(font layout.FontSpec) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc := r.measure.GetFontDesc(r.resolve(font.Name), "")
	return math.Abs(float64(desc.Descent)) * font.Size / 1000
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	r.mu.Lock()
	data := make(map[string][]byte, len(r.fonts))
	for name, blob := range r.fonts {
		data[name] = blob
	}
	order := append([]string(nil), r.order...)
	r.mu.Unlock()

	doc := &document{fonts: data, order: order}
	if result != nil {
		doc.meta = result.Meta
	}
	return renderer.Paint(result, doc)
}

// resolve must be called with mu held.
func (r *Renderer) resolve(name string) string {
	if _, ok := r.fonts[name]; ok {
		return name
	}
	return fallbackName
}

func newMeasure(blobs map[string][]byte, order []string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	for _, name := range order {
		pdf.AddUTF8FontFromBytes(name, "", blobs[name])
	}
	return pdf
}

func probe(name string, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("解析字体失败: %v", rec)
		}
	}()
	if len(data) == 0 {
		return fmt.Errorf("字体数据为空")
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddUTF8FontFromBytes(name, "", data)
	return pdf.Error()
}

// document is the per-Render fpdf state. fpdf places rectangles by their
// top-left corner and text by a baseline measured from the page top, so
// layout coordinates are flipped against the current page height.
type document struct {
	fonts map[string][]byte
	order []string
	meta  layout.DocumentMeta

	pdf        *fpdf.Fpdf
	pageHeight float64
}

func (d *document) BeginPage(width, height float64) error {
	size := fpdf.SizeType{Wd: width, Ht: height}
	if d.pdf == nil {
		d.pdf = fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: size})
		d.pdf.SetMargins(0, 0, 0)
		d.pdf.SetAutoPageBreak(false, 0)
		for _, name := range d.order {
			d.pdf.AddUTF8FontFromBytes(name, "", d.fonts[name])
		}
		applyMeta(d.pdf, d.meta)
	}
	d.pdf.AddPageFormat("P", size)
	d.pageHeight = height
	return d.pdf.Error()
}

func (d *document) FillRect(rect layout.Rect) error {
	if d.pdf == nil {
		return fmt.Errorf("绘制前未开始页面")
	}
	d.pdf.SetFillColor(rect.Fill.R, rect.Fill.G, rect.Fill.B)
	top := d.pageHeight - (rect.Y + rect.Height)
	if rect.Radius > 0 {
		d.pdf.RoundedRect(rect.X, top, rect.Width, rect.Height, rect.Radius, "1234", "F")
	} else {
		d.pdf.Rect(rect.X, top, rect.Width, rect.Height, "F")
	}
	return d.pdf.Error()
}

func (d *document) DrawText(run layout.TextRun, font layout.FontSpec) error {
	if d.pdf == nil {
		return fmt.Errorf("绘制前未开始页面")
	}
	name := font.Name
	if _, ok := d.fonts[name]; !ok {
		name = fallbackName
	}
	d.pdf.SetFont(name, "", font.Size)
	d.pdf.SetTextColor(run.Color.R, run.Color.G, run.Color.B)
	d.pdf.Text(run.X, d.pageHeight-run.Y, run.Content)
	return d.pdf.Error()
}

func (d *document) Finish() ([]byte, error) {
	if d.pdf == nil {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(pdf *fpdf.Fpdf, meta layout.DocumentMeta) {
	pdf.SetTitle(meta.Title, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreator(meta.Creator, true)
	if len(meta.Keywords) > 0 {
		pdf.SetKeywords(strings.Join(meta.Keywords, ", "), true)
	}
}
