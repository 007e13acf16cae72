package document

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ByLCY/redoku/fonts"
	"github.com/ByLCY/redoku/layout"
	"github.com/ByLCY/redoku/renderer"
	canvasrenderer "github.com/ByLCY/redoku/renderer/canvas"
	fpdfrenderer "github.com/ByLCY/redoku/renderer/fpdf"
	"github.com/ByLCY/redoku/tokenizer"
)

// 可选的渲染后端名称。
const (
	BackendCanvas = "canvas"
	BackendFPDF   = "fpdf"
)

// Generator 把纯文本转换为带首字母高亮的 PDF。
// 每次调用各自持有游标与指令序列，可被多个 goroutine 并发使用。
type Generator struct {
	backend renderer.Backend
	cfg     config
}

// New 使用已准备好字体的后端创建 Generator。
func New(backend renderer.Backend, opts ...Option) (*Generator, error) {
	if backend == nil {
		return nil, fmt.Errorf("document: 缺少渲染后端")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.font.Name == "" {
		cfg.font.Name = fonts.BuiltinName
	}
	return &Generator{backend: backend, cfg: cfg}, nil
}

// NewBackend 按名称创建渲染后端，空字符串表示 canvas。
func NewBackend(kind string) (renderer.Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendCanvas:
		return canvasrenderer.NewRenderer(), nil
	case BackendFPDF:
		return fpdfrenderer.NewRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// Open 创建后端，沿字体链选择并注册字体，返回可用的 Generator。
func Open(kind string, sources []fonts.Source, opts ...Option) (*Generator, error) {
	backend, err := NewBackend(kind)
	if err != nil {
		return nil, err
	}
	g, err := New(backend, opts...)
	if err != nil {
		return nil, err
	}
	font, err := fonts.Select(sources, backend, g.cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("选择字体失败: %w", err)
	}
	g.cfg.font.Name = font.Name
	return g, nil
}

// Font 返回排版使用的字体。
func (g *Generator) Font() layout.FontSpec { return g.cfg.font }

// Layout 分词并排版，不输出 PDF。
func (g *Generator) Layout(text string) (*layout.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	tokens, err := tokenizer.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("分词失败: %w", err)
	}
	res, err := layout.Build(tokens, layout.BuildOptions{
		Metrics:  g.backend,
		Geometry: g.cfg.geometry,
		Font:     g.cfg.font,
		Theme:    g.cfg.theme,
		Meta:     g.cfg.meta,
	})
	if err != nil {
		return nil, fmt.Errorf("排版失败: %w", err)
	}
	g.cfg.logger.Debug("layout built",
		slog.Int("words", res.Stats.Words),
		slog.Int("softWraps", res.Stats.SoftWraps),
		slog.Int("hardBreaks", res.Stats.HardBreaks),
		slog.Int("pages", len(res.Pages)),
	)
	return res, nil
}

// Generate 排版并渲染为 PDF 字节。
func (g *Generator) Generate(text string) ([]byte, error) {
	res, err := g.Layout(text)
	if err != nil {
		return nil, err
	}
	return g.Render(res)
}

// Render 把已有的排版结果渲染为 PDF 字节。
func (g *Generator) Render(res *layout.Result) ([]byte, error) {
	data, err := g.backend.Render(res)
	if err != nil {
		return nil, fmt.Errorf("渲染失败: %w", err)
	}
	g.cfg.logger.Info("pdf generated",
		slog.Int("pages", len(res.Pages)),
		slog.Int("bytes", len(data)),
		slog.String("font", g.cfg.font.Name),
	)
	return data, nil
}
