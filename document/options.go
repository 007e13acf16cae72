package document

import (
	"log/slog"

	"github.com/ByLCY/redoku/layout"
)

// config 保存 Generator 的内部配置。
type config struct {
	geometry layout.Geometry
	font     layout.FontSpec
	theme    *layout.Theme
	meta     layout.DocumentMeta
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		geometry: layout.A4,
		font:     layout.FontSpec{Size: layout.DefaultFontSize},
		meta: layout.DocumentMeta{
			Title:   "Redoku",
			Subject: "Dyslexia-friendly reading",
			Creator: "redoku",
		},
		logger: slog.Default(),
	}
}

// Option 配置 [Generator]。
type Option func(*config)

// WithGeometry 设置页面尺寸与页边距（pt），默认 A4、20mm 边距。
func WithGeometry(g layout.Geometry) Option {
	return func(c *config) {
		c.geometry = g
	}
}

// WithFontSize 设置正文字号（pt），默认 22。
func WithFontSize(size float64) Option {
	return func(c *config) {
		c.font.Size = size
	}
}

// WithFontName 指定渲染后端中已注册的字体名。
// 使用 Open 时会被字体链选中的字体覆盖。
func WithFontName(name string) Option {
	return func(c *config) {
		c.font.Name = name
	}
}

// WithTheme 替换默认配色。
func WithTheme(t layout.Theme) Option {
	return func(c *config) {
		c.theme = &t
	}
}

// WithMeta 设置写入 PDF 的文档信息。
func WithMeta(m layout.DocumentMeta) Option {
	return func(c *config) {
		c.meta = m
	}
}

// WithLogger 设置日志输出，nil 表示使用 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
