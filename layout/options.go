package layout

const (
	// DefaultFontSize 为正文字号（pt）。
	DefaultFontSize = 22.0

	lineSpacingFactor  = 1.8
	paragraphGapFactor = 0.4

	// 高亮框相对首字母字形的内边距（pt）。
	highlightPadX = 2.0
	highlightPadW = 4.0
	highlightPadH = 2.0
)

// A4 为默认页面：210×297mm，四周 20mm 页边距。
var A4 = Geometry{Width: Mm(210), Height: Mm(297), Margin: Mm(20)}

// Geometry 描述页面尺寸与统一页边距（pt），整篇文档保持不变。
type Geometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
}

// MaxWidth 返回可用排版宽度。
func (g Geometry) MaxWidth() float64 { return g.Width - 2*g.Margin }

// XStart 返回行首 x 坐标。
func (g Geometry) XStart() float64 { return g.Margin }

// YStart 返回可用区域顶部的 y 坐标。
func (g Geometry) YStart() float64 { return g.Height - g.Margin }

// FontSpec 指定字体名称与字号（pt），决定字形宽度与行距。
type FontSpec struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// LineSpacing 是每次换行下移的距离。
func (f FontSpec) LineSpacing() float64 { return f.Size * lineSpacingFactor }

// ParagraphGap 是显式换行额外增加的间距。
func (f FontSpec) ParagraphGap() float64 { return f.Size * paragraphGapFactor }

// Theme 描述页面配色与装饰尺寸。
type Theme struct {
	PageColor       Color   `json:"pageColor"`
	PanelColor      Color   `json:"panelColor"`
	HighlightColor  Color   `json:"highlightColor"`
	TextColor       Color   `json:"textColor"`
	PanelPadding    float64 `json:"panelPadding"`
	PanelRadius     float64 `json:"panelRadius"`
	HighlightRadius float64 `json:"highlightRadius"`
	WordSpacing     float64 `json:"wordSpacing"`
}

// DefaultTheme 返回默认的浅色护眼主题。
func DefaultTheme() Theme {
	return Theme{
		PageColor:       MustHex("#fbfbf7"),
		PanelColor:      MustHex("#f6f9f7"),
		HighlightColor:  MustHex("#fff3b0"),
		TextColor:       MustHex("#222222"),
		PanelPadding:    Mm(12),
		PanelRadius:     Mm(8),
		HighlightRadius: 2,
		WordSpacing:     10,
	}
}

// BuildOptions 配置排版阶段所需的依赖与参数，零值字段使用默认值。
type BuildOptions struct {
	Metrics  Metrics
	Geometry Geometry
	Font     FontSpec
	Theme    *Theme
	Meta     DocumentMeta
}

// Metrics 提供字体度量，结果以 pt 为单位。
// 对同一 FontSpec 的多次查询必须返回一致的数值。
type Metrics interface {
	TextWidth(text string, font FontSpec) float64
	Ascent(font FontSpec) float64
	Descent(font FontSpec) float64
}
