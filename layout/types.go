package layout

// 该文件定义排版结果与绘制指令，供布局计算、渲染与调试 JSON 共用。
// 所有坐标、尺寸均以 pt 为单位，原点位于页面左下角（与 PDF 一致），y 向上增长。

// Result 保存排版后的页面与统计信息。
type Result struct {
	Pages    []Page       `json:"pages"`
	Font     FontSpec     `json:"font"`
	Geometry Geometry     `json:"geometry"`
	Meta     DocumentMeta `json:"meta"`
	Stats    Stats        `json:"stats"`
}

// Page 记录一页的尺寸与按绘制顺序排列的指令。
// 每一页的指令总是以背景、面板与字体选择开头。
type Page struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ops    []Op    `json:"ops"`
}

// OpKind 标识绘制指令类型。
type OpKind string

const (
	OpFillRect OpKind = "fillRect"
	OpDrawText OpKind = "drawText"
	OpSetFont  OpKind = "setFont"
)

// Role 说明指令在页面中的用途，渲染器不依赖它，主要用于调试与测试。
type Role string

const (
	RolePage      Role = "page"
	RolePanel     Role = "panel"
	RoleFont      Role = "font"
	RoleHighlight Role = "highlight"
	RoleInitial   Role = "initial"
	RoleRest      Role = "rest"
)

// Op 是一条绘制指令；Kind 决定 Rect/Text/Font 中哪一个有效。
type Op struct {
	Kind OpKind    `json:"kind"`
	Role Role      `json:"role"`
	Rect *Rect     `json:"rect,omitempty"`
	Text *TextRun  `json:"text,omitempty"`
	Font *FontSpec `json:"font,omitempty"`
}

// Rect 表示一个填充矩形，Radius > 0 时为圆角矩形。(X, Y) 为左下角。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Radius float64 `json:"radius,omitempty"`
	Fill   Color   `json:"fill"`
}

// TextRun 表示一段从基线 (X, Y) 开始绘制的文本。
type TextRun struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content"`
	Color   Color   `json:"color"`
}

// Stats 汇总排版过程中的换行与分页次数。
type Stats struct {
	Words      int `json:"words"`
	SoftWraps  int `json:"softWraps"`
	HardBreaks int `json:"hardBreaks"`
	PageBreaks int `json:"pageBreaks"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// PlacedWord 是从指令流还原出的单词及其起始位置。
type PlacedWord struct {
	Text string  `json:"text"`
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Words 按绘制顺序还原所有单词：每个 initial 指令开启一个新单词，随后的 rest 指令补全它。
func (r *Result) Words() []PlacedWord {
	if r == nil {
		return nil
	}
	var out []PlacedWord
	for _, page := range r.Pages {
		for _, op := range page.Ops {
			if op.Kind != OpDrawText || op.Text == nil {
				continue
			}
			switch op.Role {
			case RoleInitial:
				out = append(out, PlacedWord{
					Text: op.Text.Content,
					Page: page.Index,
					X:    op.Text.X,
					Y:    op.Text.Y,
				})
			case RoleRest:
				if len(out) > 0 {
					out[len(out)-1].Text += op.Text.Content
				}
			}
		}
	}
	return out
}

// Highlights 返回该页所有首字母高亮矩形。
func (p Page) Highlights() []Rect {
	var out []Rect
	for _, op := range p.Ops {
		if op.Kind == OpFillRect && op.Role == RoleHighlight && op.Rect != nil {
			out = append(out, *op.Rect)
		}
	}
	return out
}
