package layout

// 排版引擎内部统一使用 pt；canvas 渲染器使用 mm，在边界处换算。

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// Mm 将毫米换算为 pt，便于以毫米书写页面常量。
func Mm(v float64) float64 { return v * MmToPt }

// ToMm 将 pt 换算为毫米。
func ToMm(pt float64) float64 { return pt * PtToMm }
