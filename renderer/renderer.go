package renderer

import (
	"fmt"

	"github.com/ByLCY/redoku/fonts"
	"github.com/ByLCY/redoku/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Backend 同时负责字体度量与输出：排版阶段用它量取宽度，渲染阶段用它绘制。
// 对同一 (字体, 字号) 的度量在整个调用序列中必须保持一致。
type Backend interface {
	Renderer
	layout.Metrics
	fonts.Registrar
}

// Canvas 是单个文档的绘制目标，坐标单位为 pt，原点位于页面左下角。
type Canvas interface {
	BeginPage(width, height float64) error
	FillRect(rect layout.Rect) error
	DrawText(run layout.TextRun, font layout.FontSpec) error
	Finish() ([]byte, error)
}

// Paint 按指令顺序把布局结果回放到 Canvas 上，最后完成文档。
func Paint(result *layout.Result, c Canvas) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	for _, page := range result.Pages {
		if err := c.BeginPage(page.Width, page.Height); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", page.Index+1, err)
		}
		font := result.Font
		for i, op := range page.Ops {
			var err error
			switch op.Kind {
			case layout.OpSetFont:
				if op.Font != nil {
					font = *op.Font
				}
			case layout.OpFillRect:
				if op.Rect != nil {
					err = c.FillRect(*op.Rect)
				}
			case layout.OpDrawText:
				if op.Text != nil && op.Text.Content != "" {
					err = c.DrawText(*op.Text, font)
				}
			default:
				err = fmt.Errorf("未知的绘制指令 %q", op.Kind)
			}
			if err != nil {
				return nil, fmt.Errorf("第 %d 页第 %d 条指令: %w", page.Index+1, i, err)
			}
		}
	}
	return c.Finish()
}
