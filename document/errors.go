package document

import "errors"

// 文档生成过程中返回的哨兵错误。
var (
	// ErrEmptyText 表示输入文本为空或只含空白。
	ErrEmptyText = errors.New("document: 文本为空")

	// ErrUnknownBackend 表示渲染后端名称无法识别。
	ErrUnknownBackend = errors.New("document: 未知的渲染后端")
)
