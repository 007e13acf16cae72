package subscriber

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound 表示邮箱尚未登记。
var ErrNotFound = errors.New("subscriber: 未找到订阅者")

// Subscriber 是一条邮箱登记记录，PDFCount 统计该邮箱生成 PDF 的次数。
type Subscriber struct {
	ID        int64
	Email     string
	CreatedAt time.Time
	PDFCount  int
}

// Normalize 去掉首尾空白并转为小写。
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail 做宽松校验：包含 @，且最后一个 @ 之后的部分包含点号。
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
