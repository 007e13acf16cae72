package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Hex 返回 #rrggbb 形式。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex 解析 #rgb、#rrggbb 与 #rrggbbaa（忽略 alpha）。
func ParseHex(value string) (Color, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(value) {
	case 3:
		value = strings.Repeat(string(value[0]), 2) + strings.Repeat(string(value[1]), 2) + strings.Repeat(string(value[2]), 2)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var c Color
	for i, dst := range []*int{&c.R, &c.G, &c.B} {
		v, err := strconv.ParseUint(value[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		*dst = int(v)
	}
	return c, nil
}

// MustHex 与 ParseHex 相同，但解析失败时 panic，仅用于常量。
func MustHex(value string) Color {
	c, err := ParseHex(value)
	if err != nil {
		panic(err)
	}
	return c
}
