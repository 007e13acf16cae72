package fonts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// 默认字体链中各级的注册名与路径。
const (
	CustomName  = "ComicSansCustom"
	SystemName  = "DejaVuSans"
	BuiltinName = "GoRegular"

	SystemPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
)

// ErrNoFont 表示字体链中没有任何一级可用。
var ErrNoFont = errors.New("fonts: 没有可用的字体")

// Font 是一份可注册到渲染后端的 TrueType 字体。
type Font struct {
	Name   string // 注册名，渲染与度量时按此名称查找
	Family string // 字体文件中记录的字族名
	Origin string // 来源：文件路径或 builtin:*
	Data   []byte
}

// Source 是字体回退链中的一级，Probe 失败时尝试下一级。
type Source struct {
	Name  string
	Probe func() (Font, error)
}

// Registrar 把字体注册到渲染后端；无法解析的字体应返回错误。
type Registrar interface {
	Register(font Font) error
}

// FileSource 从磁盘读取 TrueType 字体。
func FileSource(name, path string) Source {
	return Source{
		Name: name,
		Probe: func() (Font, error) {
			if path == "" {
				return Font{}, fmt.Errorf("字体 %s 未配置路径", name)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return Font{}, fmt.Errorf("读取字体 %s 失败: %w", path, err)
			}
			return parse(name, path, data)
		},
	}
}

// BytesSource 使用内存中的字体数据。
func BytesSource(name, origin string, data []byte) Source {
	return Source{
		Name: name,
		Probe: func() (Font, error) {
			return parse(name, origin, data)
		},
	}
}

// BuiltinSource 返回内置的 Go Regular 字体，作为最后一级保底。
func BuiltinSource() Source {
	return BytesSource(BuiltinName, "builtin:goregular", goregular.TTF)
}

// Builtin 直接返回内置字体。
func Builtin() Font {
	f, err := BuiltinSource().Probe()
	if err != nil {
		panic(err)
	}
	return f
}

// DefaultChain 返回三级字体链：用户字体 → 系统 DejaVuSans → 内置字体。
func DefaultChain(customPath string) []Source {
	return []Source{
		FileSource(CustomName, customPath),
		FileSource(SystemName, SystemPath),
		BuiltinSource(),
	}
}

// Select 依次探测并注册字体，第一个成功者胜出；失败只记录日志，不向上抛出。
func Select(sources []Source, reg Registrar, logger *slog.Logger) (Font, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, src := range sources {
		if src.Probe == nil {
			continue
		}
		font, err := src.Probe()
		if err != nil {
			logger.Warn("font source unavailable", "source", src.Name, "error", err)
			continue
		}
		if reg != nil {
			if err := reg.Register(font); err != nil {
				logger.Warn("font registration failed", "source", src.Name, "origin", font.Origin, "error", err)
				continue
			}
		}
		logger.Info("font selected", "name", font.Name, "family", font.Family, "origin", font.Origin)
		return font, nil
	}
	return Font{}, ErrNoFont
}

// parse 校验字体数据并读取字族名。
func parse(name, origin string, data []byte) (Font, error) {
	if len(data) == 0 {
		return Font{}, fmt.Errorf("字体 %s 数据为空", origin)
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return Font{}, fmt.Errorf("解析字体 %s 失败: %w", origin, err)
	}
	family, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		family = name
	}
	return Font{Name: name, Family: family, Origin: origin, Data: data}, nil
}
