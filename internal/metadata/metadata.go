package metadata

import (
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Fields 是从媒体文件中提取的扁平元数据键值对。
// 提取后不再修改；下游每个文件只消费一次。
type Fields map[string]string

// 下游唯一关心的两个键。两者都可能缺失。
const (
	KeyDateTimeOriginal = "Date-time original"
	KeyCreationDate     = "Creation date"
)

// Extractor 抽象"从文件中提取元数据"的能力。
//
// 约束：
// - err 非 nil 表示提取失败（读文件失败等）：调用方按单文件警告处理，
//   继续后续回退，不允许 panic 或中断运行
// - ok=false 且 err=nil 表示文件没有可识别的元数据（正常情形，不警告）
// - ok=true 时返回的 map 可能不含任何目标键（有元数据但没有时间字段）
//
// 测试可用 fixture map 实现该接口；生产实现见 Exif。
type Extractor interface {
	Extract(path string) (Fields, bool, error)
}

// Exif 是基于 goexif 的 Extractor 实现。
//
// 时间类标签统一规范化为 "YYYY-MM-DD HH:MM:SS" 文本形式
// （EXIF 原始形式的日期段用冒号分隔，下游的格式列表不认识它）。
type Exif struct{}

var _ Extractor = Exif{}

func (Exif) Extract(path string) (Fields, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// goexif 无法区分"没有 EXIF 段"与"EXIF 段损坏"，两者都以解码错误
		// 出现；视频/PNG 等不含 EXIF 的文件走这条路是常态，按"无元数据"
		// 处理。只有读文件本身的错误才值得警告。
		return nil, false, nil
	}

	fields := Fields{}
	if s, ok := tagString(x, exif.DateTimeOriginal); ok {
		fields[KeyDateTimeOriginal] = normalizeDateTag(s)
	}
	if s, ok := tagString(x, exif.DateTimeDigitized); ok {
		fields[KeyCreationDate] = normalizeDateTag(s)
	} else if s, ok := tagString(x, exif.DateTime); ok {
		fields[KeyCreationDate] = normalizeDateTag(s)
	}

	// 解码成功但没有时间字段：仍算"有元数据"，由解析层决定回退策略。
	return fields, true, nil
}

func tagString(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// normalizeDateTag 把 EXIF 的 "2006:01:02 15:04:05" 日期段改写为短横线形式。
// 已经是短横线/斜线形式的输入原样返回。
func normalizeDateTag(s string) string {
	if len(s) < 10 {
		return s
	}
	head := s[:10]
	if strings.Count(head, ":") == 2 {
		head = strings.ReplaceAll(head, ":", "-")
	}
	return head + s[10:]
}
