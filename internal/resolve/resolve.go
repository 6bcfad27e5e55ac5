package resolve

import (
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/MFF/internal/domain"
	"github.com/John-Robertt/MFF/internal/metadata"
)

// metaTimeLayouts 是元数据时间字符串的候选格式（按序尝试，首个成功即止）。
// 列表是数据而不是分支：新增来源格式只需要追加一行。
var metaTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006/01/02 15:04:05.999999",
}

// minPlausibleYear 之前的年份视为不可信元数据（个别手机 APP 会写出
// 1904/1970 这类值），直接回退到 mtime。
const minPlausibleYear = 2000

// 文件名约定的前缀表。
var (
	// 移动端导出名：尾部数字段编码毫秒级 Unix 时间戳。
	mobileExportPrefixes = []string{"mmexport", "wx_camera"}
	// 已整理过的名：IMG_/VID_ + "YYYYMMDD_HHMMSS"。
	processedPrefixes = []string{"IMG_", "VID_"}
)

const processedStemLayout = "20060102_150405"

// Resolver 为 MediaFile 决定权威创建时间。
//
// 回退链（固定顺序）：元数据时间字段 → 文件名约定 → mtime。
// Resolve 是全函数：任何输入都会得到一个时间，mtime 兜底保证不失败。
type Resolver struct {
	Meta metadata.Extractor
}

// Resolve 返回文件的创建时间。
//
// 第二个返回值是非致命警告（元数据提取失败时非 nil）：时间值始终有效，
// 调用方只负责把警告转发给日志/进度层，不得据此中断该文件。
//
// 分支语义：
//  1. 元数据可用且含时间字段（Date-time original 优先于 Creation date）：
//     按格式列表解析；解析失败或年份 < 2000 直接回退 mtime（不再试文件名）。
//  2. 无元数据 / 提取失败 / 两个目标字段都缺失：尝试文件名约定。
//  3. mtime 兜底（文件已 stat 过，不会失败）。
func (r Resolver) Resolve(f domain.MediaFile) (time.Time, error) {
	fields, ok, warn := r.Meta.Extract(f.AbsPath)
	if ok {
		s := fields[metadata.KeyDateTimeOriginal]
		if s == "" {
			s = fields[metadata.KeyCreationDate]
		}
		if s != "" {
			if t, ok := ParseMetaTime(s); ok && t.Year() >= minPlausibleYear {
				return t, nil
			}
			return mtime(f), nil
		}
	}

	if t, ok := fromStem(f.Stem); ok {
		return t, warn
	}
	return mtime(f), warn
}

// ParseMetaTime 按 metaTimeLayouts 逐个尝试解析元数据时间字符串。
func ParseMetaTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range metaTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromStem 从文件名约定中恢复创建时间。
func fromStem(stem string) (time.Time, bool) {
	for _, p := range mobileExportPrefixes {
		if strings.HasPrefix(stem, p) {
			return fromEpochMillisStem(stem)
		}
	}

	for _, p := range processedPrefixes {
		if strings.HasPrefix(stem, p) && len(stem) >= 19 {
			if t, err := time.Parse(processedStemLayout, stem[4:19]); err == nil {
				return t, true
			}
			return time.Time{}, false
		}
	}

	return time.Time{}, false
}

// fromEpochMillisStem 取 stem 尾部连续数字段，按毫秒级 Unix 时间戳解释。
//
// 注意：不能固定截取尾部 12 个字符——2001 年之后的毫秒时间戳已经是 13 位，
// 固定截取会丢掉首位、把时间错算到几十年前。数字段不足 12 位或非纯数字
// 视为不匹配，交给 mtime 兜底。
func fromEpochMillisStem(stem string) (time.Time, bool) {
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	digits := stem[i:]
	if len(digits) < 12 {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func mtime(f domain.MediaFile) time.Time {
	return time.Unix(f.ModUnix, 0)
}
