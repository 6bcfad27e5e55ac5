package naming

import (
	"strings"
	"time"

	"github.com/John-Robertt/MFF/internal/domain"
)

// Key 是规范目的地：目录名 + 文件名。
// 纯函数派生：相同 (category, timestamp, suffix) 必然得到相同 Key。
type Key struct {
	Dir  string
	Name string
}

// unknownPlaceholder 是防御性兜底：unsupported 类别在上游已被过滤，
// 正常流程不可能走到；真走到也不会产出空名。
const unknownPlaceholder = "UNKNOWN"

// For 由类别、创建时间与后缀名计算规范目的地。
//
// - 图片：PHOTO_{YYYYMMDD} / IMG_{YYYYMMDD_HHMMSS}{suffix}
// - 视频：VIDEO_{YYYYMMDD} / VID_{YYYYMMDD_HHMMSS}{suffix}
// - 日期取本地日历日，不做 UTC 归一；后缀统一小写。
func For(cat domain.Category, t time.Time, suffix string) Key {
	date := t.Format("20060102")
	clock := t.Format("20060102_150405")
	suffix = strings.ToLower(suffix)

	switch cat {
	case domain.CategoryImage:
		return Key{Dir: "PHOTO_" + date, Name: "IMG_" + clock + suffix}
	case domain.CategoryVideo:
		return Key{Dir: "VIDEO_" + date, Name: "VID_" + clock + suffix}
	default:
		return Key{Dir: unknownPlaceholder, Name: unknownPlaceholder}
	}
}
