package domain

// Category 是媒体文件的类别（由后缀名唯一决定）。
type Category string

const (
	CategoryImage       Category = "image"
	CategoryVideo       Category = "video"
	CategoryUnsupported Category = "unsupported"
)

// 支持的后缀白名单（全小写）。与类别一一对应：不在表内即 unsupported。
var (
	imageSuffixes = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {},
	}
	videoSuffixes = map[string]struct{}{
		".mp4": {}, ".mov": {}, ".avi": {}, ".dng": {}, ".mp3": {}, ".wmv": {}, ".3gp": {},
	}
)

// Classify 按小写后缀名（含点，如 ".jpg"）返回类别。
// 调用方负责先把后缀转为小写；传入非小写后缀会被判为 unsupported。
func Classify(suffix string) Category {
	if _, ok := imageSuffixes[suffix]; ok {
		return CategoryImage
	}
	if _, ok := videoSuffixes[suffix]; ok {
		return CategoryVideo
	}
	return CategoryUnsupported
}

// MediaFile 描述一次扫描得到的媒体文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Suffix 为小写（含点）；Category 与 Suffix 一致且分类后不再变化
// - 扫描阶段只做 stat，不读文件内容
type MediaFile struct {
	AbsPath  string
	RelPath  string
	Stem     string // 不含后缀的文件名
	Suffix   string // ".jpg"（小写）
	Category Category
	Size     int64
	ModUnix  int64
}
