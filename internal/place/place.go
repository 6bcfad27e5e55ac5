package place

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"

	"github.com/John-Robertt/MFF/internal/domain"
	"github.com/John-Robertt/MFF/internal/infra/fsx"
)

// maxSuffixProbes 是碰撞序号探测的上限。原则上序号空间不可能被试穿，
// 上限只是防御：超过即判该文件任务失败，而不是无限循环。
// var 而非 const：测试需要把它压小来触发 ExhaustedError。
var maxSuffixProbes = 10000

// ExhaustedError 表示碰撞序号空间被试穿（防御性上限触发）。
type ExhaustedError struct {
	Dir  string
	Name string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("碰撞序号空间已用尽（%d 次探测）：%s/%s", maxSuffixProbes, e.Dir, e.Name)
}

// Place 把 srcAbs 落位到 dstDir/dstName，处理命名碰撞与内容去重。
//
// 算法（与统计解耦，只返回结果，不碰任何共享状态）：
//  1. 确保 dstDir 存在（只建最后一级）
//  2. 槽位空闲 → rename，结果 moved
//  3. 槽位被内容一致的文件占用 → 删除源文件，结果 duplicate_removed
//  4. 否则依次探测 {stem}_{1}{suffix}、{stem}_{2}{suffix}…：
//     空槽位 → rename（moved_with_suffix）；内容一致 → 删源（duplicate_removed）
//
// 内容一致性 = 全文件读入后的 blake3 摘要相等（仅作内容判等，不是安全边界）。
// 文件系统错误（权限、磁盘满等）原样返回，由调用方按单文件失败处理。
func Place(srcAbs, dstDir, dstName string) (domain.PlacementOutcome, error) {
	if err := fsx.EnsureLeafDir(dstDir); err != nil {
		return domain.PlacementOutcome{}, err
	}

	// 探测与 rename 之间存在时间窗：两个 worker 的源文件若解析到同一槽位，
	// 后到者可能覆盖先到者。与原有的存在性探测模型保持一致，不加目录级锁。
	dst := filepath.Join(dstDir, dstName)
	occupied, err := regularFileExists(dst)
	if err != nil {
		return domain.PlacementOutcome{}, err
	}

	if !occupied {
		if err := fsx.Rename(srcAbs, dst); err != nil {
			return domain.PlacementOutcome{}, err
		}
		return domain.PlacementOutcome{Kind: domain.OutcomeMoved, Dst: dst}, nil
	}

	same, err := sameContent(srcAbs, dst)
	if err != nil {
		return domain.PlacementOutcome{}, err
	}
	if same {
		if err := os.Remove(srcAbs); err != nil {
			return domain.PlacementOutcome{}, err
		}
		return domain.PlacementOutcome{Kind: domain.OutcomeDuplicateRemoved, Src: srcAbs, Dst: dst}, nil
	}

	// 命名碰撞且内容不同：序号探测，直到空槽位或内容命中。
	ext := filepath.Ext(dstName)
	stem := strings.TrimSuffix(dstName, ext)
	ext = strings.ToLower(ext)

	for n := 1; n <= maxSuffixProbes; n++ {
		cand := filepath.Join(dstDir, fmt.Sprintf("%s_%d%s", stem, n, ext))

		occupied, err := regularFileExists(cand)
		if err != nil {
			return domain.PlacementOutcome{}, err
		}
		if !occupied {
			if err := fsx.Rename(srcAbs, cand); err != nil {
				return domain.PlacementOutcome{}, err
			}
			return domain.PlacementOutcome{Kind: domain.OutcomeMovedWithSuffix, Seq: n, Dst: cand}, nil
		}

		same, err := sameContent(srcAbs, cand)
		if err != nil {
			return domain.PlacementOutcome{}, err
		}
		if same {
			if err := os.Remove(srcAbs); err != nil {
				return domain.PlacementOutcome{}, err
			}
			return domain.PlacementOutcome{Kind: domain.OutcomeDuplicateRemoved, Src: srcAbs, Dst: cand}, nil
		}
	}

	return domain.PlacementOutcome{}, &ExhaustedError{Dir: dstDir, Name: dstName}
}

func regularFileExists(path string) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !fi.Mode().IsRegular() {
		return false, &fsx.PathTypeConflictError{Path: path, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	return true, nil
}

// sameContent 全量读取两个文件并比较 blake3 摘要。
// 摘要碰撞概率按可忽略处理（仅内容判等，不对抗恶意构造）。
func sameContent(a, b string) (bool, error) {
	ha, err := fileDigest(a)
	if err != nil {
		return false, err
	}
	hb, err := fileDigest(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha[:], hb[:]), nil
}

func fileDigest(path string) ([32]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(b), nil
}
