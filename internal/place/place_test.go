package place

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/MFF/internal/domain"
)

func TestPlace_MovedIntoFreeSlot(t *testing.T) {
	src, dstDir := setup(t, "content-a")

	out, err := Place(src, dstDir, "IMG_20220301_100000.jpg")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if out.Kind != domain.OutcomeMoved {
		t.Fatalf("期望 moved，实际 %q", out.Kind)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("源文件应已被移走：%v", err)
	}
	assertContent(t, filepath.Join(dstDir, "IMG_20220301_100000.jpg"), "content-a")
}

func TestPlace_DuplicateRemoved(t *testing.T) {
	src, dstDir := setup(t, "same-bytes")
	dst := filepath.Join(dstDir, "IMG_20220301_100000.jpg")
	write(t, dst, "same-bytes")

	out, err := Place(src, dstDir, "IMG_20220301_100000.jpg")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if out.Kind != domain.OutcomeDuplicateRemoved {
		t.Fatalf("期望 duplicate_removed，实际 %q", out.Kind)
	}
	if out.Src != src {
		t.Fatalf("Src 应为被删除的源文件：%q", out.Src)
	}

	// 恰好保留一份：目的文件还在，源文件被删。
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("重复源文件应被删除：%v", err)
	}
	assertContent(t, dst, "same-bytes")

	entries, err := os.ReadDir(dstDir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("目的目录应恰有 1 个文件，实际 %d", len(entries))
	}
}

func TestPlace_CollisionSuffixChainNoGaps(t *testing.T) {
	// N 个内容两两不同、目的名相同的文件：一个占裸名，
	// 其余依次占 _1.._{N-1}，无空洞、无覆盖。
	root := t.TempDir()
	dstDir := filepath.Join(root, "PHOTO_20220301")

	const n = 5
	for i := 0; i < n; i++ {
		src := filepath.Join(root, fmt.Sprintf("src%d.jpg", i))
		write(t, src, fmt.Sprintf("unique-content-%d", i))
		out, err := Place(src, dstDir, "IMG_20220301_100000.jpg")
		if err != nil {
			t.Fatalf("第 %d 个文件不期望错误：%v", i, err)
		}
		if i == 0 && out.Kind != domain.OutcomeMoved {
			t.Fatalf("第一个文件期望 moved，实际 %q", out.Kind)
		}
		if i > 0 {
			if out.Kind != domain.OutcomeMovedWithSuffix {
				t.Fatalf("第 %d 个文件期望 moved_with_suffix，实际 %q", i, out.Kind)
			}
			if out.Seq != i {
				t.Fatalf("第 %d 个文件期望序号 %d，实际 %d", i, i, out.Seq)
			}
		}
	}

	wantNames := []string{"IMG_20220301_100000.jpg"}
	for i := 1; i < n; i++ {
		wantNames = append(wantNames, fmt.Sprintf("IMG_20220301_100000_%d.jpg", i))
	}
	for _, name := range wantNames {
		if _, err := os.Stat(filepath.Join(dstDir, name)); err != nil {
			t.Fatalf("期望存在 %q：%v", name, err)
		}
	}

	entries, err := os.ReadDir(dstDir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != n {
		t.Fatalf("期望恰好 %d 个文件（无覆盖），实际 %d", n, len(entries))
	}
}

func TestPlace_DuplicateInsideSuffixChain(t *testing.T) {
	root := t.TempDir()
	dstDir := filepath.Join(root, "PHOTO_20220301")

	write(t, filepath.Join(root, "a.jpg"), "first")
	write(t, filepath.Join(root, "b.jpg"), "second")
	write(t, filepath.Join(root, "c.jpg"), "second") // 与 b 内容一致

	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := Place(filepath.Join(root, name), dstDir, "IMG_20220301_100000.jpg"); err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
	}

	out, err := Place(filepath.Join(root, "c.jpg"), dstDir, "IMG_20220301_100000.jpg")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if out.Kind != domain.OutcomeDuplicateRemoved {
		t.Fatalf("期望 duplicate_removed（命中 _1），实际 %q", out.Kind)
	}

	entries, err := os.ReadDir(dstDir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("期望 2 个文件，实际 %d", len(entries))
	}
}

func TestPlace_ExhaustedSuffixSpace(t *testing.T) {
	old := maxSuffixProbes
	maxSuffixProbes = 2
	defer func() { maxSuffixProbes = old }()

	root := t.TempDir()
	dstDir := filepath.Join(root, "PHOTO_20220301")
	write(t, filepath.Join(dstDir, "IMG_20220301_100000.jpg"), "occupied-0")
	write(t, filepath.Join(dstDir, "IMG_20220301_100000_1.jpg"), "occupied-1")
	write(t, filepath.Join(dstDir, "IMG_20220301_100000_2.jpg"), "occupied-2")

	src := filepath.Join(root, "src.jpg")
	write(t, src, "different")

	_, err := Place(src, dstDir, "IMG_20220301_100000.jpg")
	if err == nil {
		t.Fatalf("期望 ExhaustedError，但得到 nil")
	}
	var ee *ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("期望 ExhaustedError，实际：%T %v", err, err)
	}
	// 失败不破坏现场：源文件仍在。
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("源文件不应被移动/删除：%v", err)
	}
}

func TestPlace_SuffixLowercasedInProbes(t *testing.T) {
	root := t.TempDir()
	dstDir := filepath.Join(root, "PHOTO_20220301")
	write(t, filepath.Join(dstDir, "IMG_20220301_100000.jpg"), "occupied")

	src := filepath.Join(root, "src.jpg")
	write(t, src, "different")

	out, err := Place(src, dstDir, "IMG_20220301_100000.jpg")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if filepath.Base(out.Dst) != "IMG_20220301_100000_1.jpg" {
		t.Fatalf("候选名应为小写后缀：%q", out.Dst)
	}
}

func setup(t *testing.T, content string) (src, dstDir string) {
	t.Helper()
	root := t.TempDir()
	src = filepath.Join(root, "src.jpg")
	write(t, src, content)
	return src, filepath.Join(root, "PHOTO_20220301")
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func assertContent(t *testing.T, path, want string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取 %q 失败：%v", path, err)
	}
	if string(b) != want {
		t.Fatalf("%q 内容期望 %q，实际 %q", path, want, string(b))
	}
}
