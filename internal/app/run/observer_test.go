package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/MFF/internal/config"
	"github.com/John-Robertt/MFF/internal/domain"
)

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	warns      []string
	files      []string
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnWarn(f domain.MediaFile, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warns = append(o.warns, f.RelPath)
}

func (o *recordObserver) OnFileDone(idx, total int, f domain.MediaFile, out domain.PlacementOutcome, err error, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = append(o.files, f.RelPath)
}

func TestExecuteWithObserver_Events(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	writeFile(t, filepath.Join(in, "a.jpg"), "aaa")
	writeFile(t, filepath.Join(in, "b.jpg"), "bbb")

	obs := &recordObserver{}
	rep, err := ExecuteWithObserver(context.Background(), config.EffectiveConfig{
		Input:       in,
		Output:      out,
		Concurrency: 1,
	}, stubMeta{}, obs)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if rep.Total != 2 {
		t.Fatalf("期望 total=2，实际 %d", rep.Total)
	}

	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 恰好 1 次，实际 %d", obs.startCalls)
	}
	if !reflect.DeepEqual(obs.phases, []string{"scan", "exec"}) {
		t.Fatalf("阶段事件顺序错误：%v", obs.phases)
	}
	if len(obs.files) != 2 {
		t.Fatalf("期望 2 个文件事件，实际 %d", len(obs.files))
	}
	if len(obs.warns) != 0 {
		t.Fatalf("不期望警告事件：%v", obs.warns)
	}
}

func TestExecuteWithObserver_MetadataFailureWarnsNotFails(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	p := filepath.Join(in, "broken.jpg")
	writeFile(t, p, "aaa")
	mod := time.Date(2022, 3, 1, 10, 0, 0, 0, time.Local)
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatalf("Chtimes 失败：%v", err)
	}
	writeFile(t, filepath.Join(in, "plain.jpg"), "bbb")

	meta := failingMeta{base: "broken.jpg", err: errors.New("读取文件失败")}
	obs := &recordObserver{}
	rep, err := ExecuteWithObserver(context.Background(), config.EffectiveConfig{
		Input:       in,
		Output:      out,
		Concurrency: 1,
	}, meta, obs)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	// 提取失败只是警告：文件照常按 mtime 落位，不进失败列表。
	if len(obs.warns) != 1 || obs.warns[0] != "broken.jpg" {
		t.Fatalf("期望 broken.jpg 恰好 1 条警告，实际 %v", obs.warns)
	}
	if len(rep.Failed) != 0 {
		t.Fatalf("警告不应计为失败：%+v", rep.Failed)
	}
	if rep.Images != 2 {
		t.Fatalf("期望两个文件都落位：%+v", rep)
	}
	want := filepath.Join(out, "PHOTO_20220301", "IMG_20220301_100000.jpg")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("期望 %q 存在：%v", want, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
