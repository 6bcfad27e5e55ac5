package run

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/John-Robertt/MFF/internal/config"
	"github.com/John-Robertt/MFF/internal/domain"
	"github.com/John-Robertt/MFF/internal/metadata"
	"github.com/John-Robertt/MFF/internal/naming"
	"github.com/John-Robertt/MFF/internal/place"
	"github.com/John-Robertt/MFF/internal/resolve"
	"github.com/John-Robertt/MFF/internal/scan"
)

// EmptySourceError 表示源目录为空或没有任何支持的媒体文件（对应退出码 2）。
// 此时尚未提交任何任务，文件系统没有发生任何变化。
type EmptySourceError struct {
	Dir string
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("源目录 %q 为空，或者没有支持的媒体文件", e.Dir)
}

// Execute 执行一次整理，返回聚合统计。
//
// 错误语义：
// - 扫描失败 / 空源目录：整体错误返回（此时没有任何落位发生）
// - 单文件失败（元数据/文件系统）：降级进 report.Failed，不中断其他文件
func Execute(ctx context.Context, eff config.EffectiveConfig, meta metadata.Extractor) (domain.StatsReport, error) {
	return ExecuteWithObserver(ctx, eff, meta, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, meta metadata.Extractor, obs Observer) (domain.StatsReport, error) {
	started := time.Now()

	if obs != nil {
		obs.OnStart(eff)
	}

	// 目的目录若嵌套在源目录之下，必须排除，否则第二遍扫描会把已落位
	// 的文件再吃进来。
	excludeDirs := append(append([]string(nil), eff.ExcludeDirs...), eff.Output)

	scanStarted := time.Now()
	files, err := scan.ScanMedia(eff.Input, excludeDirs)
	if err != nil {
		return domain.StatsReport{}, fmt.Errorf("扫描失败：%w", err)
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, time.Since(scanStarted))
	}
	if len(files) == 0 {
		return domain.StatsReport{}, &EmptySourceError{Dir: eff.Input}
	}

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers":     workers,
			"total_files": len(files),
		}, 0)
	}

	rep := domain.StatsReport{
		Total:                 len(files),
		NameDuplicatedPaths:   []string{},
		DuplicateRemovedPaths: []string{},
		Failed:                []domain.FileFailure{},
		StartedAt:             started.UTC(),
	}

	resolver := resolve.Resolver{Meta: meta}

	type fileResult struct {
		file domain.MediaFile
		out  domain.PlacementOutcome
		warn error
		err  error
		dur  time.Duration
	}

	jobs := make(chan domain.MediaFile)
	results := make(chan fileResult, len(files))

	// 每个文件的完整流水线（resolve → name → place）在同一个 worker 内
	// 完成；完成顺序不保证。worker 不碰任何共享可变状态。
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				oneStarted := time.Now()
				ts, warn := resolver.Resolve(f)
				key := naming.For(f.Category, ts, f.Suffix)
				out, err := place.Place(f.AbsPath, filepath.Join(eff.Output, key.Dir), key.Name)
				results <- fileResult{
					file: f,
					out:  out,
					warn: warn,
					err:  err,
					dur:  time.Since(oneStarted),
				}
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// 收集循环独占全部统计写入：worker 只发消息，消除调用点的显式锁。
	done := 0
	for r := range results {
		done++
		foldOutcome(&rep, r.file, r.out, r.err)
		if obs != nil {
			if r.warn != nil {
				obs.OnWarn(r.file, r.warn)
			}
			obs.OnFileDone(done, len(files), r.file, r.out, r.err, r.dur)
		}
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return rep, nil
}

// foldOutcome 把单个文件的结果折叠进统计。
// 只累加已完成步骤：失败的文件不进任何类别计数。
func foldOutcome(rep *domain.StatsReport, f domain.MediaFile, out domain.PlacementOutcome, err error) {
	if err != nil {
		rep.Failed = append(rep.Failed, domain.FileFailure{
			Src:      f.AbsPath,
			ErrorMsg: err.Error(),
		})
		return
	}

	switch out.Kind {
	case domain.OutcomeMoved, domain.OutcomeMovedWithSuffix:
		switch f.Category {
		case domain.CategoryImage:
			rep.Images++
		case domain.CategoryVideo:
			rep.Videos++
		}
		if out.Kind == domain.OutcomeMovedWithSuffix {
			rep.NameDuplicated++
			rep.NameDuplicatedPaths = append(rep.NameDuplicatedPaths, out.Dst)
		}
	case domain.OutcomeDuplicateRemoved:
		rep.DuplicateRemoved++
		rep.DuplicateRemovedPaths = append(rep.DuplicateRemovedPaths, out.Src)
	}
}
