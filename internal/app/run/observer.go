package run

import (
	"time"

	"github.com/John-Robertt/MFF/internal/config"
	"github.com/John-Robertt/MFF/internal/domain"
)

// Observer 用于把"运行进度/阶段/单文件结果"从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（由 CLI 决定如何展示）。
// - 事件全部由收集循环单线程触发，但实现仍应并发安全（便于复用）。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束/就绪时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnWarn 在单个文件产生非致命警告时调用（例如元数据提取失败）。
	// 该文件随后仍会产生一次 OnFileDone；警告不进入统计。
	OnWarn(f domain.MediaFile, err error)
	// OnFileDone 在单个文件处理完成时调用；err 非 nil 表示该文件任务失败。
	OnFileDone(idx, total int, f domain.MediaFile, out domain.PlacementOutcome, err error, dur time.Duration)
}
