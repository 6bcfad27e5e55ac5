package domain

import (
	"sort"
	"time"
)

// FileFailure 记录单个文件任务的不可恢复错误（例如落位阶段的文件系统错误）。
// 单文件失败不影响其他文件；只有已完成步骤的计数会被累加。
type FileFailure struct {
	Src      string `json:"src"`
	ErrorMsg string `json:"error_msg"`
}

// StatsReport 是一次运行的聚合统计（--report 时同时作为 JSON 输出结构）。
//
// 生命周期：运行开始时创建，收集循环独占全部写入，结束后 Finalize 一次，
// 此后只读。
type StatsReport struct {
	Total  int `json:"total"`
	Images int `json:"images"`
	Videos int `json:"videos"`

	NameDuplicated      int      `json:"name_duplicated"`
	NameDuplicatedPaths []string `json:"name_duplicated_paths"`

	DuplicateRemoved      int      `json:"duplicate_removed"`
	DuplicateRemovedPaths []string `json:"duplicate_removed_paths"`

	Failed []FileFailure `json:"failed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 列表稳定排序，消除 worker 完成顺序带来的不确定性
func (r *StatsReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.Strings(r.NameDuplicatedPaths)
	sort.Strings(r.DuplicateRemovedPaths)
	sort.Slice(r.Failed, func(i, j int) bool { return r.Failed[i].Src < r.Failed[j].Src })
}
