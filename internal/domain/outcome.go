package domain

// OutcomeKind 是单个文件落位的终态。每个文件只产生一次，产生后不再修订。
type OutcomeKind string

const (
	// OutcomeMoved 表示目标槽位空闲，源文件被直接重命名到规范目的路径。
	OutcomeMoved OutcomeKind = "moved"
	// OutcomeMovedWithSuffix 表示规范名被占用，源文件落到了带序号的候选名上。
	OutcomeMovedWithSuffix OutcomeKind = "moved_with_suffix"
	// OutcomeDuplicateRemoved 表示目的路径上已有内容完全一致的文件，源文件被删除。
	OutcomeDuplicateRemoved OutcomeKind = "duplicate_removed"
)

// PlacementOutcome 描述一个文件经过落位/去重引擎后的结果。
type PlacementOutcome struct {
	Kind OutcomeKind
	// Seq 仅在 moved_with_suffix 时有意义：候选名序号 n（从 1 开始）。
	Seq int
	// Src 仅在 duplicate_removed 时有意义：被删除的源文件绝对路径。
	Src string
	// Dst 是实际落点的绝对路径；duplicate_removed 时为已存在的等价文件。
	Dst string
}
