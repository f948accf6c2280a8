// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"neura-deck-api/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	JobType entity.JobType
	Status  entity.JobStatus
	DeckID  string
}

// JobRepository 生成任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.GenerationJob) error

	// Delete 删除任务
	Delete(ctx context.Context, id string) error

	// List 获取任务列表
	List(ctx context.Context, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.GenerationJob], error)

	// MarkRunning 标记任务开始执行
	MarkRunning(ctx context.Context, id string) error

	// UpdateProgress 更新任务进度（0-100）与进度文案
	UpdateProgress(ctx context.Context, id string, progress int, message string) error

	// SetResult 写入任务结果或错误
	SetResult(ctx context.Context, id string, result []byte, errMsg string) error

	// GetPendingJobs 获取待处理任务
	GetPendingJobs(ctx context.Context, limit int) ([]*entity.GenerationJob, error)

	// GetJobStats 获取任务统计信息
	GetJobStats(ctx context.Context) (*JobStats, error)
}

// JobStats 任务统计信息
type JobStats struct {
	TotalJobs       int64 `json:"total_jobs"`
	PendingJobs     int64 `json:"pending_jobs"`
	RunningJobs     int64 `json:"running_jobs"`
	CompletedJobs   int64 `json:"completed_jobs"`
	FailedJobs      int64 `json:"failed_jobs"`
	TotalTokensUsed int64 `json:"total_tokens_used"`
}
