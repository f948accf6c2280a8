package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/internal/domain/repository"
)

// JobRepository 生成任务仓储的 GORM 实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

// Create 持久化一条新任务
func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询任务，不存在时返回 nil
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	var job entity.GenerationJob
	err := getDB(ctx, r.client.db).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// Update 整行覆盖保存任务
func (r *JobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// Delete 按 ID 删除任务
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Delete")
	defer span.End()

	if err := getDB(ctx, r.client.db).Delete(&entity.GenerationJob{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// applyJobFilter 把过滤条件拼到查询上
func applyJobFilter(query *gorm.DB, filter *repository.JobFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.JobType != "" {
		query = query.Where("job_type = ?", filter.JobType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DeckID != "" {
		query = query.Where("deck_id = ?", filter.DeckID)
	}
	return query
}

// List 按过滤条件分页查询任务，按创建时间倒序
func (r *JobRepository) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.List")
	defer span.End()

	query := applyJobFilter(getDB(ctx, r.client.db).Model(&entity.GenerationJob{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	var jobs []*entity.GenerationJob
	err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&jobs).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return repository.NewPagedResult(jobs, total, pagination), nil
}

// updateByID 对单条任务执行部分字段更新
func (r *JobRepository) updateByID(ctx context.Context, id string, fields map[string]interface{}) error {
	return getDB(ctx, r.client.db).
		Model(&entity.GenerationJob{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// MarkRunning 标记任务为运行中并记录开始时间
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.MarkRunning")
	defer span.End()

	err := r.updateByID(ctx, id, map[string]interface{}{
		"status":     entity.JobStatusRunning,
		"started_at": time.Now(),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("mark job running: %w", err)
	}
	return nil
}

// UpdateProgress 更新任务进度，message 非空时一并更新进度文案
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.UpdateProgress")
	defer span.End()

	fields := map[string]interface{}{"progress": progress}
	if message != "" {
		fields["message"] = message
	}
	if err := r.updateByID(ctx, id, fields); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// SetResult 写入任务结果或错误
// errMsg 非空时任务标记失败，否则写入 result 并标记完成。
func (r *JobRepository) SetResult(ctx context.Context, id string, result []byte, errMsg string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.SetResult")
	defer span.End()

	fields := map[string]interface{}{"completed_at": time.Now()}
	if errMsg != "" {
		fields["status"] = entity.JobStatusFailed
		fields["error_message"] = errMsg
	} else {
		fields["status"] = entity.JobStatusCompleted
		fields["output_result"] = result
		fields["progress"] = 100
	}

	if err := r.updateByID(ctx, id, fields); err != nil {
		span.RecordError(err)
		return fmt.Errorf("set job result: %w", err)
	}
	return nil
}

// GetPendingJobs 按创建顺序取待处理任务
func (r *JobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetPendingJobs")
	defer span.End()

	var jobs []*entity.GenerationJob
	err := getDB(ctx, r.client.db).
		Where("status = ?", entity.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get pending jobs: %w", err)
	}
	return jobs, nil
}

// GetJobStats 单条聚合查询统计各状态任务数与 token 总量
func (r *JobRepository) GetJobStats(ctx context.Context) (*repository.JobStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetJobStats")
	defer span.End()

	stats := &repository.JobStats{}
	row := getDB(ctx, r.client.db).Model(&entity.GenerationJob{}).Select(
		"COUNT(*) AS total_jobs, " +
			"COUNT(*) FILTER (WHERE status = 'pending') AS pending_jobs, " +
			"COUNT(*) FILTER (WHERE status = 'running') AS running_jobs, " +
			"COUNT(*) FILTER (WHERE status = 'completed') AS completed_jobs, " +
			"COUNT(*) FILTER (WHERE status = 'failed') AS failed_jobs, " +
			"COALESCE(SUM(tokens_prompt + tokens_complete), 0) AS total_tokens_used",
	).Row()
	if err := row.Scan(
		&stats.TotalJobs, &stats.PendingJobs, &stats.RunningJobs,
		&stats.CompletedJobs, &stats.FailedJobs, &stats.TotalTokensUsed,
	); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get job stats: %w", err)
	}
	return stats, nil
}
