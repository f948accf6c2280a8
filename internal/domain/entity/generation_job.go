package entity

import (
	"encoding/json"
	"time"
)

// JobType 任务类型
type JobType string

const (
	JobTypeDeckGen JobType = "deck_gen"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// GenerationJob 异步生成任务，记录执行进度与 LLM 用量。
// Message 为面向前端轮询的进度描述文案。
type GenerationJob struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid"`
	DeckID         string          `json:"deck_id"`
	JobType        JobType         `json:"job_type"`
	Status         JobStatus       `json:"status"`
	Message        string          `json:"message"`
	InputParams    json.RawMessage `json:"input_params" gorm:"type:jsonb"`
	OutputResult   json.RawMessage `json:"output_result,omitempty" gorm:"type:jsonb"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	LLMProvider    string          `json:"llm_provider,omitempty"`
	LLMModel       string          `json:"llm_model,omitempty"`
	TokensPrompt   int             `json:"tokens_prompt,omitempty"`
	TokensComplete int             `json:"tokens_completion,omitempty"`
	DurationMs     int             `json:"duration_ms,omitempty"`
	RetryCount     int             `json:"retry_count"`
	Progress       int             `json:"progress"` // 0-100
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// NewGenerationJob 创建处于待执行状态的任务
func NewGenerationJob(id, deckID string, jobType JobType, inputParams json.RawMessage) *GenerationJob {
	return &GenerationJob{
		ID:          id,
		DeckID:      deckID,
		JobType:     jobType,
		Status:      JobStatusPending,
		InputParams: inputParams,
		CreatedAt:   time.Now(),
	}
}

// Start 进入运行态。消息重投导致的再次执行计入重试次数。
func (j *GenerationJob) Start() {
	if j.StartedAt != nil {
		j.RetryCount++
	}
	now := time.Now()
	j.StartedAt = &now
	j.Status = JobStatusRunning
}

// Complete 写入结果并结束任务
func (j *GenerationJob) Complete(result json.RawMessage) {
	j.OutputResult = result
	j.Progress = 100
	j.finish(JobStatusCompleted)
}

// Fail 记录失败原因并结束任务
func (j *GenerationJob) Fail(errMsg string) {
	j.ErrorMessage = errMsg
	j.finish(JobStatusFailed)
}

func (j *GenerationJob) finish(status JobStatus) {
	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// SetLLMMetrics 记录本次执行的模型与 token 用量
func (j *GenerationJob) SetLLMMetrics(provider, model string, promptTokens, completionTokens int) {
	j.LLMProvider = provider
	j.LLMModel = model
	j.TokensPrompt = promptTokens
	j.TokensComplete = completionTokens
}

// UpdateProgress 更新进度，取值收敛到 0-100
func (j *GenerationJob) UpdateProgress(progress int, message string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	if message != "" {
		j.Message = message
	}
}
