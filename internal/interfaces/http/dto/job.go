package dto

import (
	"encoding/json"
	"time"

	"neura-deck-api/internal/domain/entity"
)

// JobResponse 任务响应
type JobResponse struct {
	ID           string          `json:"id"`
	DeckID       string          `json:"deck_id"`
	JobType      string          `json:"job_type"`
	Status       string          `json:"status"`
	Message      string          `json:"message,omitempty"`
	Progress     int             `json:"progress"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMsg     string          `json:"error_msg,omitempty"`
	LLMProvider  string          `json:"llm_provider,omitempty"`
	LLMModel     string          `json:"llm_model,omitempty"`
	TokensUsed   int             `json:"tokens_used,omitempty"`
	DurationMs   int             `json:"duration_ms,omitempty"`
	RetryCount   int             `json:"retry_count"`
	StartedAt    time.Time       `json:"started_at,omitempty"`
	CompletedAt  time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.GenerationJob) *JobResponse {
	if j == nil {
		return nil
	}

	resp := &JobResponse{
		ID:          j.ID,
		DeckID:      j.DeckID,
		JobType:     string(j.JobType),
		Status:      string(j.Status),
		Message:     j.Message,
		Progress:    j.Progress,
		Result:      j.OutputResult,
		ErrorMsg:    j.ErrorMessage,
		LLMProvider: j.LLMProvider,
		LLMModel:    j.LLMModel,
		TokensUsed:  j.TokensPrompt + j.TokensComplete,
		DurationMs:  j.DurationMs,
		RetryCount:  j.RetryCount,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}

	if j.StartedAt != nil {
		resp.StartedAt = *j.StartedAt
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = *j.CompletedAt
	}
	return resp
}

// JobStatsResponse 任务统计响应
type JobStatsResponse struct {
	TotalJobs       int64 `json:"total_jobs"`
	PendingJobs     int64 `json:"pending_jobs"`
	RunningJobs     int64 `json:"running_jobs"`
	CompletedJobs   int64 `json:"completed_jobs"`
	FailedJobs      int64 `json:"failed_jobs"`
	TotalTokensUsed int64 `json:"total_tokens_used"`
}
