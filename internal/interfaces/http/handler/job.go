package handler

import (
	"github.com/gin-gonic/gin"

	"neura-deck-api/internal/application/deck"
	"neura-deck-api/internal/interfaces/http/dto"
)

// JobHandler 任务处理器
type JobHandler struct {
	svc *deck.Service
}

// NewJobHandler 创建任务处理器
func NewJobHandler(svc *deck.Service) *JobHandler {
	return &JobHandler{svc: svc}
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Description 获取指定任务的状态与进度，供前端轮询
// @Tags Jobs
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.svc.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to get job")
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}

// GetJobStats 获取任务统计
// @Summary 获取任务统计
// @Tags Jobs
// @Produce json
// @Success 200 {object} dto.Response[dto.JobStatsResponse]
// @Router /v1/jobs/stats [get]
func (h *JobHandler) GetJobStats(c *gin.Context) {
	stats, err := h.svc.GetJobStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get job stats")
		return
	}
	dto.Success(c, dto.JobStatsResponse{
		TotalJobs:       stats.TotalJobs,
		PendingJobs:     stats.PendingJobs,
		RunningJobs:     stats.RunningJobs,
		CompletedJobs:   stats.CompletedJobs,
		FailedJobs:      stats.FailedJobs,
		TotalTokensUsed: stats.TotalTokensUsed,
	})
}
