package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"neura-deck-api/internal/application/deck"
	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/internal/domain/repository"
	"neura-deck-api/internal/interfaces/http/dto"
)

// DeckHandler 演示文稿处理器
type DeckHandler struct {
	svc *deck.Service
}

// NewDeckHandler 创建演示文稿处理器
func NewDeckHandler(svc *deck.Service) *DeckHandler {
	return &DeckHandler{svc: svc}
}

// CreateDeck 提交生成请求
// @Summary 提交演示文稿生成请求
// @Description 受理生成请求并异步执行，返回任务句柄供轮询
// @Tags Decks
// @Accept json
// @Produce json
// @Param request body dto.CreateDeckRequest true "生成请求"
// @Success 202 {object} dto.Response[dto.CreateDeckResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/decks [post]
func (h *DeckHandler) CreateDeck(c *gin.Context) {
	var req dto.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	job, err := h.svc.CreateDeckJob(c.Request.Context(), deck.CreateDeckRequest{
		Topic:      req.Prompt,
		TemplateID: req.TemplateID,
		Charts:     req.ChartsEnabled(),
	})
	if err != nil {
		respondError(c, err, "failed to create deck job")
		return
	}

	dto.Accepted(c, dto.CreateDeckResponse{
		JobID:  job.ID,
		DeckID: job.DeckID,
	})
}

// GetDeck 获取演示文稿详情
// @Summary 获取演示文稿详情
// @Description 获取已完成演示文稿的完整大纲
// @Tags Decks
// @Produce json
// @Param id path string true "演示文稿 ID"
// @Success 200 {object} dto.Response[dto.DeckResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/decks/{id} [get]
func (h *DeckHandler) GetDeck(c *gin.Context) {
	deckEntity, err := h.svc.GetDeck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to get deck")
		return
	}
	dto.Success(c, dto.ToDeckResponse(deckEntity))
}

// ListDecks 分页查询演示文稿
// @Summary 分页查询演示文稿
// @Tags Decks
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Param template_id query string false "模板过滤"
// @Param source query string false "大纲来源过滤"
// @Param title query string false "幻灯片标题子串过滤"
// @Success 200 {object} dto.Response[dto.DeckListResponse]
// @Router /v1/decks [get]
func (h *DeckHandler) ListDecks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	filter := &repository.DeckFilter{
		TemplateID: c.Query("template_id"),
		Source:     entity.OutlineSource(c.Query("source")),
		TitleTerm:  c.Query("title"),
	}

	result, err := h.svc.ListDecks(c.Request.Context(), filter, pagination)
	if err != nil {
		respondError(c, err, "failed to list decks")
		return
	}

	items := make([]*dto.DeckResponse, 0, len(result.Items))
	for _, d := range result.Items {
		items = append(items, dto.ToDeckListItem(d))
	}
	dto.SuccessWithPage(c, dto.DeckListResponse{Decks: items},
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// DeleteDeck 删除演示文稿
// @Summary 删除演示文稿
// @Description 删除演示文稿并清理其缓存
// @Tags Decks
// @Produce json
// @Param id path string true "演示文稿 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/decks/{id} [delete]
func (h *DeckHandler) DeleteDeck(c *gin.Context) {
	if err := h.svc.DeleteDeck(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete deck")
		return
	}
	dto.NoContent(c)
}

// ExportDeck 导出演示文稿为 HTML
// @Summary 导出演示文稿
// @Description 将已完成演示文稿导出为独立 HTML 页面
// @Tags Decks
// @Produce html
// @Param id path string true "演示文稿 ID"
// @Success 200 {string} string "HTML 页面"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/decks/{id}/export [get]
func (h *DeckHandler) ExportDeck(c *gin.Context) {
	page, err := h.svc.ExportDeckHTML(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to export deck")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
