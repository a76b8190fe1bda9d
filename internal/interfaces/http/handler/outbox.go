package handler

import (
	"time"

	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/infrastructure/auth"
	"github.com/equiptrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// OutboxHandler exposes the relocation task backlog to administrators.
// Entries that exhaust their retries are parked as dead letters; this
// surface is how an operator finds them before intervening manually.
type OutboxHandler struct {
	BaseHandler
	outbox     shared.OutboxRepository
	jwtService *auth.JWTService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outbox shared.OutboxRepository, jwtService *auth.JWTService) *OutboxHandler {
	return &OutboxHandler{
		outbox:     outbox,
		jwtService: jwtService,
	}
}

// RegisterRoutes registers the admin outbox routes
func (h *OutboxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/outbox",
		middleware.JWTAuth(h.jwtService),
		middleware.RequireRoles(identity.RoleRootAdmin))
	admin.GET("/dead-letters", h.ListDeadLetters)
	admin.GET("/stats", h.Stats)
}

type deadLettersQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// OutboxEntryResponse represents a parked outbox entry
type OutboxEntryResponse struct {
	ID            string     `json:"id"`
	EventType     string     `json:"eventType"`
	AggregateID   string     `json:"aggregateId"`
	AggregateType string     `json:"aggregateType"`
	Payload       string     `json:"payload"`
	RetryCount    int        `json:"retryCount"`
	MaxRetries    int        `json:"maxRetries"`
	LastError     string     `json:"lastError,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty"`
}

// DeadLetterListResponse represents a page of dead letters
type DeadLetterListResponse struct {
	Entries  []OutboxEntryResponse `json:"entries"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
}

// ListDeadLetters godoc
// @Summary      List dead relocation tasks
// @Description  Returns outbox entries that exhausted their retries, newest first
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=DeadLetterListResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/dead-letters [get]
func (h *OutboxHandler) ListDeadLetters(c *gin.Context) {
	var query deadLettersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid pagination parameters")
		return
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PageSize == 0 {
		query.PageSize = 20
	}

	entries, total, err := h.outbox.FindDead(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := DeadLetterListResponse{
		Entries:  make([]OutboxEntryResponse, 0, len(entries)),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, OutboxEntryResponse{
			ID:            entry.ID.String(),
			EventType:     entry.EventType,
			AggregateID:   entry.AggregateID.String(),
			AggregateType: entry.AggregateType,
			Payload:       string(entry.Payload),
			RetryCount:    entry.RetryCount,
			MaxRetries:    entry.MaxRetries,
			LastError:     entry.LastError,
			CreatedAt:     entry.CreatedAt,
			UpdatedAt:     entry.UpdatedAt,
			ProcessedAt:   entry.ProcessedAt,
		})
	}

	h.Success(c, resp)
}

// OutboxStatsResponse represents outbox backlog counters keyed by status
type OutboxStatsResponse struct {
	Counts map[string]int64 `json:"counts"`
}

// Stats godoc
// @Summary      Outbox backlog counters
// @Description  Returns the number of outbox entries per status
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=OutboxStatsResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	counts, err := h.outbox.CountByStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := OutboxStatsResponse{Counts: make(map[string]int64, len(counts))}
	for status, count := range counts {
		resp.Counts[string(status)] = count
	}

	h.Success(c, resp)
}
