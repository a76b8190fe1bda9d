package handler

import (
	"context"
	"strings"
	"time"

	directoryapp "github.com/equiptrack/backend/internal/application/directory"
	transferapp "github.com/equiptrack/backend/internal/application/transfer"
	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/domain/transfer"
	"github.com/equiptrack/backend/internal/infrastructure/auth"
	"github.com/equiptrack/backend/internal/interfaces/http/dto"
	"github.com/equiptrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles transfer-related HTTP requests
type TransferHandler struct {
	BaseHandler
	service    *transferapp.Service
	directory  *directoryapp.Service
	jwtService *auth.JWTService
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(service *transferapp.Service, directory *directoryapp.Service, jwtService *auth.JWTService) *TransferHandler {
	return &TransferHandler{
		service:    service,
		directory:  directory,
		jwtService: jwtService,
	}
}

// RegisterRoutes registers the transfer routes
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transfers := rg.Group("/transfers", middleware.JWTAuth(h.jwtService))
	transfers.POST("",
		middleware.RequireRoles(identity.RoleRootAdmin, identity.RoleSupervisor),
		h.Create)
	transfers.GET("", h.List)
	transfers.GET("/:id", h.Get)
	transfers.PUT("/:id/courier/items",
		middleware.RequireRoles(identity.RoleDelivery),
		h.CourierScan)
	transfers.PUT("/:id/store/items",
		middleware.RequireRoles(identity.RoleSeller, identity.RoleCashier),
		h.StoreScan)
	transfers.DELETE("/:id",
		middleware.RequireRoles(identity.RoleRootAdmin, identity.RoleSupervisor),
		h.Delete)
}

// CreateTransferRequest represents the request body for transfer creation
type CreateTransferRequest struct {
	EquipmentIDs         []string `json:"equipmentIds" binding:"required,dive,uuid"`
	ToBranch             string   `json:"toBranch" binding:"required"`
	Reason               string   `json:"reason"`
	AssignedDeliveryUser *string  `json:"assignedDeliveryUser" binding:"omitempty,uuid"`
}

// ScanActionRequest is one entry of a per-IMEI scan batch
type ScanActionRequest struct {
	IMEI        string `json:"imei" binding:"required"`
	Status      string `json:"status" binding:"required"`
	Observation string `json:"observation"`
}

// ScanRequest represents the request body for courier and store scans.
// The three input shapes (batch, single-item shortcut, bulk flags) may be
// combined freely.
type ScanRequest struct {
	Items             []ScanActionRequest `json:"items"`
	ReceivedItemID    *string             `json:"receivedItemId" binding:"omitempty,uuid"`
	NotReceivedItemID *string             `json:"notReceivedItemId" binding:"omitempty,uuid"`
	AllReceived       bool                `json:"allReceived"`
	AllNotReceived    bool                `json:"allNotReceived"`
	Observation       string              `json:"observation"`
}

// ListTransfersQuery represents the list query parameters. Filter fields
// are honored for admin-tier callers only.
type ListTransfersQuery struct {
	IMEI       string `form:"imei"`
	FromBranch string `form:"fromBranch"`
	ToBranch   string `form:"toBranch"`
	Date       string `form:"date"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @Summary      Create a transfer
// @Description  Creates an inter-branch equipment transfer with all items pending
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request body CreateTransferRequest true "Transfer to create"
// @Success      201 {object} dto.Response{data=transferapp.TransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transfers [post]
func (h *TransferHandler) Create(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	equipmentIDs := make([]uuid.UUID, 0, len(req.EquipmentIDs))
	for _, raw := range req.EquipmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid equipment ID: "+raw)
			return
		}
		equipmentIDs = append(equipmentIDs, id)
	}

	var assignee *uuid.UUID
	if req.AssignedDeliveryUser != nil {
		id, err := uuid.Parse(*req.AssignedDeliveryUser)
		if err != nil {
			h.BadRequest(c, "Invalid assigned delivery user ID")
			return
		}
		assignee = &id
	}

	resp, err := h.service.Create(c.Request.Context(), transferapp.CreateTransferRequest{
		EquipmentIDs:         equipmentIDs,
		ToBranch:             req.ToBranch,
		Reason:               req.Reason,
		AssignedDeliveryUser: assignee,
		RequestedBy:          principal.UserID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @Summary      List transfers
// @Description  Lists transfers visible to the caller, newest first
// @Tags         transfers
// @Produce      json
// @Success      200 {object} dto.Response{data=[]transferapp.TransferListResponse}
// @Security     BearerAuth
// @Router       /transfers [get]
func (h *TransferHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ListTransfersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter, err := h.buildListFilter(c, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	scope := h.resolveScope(c, principal)
	items, err := h.service.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessList(c, items, len(items))
}

// Get godoc
// @Summary      Get a transfer
// @Description  Returns a single transfer with its items, subject to access scope
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      200 {object} dto.Response{data=transferapp.TransferResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transfers/{id} [get]
func (h *TransferHandler) Get(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	scope := h.resolveScope(c, principal)
	resp, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// CourierScan godoc
// @Summary      Record courier-side scans
// @Description  Applies courier pickup confirmations to a transfer's items
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body ScanRequest true "Scan actions"
// @Success      200 {object} dto.Response{data=transferapp.TransferResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transfers/{id}/courier/items [put]
func (h *TransferHandler) CourierScan(c *gin.Context) {
	h.scan(c, h.service.CourierScan)
}

// StoreScan godoc
// @Summary      Record store-side scans
// @Description  Applies destination store confirmations; accepted items are relocated
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body ScanRequest true "Scan actions"
// @Success      200 {object} dto.Response{data=transferapp.TransferResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transfers/{id}/store/items [put]
func (h *TransferHandler) StoreScan(c *gin.Context) {
	h.scan(c, h.service.StoreScan)
}

// Delete godoc
// @Summary      Delete a transfer
// @Description  Deletes a transfer; completed transfers require the root admin role
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transfers/{id} [delete]
func (h *TransferHandler) Delete(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal.Role, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

type scanFunc func(ctx context.Context, transferID uuid.UUID, scope transfer.AccessScope, cmd transfer.ScanCommand) (*transferapp.TransferResponse, error)

var errInvalidItemID = shared.NewDomainError("INVALID_INPUT", "Invalid item ID")

func (h *TransferHandler) scan(c *gin.Context, apply scanFunc) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	cmd, err := h.toScanCommand(req, principal.UserID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	scope := h.resolveScope(c, principal)
	resp, err := apply(c.Request.Context(), id, scope, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// toScanCommand translates the wire shapes into a domain scan command.
// Status strings are passed through uppercased; the domain skips entries
// it does not recognize.
func (h *TransferHandler) toScanCommand(req ScanRequest, actorID uuid.UUID) (transfer.ScanCommand, error) {
	cmd := transfer.ScanCommand{
		AllReceived:    req.AllReceived,
		AllNotReceived: req.AllNotReceived,
		Observation:    req.Observation,
		ActorID:        actorID,
		At:             time.Now(),
	}

	for _, item := range req.Items {
		cmd.Actions = append(cmd.Actions, transfer.ScanAction{
			IMEI:        strings.TrimSpace(item.IMEI),
			Status:      transfer.ScanStatus(strings.ToUpper(strings.TrimSpace(item.Status))),
			Observation: item.Observation,
		})
	}

	if req.ReceivedItemID != nil {
		id, err := uuid.Parse(*req.ReceivedItemID)
		if err != nil {
			return cmd, errInvalidItemID
		}
		cmd.ReceivedItemID = &id
	}
	if req.NotReceivedItemID != nil {
		id, err := uuid.Parse(*req.NotReceivedItemID)
		if err != nil {
			return cmd, errInvalidItemID
		}
		cmd.NotReceivedItemID = &id
	}

	return cmd, nil
}

// resolveScope derives the caller's access scope from the verified principal
// plus the branch/device hint headers
func (h *TransferHandler) resolveScope(c *gin.Context, principal *auth.Principal) transfer.AccessScope {
	return h.service.ResolveScope(
		c.Request.Context(),
		principal.UserID,
		principal.Role,
		principal.BranchID,
		c.GetHeader(middleware.BranchIDHeader),
		c.GetHeader(middleware.DeviceIDHeader),
	)
}

// buildListFilter resolves branch-name filters to canonical IDs and parses
// the date parameters
func (h *TransferHandler) buildListFilter(c *gin.Context, query ListTransfersQuery) (transfer.ListFilter, error) {
	filter := transfer.ListFilter{
		IMEI:  strings.TrimSpace(query.IMEI),
		Limit: query.Limit,
	}

	ctx := c.Request.Context()
	if query.FromBranch != "" {
		branch, err := h.directory.ResolveBranchByName(ctx, query.FromBranch)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_BRANCH", "Unknown branch: "+query.FromBranch)
		}
		filter.FromBranchID = &branch.ID
	}
	if query.ToBranch != "" {
		branch, err := h.directory.ResolveBranchByName(ctx, query.ToBranch)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_BRANCH", "Unknown branch: "+query.ToBranch)
		}
		filter.ToBranchID = &branch.ID
	}

	switch {
	case query.Date != "":
		day, err := parseDate(query.Date)
		if err != nil {
			return filter, err
		}
		end := day.AddDate(0, 0, 1)
		filter.DateFrom = &day
		filter.DateTo = &end
	default:
		if query.StartDate != "" {
			from, err := parseDate(query.StartDate)
			if err != nil {
				return filter, err
			}
			filter.DateFrom = &from
		}
		if query.EndDate != "" {
			to, err := parseDate(query.EndDate)
			if err != nil {
				return filter, err
			}
			end := to.AddDate(0, 0, 1)
			filter.DateTo = &end
		}
	}

	return filter, nil
}

func (h *TransferHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid transfer ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID")
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_INPUT", "Invalid date, expected YYYY-MM-DD: "+s)
	}
	return day, nil
}
