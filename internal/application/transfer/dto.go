package transfer

import (
	"time"

	"github.com/equiptrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
)

// CreateTransferRequest is the application-level creation input. Branch
// display names are resolved here, at the boundary; the domain only sees
// canonical IDs.
type CreateTransferRequest struct {
	EquipmentIDs         []uuid.UUID
	ToBranch             string
	Reason               string
	AssignedDeliveryUser *uuid.UUID
	RequestedBy          uuid.UUID
}

// ScanInfoResponse mirrors one side's confirmation in API responses
type ScanInfoResponse struct {
	Status      string     `json:"status"`
	Observation string     `json:"observation,omitempty"`
	At          *time.Time `json:"at,omitempty"`
	By          *string    `json:"by,omitempty"`
}

// TransferItemResponse represents one item in API responses
type TransferItemResponse struct {
	ID          string           `json:"id"`
	EquipmentID string           `json:"equipmentId"`
	IMEI        string           `json:"imei"`
	Courier     ScanInfoResponse `json:"courier"`
	Store       ScanInfoResponse `json:"store"`
}

// TransferResponse represents a transfer in detail responses
type TransferResponse struct {
	ID                   string                 `json:"id"`
	Code                 string                 `json:"code"`
	FromBranch           string                 `json:"fromBranch"`
	ToBranch             string                 `json:"toBranch"`
	Status               string                 `json:"status"`
	RequestedBy          string                 `json:"requestedBy"`
	AssignedDeliveryUser *string                `json:"assignedDeliveryUser,omitempty"`
	ReceivedBy           *string                `json:"receivedBy,omitempty"`
	Reason               string                 `json:"reason,omitempty"`
	CourierReceivedCount int                    `json:"courierReceivedCount"`
	Items                []TransferItemResponse `json:"items"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
	Version              int                    `json:"version"`
}

// TransferListResponse represents a transfer in list responses
type TransferListResponse struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	FromBranch           string    `json:"fromBranch"`
	ToBranch             string    `json:"toBranch"`
	Status               string    `json:"status"`
	ItemCount            int       `json:"itemCount"`
	CourierReceivedCount int       `json:"courierReceivedCount"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func uuidStr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toScanInfoResponse(s transfer.ScanInfo) ScanInfoResponse {
	return ScanInfoResponse{
		Status:      s.Status.String(),
		Observation: s.Observation,
		At:          s.At,
		By:          uuidStr(s.By),
	}
}

// ToTransferResponse maps the aggregate to its detail representation
func ToTransferResponse(t *transfer.Transfer) TransferResponse {
	items := make([]TransferItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, TransferItemResponse{
			ID:          item.ID.String(),
			EquipmentID: item.EquipmentID.String(),
			IMEI:        item.IMEI,
			Courier:     toScanInfoResponse(item.Courier),
			Store:       toScanInfoResponse(item.Store),
		})
	}

	return TransferResponse{
		ID:                   t.ID.String(),
		Code:                 t.Code,
		FromBranch:           t.FromBranchName,
		ToBranch:             t.ToBranchName,
		Status:               t.Status.String(),
		RequestedBy:          t.RequestedBy.String(),
		AssignedDeliveryUser: uuidStr(t.AssignedDeliveryUser),
		ReceivedBy:           uuidStr(t.ReceivedBy),
		Reason:               t.Reason,
		CourierReceivedCount: t.CourierReceivedCount,
		Items:                items,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		Version:              t.Version,
	}
}

// ToTransferListResponse maps the aggregate to its list representation
func ToTransferListResponse(t *transfer.Transfer) TransferListResponse {
	return TransferListResponse{
		ID:                   t.ID.String(),
		Code:                 t.Code,
		FromBranch:           t.FromBranchName,
		ToBranch:             t.ToBranchName,
		Status:               t.Status.String(),
		ItemCount:            len(t.Items),
		CourierReceivedCount: t.CourierReceivedCount,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
