package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	directoryapp "github.com/equiptrack/backend/internal/application/directory"
	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/equiptrack/backend/internal/domain/inventory"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orchestrates the transfer workflow: creation, courier and store
// scans, scoped reads and deletion
type Service struct {
	transfers transfer.Repository
	equipment inventory.EquipmentRepository
	users     identity.UserRepository
	directory *directoryapp.Service
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new transfer Service
func NewService(transfers transfer.Repository, equipment inventory.EquipmentRepository, users identity.UserRepository, directory *directoryapp.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		transfers: transfers,
		equipment: equipment,
		users:     users,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveScope derives the caller's access scope from their verified
// identity plus the branch/device headers. Headers are hints only: a branch
// header that contradicts the principal's assignment is ignored, and a
// device GUID is consulted only when the principal has no assignment.
func (s *Service) ResolveScope(ctx context.Context, userID uuid.UUID, role identity.Role, assignedBranch *uuid.UUID, branchHeader, deviceGUID string) transfer.AccessScope {
	scope := transfer.AccessScope{UserID: userID, Role: role}
	if role.IsAdminTier() {
		return scope
	}

	if assignedBranch != nil {
		if branchHeader != "" {
			if claimed, err := uuid.Parse(branchHeader); err == nil && claimed != *assignedBranch {
				s.logger.Warn("branch header contradicts verified assignment, using assignment",
					zap.String("user_id", userID.String()),
					zap.String("claimed_branch", claimed.String()),
				)
			}
		}
		scope.BranchID = assignedBranch
		return scope
	}

	scope.BranchID = s.directory.ResolveDeviceBranch(ctx, deviceGUID)
	return scope
}

// Create builds a new transfer from equipment IDs. All referenced units
// must exist and share one origin branch; the destination is resolved from
// its display name through the alias table. No inventory mutation happens
// here.
func (s *Service) Create(ctx context.Context, req CreateTransferRequest) (*TransferResponse, error) {
	if len(req.EquipmentIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_ITEMS", "At least one equipment ID is required")
	}

	units, err := s.equipment.FindByIDs(ctx, req.EquipmentIDs)
	if err != nil {
		return nil, err
	}
	if len(units) != len(req.EquipmentIDs) {
		return nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("Only %d of %d equipment IDs resolved to existing units", len(units), len(req.EquipmentIDs)))
	}

	if err := s.checkSingleOrigin(ctx, units); err != nil {
		return nil, err
	}
	origin := units[0].BranchID

	originBranch, err := s.directory.ResolveBranchByID(ctx, origin)
	if err != nil {
		return nil, err
	}
	destBranch, err := s.directory.ResolveBranchByName(ctx, req.ToBranch)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Unknown destination branch: "+req.ToBranch)
	}

	if req.AssignedDeliveryUser != nil {
		courier, err := s.users.FindByID(ctx, *req.AssignedDeliveryUser)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Assigned delivery user does not exist")
		}
		if !courier.CanBeAssignedDeliveries() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Assigned user does not hold the delivery role")
		}
	}

	seeds := make([]transfer.ItemSeed, 0, len(units))
	for _, unit := range units {
		seeds = append(seeds, transfer.ItemSeed{EquipmentID: unit.ID, IMEI: unit.IMEI})
	}

	t, err := transfer.NewTransfer(
		s.generateCode(),
		originBranch.ID, originBranch.Name,
		destBranch.ID, destBranch.Name,
		req.RequestedBy,
		req.AssignedDeliveryUser,
		req.Reason,
		seeds,
	)
	if err != nil {
		return nil, err
	}

	if err := s.transfers.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("transfer created",
		zap.String("transfer_id", t.ID.String()),
		zap.String("code", t.Code),
		zap.Int("items", len(t.Items)),
	)

	resp := ToTransferResponse(t)
	return &resp, nil
}

// checkSingleOrigin verifies every unit sits at the same branch and reports
// the offending IMEIs and branch names otherwise
func (s *Service) checkSingleOrigin(ctx context.Context, units []inventory.Equipment) error {
	byBranch := make(map[uuid.UUID][]string)
	for _, unit := range units {
		byBranch[unit.BranchID] = append(byBranch[unit.BranchID], unit.IMEI)
	}
	if len(byBranch) <= 1 {
		return nil
	}

	parts := make([]string, 0, len(byBranch))
	for branchID, imeis := range byBranch {
		name := branchID.String()
		if branch, err := s.directory.ResolveBranchByID(ctx, branchID); err == nil {
			name = branch.Name
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(imeis, ", ")))
	}
	sort.Strings(parts)

	return shared.NewDomainError("MIXED_ORIGIN",
		"All equipment must share one origin branch; got "+strings.Join(parts, "; "))
}

// CourierScan records the delivery actor's per-item confirmations. Only the
// assigned courier may scan, and only with the delivery role.
func (s *Service) CourierScan(ctx context.Context, transferID uuid.UUID, scope transfer.AccessScope, cmd transfer.ScanCommand) (*TransferResponse, error) {
	if !transfer.CanScan(scope.Role, transfer.SideCourier) {
		return nil, shared.ErrForbidden
	}

	t, err := s.transfers.FindByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t.AssignedDeliveryUser == nil || *t.AssignedDeliveryUser != scope.UserID {
		return nil, shared.ErrForbidden
	}

	cmd.ActorID = scope.UserID
	t.ApplyScans(transfer.SideCourier, cmd)

	if err := s.transfers.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	resp := ToTransferResponse(t)
	return &resp, nil
}

// StoreScan records the destination store's per-item confirmations. Every
// item newly marked received enqueues a relocation task in the same
// transaction as the save; relocation problems never fail the scan.
func (s *Service) StoreScan(ctx context.Context, transferID uuid.UUID, scope transfer.AccessScope, cmd transfer.ScanCommand) (*TransferResponse, error) {
	if !transfer.CanScan(scope.Role, transfer.SideStore) {
		return nil, shared.ErrForbidden
	}

	t, err := s.transfers.FindByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if !scope.CanSee(t) {
		return nil, shared.ErrForbidden
	}

	cmd.ActorID = scope.UserID
	applied := t.ApplyScans(transfer.SideStore, cmd)

	entries := make([]*shared.OutboxEntry, 0)
	for _, a := range applied {
		if !a.NewlyReceived {
			continue
		}
		event := transfer.NewRelocationRequestedEvent(t, a)
		payload, err := json.Marshal(event)
		if err != nil {
			// The scan itself still persists; the divergence is logged for
			// out-of-band reconciliation.
			s.logger.Error("failed to encode relocation task",
				zap.String("transfer_id", t.ID.String()),
				zap.String("imei", a.IMEI),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}

	if err := s.transfers.SaveWithLock(ctx, t, entries...); err != nil {
		return nil, err
	}

	if len(entries) > 0 {
		s.logger.Info("relocation tasks enqueued",
			zap.String("transfer_id", t.ID.String()),
			zap.Int("count", len(entries)),
		)
	}

	resp := ToTransferResponse(t)
	return &resp, nil
}

// List returns transfers visible to the scope, newest first. The filter is
// honored only for admin-tier callers; unfiltered listings are capped to
// the 10 most recent.
func (s *Service) List(ctx context.Context, scope transfer.AccessScope, filter transfer.ListFilter) ([]TransferListResponse, error) {
	if !scope.Unrestricted() {
		filter = transfer.ListFilter{}
	}
	if filter.IsZero() && filter.Limit == 0 {
		filter.Limit = 10
	}

	transfers, err := s.transfers.FindScoped(ctx, scope, filter)
	if err != nil {
		return nil, err
	}

	out := make([]TransferListResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, ToTransferListResponse(&transfers[i]))
	}
	return out, nil
}

// Get returns the scoped detail view of one transfer. Out-of-scope
// transfers read as not found rather than forbidden.
func (s *Service) Get(ctx context.Context, scope transfer.AccessScope, id uuid.UUID) (*TransferResponse, error) {
	t, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanSee(t) {
		return nil, shared.ErrNotFound
	}

	resp := ToTransferResponse(t)
	return &resp, nil
}

// Delete hard-deletes a transfer under the role/state gate: terminal-ish
// transfers only by the root administrator, anything else by the admin tier.
func (s *Service) Delete(ctx context.Context, role identity.Role, id uuid.UUID) error {
	t, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !transfer.CanDelete(role, t.Status) {
		return shared.ErrForbidden
	}

	if err := s.transfers.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("transfer deleted",
		zap.String("transfer_id", id.String()),
		zap.String("status", t.Status.String()),
		zap.String("role", role.String()),
	)
	return nil
}

// generateCode builds a human-readable transfer code
func (s *Service) generateCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TR-%s-%s", s.now().Format("20060102"), suffix)
}
