package directory

import (
	"context"

	"github.com/equiptrack/backend/internal/domain/directory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeviceBranchCache caches shared-terminal GUID to branch resolutions.
// Every scoped request from a shared terminal hits this lookup, so the
// production wiring backs it with redis.
type DeviceBranchCache interface {
	Get(ctx context.Context, guid string) (uuid.UUID, bool)
	Set(ctx context.Context, guid string, branchID uuid.UUID)
}

// Service resolves branches and devices against the location directory
type Service struct {
	branches directory.BranchRepository
	devices  directory.DeviceRepository
	cache    DeviceBranchCache
	logger   *zap.Logger
}

// NewService creates a new directory Service. The cache is optional.
func NewService(branches directory.BranchRepository, devices directory.DeviceRepository, cache DeviceBranchCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		branches: branches,
		devices:  devices,
		cache:    cache,
		logger:   logger,
	}
}

// ResolveBranchByName normalizes a display name through the alias table and
// looks it up in the directory
func (s *Service) ResolveBranchByName(ctx context.Context, name string) (*directory.Branch, error) {
	return s.branches.FindByName(ctx, directory.NormalizeBranchName(name))
}

// ResolveBranchByID looks up a branch by canonical ID
func (s *Service) ResolveBranchByID(ctx context.Context, id uuid.UUID) (*directory.Branch, error) {
	return s.branches.FindByID(ctx, id)
}

// ResolveDeviceBranch resolves a shared-terminal GUID to its branch ID.
// An unknown device yields nil with no error: scoped roles then see an
// empty result set rather than a failure.
func (s *Service) ResolveDeviceBranch(ctx context.Context, guid string) *uuid.UUID {
	if guid == "" {
		return nil
	}

	if s.cache != nil {
		if branchID, ok := s.cache.Get(ctx, guid); ok {
			return &branchID
		}
	}

	device, err := s.devices.FindByGUID(ctx, guid)
	if err != nil {
		s.logger.Debug("device GUID did not resolve to a branch", zap.String("guid", guid), zap.Error(err))
		return nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, guid, device.BranchID)
	}
	branchID := device.BranchID
	return &branchID
}
