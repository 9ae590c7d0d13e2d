package service

import (
	"context"
	"fmt"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/ports"
)

// ProgramAccessService answers whether a principal may act on a study program.
// Record handlers call this before touching program-scoped resources.
type ProgramAccessService struct {
	grants ports.GrantStore
}

// NewProgramAccessService constructs a ProgramAccessService.
func NewProgramAccessService(grants ports.GrantStore) *ProgramAccessService {
	return &ProgramAccessService{grants: grants}
}

// HasAccess reports whether the identity may act on the program.
// Administrators bypass the check. Coordinators pass only when the program is
// in their granted set. Every other role fails closed.
func (s *ProgramAccessService) HasAccess(ctx context.Context, identity domainauth.Identity, programID string) (bool, error) {
	switch domainauth.NormalizeRole(string(identity.Role)) {
	case domainauth.RoleAdmin:
		return true, nil
	case domainauth.RoleProdi:
		if programID == "" {
			return false, nil
		}
		grants, err := s.grants.GrantsFor(ctx, identity.ID)
		if err != nil {
			return false, fmt.Errorf("load program grants: %w", err)
		}
		for _, granted := range grants {
			if granted == programID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// Require is HasAccess with a ProgramAccessDenied error instead of a false,
// for call sites that want to propagate the denial directly.
func (s *ProgramAccessService) Require(ctx context.Context, identity domainauth.Identity, programID string) error {
	ok, err := s.HasAccess(ctx, identity, programID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ProgramAccessDenied(
			fmt.Sprintf("no access to program %s", programID))
	}
	return nil
}
