package service

import (
	"context"
	"fmt"

	"clinicbook/internal/models"
)

// Resolution is the outcome of resolving an ambiguous identifier.
// Resolved=false means neither a profile id nor an account id matched;
// the caller decides whether that is fatal instead of the resolver
// silently assuming the raw id was already canonical.
type Resolution struct {
	ProfileID string
	Resolved  bool
}

// Resolve maps rawID, which may be an account id or a profile id, to
// the canonical profile id for the role. Resolving an already-canonical
// profile id returns it unchanged.
func (s *Scheduler) Resolve(ctx context.Context, role models.Role, rawID string) (Resolution, error) {
	var (
		id  string
		ok  bool
		err error
	)
	switch role {
	case models.RoleDoctor:
		id, ok, err = s.directory.ResolveDoctorID(ctx, rawID)
	case models.RolePatient:
		id, ok, err = s.directory.ResolvePatientID(ctx, rawID)
	default:
		return Resolution{}, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, role)
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s id: %w", role, err)
	}
	return Resolution{ProfileID: id, Resolved: ok}, nil
}

// resolveLenient keeps the permissive read-path behavior: an unresolved
// id is queried as given, so listing never hard-fails on identifier
// ambiguity alone.
func (s *Scheduler) resolveLenient(ctx context.Context, role models.Role, rawID string) (string, error) {
	res, err := s.Resolve(ctx, role, rawID)
	if err != nil {
		return "", err
	}
	return res.ProfileID, nil
}
