package service

import (
	"context"

	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/metrics"
	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CreateBand creates a new band. Admin only.
func (s *service) CreateBand(ctx context.Context, identity *auth.Identity, input BandInput) (*models.Band, error) {
	if !identity.IsAdmin {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}
	if input.Name == "" {
		return nil, NewValidationError("band name is required")
	}
	if input.Slug == "" {
		return nil, NewValidationError("band slug is required")
	}

	if _, err := s.repo.FindBandBySlug(ctx, input.Slug); err == nil {
		return nil, NewValidationError("band slug %q is already taken", input.Slug)
	} else if !isRecordNotFound(err) {
		return nil, errors.Wrap(err, "failed to check band slug")
	}

	band := &models.Band{
		Model: models.Model{ID: uuid.NewString()},
		Name:  input.Name,
		Slug:  input.Slug,
		Notes: input.Notes,
	}
	if err := s.repo.CreateBand(ctx, band); err != nil {
		return nil, errors.Wrap(err, "failed to create band")
	}

	s.audit.Record(ctx, "band", band.ID, "create", identity.ID, map[string]interface{}{
		"name": band.Name,
		"slug": band.Slug,
	})
	return band, nil
}

// UpdateBand updates band settings. Requires band management rights.
func (s *service) UpdateBand(ctx context.Context, identity *auth.Identity, bandID string, input BandInput) (*models.Band, error) {
	band, err := s.repo.FindBandByID(ctx, bandID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load band")
	}

	if !auth.CanManageBand(identity, bandID) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	if input.Name != "" {
		band.Name = input.Name
	}
	if input.Slug != "" && input.Slug != band.Slug {
		if _, err := s.repo.FindBandBySlug(ctx, input.Slug); err == nil {
			return nil, NewValidationError("band slug %q is already taken", input.Slug)
		} else if !isRecordNotFound(err) {
			return nil, errors.Wrap(err, "failed to check band slug")
		}
		band.Slug = input.Slug
	}
	band.Notes = input.Notes

	if err := s.repo.UpdateBand(ctx, band); err != nil {
		return nil, errors.Wrap(err, "failed to update band")
	}

	s.audit.Record(ctx, "band", band.ID, "update", identity.ID, nil)
	return band, nil
}

// DeleteBand removes a band. Admin only, and blocked while the band still
// owns events.
func (s *service) DeleteBand(ctx context.Context, identity *auth.Identity, bandID string) error {
	if !identity.IsAdmin {
		metrics.PermissionDenials.Inc()
		return ErrPermissionDenied
	}

	band, err := s.repo.FindBandByID(ctx, bandID)
	if err != nil {
		if isRecordNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to load band")
	}

	count, err := s.repo.CountBandEvents(ctx, bandID)
	if err != nil {
		return errors.Wrap(err, "failed to count band events")
	}
	if count > 0 {
		return NewValidationError("band still has %d event(s), delete them first", count)
	}

	if err := s.repo.DeleteBand(ctx, bandID); err != nil {
		return errors.Wrap(err, "failed to delete band")
	}

	s.audit.Record(ctx, "band", band.ID, "delete", identity.ID, map[string]interface{}{
		"name": band.Name,
	})

	// Memberships changed, cached identities are stale
	for _, ub := range band.Users {
		s.invalidateIdentity(ctx, ub.UserID)
	}
	return nil
}

// GetBand returns one band with its member list
func (s *service) GetBand(ctx context.Context, identity *auth.Identity, bandID string) (*models.Band, error) {
	if !auth.CanViewBand(identity, bandID) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	band, err := s.repo.FindBandByID(ctx, bandID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load band")
	}
	return band, nil
}

// ListBands returns every band for admins, or the identity's own bands
func (s *service) ListBands(ctx context.Context, identity *auth.Identity) ([]*models.Band, error) {
	if auth.CanViewAllBands(identity) {
		bands, err := s.repo.ListBands(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list bands")
		}
		return bands, nil
	}

	ids := identity.BandIDs()
	if len(ids) == 0 {
		return []*models.Band{}, nil
	}
	bands, err := s.repo.ListBandsByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bands")
	}
	return bands, nil
}

// SetReferente reassigns the band's manager. All members are reset to MEMBER
// and the chosen one promoted in a single transaction, so a band can never
// end up with two managers. A nil userID leaves the band without a manager.
func (s *service) SetReferente(ctx context.Context, identity *auth.Identity, bandID string, userID *string) (*models.Band, error) {
	if !identity.IsAdmin {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	band, err := s.repo.FindBandByID(ctx, bandID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load band")
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if err := tx.ResetBandRoles(ctx, bandID); err != nil {
			return errors.Wrap(err, "failed to reset band roles")
		}

		if userID == nil {
			return nil
		}

		if _, err := tx.FindBandMembership(ctx, *userID, bandID); err != nil {
			if isRecordNotFound(err) {
				return NewValidationError("user is not a member of this band")
			}
			return errors.Wrap(err, "failed to load membership")
		}

		return errors.Wrap(tx.SetBandRole(ctx, *userID, bandID, models.RoleManager), "failed to promote referente")
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]interface{}{}
	if userID != nil {
		meta["referente"] = *userID
	}
	s.audit.Record(ctx, "band", bandID, "set_referente", identity.ID, meta)

	// Every member's cached identity carries a role, drop them all
	for _, ub := range band.Users {
		s.invalidateIdentity(ctx, ub.UserID)
	}

	updated, err := s.repo.FindBandByID(ctx, bandID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload band")
	}
	return updated, nil
}
