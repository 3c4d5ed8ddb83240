package service

import (
	"context"
	"encoding/json"
	"time"

	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/metrics"
	"example.com/calendariko/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const identityCacheTTL = 5 * time.Minute

func identityCacheKey(userID string) string {
	return "identity:" + userID
}

// Login verifies credentials and issues an access/refresh token pair
func (s *service) Login(ctx context.Context, email, password string) (*TokenPair, *auth.Identity, error) {
	if email == "" || password == "" {
		return nil, nil, NewValidationError("email and password are required")
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, errors.Wrap(err, "failed to load user")
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	access, refresh, err := s.tokens.GenerateTokens(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to issue tokens")
	}

	identity := auth.IdentityFromUser(user)
	s.cacheIdentity(ctx, identity)

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, identity, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "failed to load user")
	}

	access, refresh, err := s.tokens.GenerateTokens(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue tokens")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ResolveIdentity loads the request identity with its band memberships,
// consulting the cache first. Cache failures fall through to the database.
func (s *service) ResolveIdentity(ctx context.Context, userID string) (*auth.Identity, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, identityCacheKey(userID)); err == nil && raw != "" {
			var identity auth.Identity
			if err := json.Unmarshal([]byte(raw), &identity); err == nil {
				return &identity, nil
			}
		}
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load user")
	}

	identity := auth.IdentityFromUser(user)
	s.cacheIdentity(ctx, identity)
	return identity, nil
}

// ChangePassword verifies the current password before storing the new hash
func (s *service) ChangePassword(ctx context.Context, identity *auth.Identity, current, updated string) error {
	if len(updated) < 8 {
		return NewValidationError("new password must be at least 8 characters")
	}

	user, err := s.repo.FindUserByID(ctx, identity.ID)
	if err != nil {
		if isRecordNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to load user")
	}

	if err := auth.VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(updated)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}
	user.PasswordHash = hash
	user.Bands = nil

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return errors.Wrap(err, "failed to update user")
	}

	s.audit.Record(ctx, "user", user.ID, "change_password", identity.ID, nil)
	return nil
}

// Setup creates the first admin account. Refused once any user exists.
func (s *service) Setup(ctx context.Context, input UserInput) (*models.User, error) {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count users")
	}
	if count > 0 {
		return nil, ErrPermissionDenied
	}

	input.IsAdmin = true
	input.Memberships = nil
	return s.insertUser(ctx, input, "system")
}

// CreateUser creates an account with optional band assignments. Admin only.
func (s *service) CreateUser(ctx context.Context, identity *auth.Identity, input UserInput) (*models.User, error) {
	if !auth.CanManageUsers(identity) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}
	return s.insertUser(ctx, input, identity.ID)
}

func (s *service) insertUser(ctx context.Context, input UserInput, actorID string) (*models.User, error) {
	if input.Email == "" {
		return nil, NewValidationError("email is required")
	}
	if input.Name == "" {
		return nil, NewValidationError("name is required")
	}
	if len(input.Password) < 8 {
		return nil, NewValidationError("password must be at least 8 characters")
	}

	if _, err := s.repo.FindUserByEmail(ctx, input.Email); err == nil {
		return nil, NewValidationError("email %q is already registered", input.Email)
	} else if !isRecordNotFound(err) {
		return nil, errors.Wrap(err, "failed to check email")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Model:        models.Model{ID: uuid.NewString()},
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		IsAdmin:      input.IsAdmin,
	}

	memberships, err := membershipRows(user.ID, input.Memberships)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	if len(memberships) > 0 {
		if err := s.repo.ReplaceUserBands(ctx, user.ID, memberships); err != nil {
			return nil, errors.Wrap(err, "failed to assign bands")
		}
	}

	s.audit.Record(ctx, "user", user.ID, "create", actorID, map[string]interface{}{
		"email": user.Email,
	})

	created, err := s.repo.FindUserByID(ctx, user.ID)
	if err != nil {
		return user, nil
	}
	return created, nil
}

// UpdateUser applies a partial update to an account. Admin only.
func (s *service) UpdateUser(ctx context.Context, identity *auth.Identity, userID string, patch UserPatch) (*models.User, error) {
	if !auth.CanManageUsers(identity) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load user")
	}

	if patch.Email != nil && *patch.Email != user.Email {
		if _, err := s.repo.FindUserByEmail(ctx, *patch.Email); err == nil {
			return nil, NewValidationError("email %q is already registered", *patch.Email)
		} else if !isRecordNotFound(err) {
			return nil, errors.Wrap(err, "failed to check email")
		}
		user.Email = *patch.Email
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.IsAdmin != nil {
		user.IsAdmin = *patch.IsAdmin
	}
	if patch.NewPassword != nil {
		if len(*patch.NewPassword) < 8 {
			return nil, NewValidationError("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*patch.NewPassword)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	var rows []models.UserBand
	if patch.Memberships != nil {
		if rows, err = membershipRows(user.ID, *patch.Memberships); err != nil {
			return nil, err
		}
	}

	user.Bands = nil
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}

	if patch.Memberships != nil {
		if err := s.repo.ReplaceUserBands(ctx, user.ID, rows); err != nil {
			return nil, errors.Wrap(err, "failed to replace band assignments")
		}
	}

	s.audit.Record(ctx, "user", user.ID, "update", identity.ID, nil)
	s.invalidateIdentity(ctx, user.ID)

	updated, err := s.repo.FindUserByID(ctx, user.ID)
	if err != nil {
		return user, nil
	}
	return updated, nil
}

// DeleteUser removes an account and its memberships. Admin only.
func (s *service) DeleteUser(ctx context.Context, identity *auth.Identity, userID string) error {
	if !auth.CanManageUsers(identity) {
		metrics.PermissionDenials.Inc()
		return ErrPermissionDenied
	}
	if userID == identity.ID {
		return NewValidationError("cannot delete your own account")
	}

	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		if isRecordNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to load user")
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return errors.Wrap(err, "failed to delete user")
	}

	s.audit.Record(ctx, "user", userID, "delete", identity.ID, nil)
	s.invalidateIdentity(ctx, userID)
	return nil
}

// GetUser returns one account. Admins may read anyone; everyone may read
// themselves.
func (s *service) GetUser(ctx context.Context, identity *auth.Identity, userID string) (*models.User, error) {
	if !auth.CanManageUsers(identity) && identity.ID != userID {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load user")
	}
	return user, nil
}

// ListUsers returns every account. Admin only.
func (s *service) ListUsers(ctx context.Context, identity *auth.Identity) ([]*models.User, error) {
	if !auth.CanManageUsers(identity) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// membershipRows materializes band assignments. A user holds at most one
// role per band, so a repeated band id in the input is rejected instead of
// bubbling up as a primary key violation.
func membershipRows(userID string, inputs []MembershipInput) ([]models.UserBand, error) {
	rows := make([]models.UserBand, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, m := range inputs {
		if m.BandID == "" {
			return nil, NewValidationError("membership band id is required")
		}
		if _, ok := seen[m.BandID]; ok {
			return nil, NewValidationError("duplicate membership for band %q", m.BandID)
		}
		seen[m.BandID] = struct{}{}
		role := m.Role
		if role == "" {
			role = models.RoleMember
		}
		rows = append(rows, models.UserBand{
			UserID: userID,
			BandID: m.BandID,
			Role:   role,
		})
	}
	return rows, nil
}

// cacheIdentity stores the identity for the middleware's fast path
func (s *service) cacheIdentity(ctx context.Context, identity *auth.Identity) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, identityCacheKey(identity.ID), string(raw), identityCacheTTL); err != nil {
		s.log.WithError(err).Debug("Failed to cache identity")
	}
}

// invalidateIdentity drops a cached identity after a membership or account
// change
func (s *service) invalidateIdentity(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, identityCacheKey(userID)); err != nil {
		s.log.WithError(err).Debug("Failed to invalidate cached identity")
	}
}
