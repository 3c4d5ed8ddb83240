package auth

import (
	"example.com/calendariko/internal/models"
)

// Membership is a single band assignment of an identity
type Membership struct {
	BandID string      `json:"band_id"`
	Role   models.Role `json:"role"`
}

// Identity is the request-scoped caller identity every permission check runs
// against. It is resolved once per request by the auth middleware and passed
// explicitly; nothing in the core reads ambient session state.
type Identity struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	IsAdmin     bool         `json:"is_admin"`
	Memberships []Membership `json:"memberships"`
}

// membership returns the identity's membership in the given band, if any
func (i *Identity) membership(bandID string) (Membership, bool) {
	for _, m := range i.Memberships {
		if m.BandID == bandID {
			return m, true
		}
	}
	return Membership{}, false
}

// BandIDs returns the ids of all bands the identity belongs to
func (i *Identity) BandIDs() []string {
	ids := make([]string, 0, len(i.Memberships))
	for _, m := range i.Memberships {
		ids = append(ids, m.BandID)
	}
	return ids
}

// IdentityFromUser builds an Identity from a user record with memberships
// preloaded
func IdentityFromUser(user *models.User) *Identity {
	identity := &Identity{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	}
	for _, ub := range user.Bands {
		identity.Memberships = append(identity.Memberships, Membership{
			BandID: ub.BandID,
			Role:   ub.Role,
		})
	}
	return identity
}
