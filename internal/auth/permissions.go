package auth

import (
	"example.com/calendariko/internal/models"
)

// Permission predicates. All of them are pure functions over the identity and
// the target resource: admin is a global override checked first, and a missing
// membership always means deny. Financial visibility is a separate
// confidentiality check, independent of view/edit rights.

// CanViewAllBands reports whether the identity may see every band's calendar
func CanViewAllBands(identity *Identity) bool {
	return identity.IsAdmin
}

// CanViewBand reports whether the identity may see the band and its events
func CanViewBand(identity *Identity, bandID string) bool {
	if identity.IsAdmin {
		return true
	}
	_, ok := identity.membership(bandID)
	return ok
}

// CanManageBand reports whether the identity may change band settings
func CanManageBand(identity *Identity, bandID string) bool {
	if identity.IsAdmin {
		return true
	}
	m, ok := identity.membership(bandID)
	return ok && m.Role == models.RoleManager
}

// CanCreateEvent reports whether the identity may create events for the band.
// Any membership is enough; the role does not matter.
func CanCreateEvent(identity *Identity, bandID string) bool {
	if identity.IsAdmin {
		return true
	}
	_, ok := identity.membership(bandID)
	return ok
}

// CanEditEvent reports whether the identity may modify the event. Managers
// may edit any event in their band; members only events they created.
func CanEditEvent(identity *Identity, event *models.Event) bool {
	if identity.IsAdmin {
		return true
	}
	m, ok := identity.membership(event.BandID)
	if !ok {
		return false
	}
	if m.Role == models.RoleManager {
		return true
	}
	return event.CreatedBy == identity.ID
}

// CanDeleteEvent reports whether the identity may delete the event. The rule
// currently matches CanEditEvent but is kept separate so the two policies can
// diverge.
func CanDeleteEvent(identity *Identity, event *models.Event) bool {
	if identity.IsAdmin {
		return true
	}
	m, ok := identity.membership(event.BandID)
	if !ok {
		return false
	}
	if m.Role == models.RoleManager {
		return true
	}
	return event.CreatedBy == identity.ID
}

// CanViewEventFinancials reports whether the identity may see the event's
// financial fields. Agency-private events are financially opaque to everyone
// but admins, including the band's own manager.
func CanViewEventFinancials(identity *Identity, event *models.Event) bool {
	if identity.IsAdmin {
		return true
	}
	if event.Privacy == models.PrivacyAgency {
		return false
	}
	m, ok := identity.membership(event.BandID)
	return ok && m.Role == models.RoleManager
}

// CanManageUsers reports whether the identity may administer user accounts
func CanManageUsers(identity *Identity) bool {
	return identity.IsAdmin
}

// CanManageBandUsers reports whether the identity may manage the band's
// member list
func CanManageBandUsers(identity *Identity, bandID string) bool {
	if identity.IsAdmin {
		return true
	}
	m, ok := identity.membership(bandID)
	return ok && m.Role == models.RoleManager
}
