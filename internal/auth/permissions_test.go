package auth

import (
	"testing"

	"example.com/calendariko/internal/models"

	"github.com/stretchr/testify/require"
)

func identityWith(role models.Role) *Identity {
	return &Identity{
		ID: "user-1",
		Memberships: []Membership{
			{BandID: "band-1", Role: role},
		},
	}
}

var adminIdentity = &Identity{ID: "admin-1", IsAdmin: true}

func TestAdminOverridesEverything(t *testing.T) {
	event := &models.Event{
		BandID:    "band-1",
		CreatedBy: "someone-else",
		Privacy:   models.PrivacyAgency,
	}

	require.True(t, CanViewAllBands(adminIdentity))
	require.True(t, CanViewBand(adminIdentity, "band-1"))
	require.True(t, CanManageBand(adminIdentity, "band-1"))
	require.True(t, CanCreateEvent(adminIdentity, "band-1"))
	require.True(t, CanEditEvent(adminIdentity, event))
	require.True(t, CanDeleteEvent(adminIdentity, event))
	require.True(t, CanViewEventFinancials(adminIdentity, event))
	require.True(t, CanManageUsers(adminIdentity))
	require.True(t, CanManageBandUsers(adminIdentity, "band-1"))
}

func TestNoMembershipDeniesEverything(t *testing.T) {
	outsider := &Identity{ID: "user-9"}
	event := &models.Event{BandID: "band-1", CreatedBy: "user-9"}

	require.False(t, CanViewAllBands(outsider))
	require.False(t, CanViewBand(outsider, "band-1"))
	require.False(t, CanManageBand(outsider, "band-1"))
	require.False(t, CanCreateEvent(outsider, "band-1"))
	// Even the original creator loses edit rights once out of the band
	require.False(t, CanEditEvent(outsider, event))
	require.False(t, CanDeleteEvent(outsider, event))
	require.False(t, CanViewEventFinancials(outsider, event))
	require.False(t, CanManageUsers(outsider))
	require.False(t, CanManageBandUsers(outsider, "band-1"))
}

func TestMemberRights(t *testing.T) {
	member := identityWith(models.RoleMember)

	own := &models.Event{BandID: "band-1", CreatedBy: "user-1"}
	foreign := &models.Event{BandID: "band-1", CreatedBy: "user-2"}

	require.True(t, CanViewBand(member, "band-1"))
	require.True(t, CanCreateEvent(member, "band-1"))
	require.False(t, CanManageBand(member, "band-1"))
	require.False(t, CanManageBandUsers(member, "band-1"))

	// Members may only edit and delete what they created
	require.True(t, CanEditEvent(member, own))
	require.True(t, CanDeleteEvent(member, own))
	require.False(t, CanEditEvent(member, foreign))
	require.False(t, CanDeleteEvent(member, foreign))

	// Financials are manager territory
	require.False(t, CanViewEventFinancials(member, own))
}

func TestManagerRights(t *testing.T) {
	manager := identityWith(models.RoleManager)

	foreign := &models.Event{BandID: "band-1", CreatedBy: "user-2"}

	require.True(t, CanManageBand(manager, "band-1"))
	require.True(t, CanManageBandUsers(manager, "band-1"))
	require.True(t, CanEditEvent(manager, foreign))
	require.True(t, CanDeleteEvent(manager, foreign))
	require.True(t, CanViewEventFinancials(manager, foreign))

	// Other bands remain off limits
	require.False(t, CanViewBand(manager, "band-2"))
	require.False(t, CanEditEvent(manager, &models.Event{BandID: "band-2"}))
}

func TestAgencyPrivacyHidesFinancialsFromManager(t *testing.T) {
	manager := identityWith(models.RoleManager)

	agency := &models.Event{BandID: "band-1", Privacy: models.PrivacyAgency, CreatedBy: "admin-1"}

	// The manager still sees and edits the event, just not its money
	require.True(t, CanEditEvent(manager, agency))
	require.False(t, CanViewEventFinancials(manager, agency))

	bandPrivate := &models.Event{BandID: "band-1", Privacy: models.PrivacyBand}
	require.True(t, CanViewEventFinancials(manager, bandPrivate))
}
