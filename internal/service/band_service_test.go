package service

import (
	"context"
	"testing"

	"example.com/calendariko/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testBand() *models.Band {
	return &models.Band{
		Model: models.Model{ID: "band-1"},
		Name:  "The Rockers",
		Slug:  "the-rockers",
		Users: []models.UserBand{
			{UserID: "old-manager", BandID: "band-1", Role: models.RoleManager},
			{UserID: "member-1", BandID: "band-1", Role: models.RoleMember},
		},
	}
}

func TestCreateBandRequiresAdmin(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	_, err := svc.CreateBand(context.Background(), managerIdentity(), BandInput{
		Name: "New Band", Slug: "new-band",
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "CreateBand", mock.Anything, mock.Anything)
}

func TestCreateBandRejectsTakenSlug(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	repo.On("FindBandBySlug", mock.Anything, "the-rockers").Return(testBand(), nil)

	_, err := svc.CreateBand(context.Background(), adminTestIdentity(), BandInput{
		Name: "Impostors", Slug: "the-rockers",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	repo.AssertNotCalled(t, "CreateBand", mock.Anything, mock.Anything)
}

func TestCreateBandSuccess(t *testing.T) {
	repo := new(mockRepository)
	svc, rec, _ := newTestService(repo)

	repo.On("FindBandBySlug", mock.Anything, "new-band").Return(nil, gorm.ErrRecordNotFound)
	repo.On("CreateBand", mock.Anything, mock.AnythingOfType("*models.Band")).Return(nil)

	band, err := svc.CreateBand(context.Background(), adminTestIdentity(), BandInput{
		Name: "New Band", Slug: "new-band", Notes: "Fresh signing",
	})
	require.NoError(t, err)
	require.NotEmpty(t, band.ID)
	require.Equal(t, "new-band", band.Slug)
	require.Equal(t, 1, rec.calls)
}

func TestDeleteBandBlockedWhileEventsExist(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	repo.On("FindBandByID", mock.Anything, "band-1").Return(testBand(), nil)
	repo.On("CountBandEvents", mock.Anything, "band-1").Return(int64(3), nil)

	err := svc.DeleteBand(context.Background(), adminTestIdentity(), "band-1")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	repo.AssertNotCalled(t, "DeleteBand", mock.Anything, mock.Anything)
}

func TestDeleteBandSuccess(t *testing.T) {
	repo := new(mockRepository)
	svc, rec, _ := newTestService(repo)

	repo.On("FindBandByID", mock.Anything, "band-1").Return(testBand(), nil)
	repo.On("CountBandEvents", mock.Anything, "band-1").Return(int64(0), nil)
	repo.On("DeleteBand", mock.Anything, "band-1").Return(nil)

	err := svc.DeleteBand(context.Background(), adminTestIdentity(), "band-1")
	require.NoError(t, err)
	require.Equal(t, 1, rec.calls)
}

func TestSetReferenteRequiresAdmin(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	userID := "member-1"
	_, err := svc.SetReferente(context.Background(), managerIdentity(), "band-1", &userID)
	require.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "ResetBandRoles", mock.Anything, mock.Anything)
}

func TestSetReferenteResetsAndPromotes(t *testing.T) {
	repo := new(mockRepository)
	svc, rec, _ := newTestService(repo)

	repo.On("FindBandByID", mock.Anything, "band-1").Return(testBand(), nil)
	repo.On("ResetBandRoles", mock.Anything, "band-1").Return(nil)
	repo.On("FindBandMembership", mock.Anything, "member-1", "band-1").Return(&models.UserBand{
		UserID: "member-1", BandID: "band-1", Role: models.RoleMember,
	}, nil)
	repo.On("SetBandRole", mock.Anything, "member-1", "band-1", models.RoleManager).Return(nil)

	userID := "member-1"
	band, err := svc.SetReferente(context.Background(), adminTestIdentity(), "band-1", &userID)
	require.NoError(t, err)
	require.NotNil(t, band)
	require.Equal(t, 1, rec.calls)
	repo.AssertExpectations(t)
}

func TestSetReferenteRejectsNonMember(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	repo.On("FindBandByID", mock.Anything, "band-1").Return(testBand(), nil)
	repo.On("ResetBandRoles", mock.Anything, "band-1").Return(nil)
	repo.On("FindBandMembership", mock.Anything, "outsider-1", "band-1").
		Return(nil, gorm.ErrRecordNotFound)

	userID := "outsider-1"
	_, err := svc.SetReferente(context.Background(), adminTestIdentity(), "band-1", &userID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	repo.AssertNotCalled(t, "SetBandRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetReferenteNilLeavesBandWithoutManager(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	repo.On("FindBandByID", mock.Anything, "band-1").Return(testBand(), nil)
	repo.On("ResetBandRoles", mock.Anything, "band-1").Return(nil)

	band, err := svc.SetReferente(context.Background(), adminTestIdentity(), "band-1", nil)
	require.NoError(t, err)
	require.NotNil(t, band)
	repo.AssertNotCalled(t, "SetBandRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "FindBandMembership", mock.Anything, mock.Anything, mock.Anything)
}

func TestListBandsScopedForMembers(t *testing.T) {
	repo := new(mockRepository)
	svc, _, _ := newTestService(repo)

	repo.On("ListBandsByIDs", mock.Anything, []string{"band-1"}).
		Return([]*models.Band{testBand()}, nil)

	bands, err := svc.ListBands(context.Background(), memberIdentity())
	require.NoError(t, err)
	require.Len(t, bands, 1)
	repo.AssertNotCalled(t, "ListBands", mock.Anything)
}
