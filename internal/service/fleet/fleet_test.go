package fleet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/domain/condominium"
	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
	xerrors "vigilance-service/internal/pkg/errors"
	"vigilance-service/internal/repository/memory"
	condosvc "vigilance-service/internal/service/condominium"
)

type accountStub struct {
	users   *memory.UserRepository
	revoked *[]int64
}

func (a accountStub) CreateAccount(ctx context.Context, email, password, fullName string, role auth.Role) (*auth.User, error) {
	u := &auth.User{Email: email, PasswordHash: "hash", FullName: fullName, Role: role, Status: auth.StatusActive}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (a accountStub) RevokeUser(_ context.Context, userID int64, _ string) error {
	*a.revoked = append(*a.revoked, userID)
	return nil
}

func setup(t *testing.T) (*FleetService, *memory.Store, *auth.Principal, int64) {
	t.Helper()

	store := memory.NewStore()
	condos := condosvc.NewCondominiumService(store.Condominiums, store.Vigilantes, zap.NewNop())
	svc := NewFleetService(condos, store.Vigilantes, store.Motorcycles, accountStub{users: store.Users, revoked: &[]int64{}}, zap.NewNop())

	admin := &auth.Principal{UserID: 1, Role: auth.RoleAdmin, Admin: true}
	c, err := condos.Create(context.Background(), admin, &condominium.CreateRequest{Name: "Residencial Aurora"})
	require.NoError(t, err)
	return svc, store, admin, c.ID
}

func TestVigilante_CreateWithLoginAndGuardAccess(t *testing.T) {
	svc, store, admin, condoID := setup(t)
	ctx := context.Background()

	v, err := svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{
		FullName: "Jane Doe", Registration: "123", Email: "jane@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotNil(t, v.UserID)

	guard := &auth.Principal{UserID: *v.UserID, Role: auth.RoleVigilante}
	list, err := svc.ListVigilantes(ctx, guard, condoID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.CreateMotorcycle(ctx, guard, condoID, &motorcycle.CreateRequest{Plate: "ABC1234", Make: "Honda", Model: "CG 160"})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{FullName: "John", Registration: "123"})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)

	_, err = svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{FullName: "John", Registration: "456", Email: "john@example.com"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	n, err := store.Users.CountByRole(ctx, auth.RoleVigilante)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestVigilante_OtherAdminForbidden(t *testing.T) {
	svc, _, _, condoID := setup(t)

	intruder := &auth.Principal{UserID: 99, Role: auth.RoleAdmin, Admin: true}
	_, err := svc.ListVigilantes(context.Background(), intruder, condoID)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)
}

func TestMotorcycle_PlateNormalizedAndUnique(t *testing.T) {
	svc, _, admin, condoID := setup(t)
	ctx := context.Background()

	m, err := svc.CreateMotorcycle(ctx, admin, condoID, &motorcycle.CreateRequest{Plate: " abc 1234 ", Make: "Honda", Model: "CG 160", Year: 2022})
	require.NoError(t, err)
	assert.Equal(t, "ABC1234", m.Plate)
	assert.Equal(t, motorcycle.StatusActive, m.Status)

	_, err = svc.CreateMotorcycle(ctx, admin, condoID, &motorcycle.CreateRequest{Plate: "ABC1234", Make: "Yamaha", Model: "Factor"})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)

	maintenance := motorcycle.StatusMaintenance
	_, err = svc.UpdateMotorcycle(ctx, admin, condoID, m.ID, &motorcycle.UpdateRequest{Status: &maintenance})
	require.NoError(t, err)

	guard := &auth.Principal{UserID: 50, Role: auth.RoleVigilante}
	_, err = svc.ListMotorcycles(ctx, guard, condoID, nil)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	all, err := svc.ListMotorcycles(ctx, admin, condoID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDelete_ReferencedByChecklistConflicts(t *testing.T) {
	svc, store, admin, condoID := setup(t)
	ctx := context.Background()

	v, err := svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{FullName: "Jane Doe", Registration: "1"})
	require.NoError(t, err)
	m, err := svc.CreateMotorcycle(ctx, admin, condoID, &motorcycle.CreateRequest{Plate: "ABC1234", Make: "Honda", Model: "CG"})
	require.NoError(t, err)

	require.NoError(t, store.Checklists.Create(ctx, &checklist.Checklist{
		VigilanteID: v.ID, MotorcycleID: m.ID, Type: checklist.TypeStart, Signature: "data:image/png;base64,AA==",
	}))

	assert.ErrorIs(t, svc.DeleteVigilante(ctx, admin, condoID, v.ID), xerrors.ErrConflict)
	assert.ErrorIs(t, svc.DeleteMotorcycle(ctx, admin, condoID, m.ID), xerrors.ErrConflict)
}

func TestGetVigilante_WrongCondominium(t *testing.T) {
	svc, _, admin, condoID := setup(t)
	ctx := context.Background()

	v, err := svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{FullName: "Jane Doe", Registration: "1"})
	require.NoError(t, err)

	other, err := svc.condos.Create(ctx, admin, &condominium.CreateRequest{Name: "Bosque"})
	require.NoError(t, err)

	_, err = svc.GetVigilante(ctx, admin, other.ID, v.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestVigilante_DeactivateAndDeleteRevokeLogin(t *testing.T) {
	svc, _, admin, condoID := setup(t)
	ctx := context.Background()
	revoked := svc.accounts.(accountStub).revoked

	v, err := svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{
		FullName: "Jane Doe", Registration: "123", Email: "jane@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	phone := "11 99999-0000"
	_, err = svc.UpdateVigilante(ctx, admin, condoID, v.ID, &vigilante.UpdateRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Empty(t, *revoked)

	inactive := false
	_, err = svc.UpdateVigilante(ctx, admin, condoID, v.ID, &vigilante.UpdateRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, []int64{*v.UserID}, *revoked)

	require.NoError(t, svc.DeleteVigilante(ctx, admin, condoID, v.ID))
	assert.Equal(t, []int64{*v.UserID, *v.UserID}, *revoked)

	noLogin, err := svc.CreateVigilante(ctx, admin, condoID, &vigilante.CreateRequest{FullName: "John", Registration: "456"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteVigilante(ctx, admin, condoID, noLogin.ID))
	assert.Len(t, *revoked, 2)
}
