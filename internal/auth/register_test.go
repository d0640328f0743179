package auth

import (
	"context"
	"testing"

	"github.com/angelmondragon/ecommerce-backend/internal/users"
	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesClientWithoutCart(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewRegisterService(RegisterServiceParams{DB: client, PasswordConfig: config.PasswordConfig{}})
	require.NoError(t, err)
	ctx := context.Background()

	dto, err := svc.Register(ctx, RegisterRequest{Username: "newbie", Email: " NewBie@Example.com ", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "client", dto.Role)
	assert.Equal(t, "newbie@example.com", dto.Email)

	stored, err := users.NewRepository(client.DB()).FindByID(ctx, dto.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("hunter2hunter2", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	var headers int64
	require.NoError(t, client.DB().Model(&models.CartHeader{}).Count(&headers).Error)
	assert.Zero(t, headers)
}

func TestRegisterConflictsAndPolicy(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewRegisterService(RegisterServiceParams{DB: client})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Register(ctx, RegisterRequest{Username: "taken", Email: "taken@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "TAKEN", Email: "other@example.com", Password: "password1"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = svc.Register(ctx, RegisterRequest{Username: "other", Email: "taken@example.com", Password: "password1"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = svc.Register(ctx, RegisterRequest{Username: "short", Email: "short@example.com", Password: "seven77"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
