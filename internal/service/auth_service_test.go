package service

import (
	"context"
	"testing"
	"time"

	"ubinan/monitoring-app/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterAndLogin(t *testing.T) {
	st := newStore()
	auth := NewAuthService(fakeUserRepo{st}, "s3cret", time.Hour)
	ctx := context.Background()

	u, err := auth.Register(ctx, "Siti", " Siti@Example.org ", "rahasia", domain.RoleOfficer)
	require.NoError(t, err)
	assert.Equal(t, "siti@example.org", u.Email)
	assert.Empty(t, u.PasswordHash)

	_, err = auth.Register(ctx, "Siti", "siti@example.org", "lain", domain.RoleOfficer)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = auth.Register(ctx, "X", "x@example.org", "pw", domain.Role("boss"))
	assert.ErrorIs(t, err, ErrWrongRole)

	_, _, err = auth.Login(ctx, "siti@example.org", "salah")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	token, user, err := auth.Login(ctx, "SITI@example.org", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("s3cret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleOfficer, claims.Role)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}

func TestRosterLinkOfficer(t *testing.T) {
	st := newStore()
	officer := st.addUser("siti", domain.RoleOfficer)
	supervisor := st.addUser("rahmat", domain.RoleSupervisor)
	roster := NewRosterService(fakeUserRepo{st}, zap.NewNop())
	ctx := context.Background()

	_, err := roster.LinkOfficer(ctx, supervisor.ID, supervisor.ID)
	assert.ErrorIs(t, err, ErrWrongRole)

	linked, err := roster.LinkOfficer(ctx, officer.ID, supervisor.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.SupervisorID)
	assert.Empty(t, linked.PasswordHash)

	officers, err := roster.GetOfficers(ctx, supervisor.ID)
	require.NoError(t, err)
	require.Len(t, officers, 1)
	assert.Equal(t, officer.ID, officers[0].ID)
	assert.Empty(t, officers[0].PasswordHash)

	_, err = roster.ListUsers(ctx, domain.Role("boss"))
	assert.ErrorIs(t, err, ErrWrongRole)

	names, err := roster.DisplayNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{officer.ID.Hex(): "siti", supervisor.ID.Hex(): "rahmat"}, names)
}
