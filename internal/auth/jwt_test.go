package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/model"
)

func TestGenerateAndValidate(t *testing.T) {
	issuer := NewIssuer("test-secret-key", "zimmet", time.Hour)

	token, issued, err := issuer.Generate(1, "admin", model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "zimmet", claims.Issuer)
}

func TestTokensHaveUniqueIDs(t *testing.T) {
	issuer := NewIssuer("secret", "zimmet", time.Hour)
	_, a, err := issuer.Generate(1, "admin", model.RoleAdmin)
	require.NoError(t, err)
	_, b, err := issuer.Generate(1, "admin", model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidateRejects(t *testing.T) {
	issuer := NewIssuer("secret1", "zimmet", time.Hour)
	token, _, err := issuer.Generate(1, "admin", model.RoleAdmin)
	require.NoError(t, err)

	tests := map[string]struct {
		issuer *Issuer
		token  string
	}{
		"wrong secret": {NewIssuer("secret2", "zimmet", time.Hour), token},
		"wrong issuer": {NewIssuer("secret1", "other", time.Hour), token},
		"not a token":  {issuer, "not-a-token"},
		"empty":        {issuer, ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tc.issuer.Validate(tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", "zimmet", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }
	token, _, err := issuer.Generate(1, "admin", model.RoleAdmin)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiryUsesTTL(t *testing.T) {
	issuer := NewIssuer("secret", "zimmet", 0)
	assert.Equal(t, DefaultTTL, issuer.TTL())

	_, claims, err := issuer.Generate(1, "test", model.RoleUser)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, 5*time.Second)
}
