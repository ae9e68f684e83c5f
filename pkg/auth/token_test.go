package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "printdesk",
		ExpirationMinutes: 5,
	}
}

func TestSignAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	raw, err := SignAccessToken(cfg, Claims{
		UserID:             userID,
		Name:               "Priya",
		Role:               enums.RoleProduction,
		Department:         "production",
		ProductionSubstage: "printing",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, raw)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleProduction, claims.Role)
	assert.Equal(t, "printing", claims.ProductionSubstage)
	assert.False(t, claims.IsAdmin)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := SignAccessToken(testJWTConfig(), Claims{UserID: uuid.New(), Role: enums.RoleSales})
	require.NoError(t, err)

	other := testJWTConfig()
	other.Secret = "different"
	_, err = ParseAccessToken(other, raw)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	raw, err := SignAccessToken(cfg, Claims{UserID: uuid.New(), Role: enums.RoleSales})
	require.NoError(t, err)

	other := testJWTConfig()
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, raw)
	assert.Error(t, err)
}
