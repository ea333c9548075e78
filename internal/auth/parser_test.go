package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/listing-carts/internal/model"
)

func TestParseRoundTrip(t *testing.T) {
	parser := NewParser("secret")
	agent := model.Principal{AgentID: uuid.New(), Name: "Dana Agent", Email: "dana@example.com"}

	token, err := parser.Sign(agent, time.Now(), time.Hour)
	require.NoError(t, err)

	got, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, agent, got)
}

func TestParseRejects(t *testing.T) {
	parser := NewParser("secret")
	agent := model.Principal{AgentID: uuid.New()}

	expired, err := parser.Sign(agent, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	otherKey, err := NewParser("other").Sign(agent, time.Now(), time.Hour)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "not-a-uuid",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: agent.AgentID.String(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":     expired,
		"wrong key":   otherKey,
		"bad subject": badSubject,
		"hs512":       hs512,
		"garbage":     "abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseWithoutSecret(t *testing.T) {
	_, err := NewParser("").Parse("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
