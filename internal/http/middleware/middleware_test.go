package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/listing-carts/internal/model"
)

type stubParser struct {
	principal model.Principal
}

func (s stubParser) Parse(token string) (model.Principal, error) {
	if token != "good" {
		return model.Principal{}, errors.New("bad token")
	}
	return s.principal, nil
}

func newEngine(parser TokenParser, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestLogger(log), Auth(parser))
	engine.GET("/whoami", func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, principal.AgentID.String())
	})
	return engine
}

func TestAuth(t *testing.T) {
	agent := model.Principal{AgentID: uuid.New()}
	engine := newEngine(stubParser{principal: agent}, zerolog.Nop())

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "anonymous", status: http.StatusOK, body: "anonymous"},
		{name: "valid", header: "Bearer good", status: http.StatusOK, body: agent.AgentID.String()},
		{name: "invalid", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	engine := newEngine(stubParser{}, zerolog.New(&buf))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"route":"/whoami"`)
	buf.Reset()

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"status":404`)
}
