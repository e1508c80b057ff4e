package identities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensentry/whoami/app"
	"github.com/opensentry/whoami/config"
	"github.com/opensentry/whoami/gateway/idp"
)

type stubResolver map[string]idp.Identity

func (s stubResolver) Resolve(ctx context.Context, rawToken string) (idp.Identity, error) {
	if identity, ok := s[rawToken]; ok {
		return identity, nil
	}
	return nil, idp.ErrInvalidToken
}

func newScenarioBCaller(t *testing.T) *idp.Caller {
	t.Helper()
	caller, err := idp.NewCaller("https://example-issuer.test", "user_123", map[string]interface{}{
		"email": "user@example-issuer.test",
		"name":  "Example User",
	})
	require.NoError(t, err)
	return caller
}

func newTestRouter(t *testing.T, echo config.EchoConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth, err := config.NewAuthConfig(config.IssuerConfig{URL: "https://example-issuer.test"})
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	env := &app.Environment{
		Constants: &app.DefaultConstants,
		Logger:    logger,
		Config:    &config.Config{Auth: auth, Echo: echo},
		Resolver:  stubResolver{"token-b": newScenarioBCaller(t)},
	}

	route := app.Route{URL: "/identity", LogId: "whoami://identity"}

	r := gin.New()
	r.Use(app.RequestId(env), app.RequestLogger(env, nil), app.ResolveIdentity(env))
	r.GET(route.URL, GetIdentity(env, route))
	return r
}

func getIdentity(t *testing.T, r http.Handler, authorization string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest("GET", "/identity", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestEchoWithoutIdentity(t *testing.T) {
	echo := Echo(nil)
	assert.False(t, echo.HasIdentity)
	assert.Nil(t, echo.Identity)
	assert.Empty(t, echo.Issuer)
	assert.Empty(t, echo.Subject)
}

func TestEchoIsIdempotent(t *testing.T) {
	caller := newScenarioBCaller(t)

	first, err := json.Marshal(Echo(caller))
	require.NoError(t, err)
	second, err := json.Marshal(Echo(caller))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

// Scenario A: anonymous request
func TestGetIdentityAnonymous(t *testing.T) {
	r := newTestRouter(t, config.EchoConfig{})

	for _, authorization := range []string{"", "Bearer expired-or-unknown", "Basic dXNlcjpwYXNz"} {
		body := getIdentity(t, r, authorization)

		assert.Equal(t, map[string]interface{}{
			"identity":    nil,
			"hasIdentity": false,
		}, body, authorization)
	}
}

// Scenario B: issuer https://example-issuer.test, subject user_123
func TestGetIdentityAuthenticated(t *testing.T) {
	r := newTestRouter(t, config.EchoConfig{})

	body := getIdentity(t, r, "Bearer token-b")

	assert.Equal(t, true, body["hasIdentity"])
	assert.Equal(t, "https://example-issuer.test", body["issuer"])
	assert.Equal(t, "user_123", body["subject"])

	identity, ok := body["identity"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://example-issuer.test", identity["issuer"])
	assert.Equal(t, "user_123", identity["subject"])
	assert.Equal(t, "https://example-issuer.test|user_123", identity["tokenIdentifier"])
	assert.Equal(t, "user@example-issuer.test", identity["email"])
	assert.Equal(t, "Example User", identity["name"])

	assert.Equal(t, body, getIdentity(t, r, "Bearer token-b"))
}

func TestGetIdentityRedactsClaims(t *testing.T) {
	r := newTestRouter(t, config.EchoConfig{RedactClaims: []string{"email"}})

	body := getIdentity(t, r, "Bearer token-b")

	identity := body["identity"].(map[string]interface{})
	assert.NotContains(t, identity, "email")
	assert.Equal(t, "Example User", identity["name"])
	assert.Equal(t, "user_123", body["subject"])
}
