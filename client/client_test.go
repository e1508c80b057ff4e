package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newWhoamiTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer token-b" {
			_, _ = w.Write([]byte(`{"identity":null,"hasIdentity":false}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"identity": {"issuer":"https://example-issuer.test","subject":"user_123","tokenIdentifier":"https://example-issuer.test|user_123"},
			"hasIdentity": true,
			"issuer": "https://example-issuer.test",
			"subject": "user_123"
		}`))
	})
	mux.HandleFunc("/auth/providers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"providers":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReadIdentityAnonymous(t *testing.T) {
	srv := newWhoamiTestServer(t)

	status, res, err := ReadIdentity(NewWhoamiClient(srv.Client()), srv.URL+"/identity")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, ReadIdentityResponse{}, res)
}

func TestReadIdentityWithUserAccessToken(t *testing.T) {
	srv := newWhoamiTestServer(t)

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, srv.Client())
	c := NewWhoamiClientWithTokenSource(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token-b"}))

	status, res, err := ReadIdentity(c, srv.URL+"/identity")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.HasIdentity)
	assert.Equal(t, "https://example-issuer.test", res.Issuer)
	assert.Equal(t, "user_123", res.Subject)
	assert.Equal(t, "user_123", res.Identity["subject"])
}

func TestReadProviders(t *testing.T) {
	srv := newWhoamiTestServer(t)

	status, res, err := ReadProviders(NewWhoamiClient(nil), srv.URL+"/auth/providers")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, res.Providers)
	assert.Empty(t, res.Providers)
}

func TestReadIdentityNotFound(t *testing.T) {
	srv := newWhoamiTestServer(t)

	status, _, err := ReadIdentity(NewWhoamiClient(nil), srv.URL+"/missing")
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNewWhoamiClientWithUserAccessToken(t *testing.T) {
	srv := newWhoamiTestServer(t)

	c := NewWhoamiClientWithUserAccessToken(&oauth2.Config{}, &oauth2.Token{AccessToken: "token-b", TokenType: "Bearer"})

	_, res, err := ReadIdentity(c, srv.URL+"/identity")
	require.NoError(t, err)
	assert.Equal(t, "user_123", res.Subject)
}
