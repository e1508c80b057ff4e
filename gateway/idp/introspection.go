package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
)

// IntrospectionVerifier asks an authorization server whether a token is
// active (RFC 7662). It is the only verifier able to handle opaque tokens.
type IntrospectionVerifier struct {
	issuer   string
	audience string
	url      string
	client   *http.Client
}

// NewIntrospectionVerifier expects client to authenticate itself to the
// introspection endpoint, e.g. a clientcredentials.Config client.
func NewIntrospectionVerifier(issuer string, audience string, introspectUrl string, client *http.Client) *IntrospectionVerifier {
	return &IntrospectionVerifier{
		issuer:   issuer,
		audience: audience,
		url:      introspectUrl,
		client:   client,
	}
}

func (v *IntrospectionVerifier) Issuer() string {
	return v.issuer
}

func (v *IntrospectionVerifier) acceptsOpaqueTokens() {}

func (v *IntrospectionVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	form := url.Values{"token": {rawToken}}
	request, err := http.NewRequestWithContext(ctx, "POST", v.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := v.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("introspection request failed: %w", err)
	}
	defer response.Body.Close()

	responseData, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspection returned status %d", response.StatusCode)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(responseData, &claims); err != nil {
		return nil, fmt.Errorf("introspection response parse failed: %w", err)
	}

	if active, _ := claims["active"].(bool); !active {
		return nil, ErrTokenInactive
	}
	delete(claims, "active")

	if iss, _ := claims["iss"].(string); iss == "" {
		claims["iss"] = v.issuer
	} else if iss != v.issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}

	if v.audience != "" && !audienceContains(claims["aud"], v.audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	return CallerFromClaims(claims)
}
