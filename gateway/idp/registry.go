package idp

import (
	"context"
	"fmt"

	jwt "github.com/dgrijalva/jwt-go"
)

// Verifier validates a raw bearer credential for a single issuer.
type Verifier interface {
	Issuer() string
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// Resolver turns a raw bearer credential into a caller identity.
type Resolver interface {
	Resolve(ctx context.Context, rawToken string) (Identity, error)
}

// opaqueVerifier is implemented by verifiers that can handle tokens which
// are not JWTs and therefore carry no readable issuer.
type opaqueVerifier interface {
	Verifier
	acceptsOpaqueTokens()
}

// Registry holds the verifiers of every trusted issuer and dispatches a
// token to the verifier of the issuer it claims to come from.
type Registry struct {
	verifiers map[string]Verifier
	issuers   []string
	opaque    []Verifier
}

// NewRegistry registers the given verifiers by issuer. Issuers must be unique.
func NewRegistry(list ...Verifier) (*Registry, error) {
	r := &Registry{verifiers: make(map[string]Verifier)}
	for _, v := range list {
		iss := v.Issuer()
		if _, exists := r.verifiers[iss]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIssuer, iss)
		}
		r.verifiers[iss] = v
		r.issuers = append(r.issuers, iss)

		if _, ok := v.(opaqueVerifier); ok {
			r.opaque = append(r.opaque, v)
		}
	}
	return r, nil
}

// Issuers returns the trusted issuers in registration order.
func (r *Registry) Issuers() []string {
	return append([]string(nil), r.issuers...)
}

func (r *Registry) Resolve(ctx context.Context, rawToken string) (Identity, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	iss, err := peekIssuer(rawToken)
	if err != nil {
		return r.resolveOpaque(ctx, rawToken)
	}

	v, ok := r.verifiers[iss]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIssuer, iss)
	}
	return v.Verify(ctx, rawToken)
}

func (r *Registry) resolveOpaque(ctx context.Context, rawToken string) (Identity, error) {
	var lastErr error = ErrInvalidToken
	for _, v := range r.opaque {
		identity, err := v.Verify(ctx, rawToken)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// peekIssuer reads the iss claim of a JWT without checking its signature.
// The result is only used to pick a verifier.
func peekIssuer(rawToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(rawToken, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	iss, _ := claims["iss"].(string)
	if iss == "" {
		return "", ErrMissingClaims
	}
	return iss, nil
}

func audienceContains(aud interface{}, wanted string) bool {
	switch a := aud.(type) {
	case string:
		return a == wanted
	case []string:
		for _, s := range a {
			if s == wanted {
				return true
			}
		}
	case []interface{}:
		for _, s := range a {
			if str, ok := s.(string); ok && str == wanted {
				return true
			}
		}
	}
	return false
}
