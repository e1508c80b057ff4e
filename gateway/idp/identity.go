package idp

import (
	"encoding/json"
	"errors"
)

var (
	// ErrMissingClaims is returned when a verified token does not carry both
	// an issuer and a subject.
	ErrMissingClaims = errors.New("identity is missing issuer or subject claim")

	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenInactive = errors.New("token is not active")
	ErrUnknownIssuer = errors.New("no verifier registered for issuer")

	ErrDuplicateIssuer = errors.New("issuer registered more than once")
)

// Identity is the caller identity resolved from a presented credential.
// Issuer and Subject are always set. Claims holds everything else the
// identity provider attached to the token.
type Identity interface {
	Issuer() string
	Subject() string
	Claims() map[string]interface{}
}

// Caller is the Identity produced by every verifier in this package.
type Caller struct {
	issuer  string
	subject string
	claims  map[string]interface{}
}

func NewCaller(issuer string, subject string, claims map[string]interface{}) (*Caller, error) {
	if issuer == "" || subject == "" {
		return nil, ErrMissingClaims
	}

	c := &Caller{
		issuer:  issuer,
		subject: subject,
		claims:  make(map[string]interface{}, len(claims)),
	}
	for k, v := range claims {
		if k == "iss" || k == "sub" {
			continue
		}
		c.claims[k] = v
	}
	return c, nil
}

// CallerFromClaims builds a Caller from a decoded token payload using the
// registered iss and sub claims.
func CallerFromClaims(claims map[string]interface{}) (*Caller, error) {
	iss, _ := claims["iss"].(string)
	sub, _ := claims["sub"].(string)
	return NewCaller(iss, sub, claims)
}

func (c *Caller) Issuer() string {
	return c.issuer
}

func (c *Caller) Subject() string {
	return c.subject
}

// TokenIdentifier is a key for the caller that is unique across issuers.
func (c *Caller) TokenIdentifier() string {
	return c.issuer + "|" + c.subject
}

// Claims returns a copy of the non-registered claims.
func (c *Caller) Claims() map[string]interface{} {
	out := make(map[string]interface{}, len(c.claims))
	for k, v := range c.claims {
		out[k] = v
	}
	return out
}

func (c *Caller) MarshalJSON() ([]byte, error) {
	out := c.Claims()
	out["issuer"] = c.issuer
	out["subject"] = c.subject
	out["tokenIdentifier"] = c.TokenIdentifier()
	return json.Marshal(out)
}

// WithoutClaims returns a copy of identity with the named claims removed.
// Issuer and subject can not be removed.
func WithoutClaims(identity Identity, names ...string) Identity {
	if identity == nil || len(names) == 0 {
		return identity
	}

	claims := identity.Claims()
	for _, name := range names {
		delete(claims, name)
	}

	c, err := NewCaller(identity.Issuer(), identity.Subject(), claims)
	if err != nil {
		return identity
	}
	return c
}
