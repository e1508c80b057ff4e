package idp

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io/ioutil"

	jwt "github.com/dgrijalva/jwt-go"
)

// JWTVerifier verifies RS256 tokens against a single static public key.
// Used for first-party issuers that do not publish discovery documents.
type JWTVerifier struct {
	issuer   string
	audience string
	key      *rsa.PublicKey
}

func NewJWTVerifier(issuer string, audience string, key *rsa.PublicKey) *JWTVerifier {
	return &JWTVerifier{
		issuer:   issuer,
		audience: audience,
		key:      key,
	}
}

// LoadRSAPublicKey reads a PEM encoded RSA public key or certificate.
func LoadRSAPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(data)
}

func (v *JWTVerifier) Issuer() string {
	return v.issuer
}

func (v *JWTVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}

	if v.audience != "" && !audienceContains(claims["aud"], v.audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	return CallerFromClaims(claims)
}
