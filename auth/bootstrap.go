// Package auth turns the static provider configuration into the verifiers
// that resolve caller identities.
package auth

import (
	"context"
	"fmt"

	oidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/opensentry/whoami/config"
	"github.com/opensentry/whoami/gateway/idp"
)

// Bootstrap registers a verifier for the external identity provider and one
// for every first-party provider in conf. ctx is kept by the key sets for
// later key fetches and must outlive the server.
func Bootstrap(ctx context.Context, conf config.AuthConfig, log *logrus.Entry) (*idp.Registry, error) {
	log = log.WithFields(logrus.Fields{"func": "Bootstrap"})

	var verifiers []idp.Verifier

	external, err := issuerVerifier(ctx, conf.Issuer())
	if err != nil {
		return nil, err
	}
	verifiers = append(verifiers, external)
	log.WithFields(logrus.Fields{"issuer": external.Issuer(), "type": "external"}).Info("Trusting issuer")

	for i, p := range conf.Providers() {
		v, err := providerVerifier(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("auth.providers[%d]: %w", i, err)
		}
		verifiers = append(verifiers, v)
		log.WithFields(logrus.Fields{"issuer": v.Issuer(), "type": p.Type}).Info("Trusting issuer")
	}

	return idp.NewRegistry(verifiers...)
}

func issuerVerifier(ctx context.Context, issuer config.IssuerConfig) (idp.Verifier, error) {
	if issuer.JWKSURL != "" {
		keySet := oidc.NewRemoteKeySet(ctx, issuer.JWKSURL)
		return idp.NewOIDCVerifierWithKeySet(issuer.URL, issuer.Audience, keySet), nil
	}
	return idp.NewOIDCVerifier(ctx, issuer.URL, issuer.Audience)
}

func providerVerifier(ctx context.Context, p config.ProviderDescriptor) (idp.Verifier, error) {
	switch p.Type {

	case config.ProviderTypeOIDC:
		return idp.NewOIDCVerifier(ctx, p.Domain, p.ApplicationID)

	case config.ProviderTypeJWT:
		key, err := idp.LoadRSAPublicKey(p.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load public key %s: %w", p.PublicKeyPath, err)
		}
		return idp.NewJWTVerifier(p.Domain, p.ApplicationID, key), nil

	case config.ProviderTypeIntrospection:
		cc := &clientcredentials.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			TokenURL:     p.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		return idp.NewIntrospectionVerifier(p.Domain, p.ApplicationID, p.IntrospectURL, cc.Client(ctx)), nil

	}
	return nil, fmt.Errorf("%w: unsupported type %q", config.ErrInvalidProvider, p.Type)
}
