package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	validator "gopkg.in/go-playground/validator.v9"
)

const (
	ProviderTypeOIDC          = "oidc"
	ProviderTypeJWT           = "jwt"
	ProviderTypeIntrospection = "introspection"
)

var ErrInvalidProvider = errors.New("invalid provider descriptor")

var validate = validator.New()

// ProviderDescriptor declares a first-party identity provider the backend
// validates tokens for itself.
type ProviderDescriptor struct {
	Type          string `mapstructure:"type" validate:"required,oneof=oidc jwt introspection"`
	Domain        string `mapstructure:"domain" validate:"required,url"`
	ApplicationID string `mapstructure:"application_id"`

	PublicKeyPath string `mapstructure:"public_key_path"`

	IntrospectURL string `mapstructure:"introspect_url" validate:"omitempty,url"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	TokenURL      string `mapstructure:"token_url" validate:"omitempty,url"`
}

func (d ProviderDescriptor) validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProvider, err.Error())
	}

	switch d.Type {
	case ProviderTypeJWT:
		if d.PublicKeyPath == "" {
			return fmt.Errorf("%w: %s: jwt provider requires public_key_path", ErrInvalidProvider, d.Domain)
		}
	case ProviderTypeIntrospection:
		if d.IntrospectURL == "" || d.TokenURL == "" || d.ClientID == "" || d.ClientSecret == "" {
			return fmt.Errorf("%w: %s: introspection provider requires introspect_url, token_url, client_id and client_secret", ErrInvalidProvider, d.Domain)
		}
	}
	return nil
}

// IssuerConfig describes the external hosted identity provider that issues
// the tokens presented by the dashboard.
type IssuerConfig struct {
	URL      string `validate:"required,url"`
	Audience string
	JWKSURL  string `validate:"omitempty,url"`
}

// AuthConfig is read once by the auth bootstrap and never changes.
type AuthConfig struct {
	issuer    IssuerConfig
	providers []ProviderDescriptor
}

func NewAuthConfig(issuer IssuerConfig, providers ...ProviderDescriptor) (AuthConfig, error) {
	if err := validate.Struct(issuer); err != nil {
		return AuthConfig{}, fmt.Errorf("auth.issuer: %s", err.Error())
	}

	for i, p := range providers {
		if err := p.validate(); err != nil {
			return AuthConfig{}, fmt.Errorf("auth.providers[%d]: %w", i, err)
		}
	}

	return AuthConfig{
		issuer:    issuer,
		providers: append([]ProviderDescriptor{}, providers...),
	}, nil
}

func (a AuthConfig) Issuer() IssuerConfig {
	return a.issuer
}

// Providers returns a copy of the first-party provider list, in declaration
// order. It is never nil.
func (a AuthConfig) Providers() []ProviderDescriptor {
	return append([]ProviderDescriptor{}, a.providers...)
}

type ServeConfig struct {
	Port        int
	TLSCertPath string
	TLSKeyPath  string
}

type LogConfig struct {
	Debug  bool
	Format string
}

type EchoConfig struct {
	RedactClaims []string
}

type NatsConfig struct {
	Url string
}

type Config struct {
	Serve ServeConfig
	Log   LogConfig
	Auth  AuthConfig
	Echo  EchoConfig
	Nats  NatsConfig
}

// Load reads the yaml file at path, if any, and applies CFG_ prefixed
// environment overrides, e.g. CFG_AUTH_ISSUER_URL for auth.issuer.url.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CFG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("serve.public.port", 8080)
	v.SetDefault("log.debug", false)
	v.SetDefault("log.format", "text")
	v.SetDefault("auth.issuer.url", "")
	v.SetDefault("auth.issuer.audience", "")
	v.SetDefault("auth.issuer.jwks_url", "")
	v.SetDefault("serve.tls.cert.path", "")
	v.SetDefault("serve.tls.key.path", "")
	v.SetDefault("echo.redact_claims", []string{})
	v.SetDefault("nats.url", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var providers []ProviderDescriptor
	if err := v.UnmarshalKey("auth.providers", &providers); err != nil {
		return nil, fmt.Errorf("auth.providers: %w", err)
	}

	auth, err := NewAuthConfig(IssuerConfig{
		URL:      v.GetString("auth.issuer.url"),
		Audience: v.GetString("auth.issuer.audience"),
		JWKSURL:  v.GetString("auth.issuer.jwks_url"),
	}, providers...)
	if err != nil {
		return nil, err
	}

	return &Config{
		Serve: ServeConfig{
			Port:        v.GetInt("serve.public.port"),
			TLSCertPath: v.GetString("serve.tls.cert.path"),
			TLSKeyPath:  v.GetString("serve.tls.key.path"),
		},
		Log: LogConfig{
			Debug:  v.GetBool("log.debug"),
			Format: v.GetString("log.format"),
		},
		Auth: auth,
		Echo: EchoConfig{
			RedactClaims: v.GetStringSlice("echo.redact_claims"),
		},
		Nats: NatsConfig{
			Url: v.GetString("nats.url"),
		},
	}, nil
}
