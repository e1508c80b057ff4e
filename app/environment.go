package app

import (
	"github.com/sirupsen/logrus"

	"github.com/opensentry/whoami/config"
	"github.com/opensentry/whoami/gateway/idp"
)

type EnvironmentConstants struct {
	RequestIdKey string
	LogKey       string

	ContextAccessTokenKey string
	ContextIdentityKey    string
}

var DefaultConstants = EnvironmentConstants{
	RequestIdKey:          "RequestId",
	LogKey:                "log",
	ContextAccessTokenKey: "access_token",
	ContextIdentityKey:    "identity",
}

type Environment struct {
	Constants *EnvironmentConstants

	Logger *logrus.Logger

	Config   *config.Config
	Resolver idp.Resolver
}

type Route struct {
	URL   string
	LogId string
}
