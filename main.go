package main

import (
	"context"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	nats "github.com/nats-io/nats.go"
	"github.com/pborman/getopt"
	"github.com/sirupsen/logrus"

	"github.com/opensentry/whoami/app"
	"github.com/opensentry/whoami/auth"
	"github.com/opensentry/whoami/config"
	"github.com/opensentry/whoami/endpoints/identities"
	"github.com/opensentry/whoami/endpoints/providers"
	"github.com/opensentry/whoami/gateway/idp"
)

const appName = "whoami"

func newLogger(conf config.LogConfig) *logrus.Logger {
	log := logrus.New()

	// We only have 2 log levels. Things developers care about (debug) and things the user of the app cares about (info)
	if conf.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	if conf.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func main() {
	optConfig := getopt.StringLong("config", 'c', os.Getenv("CFG_PATH"), "Path to yaml config file")
	optHelp := getopt.BoolLong("help", 0, "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	conf, err := config.Load(*optConfig)
	if err != nil {
		logrus.WithFields(logrus.Fields{"appname": appName}).Fatal(err.Error())
	}

	log := newLogger(conf.Log)
	appFields := logrus.Fields{
		"appname":    appName,
		"log.debug":  conf.Log.Debug,
		"log.format": conf.Log.Format,
	}

	registry, err := auth.Bootstrap(context.Background(), conf.Auth, log.WithFields(appFields))
	if err != nil {
		log.WithFields(appFields).WithFields(logrus.Fields{"component": "Auth bootstrap"}).Fatal(err.Error())
	}

	if conf.Nats.Url != "" {
		announceAuthConfig(conf, registry, log.WithFields(appFields))
	}

	env := &app.Environment{
		Constants: &app.DefaultConstants,
		Logger:    log,
		Config:    conf,
		Resolver:  registry,
	}

	serve(env, appFields)
}

// announceAuthConfig is best effort, a broker outage must not stop the service.
func announceAuthConfig(conf *config.Config, registry *idp.Registry, log *logrus.Entry) {
	log = log.WithFields(logrus.Fields{"component": "Nats"})

	natsConnection, err := nats.Connect(conf.Nats.Url)
	if err != nil {
		log.Warn("nats.Connect: " + err.Error())
		return
	}
	defer natsConnection.Close()

	var domains []string
	for _, p := range conf.Auth.Providers() {
		domains = append(domains, p.Domain)
	}

	err = idp.EmitEventAuthConfigLoaded(natsConnection, idp.AuthConfigLoaded{
		Issuer:    conf.Auth.Issuer().URL,
		Providers: domains,
		Trusted:   registry.Issuers(),
	})
	if err != nil {
		log.Warn(err.Error())
		return
	}

	if err := natsConnection.Flush(); err != nil {
		log.Warn(err.Error())
	}
}

func newRouter(env *app.Environment, appFields logrus.Fields) *gin.Engine {
	routes := map[string]app.Route{
		"/identity":       app.Route{URL: "/identity", LogId: "whoami://identity"},
		"/auth/providers": app.Route{URL: "/auth/providers", LogId: "whoami://auth/providers"},
	}

	r := gin.New() // Clean gin to take control with logging.
	r.Use(gin.Recovery())

	r.Use(app.RequestId(env))
	r.Use(app.RequestLogger(env, appFields))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Anonymous callers are allowed everywhere below, they just have no identity.
	r.Use(app.ResolveIdentity(env))

	r.GET(routes["/identity"].URL, identities.GetIdentity(env, routes["/identity"]))
	r.GET(routes["/auth/providers"].URL, providers.GetProviders(env, routes["/auth/providers"]))

	return r
}

func serve(env *app.Environment, appFields logrus.Fields) {
	r := newRouter(env, appFields)

	addr := ":" + strconv.Itoa(env.Config.Serve.Port)
	env.Logger.WithFields(appFields).WithFields(logrus.Fields{"addr": addr}).Info("Serving")

	var err error
	if env.Config.Serve.TLSCertPath != "" {
		err = r.RunTLS(addr, env.Config.Serve.TLSCertPath, env.Config.Serve.TLSKeyPath)
	} else {
		err = r.Run(addr)
	}
	if err != nil {
		env.Logger.WithFields(appFields).Fatal(err.Error())
	}
}
