package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/opensentry/whoami/gateway/idp"
	"github.com/opensentry/whoami/utils"
)

func AccessToken(env *Environment, c *gin.Context) *oauth2.Token {
	t, exists := c.Get(env.Constants.ContextAccessTokenKey)
	if exists == true {
		return t.(*oauth2.Token)
	}
	return nil
}

// Identity returns the caller identity resolved for this request, or nil
// for anonymous callers.
func Identity(env *Environment, c *gin.Context) idp.Identity {
	i, exists := c.Get(env.Constants.ContextIdentityKey)
	if exists == true {
		return i.(idp.Identity)
	}
	return nil
}

func RequestId(env *Environment) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for incoming header, use it if exists
		requestID := c.Request.Header.Get("X-Request-Id")

		// Create request id with UUID4
		if requestID == "" {
			uuid4, _ := uuid.NewV4()
			requestID = uuid4.String()
		}

		c.Set(env.Constants.RequestIdKey, requestID)

		c.Writer.Header().Set("X-Request-Id", requestID)
		c.Next()
	}
}

func RequestLogger(env *Environment, appFields logrus.Fields) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		var requestId string = c.MustGet(env.Constants.RequestIdKey).(string)
		requestLog := env.Logger.WithFields(appFields).WithFields(logrus.Fields{
			"request.id": requestId,
		})
		c.Set(env.Constants.LogKey, requestLog)

		c.Next()

		// Stop timer
		stop := time.Now()
		latency := stop.Sub(start)

		ipData, err := utils.GetRequestIpData(c.Request)
		if err != nil {
			requestLog.WithFields(logrus.Fields{
				"func": "RequestLogger",
			}).Debug(err.Error())
		}

		forwardedForIpData := utils.GetForwardedForIpData(c.Request)

		method := c.Request.Method
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		bodySize := c.Writer.Size()

		var fullpath string = path
		if raw != "" {
			fullpath = path + "?" + raw
		}

		// health probes are just noise when debugging
		if path == "/health" && statusCode == http.StatusOK {
			return
		}

		requestLog.WithFields(logrus.Fields{
			"latency":            latency,
			"forwarded_for.ip":   forwardedForIpData.Ip,
			"forwarded_for.port": forwardedForIpData.Port,
			"ip":                 ipData.Ip,
			"port":               ipData.Port,
			"method":             method,
			"status":             statusCode,
			"error":              errorMessage,
			"body_size":          bodySize,
			"path":               fullpath,
		}).Info("")
	}
	return gin.HandlerFunc(fn)
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (*oauth2.Token, bool) {
	auth := r.Header.Get("Authorization")
	split := strings.SplitN(auth, " ", 2)
	if len(split) == 2 && strings.EqualFold(split[0], "bearer") {
		token := &oauth2.Token{
			AccessToken: strings.TrimSpace(split[1]),
			TokenType:   split[0],
		}
		return token, true
	}
	return nil, false
}

// ResolveIdentity attaches the caller identity to the request when a valid
// bearer token is presented. It never rejects a request: a missing or
// invalid credential leaves the request anonymous.
func ResolveIdentity(env *Environment) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(env.Constants.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func": "ResolveIdentity",
		})

		token, found := bearerToken(c.Request)
		if !found {
			log.Debug("Anonymous request")
			c.Next()
			return
		}

		// https://godoc.org/golang.org/x/oauth2#Token.Valid
		if token.Valid() == false {
			log.Debug("Empty access token")
			c.Next()
			return
		}
		c.Set(env.Constants.ContextAccessTokenKey, token)

		identity, err := env.Resolver.Resolve(c.Request.Context(), token.AccessToken)
		if err != nil {
			log.WithFields(logrus.Fields{"authorization": "bearer"}).Debug(err.Error())
			c.Next()
			return
		}

		log.WithFields(logrus.Fields{"iss": identity.Issuer(), "sub": identity.Subject()}).Debug("Identity resolved")
		c.Set(env.Constants.ContextIdentityKey, identity)
		c.Next()
	}
	return gin.HandlerFunc(fn)
}

// AuthenticationRequired must run after ResolveIdentity.
func AuthenticationRequired(env *Environment) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		if Identity(env, c) != nil {
			c.Next()
			return
		}

		// Deny by default
		if AccessToken(env, c) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, JsonError{ErrorCode: ERROR_INVALID_ACCESS_TOKEN, Error: "Invalid access token."})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, JsonError{ErrorCode: ERROR_MISSING_BEARER_TOKEN, Error: "Authorization: Bearer <token> not found in request"})
	}
	return gin.HandlerFunc(fn)
}
