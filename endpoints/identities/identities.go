package identities

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opensentry/whoami/app"
	"github.com/opensentry/whoami/gateway/idp"
)

// IdentityEcho reports the identity the request was authenticated with.
// Issuer and Subject are left out of the json when there is no identity.
type IdentityEcho struct {
	Identity    idp.Identity `json:"identity"`
	HasIdentity bool         `json:"hasIdentity"`
	Issuer      string       `json:"issuer,omitempty"`
	Subject     string       `json:"subject,omitempty"`
}

func Echo(identity idp.Identity) IdentityEcho {
	if identity == nil {
		return IdentityEcho{}
	}
	return IdentityEcho{
		Identity:    identity,
		HasIdentity: true,
		Issuer:      identity.Issuer(),
		Subject:     identity.Subject(),
	}
}

func GetIdentity(env *app.Environment, route app.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(env.Constants.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func":  "GetIdentity",
			"route": route.LogId,
		})

		identity := app.Identity(env, c)
		if identity != nil && len(env.Config.Echo.RedactClaims) > 0 {
			identity = idp.WithoutClaims(identity, env.Config.Echo.RedactClaims...)
		}

		echo := Echo(identity)
		log.WithFields(logrus.Fields{"has_identity": echo.HasIdentity}).Debug("Echoing identity")
		c.JSON(http.StatusOK, echo)
	}
	return gin.HandlerFunc(fn)
}
