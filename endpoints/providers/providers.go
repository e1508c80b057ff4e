package providers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opensentry/whoami/app"
	"github.com/opensentry/whoami/client"
	"github.com/opensentry/whoami/config"
)

func marshalProviderDescriptorToProvider(p config.ProviderDescriptor) client.Provider {
	return client.Provider{
		Type:          p.Type,
		Domain:        p.Domain,
		ApplicationID: p.ApplicationID,
	}
}

// GetProviders exposes the first-party provider list the auth bootstrap was
// started with. Credentials are never included.
func GetProviders(env *app.Environment, route app.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(env.Constants.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func":  "GetProviders",
			"route": route.LogId,
		})

		response := client.ReadProvidersResponse{Providers: []client.Provider{}}
		for _, p := range env.Config.Auth.Providers() {
			response.Providers = append(response.Providers, marshalProviderDescriptorToProvider(p))
		}

		log.WithFields(logrus.Fields{"providers": len(response.Providers)}).Debug("Listing providers")
		c.JSON(http.StatusOK, response)
	}
	return gin.HandlerFunc(fn)
}
