package idp

import (
	"encoding/json"
)

const SubjectAuthConfigLoaded = "auth.config.loaded"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type AuthConfigLoaded struct {
	Issuer    string   `json:"issuer"`
	Providers []string `json:"providers"`
	Trusted   []string `json:"trusted"`
}

func EmitEventAuthConfigLoaded(publisher Publisher, e AuthConfigLoaded) error {
	if e.Providers == nil {
		e.Providers = []string{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return publisher.Publish(SubjectAuthConfigLoaded, data)
}
