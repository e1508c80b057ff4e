package client

type ReadIdentityResponse struct {
	Identity    map[string]interface{} `json:"identity"`
	HasIdentity bool                   `json:"hasIdentity"`
	Issuer      string                 `json:"issuer,omitempty"`
	Subject     string                 `json:"subject,omitempty"`
}

type Provider struct {
	Type          string `json:"type"`
	Domain        string `json:"domain"`
	ApplicationID string `json:"applicationID,omitempty"`
}

type ReadProvidersResponse struct {
	Providers []Provider `json:"providers"`
}

// ReadIdentity calls the identity echo endpoint at url.
func ReadIdentity(client *WhoamiClient, url string) (status int, response ReadIdentityResponse, err error) {
	status, err = handleRequest(client, "GET", url, &response)
	return status, response, err
}

func ReadProviders(client *WhoamiClient, url string) (status int, response ReadProvidersResponse, err error) {
	status, err = handleRequest(client, "GET", url, &response)
	return status, response, err
}
