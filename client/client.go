package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"golang.org/x/oauth2"
)

type WhoamiClient struct {
	*http.Client
}

// NewWhoamiClient returns an anonymous client. A nil httpClient uses
// http.DefaultClient.
func NewWhoamiClient(httpClient *http.Client) *WhoamiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WhoamiClient{httpClient}
}

func NewWhoamiClientWithUserAccessToken(config *oauth2.Config, token *oauth2.Token) *WhoamiClient {
	ctx := context.Background()
	client := config.Client(ctx, token)
	return &WhoamiClient{client}
}

// NewWhoamiClientWithTokenSource sends the tokens of ts as bearer
// credentials. Set oauth2.HTTPClient on ctx to change the base transport.
func NewWhoamiClientWithTokenSource(ctx context.Context, ts oauth2.TokenSource) *WhoamiClient {
	return &WhoamiClient{oauth2.NewClient(ctx, ts)}
}

func handleRequest(client *WhoamiClient, method string, url string, response interface{}) (int, error) {
	request, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, err
	}
	request.Header.Set("Accept", "application/json")

	res, err := client.Do(request)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	responseData, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, err
	}

	if res.StatusCode != http.StatusOK {
		return res.StatusCode, fmt.Errorf("status: %d, error=%s", res.StatusCode, string(responseData))
	}

	if err := json.Unmarshal(responseData, response); err != nil {
		return res.StatusCode, err
	}
	return res.StatusCode, nil
}
