package services

import (
	"net/http"
)

// AuthEngine attaches marketplace credentials to an outbound request. The
// remote client does not care how the provider wants them presented.
type AuthEngine interface {
	SetApiKey(request *http.Request)
}

// BearerAuth signs requests with a static seller API key.
type BearerAuth struct {
	apiKey string
}

func (b *BearerAuth) SetApiKey(request *http.Request) {
	request.Header.Set("Authorization", "Bearer "+b.apiKey)
}

// NewBearerAuth returns nil when no key is configured, so startup can refuse
// to run unauthenticated.
func NewBearerAuth(apiKey string) *BearerAuth {
	if apiKey == "" {
		return nil
	}
	return &BearerAuth{apiKey: apiKey}
}
