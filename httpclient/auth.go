package httpclient

import "net/http"

// AuthType identifies the authentication scheme.
type AuthType string

const (
	// AuthNone disables authentication.
	AuthNone AuthType = "none"
	// AuthBearer uses an Authorization: Bearer token.
	AuthBearer AuthType = "bearer"
	// AuthAPIKey sends the key in a configurable header.
	AuthAPIKey AuthType = "api_key"
	// AuthBasic uses HTTP basic authentication.
	AuthBasic AuthType = "basic"
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication scheme.
	Type AuthType

	// Token is the bearer token or API key value.
	Token string

	// Header is the header name for API key auth. Defaults to "X-API-Key".
	Header string

	// Username and Password are used for basic auth.
	Username string
	Password string
}

// BearerAuth creates a bearer-token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// APIKeyAuth creates an API-key auth config using the default header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Token: key}
}

// APIKeyAuthHeader creates an API-key auth config with a custom header name.
func APIKeyAuthHeader(header, key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Token: key, Header: header}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// apply sets the authentication on the request. A nil config is a no-op.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthAPIKey:
		header := a.Header
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	}
}
