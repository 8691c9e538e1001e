package app

import (
	"github.com/edulend/edulend/internal/auth"
	"github.com/edulend/edulend/internal/auth/providers"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.SessionTTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// GoogleProviderOptions converts AuthConfig into Google verifier parameters.
func (c AuthConfig) GoogleProviderOptions() providers.GoogleOptions {
	return providers.GoogleOptions{
		ClientID:     c.Google.ClientID,
		ClientSecret: c.Google.ClientSecret,
		RedirectURL:  c.Google.RedirectURL,
	}
}
