package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the OpenID Connect issuer for Google accounts.
const GoogleIssuer = "https://accounts.google.com"

// Identity describes a verified external identity returned by a federated provider.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleOptions configures the Google provider implementation. ClientSecret
// and RedirectURL are only needed for the server-side code flow; SPA clients
// that obtain the ID token themselves can leave them empty.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// GoogleProvider verifies Google-issued ID tokens and extracts the identity claims.
type GoogleProvider struct {
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
	timeout  time.Duration
}

// NewGoogleProvider performs OIDC discovery against the Google issuer and
// prepares an ID token verifier bound to the configured client id.
func NewGoogleProvider(ctx context.Context, opts GoogleOptions) (*GoogleProvider, error) {
	if strings.TrimSpace(opts.ClientID) == "" {
		return nil, errors.New("google provider: client id is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	if opts.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, opts.HTTPClient)
	}

	discoveryCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	issuer, err := oidc.NewProvider(discoveryCtx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google provider: discovery failed: %w", err)
	}

	provider := &GoogleProvider{
		verifier: issuer.Verifier(&oidc.Config{ClientID: opts.ClientID}),
		timeout:  opts.Timeout,
	}

	if strings.TrimSpace(opts.ClientSecret) != "" {
		provider.oauth = &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     issuer.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		}
	}

	return provider, nil
}

// Verify validates a raw ID token and returns the embedded identity.
func (p *GoogleProvider) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, errors.New("google provider: id token is required")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	idToken, err := p.verifier.Verify(verifyCtx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google provider: verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google provider: decode claims: %w", err)
	}

	return &Identity{
		Subject:       idToken.Subject,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// Exchange swaps an authorization code for tokens and verifies the returned
// ID token. It requires the client secret to be configured.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if p.oauth == nil {
		return nil, errors.New("google provider: code exchange is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("google provider: authorization code is required")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.oauth.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("google provider: exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google provider: token response is missing id_token")
	}

	return p.Verify(ctx, rawIDToken)
}
