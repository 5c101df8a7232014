package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"cleanbook/internal/auth"
	"cleanbook/internal/config"
	"cleanbook/internal/models"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	sessionTokenHeader  = "x-session-token"
	clientKeyUnknown    = "unknown"
)

// Authenticator resolves credentials to a user; nil means anonymous.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) *models.User
}

// Identity pulls credentials off HTTP requests and gRPC metadata.
type Identity struct {
	authn        Authenticator
	cookieName   string
	cookieSecure bool
	apiKeyHeader string
}

func NewIdentity(authn Authenticator, sessionCfg config.SessionConfig, authCfg config.APIAuthConfig) *Identity {
	header := strings.ToLower(strings.TrimSpace(authCfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &Identity{
		authn:        authn,
		cookieName:   sessionCfg.CookieName,
		cookieSecure: sessionCfg.CookieSecure,
		apiKeyHeader: header,
	}
}

func (i *Identity) Resolve(ctx context.Context, creds auth.Credentials) *models.User {
	return i.authn.Authenticate(ctx, creds)
}

// FromRequest reads the API key header, then the session cookie, the
// bearer token and the session header, in that order.
func (i *Identity) FromRequest(r *http.Request) auth.Credentials {
	creds := auth.Credentials{APIKey: strings.TrimSpace(r.Header.Get(i.apiKeyHeader))}

	if c, err := r.Cookie(i.cookieName); err == nil && c.Value != "" {
		creds.SessionToken = c.Value
		return creds
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		creds.SessionToken = token
		return creds
	}
	creds.SessionToken = strings.TrimSpace(r.Header.Get(sessionTokenHeader))
	return creds
}

func (i *Identity) FromMetadata(md metadata.MD) auth.Credentials {
	creds := auth.Credentials{APIKey: first(md.Get(i.apiKeyHeader))}
	if token := bearerToken(first(md.Get("authorization"))); token != "" {
		creds.SessionToken = token
		return creds
	}
	creds.SessionToken = first(md.Get(sessionTokenHeader))
	return creds
}

// expiredCookie overwrites the session cookie so browsers drop it.
func (i *Identity) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     i.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   i.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// clientKeyHTTP buckets rate limits by API key, falling back to the remote host.
func clientKeyHTTP(r *http.Request, creds auth.Credentials) string {
	if creds.APIKey != "" {
		return "key:" + creds.APIKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func clientKeyGRPC(ctx context.Context, creds auth.Credentials) string {
	if creds.APIKey != "" {
		return "key:" + creds.APIKey
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil && host != "" {
			return host
		}
		return p.Addr.String()
	}
	return clientKeyUnknown
}
