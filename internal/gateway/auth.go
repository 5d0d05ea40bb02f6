package gateway

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/soyeahso/prodbot/internal/config"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"` // "token" | "password"
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth is the gateway's effective credential configuration.
type ResolvedAuth struct {
	Mode     string
	Token    string
	Password string
}

// secret returns the credential the active mode checks against.
func (a ResolvedAuth) secret() string {
	if a.Mode == "password" {
		return a.Password
	}
	return a.Token
}

// ResolveAuth fills credentials from config, then PRODBOT_GATEWAY_TOKEN and
// PRODBOT_GATEWAY_PASSWORD.
func ResolveAuth(cfg config.GatewayAuth) ResolvedAuth {
	auth := ResolvedAuth{Mode: cfg.Mode, Token: cfg.Token, Password: cfg.Password}
	if auth.Token == "" {
		auth.Token = os.Getenv("PRODBOT_GATEWAY_TOKEN")
	}
	if auth.Password == "" {
		auth.Password = os.Getenv("PRODBOT_GATEWAY_PASSWORD")
	}
	if auth.Mode == "" {
		auth.Mode = "token"
		if auth.Password != "" && auth.Token == "" {
			auth.Mode = "password"
		}
	}
	return auth
}

// Authorize checks websocket connect credentials.
func Authorize(serverAuth ResolvedAuth, clientAuth *ConnectAuth) AuthResult {
	if clientAuth == nil {
		return AuthResult{Reason: "no credentials provided"}
	}

	var given string
	switch serverAuth.Mode {
	case "token":
		given = clientAuth.Token
	case "password":
		given = clientAuth.Password
	default:
		return AuthResult{Reason: "unknown auth mode: " + serverAuth.Mode}
	}

	want := serverAuth.secret()
	switch {
	case want == "":
		return AuthResult{Reason: "server " + serverAuth.Mode + " not configured"}
	case given == "":
		return AuthResult{Reason: serverAuth.Mode + " required"}
	case !safeEqual(given, want):
		return AuthResult{Reason: serverAuth.Mode + "_mismatch"}
	}
	return AuthResult{OK: true, Method: serverAuth.Mode}
}

// AuthorizeHTTP checks an "Authorization: Bearer <secret>" header. When no
// secret is configured every request passes.
func AuthorizeHTTP(serverAuth ResolvedAuth, r *http.Request) bool {
	want := serverAuth.secret()
	if want == "" {
		return true
	}
	given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && safeEqual(given, want)
}

// safeEqual compares in constant time without leaking the length of b.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
