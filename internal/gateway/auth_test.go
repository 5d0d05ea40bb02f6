package gateway

import (
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "wrong"))
	assert.False(t, safeEqual("short", "longer-string"))
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

func clearAuthEnv(t *testing.T) {
	t.Setenv("PRODBOT_GATEWAY_TOKEN", "")
	t.Setenv("PRODBOT_GATEWAY_PASSWORD", "")
}

func TestResolveAuth_FromConfig(t *testing.T) {
	clearAuthEnv(t)

	auth := ResolveAuth(config.GatewayAuth{Mode: "token", Token: "config-token"})
	assert.Equal(t, ResolvedAuth{Mode: "token", Token: "config-token"}, auth)

	auth = ResolveAuth(config.GatewayAuth{Mode: "password", Password: "config-pass"})
	assert.Equal(t, "password", auth.Mode)
	assert.Equal(t, "config-pass", auth.secret())
}

func TestResolveAuth_EnvFallback(t *testing.T) {
	t.Setenv("PRODBOT_GATEWAY_TOKEN", "env-token")
	t.Setenv("PRODBOT_GATEWAY_PASSWORD", "env-pass")

	auth := ResolveAuth(config.GatewayAuth{Mode: "token"})
	assert.Equal(t, "env-token", auth.Token)
	assert.Equal(t, "env-pass", auth.Password)

	auth = ResolveAuth(config.GatewayAuth{Token: "config-token"})
	assert.Equal(t, "config-token", auth.Token, "config wins over env")
}

func TestResolveAuth_DefaultMode(t *testing.T) {
	clearAuthEnv(t)

	assert.Equal(t, "token", ResolveAuth(config.GatewayAuth{}).Mode)
	assert.Equal(t, "token", ResolveAuth(config.GatewayAuth{Token: "t", Password: "p"}).Mode)
	assert.Equal(t, "password", ResolveAuth(config.GatewayAuth{Password: "p"}).Mode)
}

func TestAuthorize(t *testing.T) {
	tokenAuth := ResolvedAuth{Mode: "token", Token: "tok"}
	passAuth := ResolvedAuth{Mode: "password", Password: "pw"}

	tests := []struct {
		name   string
		server ResolvedAuth
		client *ConnectAuth
		ok     bool
		reason string
	}{
		{"token ok", tokenAuth, &ConnectAuth{Token: "tok"}, true, ""},
		{"password ok", passAuth, &ConnectAuth{Password: "pw"}, true, ""},
		{"nil credentials", tokenAuth, nil, false, "no credentials provided"},
		{"token missing", tokenAuth, &ConnectAuth{Password: "tok"}, false, "token required"},
		{"token mismatch", tokenAuth, &ConnectAuth{Token: "nope"}, false, "token_mismatch"},
		{"password mismatch", passAuth, &ConnectAuth{Password: "nope"}, false, "password_mismatch"},
		{"server unconfigured", ResolvedAuth{Mode: "token"}, &ConnectAuth{Token: "x"}, false, "server token not configured"},
		{"unknown mode", ResolvedAuth{Mode: "oauth"}, &ConnectAuth{Token: "x"}, false, "unknown auth mode: oauth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.ok, got.OK)
			assert.Equal(t, tt.reason, got.Reason)
			if tt.ok {
				assert.Equal(t, tt.server.Mode, got.Method)
			}
		})
	}
}

func TestAuthorizeHTTP(t *testing.T) {
	auth := ResolvedAuth{Mode: "token", Token: "tok"}

	r := httptest.NewRequest("GET", "/api/tools", nil)
	assert.False(t, AuthorizeHTTP(auth, r))

	r.Header.Set("Authorization", "Bearer wrong")
	assert.False(t, AuthorizeHTTP(auth, r))

	r.Header.Set("Authorization", "tok")
	assert.False(t, AuthorizeHTTP(auth, r))

	r.Header.Set("Authorization", "Bearer tok")
	assert.True(t, AuthorizeHTTP(auth, r))

	open := httptest.NewRequest("GET", "/api/tools", nil)
	assert.True(t, AuthorizeHTTP(ResolvedAuth{Mode: "token"}, open), "no secret configured")
}
