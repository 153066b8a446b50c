package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/owtlabs/owt/internal/auth/provider"
	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/internal/auth/store/drivers/sqlite"
	"github.com/owtlabs/owt/pkg/jwtx"
	"github.com/owtlabs/owt/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestResolveRedirect(t *testing.T) {
	allowed := []string{"https://app.example", "https://admin.example/"}
	fallback := "https://app.example"

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"empty falls back", "", fallback},
		{"allowed origin itself", "https://app.example", "https://app.example"},
		{"path under an allowed origin", "https://app.example/welcome", "https://app.example/welcome"},
		{"configured trailing slash is normalized", "https://admin.example/panel", "https://admin.example/panel"},
		{"foreign host falls back", "https://evil.example/phish", fallback},
		{"lookalike host extending the origin falls back", "https://app.example.evil.com/phish", fallback},
		{"userinfo trick falls back", "https://app.example@evil.com/", fallback},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resolveRedirect(tc.requested, allowed, fallback))
		})
	}
}

// Cookie lifetimes must track the configured TTLs, not the package
// defaults.
func TestAuthCookieLifetimes(t *testing.T) {
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	access, err := jwtx.NewCodec("access-secret", 5*time.Minute, "owt-test")
	require.NoError(t, err)
	refresh, err := jwtx.NewCodec("refresh-secret", 42*time.Minute, "owt-test")
	require.NoError(t, err)

	logger := slogx.New("auth-test", "test", slogx.Options{Level: "error", Format: "text"})
	router := NewRouter(st, logger, "test")
	router.SessionService = &service.SessionService{Store: st, AccessCodec: access, RefreshCodec: refresh}
	router.UserService = &service.UserService{Store: st}
	router.Providers = provider.NewRegistry()
	router.ApplyRoutes()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
		"email":        "ttl@example.com",
		"password":     "correct horse",
		"display_name": "TTL",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	ages := map[string]int{}
	for _, c := range rec.Result().Cookies() {
		ages[c.Name] = c.MaxAge
	}
	require.Equal(t, int((5 * time.Minute).Seconds()), ages[AccessTokenCookie])
	require.Equal(t, int((42 * time.Minute).Seconds()), ages[RefreshTokenCookie])
}
