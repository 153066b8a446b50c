package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/owtlabs/owt/internal/auth/domain"
	"github.com/owtlabs/owt/internal/auth/provider"
	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/internal/auth/store/drivers/sqlite"
	"github.com/owtlabs/owt/pkg/cryptox"
	"github.com/owtlabs/owt/pkg/httpx"
	"github.com/owtlabs/owt/pkg/jwtx"
	"github.com/owtlabs/owt/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	// Handler tests hammer single endpoints from one fake IP; the production
	// limits would throttle them.
	generous := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = generous
	httpx.ModerateLimit = generous
	httpx.LenientLimit = generous

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// fakeProvider satisfies provider.Provider without any upstream traffic.
type fakeProvider struct {
	identity domain.ExternalIdentity
	err      error
}

func (f *fakeProvider) Name() string { return "naver" }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error) {
	return f.identity, f.err
}

func newTestRouter(t *testing.T, p provider.Provider) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	access, err := jwtx.NewCodec("access-secret", 15*time.Minute, "owt-test")
	require.NoError(t, err)
	refresh, err := jwtx.NewCodec("refresh-secret", 7*24*time.Hour, "owt-test")
	require.NoError(t, err)

	logger := slogx.New("auth-test", "test", slogx.Options{Level: "error", Format: "text"})

	r := NewRouter(st, logger, "test")
	r.SessionService = &service.SessionService{Store: st, AccessCodec: access, RefreshCodec: refresh}
	r.UserService = &service.UserService{Store: st}
	r.Providers = provider.NewRegistry(p)
	r.AllowedRedirects = []string{"https://app.example"}
	r.ApplyRoutes()
	return r
}

func doJSON(t *testing.T, router *Router, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signupFixture(t *testing.T, router *Router, email string) TokenResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
		"email":        email,
		"password":     "correct horse",
		"display_name": "Test Account",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestSignupEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})

	t.Run("returns tokens, profile and cookies", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
			"email":        "alice@example.com",
			"password":     "correct horse",
			"display_name": "Alice",
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.Equal(t, "Bearer", resp.TokenType)
		require.Equal(t, 900, resp.ExpiresIn)
		require.NotNil(t, resp.Profile)
		require.Equal(t, "alice@example.com", resp.Profile.Email)

		names := map[string]bool{}
		for _, c := range rec.Result().Cookies() {
			names[c.Name] = c.HttpOnly
		}
		require.True(t, names[AccessTokenCookie])
		require.True(t, names[RefreshTokenCookie])
	})

	t.Run("conflicting email is 409", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
			"email":        "alice@example.com",
			"password":     "correct horse",
			"display_name": "Alice Again",
		}, nil)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "duplicate_email", resp.Error)
	})

	t.Run("short password is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
			"email":        "short@example.com",
			"password":     "short",
			"display_name": "Shorty",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})
	signupFixture(t, router, "bob@example.com")

	t.Run("correct password is 200", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email":    "bob@example.com",
			"password": "correct horse",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password and unknown email are the same 401", func(t *testing.T) {
		wrong := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email":    "bob@example.com",
			"password": "battery staple",
		}, nil)
		unknown := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "battery staple",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		require.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	})
}

func TestValidateEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})
	tokens := signupFixture(t, router, "carol@example.com")

	t.Run("header token validates", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/auth/validate", nil, bearer(tokens.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code)

		var profile domain.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, "carol@example.com", profile.Email)
	})

	t.Run("cookie token validates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/validate", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokens.AccessToken})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("expired and invalid report distinct codes", func(t *testing.T) {
		stale, err := router.SessionService.AccessCodec.Sign("someone", "x@example.com", time.Now().Add(-time.Hour))
		require.NoError(t, err)

		expired := doJSON(t, router, http.MethodGet, "/v1/auth/validate", nil, bearer(stale))
		invalid := doJSON(t, router, http.MethodGet, "/v1/auth/validate", nil, bearer("garbage"))

		require.Equal(t, http.StatusUnauthorized, expired.Code)
		require.Equal(t, http.StatusUnauthorized, invalid.Code)

		var expiredResp, invalidResp ErrorResponse
		require.NoError(t, json.Unmarshal(expired.Body.Bytes(), &expiredResp))
		require.NoError(t, json.Unmarshal(invalid.Body.Bytes(), &invalidResp))
		require.Equal(t, "token_expired", expiredResp.Error)
		require.Equal(t, "token_invalid", invalidResp.Error)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/auth/validate", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})
	tokens := signupFixture(t, router, "dave@example.com")

	t.Run("rotates and consumes the presented token", func(t *testing.T) {
		first := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil, bearer(tokens.RefreshToken))
		require.Equal(t, http.StatusOK, first.Code)

		var rotated TokenResponse
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &rotated))
		require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

		replay := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil, bearer(tokens.RefreshToken))
		require.Equal(t, http.StatusUnauthorized, replay.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &resp))
		require.Equal(t, "access_denied", resp.Error)
	})

	t.Run("access token is rejected by the refresh context", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil, bearer(tokens.AccessToken))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh cookie works without a header", func(t *testing.T) {
		fresh := signupFixture(t, router, "dana@example.com")

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: fresh.RefreshToken})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})
	tokens := signupFixture(t, router, "erin@example.com")

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/logout", nil, bearer(tokens.AccessToken))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The refresh slot is gone.
	replay := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil, bearer(tokens.RefreshToken))
	require.Equal(t, http.StatusUnauthorized, replay.Code)

	// Logout again is still a success.
	again := doJSON(t, router, http.MethodPost, "/v1/auth/logout", nil, bearer(tokens.AccessToken))
	require.Equal(t, http.StatusNoContent, again.Code)
}

func TestOAuthEndpoints(t *testing.T) {
	avatar := "https://phinf.example.com/avatar.png"
	identity := domain.ExternalIdentity{
		Provider:    "naver",
		ProviderID:  "naver-subject-1",
		Email:       "grace@example.com",
		DisplayName: "Grace",
		AvatarURL:   &avatar,
	}

	t.Run("begin parks state and redirects upstream", func(t *testing.T) {
		router := newTestRouter(t, &fakeProvider{identity: identity})

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/naver?redirect_url=https://app.example/welcome", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)

		var state string
		for _, c := range rec.Result().Cookies() {
			if c.Name == oauthStateCookie {
				state = c.Value
			}
		}
		require.NotEmpty(t, state)
		require.Equal(t, "https://provider.example/authorize?state="+state, rec.Header().Get("Location"))
	})

	t.Run("unknown provider is 404", func(t *testing.T) {
		router := newTestRouter(t, &fakeProvider{identity: identity})

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/github", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("callback completes the login and honors the parked redirect", func(t *testing.T) {
		router := newTestRouter(t, &fakeProvider{identity: identity})

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/naver/callback?code=upstream-code&state=expected-state", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected-state"})
		req.AddCookie(&http.Cookie{Name: oauthRedirectCookie, Value: "https://app.example/welcome"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "https://app.example/welcome", rec.Header().Get("Location"))

		cookies := map[string]string{}
		for _, c := range rec.Result().Cookies() {
			cookies[c.Name] = c.Value
		}
		require.NotEmpty(t, cookies[AccessTokenCookie])
		require.NotEmpty(t, cookies[RefreshTokenCookie])

		// The session is real: the issued access token validates.
		validate := doJSON(t, router, http.MethodGet, "/v1/auth/validate", nil, bearer(cookies[AccessTokenCookie]))
		require.Equal(t, http.StatusOK, validate.Code)
	})

	t.Run("state mismatch is denied", func(t *testing.T) {
		router := newTestRouter(t, &fakeProvider{identity: identity})

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/naver/callback?code=upstream-code&state=forged", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected-state"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("off-list redirect falls back to the default", func(t *testing.T) {
		router := newTestRouter(t, &fakeProvider{identity: identity})

		// The second value shares the allowed origin as a string prefix
		// but points at a different host.
		for _, parked := range []string{
			"https://evil.example/phish",
			"https://app.example.evil.com/phish",
		} {
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/naver/callback?code=upstream-code&state=expected-state", nil)
			req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected-state"})
			req.AddCookie(&http.Cookie{Name: oauthRedirectCookie, Value: parked})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, "https://app.example", rec.Header().Get("Location"), "parked %s", parked)
		}
	})

	t.Run("upstream failure is 502", func(t *testing.T) {
		router := newTestRouter(t, &fakeProvider{err: context.DeadlineExceeded})

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/naver/callback?code=upstream-code&state=expected-state", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected-state"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestUsersEndpoints(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})
	alice := signupFixture(t, router, "alice@example.com")
	bob := signupFixture(t, router, "bob@example.com")

	t.Run("list requires auth", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/v1/users", nil, bearer(alice.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code)

		var profiles []domain.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
		require.Len(t, profiles, 2)
	})

	t.Run("me resolves to the caller", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users/me", nil, bearer(alice.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code)

		var profile domain.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, "alice@example.com", profile.Email)
	})

	t.Run("update is self-only", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPatch, "/v1/users/"+bob.Profile.ID, map[string]string{
			"display_name": "Hijacked",
		}, bearer(alice.AccessToken))
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, router, http.MethodPatch, "/v1/users/me", map[string]string{
			"display_name": "Alice Prime",
		}, bearer(alice.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code)

		var profile domain.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, "Alice Prime", profile.DisplayName)
	})

	t.Run("delete is self-only and kills the session", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/v1/users/"+alice.Profile.ID, nil, bearer(bob.AccessToken))
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, router, http.MethodDelete, "/v1/users/me", nil, bearer(bob.AccessToken))
		require.Equal(t, http.StatusNoContent, rec.Code)

		replay := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil, bearer(bob.RefreshToken))
		require.Equal(t, http.StatusUnauthorized, replay.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})

	rec := doJSON(t, router, http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}
