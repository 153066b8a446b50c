package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/owtlabs/owt/internal/auth/provider"
	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/internal/auth/store"
	"github.com/owtlabs/owt/pkg/httpx"
	"github.com/owtlabs/owt/pkg/slogx"

	_ "github.com/owtlabs/owt/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	SessionService *service.SessionService
	UserService    *service.UserService
	Providers      *provider.Registry

	// SecureCookies marks auth cookies Secure; off only in local dev.
	SecureCookies bool

	// AllowedRedirects are the origin prefixes a federated login may bounce
	// back to. The first entry doubles as the default destination.
	AllowedRedirects []string
}

func NewRouter(st store.Store, logger *slog.Logger, buildVersion string) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.RequestLogger(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerFederation()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			OWT Authentication Service API
//	@version		0.1.0
//	@description	Credential service providing password and federated login, JWT access tokens
//	@description	and single-use refresh token rotation.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// Credential endpoints take the strict limit: they are the brute-force
	// surface.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(&SignupHandler{SessionService: r.SessionService, SecureCookies: r.SecureCookies},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{SessionService: r.SessionService, SecureCookies: r.SecureCookies},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/validate",
		httpx.Chain(&ValidateHandler{SessionService: r.SessionService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{SessionService: r.SessionService, SecureCookies: r.SecureCookies},
			httpx.RefreshMiddleware(r.SessionService.RefreshCodec, RefreshTokenCookie),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{SessionService: r.SessionService, SecureCookies: r.SecureCookies},
			httpx.AuthnMiddleware(r.SessionService.AccessCodec, AccessTokenCookie),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerFederation() {
	begin := &OAuthBeginHandler{
		Providers:        r.Providers,
		SecureCookies:    r.SecureCookies,
		AllowedRedirects: r.AllowedRedirects,
	}
	callback := &OAuthCallbackHandler{
		Providers:        r.Providers,
		SessionService:   r.SessionService,
		SecureCookies:    r.SecureCookies,
		AllowedRedirects: r.AllowedRedirects,
	}

	r.Mux.Handle("GET /v1/auth/{provider}",
		httpx.Chain(begin, httpx.RateLimitByIP(httpx.ModerateLimit)),
	)
	r.Mux.Handle("GET /v1/auth/{provider}/callback",
		httpx.Chain(callback, httpx.RateLimitByIP(httpx.ModerateLimit)),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	authn := httpx.AuthnMiddleware(r.SessionService.AccessCodec, AccessTokenCookie)

	r.Mux.Handle("GET /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleList), authn, httpx.RateLimitByAccount(httpx.LenientLimit)),
	)
	r.Mux.Handle("GET /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet), authn, httpx.RateLimitByAccount(httpx.LenientLimit)),
	)
	r.Mux.Handle("PATCH /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate), authn, httpx.RateLimitByAccount(httpx.ModerateLimit)),
	)
	r.Mux.Handle("DELETE /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete), authn, httpx.RateLimitByAccount(httpx.ModerateLimit)),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
