package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/adflow/filegate/api" // Swagger docs
	"github.com/adflow/filegate/internal/gate/cache"
	"github.com/adflow/filegate/internal/gate/notify"
	"github.com/adflow/filegate/internal/gate/service"
	"github.com/adflow/filegate/internal/gate/store"
	"github.com/adflow/filegate/pkg/httpx"
	"github.com/adflow/filegate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	cache *cache.AccessCache

	TokenService *service.TokenService
	StatsService *service.StatsService
	Notifier     *notify.Telegram // nil when no bot token configured
	BotUsername  string           // deep link target; empty disables the redirect
	AdminChatID  string           // operator chat pinged on activation; empty disables
	AdminSecret  []byte           // HS256 key for the internal API; empty disables those routes
}

func NewRouter(
	buildVersion string,
	st store.Store,
	ac *cache.AccessCache,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cache:        ac,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerVerification()
	r.registerInternalAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain.
//
//	@title			Filegate Ad-Gate Service API
//	@version		0.1.0
//	@description	Ad-gated access-token service for the Telegram file-share bot.
//	@description	Subjects redeem signed single-use tokens after watching a sponsored link.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin JWT. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerVerification() {
	watchHandler := &WatchHandler{TokenService: r.TokenService}
	verifyHandler := &VerifyHandler{
		TokenService: r.TokenService,
		Notifier:     r.Notifier,
		BotUsername:  r.BotUsername,
		AdminChatID:  r.AdminChatID,
	}

	// GET /watch - interstitial page; ad networks land users here
	r.Mux.Handle("GET /watch",
		httpx.Chain(watchHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /verify - the one security-critical state transition; strict
	// limit since browsers and ad pages love retrying it
	r.Mux.Handle("GET /verify",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerInternalAPI() {
	// The bot front-end talks to these; without an admin secret there
	// is no way to authenticate it, so the routes stay unregistered.
	if len(r.AdminSecret) == 0 {
		r.logger.Warn("admin secret not configured; internal API disabled")
		return
	}

	issueHandler := &IssueHandler{TokenService: r.TokenService}
	accessHandler := &AccessHandler{TokenService: r.TokenService}
	statsHandler := &StatsHandler{StatsService: r.StatsService}

	authn := httpx.AuthnMiddleware(r.AdminSecret)

	r.Mux.Handle("POST /v1/tokens/issue",
		httpx.Chain(issueHandler,
			authn,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/access",
		httpx.Chain(accessHandler,
			authn,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/admin/stats",
		httpx.Chain(statsHandler,
			authn,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
