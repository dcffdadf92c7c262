package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dpisul/plantoes/internal/config"
	httpmiddleware "github.com/dpisul/plantoes/internal/http/middleware"
	"github.com/dpisul/plantoes/internal/plantao"
	"github.com/dpisul/plantoes/internal/rascunho"
	"github.com/dpisul/plantoes/internal/repo"
	"github.com/dpisul/plantoes/internal/service"
)

// Rotas que dispensam sessão: login e caminhos programáticos.
var publicPrefixes = []string{"/login", "/api/", "/health", "/ready"}

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	rascunhos     *rascunho.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) http.Handler {
	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		rascunhos:     rascunho.NewService(rascunho.NewRepository(pool), cfg.DraftTTL),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	plantaoRepo := plantao.NewRepository(pool)
	plantaoService := plantao.NewService(plantaoRepo, repo.New(pool), redisClient)
	plantaoHandler := plantao.NewHandler(plantaoService, h.rascunhos)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	// O portão de sessão roda em toda requisição, uma única vez, antes de
	// qualquer lógica de rota.
	r.Use(httpmiddleware.SessionGate(authService, publicPrefixes))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/login", func(login chi.Router) {
			login.Get("/", h.LoginEtapa)
			login.Post("/matricula", h.LoginMatricula)
			login.Post("/token", h.LoginToken)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/logout", h.Logout)
		private.Post("/logout", h.Logout)

		plantaoHandler.RegisterRoutes(private)

		private.Route("/rascunho", func(rasc chi.Router) {
			rasc.Post("/", h.RascunhoSalvar)
			rasc.Get("/{codigo}", h.RascunhoCarregar)
		})
	})

	return r
}

// Health responde liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready responde readiness verificando banco e redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "banco indisponível")
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "redis indisponível")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
