package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/auth"
	"github.com/hitoshi/contactbook/internal/metrics"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	LatencyMax        time.Duration
	Metrics           metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// 認証
	Authenticator middleware.Authenticator
	AuthService   AuthServiceInterface

	// 連絡先
	Contacts  ContactStore
	Sanitizer *security.ContactInputSanitizer

	// ユーザー
	Users UserDirectory

	// ヘルスチェック
	Health Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → Metrics → CORS → SecurityHeaders
//	  → (保護ルート) Auth → RateLimit(General) → [連絡先のみ Latency] → RequireOperation
//
// /health、/metrics、ログインは認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
	})

	authHandler := NewAuthHandler(deps.AuthService)
	contactHandler := NewContactHandler(deps.Contacts, deps.Sanitizer, collector)
	userHandler := NewUserHandler(deps.Users)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// 保護ルート共通: Auth → RateLimit(General) → RequireOperation
	authenticate := middleware.NewAuthMiddleware(deps.Authenticator, collector)
	limitPerUser := deps.RateLimiter.GeneralMiddleware()
	allow := func(op auth.Operation) func(http.Handler) http.Handler {
		return middleware.RequireOperation(op, collector)
	}

	r.Route("/api/auth", func(r chi.Router) {
		// ログイン（IP単位のレート制限）
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)

		// 認証ミドルウェアはエンドポイント単位で適用されるため、誤ったメソッドは認証前に405になる
		r.Group(func(r chi.Router) {
			r.Use(authenticate, limitPerUser)
			r.With(allow(auth.OpLogout)).Post("/logout", authHandler.Logout)
			r.With(allow(auth.OpCurrentUser)).Get("/me", authHandler.Me)
		})
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(authenticate, limitPerUser)
		r.Use(middleware.NewLatencyMiddleware(deps.LatencyMax))

		r.With(allow(auth.OpListContacts)).Get("/", contactHandler.ListContacts)
		r.With(allow(auth.OpCreateContact)).Post("/", contactHandler.CreateContact)

		r.Route("/{id}", func(r chi.Router) {
			r.With(allow(auth.OpGetContact)).Get("/", contactHandler.GetContact)
			r.With(allow(auth.OpUpdateContact)).Put("/", contactHandler.UpdateContact)
			r.With(allow(auth.OpDeleteContact)).Delete("/", contactHandler.DeleteContact)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authenticate, limitPerUser)
		r.With(allow(auth.OpListUsers)).Get("/", userHandler.ListUsers)
		r.With(allow(auth.OpGetUser)).Get("/{id}", userHandler.GetUser)
	})

	return r
}
