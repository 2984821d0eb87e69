// Package server assembles the HTTP router: global middleware, health check, Swagger UI
// and the user API routes.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
	_ "github.com/user/accounts-go/docs" // Generated Swagger docs
	"github.com/user/accounts-go/users"
)

// RequestTimeout bounds how long a single request may run.
const RequestTimeout = 60 * time.Second

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router needs.
type Deps struct {
	Tokens         *auth.TokenService
	AuthHandlers   *auth.Handlers
	UserHandlers   *users.Handlers
	DB             Pinger
	AllowedOrigins []string
}

// NewRouter builds the application's http.Handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(recoverAppError)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteError(w, r, apperror.NewNotFoundError("Not found.", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteError(w, r, apperror.NewMethodNotAllowedError(r.Method))
	})

	r.Get("/healthz", healthz(d.DB))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/create", d.UserHandlers.HandleCreateUser())
		r.Post("/token", d.AuthHandlers.HandleToken())
		r.Post("/token/refresh", d.AuthHandlers.HandleRefreshToken())

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.Tokens))
			r.Get("/me", d.UserHandlers.HandleGetMe())
			r.Put("/me", d.UserHandlers.HandlePutMe())
			r.Patch("/me", d.UserHandlers.HandlePatchMe())
		})
	})

	return r
}

// recoverAppError turns a handler panic into a JSON 500 instead of chi's plain-text body.
func recoverAppError(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				slog.ErrorContext(r.Context(), "panic in handler",
					"panic", rvr,
					"request_id", middleware.GetReqID(r.Context()))
				auth.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			auth.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			slog.WarnContext(r.Context(), "health check failed", "err", err)
			auth.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "unreachable"})
			return
		}
		auth.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
	}
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
