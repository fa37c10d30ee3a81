package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	jwttoken "riskwatch/internal/jwt_token"
	"riskwatch/internal/platform/config"
	"riskwatch/internal/platform/metrics"
	"riskwatch/internal/risk/handler"
	"riskwatch/pkg/platform/httputil"
	authmw "riskwatch/pkg/platform/middleware/auth"
	request "riskwatch/pkg/platform/middleware/request"
	"riskwatch/pkg/platform/middleware/requesttime"
)

const readyTimeout = 2 * time.Second

func newRouter(a *app, cfg *config.Config, log *slog.Logger) http.Handler {
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := a.ready(ctx); err != nil {
			log.WarnContext(ctx, "readiness check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", metrics.Handler())

	var validator authmw.JWTValidator
	if cfg.Auth.SigningKey != "" {
		validator = jwttoken.NewJWTServiceAdapter(
			jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience),
		)
	} else {
		log.Warn("auth signing key not set; caller authentication disabled")
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, log))
		handler.New(a.service, log).Register(r)
	})
	return r
}
