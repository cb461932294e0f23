// Package server wires handlers, middleware and routes into the root
// http.Handler.
package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/tooldesk/quoteflow/internal/auth"
	"github.com/tooldesk/quoteflow/internal/handlers"
	"github.com/tooldesk/quoteflow/internal/httpx"
	"github.com/tooldesk/quoteflow/internal/logger"
	"github.com/tooldesk/quoteflow/internal/models"
	"github.com/tooldesk/quoteflow/internal/services"
	"github.com/tooldesk/quoteflow/internal/workflow"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth double-checks that the session's user still exists and is
	// active, so deactivating an account kills its sessions.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		err := db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND active = ?", uid, true).Limit(1).Count(&count).Error
		return err == nil && count > 0
	})

	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("POST /api/login", ah.Login)
	mux.HandleFunc("POST /api/logout", ah.Logout)
	mux.Handle("GET /api/me", protected(ah.Me))
	mux.Handle("POST /api/users", protected(ah.CreateUser))

	ch := handlers.NewCustomerHandler(db)
	mux.Handle("GET /api/customers", protected(ch.List))
	mux.Handle("POST /api/customers", protected(ch.Create))
	mux.Handle("GET /api/customers/{id}", protected(ch.Get))
	mux.Handle("PUT /api/customers/{id}", protected(ch.Update))
	mux.Handle("DELETE /api/customers/{id}", protected(ch.Delete))

	mh := handlers.NewMachineHandler(db)
	mux.Handle("GET /api/machines", protected(mh.List))
	mux.Handle("POST /api/machines", protected(mh.Create))
	mux.Handle("GET /api/machines/{id}", protected(mh.Get))
	mux.Handle("PUT /api/machines/{id}", protected(mh.Update))
	mux.Handle("DELETE /api/machines/{id}", protected(mh.Delete))

	xh := handlers.NewAuxCostTypeHandler(db)
	mux.Handle("GET /api/auxiliary-cost-types", protected(xh.List))
	mux.Handle("POST /api/auxiliary-cost-types", protected(xh.Create))
	mux.Handle("GET /api/auxiliary-cost-types/{id}", protected(xh.Get))
	mux.Handle("PUT /api/auxiliary-cost-types/{id}", protected(xh.Update))
	mux.Handle("DELETE /api/auxiliary-cost-types/{id}", protected(xh.Delete))

	svc := services.NewQuotationService(db, workflow.NewMachine())
	qh := handlers.NewQuotationHandler(svc)
	mux.Handle("GET /api/quotations", protected(qh.List))
	mux.Handle("POST /api/quotations", protected(qh.Create))
	mux.Handle("GET /api/quotations/{id}", protected(qh.Get))
	mux.Handle("PUT /api/quotations/{id}", protected(qh.Update))
	mux.Handle("DELETE /api/quotations/{id}", protected(qh.Delete))
	mux.Handle("POST /api/quotations/{id}/transitions", protected(qh.Transition))
	mux.Handle("GET /api/quotations/{id}/audits", protected(qh.Audits))
	mux.Handle("GET /api/quotations/{id}/pdf", protected(qh.PDF))
	mux.Handle("GET /api/quotations/{id}/excel", protected(qh.Excel))

	return withRecover(withLogging(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)),
		)
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", logger.Any("panic", rec), logger.String("path", r.URL.Path))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
