package http

import (
	"time"

	"microloan-backend/internal/adapter/middleware"
	"microloan-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Health  *Handler
	Loans   *LoanHandler
	Penalty *PenaltyHandler
}

// Register mounts every route. rdb may be nil, which turns idempotency off.
func Register(e *echo.Echo, h Handlers, rdb *redis.Client, idempTTL time.Duration) {
	e.GET("/health", h.Health.Health)
	e.GET("/ready", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("", middleware.Authenticate())
	if rdb != nil {
		api.Use(middleware.Idempotency(rdb, idempTTL))
	}

	borrower := middleware.RequireRole(user.RoleBorrower)
	lender := middleware.RequireRole(user.RoleLender)
	admin := middleware.RequireRole(user.RoleAdmin)
	canView := h.Loans.CanView

	api.POST("/loans", h.Loans.RequestLoan, borrower)
	api.GET("/loans", h.Loans.ListLoans)
	api.GET("/loans/:loan_id", h.Loans.GetLoan, canView)
	api.POST("/loans/:loan_id/activate", h.Loans.Activate, lender)
	api.POST("/loans/:loan_id/installments/:day/payments", h.Loans.PayInstallment, borrower)
	api.POST("/loans/:loan_id/repaid", h.Loans.MarkRepaid, lender)
	api.GET("/loans/:loan_id/schedule", h.Loans.Schedule, canView)
	api.GET("/loans/:loan_id/penalty", h.Penalty.Penalty, canView)
	api.GET("/loans/:loan_id/transactions", h.Loans.Transactions, canView)
	api.GET("/dashboard/borrower", h.Loans.BorrowerDashboard, borrower)
	api.GET("/dashboard/lender", h.Loans.LenderDashboard, lender)
	api.GET("/notifications", h.Loans.Notifications)

	api.POST("/loans/:loan_id/resolve", h.Penalty.Resolve, admin)
	api.GET("/defaults", h.Penalty.ListDefaults, admin)
	api.GET("/defaults/statistics", h.Penalty.Statistics, admin)
	api.GET("/admin/overview", h.Loans.AdminOverview, admin)
	api.POST("/sweeps", h.Penalty.Sweep, admin)
}
