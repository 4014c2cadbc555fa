package main

import (
	"database/sql"
	"net/http"

	"voiceline/internal/audit"
	"voiceline/internal/auth"
	"voiceline/internal/booking"
	"voiceline/internal/config"
	"voiceline/internal/dialog"
	"voiceline/internal/httpapi"
	"voiceline/internal/notify"
	"voiceline/internal/rbac"
	"voiceline/internal/telephony"

	"github.com/gin-gonic/gin"
)

type registerDeps struct {
	auth     *auth.Manager
	manager  *dialog.Manager
	bookings *booking.Service
	audits   *audit.Service
	notifier notify.Sender
	cfg      config.Config
	db       *sql.DB
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps registerDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := deps.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	telephony.VoiceHandler{Manager: deps.manager}.Register(r)

	h := httpapi.Handlers{
		Auth:     deps.auth,
		Bookings: deps.bookings,
		Audits:   deps.audits,
		Notifier: deps.notifier,
		Creds:    deps.cfg.Auth,
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.POST("/auth/login", h.Login)

	v1.Use(auth.RequireAccessToken(deps.auth))
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
		})

		reservations := v1.Group("/reservations")
		{
			reservations.GET("", rbac.RequireAnyRole(rbac.RoleManager, rbac.RoleViewer), h.ListReservations)
			reservations.GET("/:id", rbac.RequireAnyRole(rbac.RoleManager, rbac.RoleViewer), h.GetReservation)
			reservations.PATCH("/:id/status", rbac.RequireAnyRole(rbac.RoleManager), h.UpdateReservationStatus)
		}

		v1.GET("/dashboard", rbac.RequireAnyRole(rbac.RoleManager, rbac.RoleViewer), h.Dashboard)
		v1.GET("/audit", rbac.RequireAnyRole(rbac.RoleViewer), h.ListAuditLog)
	}
}
