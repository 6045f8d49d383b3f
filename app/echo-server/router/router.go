package router

import (
	"maternityCare/internal/middleware"
	"maternityCare/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupSignalRoutes(api *echo.Group, events *rest.EventHandler, signals *rest.SignalHandler, prefs *rest.PreferenceHandler, copywriter *rest.CopyHandler) {
	authRequired := middleware.AuthMiddleware()

	api.POST("/ingest-event", events.IngestEvent, authRequired)
	api.POST("/build-signals", signals.BuildSignals, authRequired)
	api.POST("/infer-preferences", prefs.InferPreferences, authRequired)
	api.POST("/compose-copy", copywriter.ComposeCopy, authRequired)
}

func SetupPlanRoutes(api *echo.Group, handler *rest.PlanHandler) {
	plans := api.Group("/plans", middleware.AuthMiddleware())

	plans.GET("/today", handler.Today)
	plans.POST("/replan", handler.Replan)
	plans.GET("/frequency", handler.Frequency)
	plans.POST("/feedback/less", handler.ShowLess)
}

func SetupAlertAdminRoutes(api *echo.Group, handler *rest.AlertAdminHandler) {
	admin := api.Group("/admin/alerts", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("", handler.ListOpen)
	admin.PUT("/:id/resolve", handler.Resolve)
	admin.GET("/users/:user_id/snapshots", handler.SnapshotHistory)
}
