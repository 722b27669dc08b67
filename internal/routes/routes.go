package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/agenda-engine/internal/config"
	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/handlers"
	"github.com/BruksfildServices01/agenda-engine/internal/middleware"
	"github.com/BruksfildServices01/agenda-engine/internal/ratelimit"
	ucAvailability "github.com/BruksfildServices01/agenda-engine/internal/usecase/availability"
	ucBooking "github.com/BruksfildServices01/agenda-engine/internal/usecase/booking"
	ucService "github.com/BruksfildServices01/agenda-engine/internal/usecase/service"
	ucSettings "github.com/BruksfildServices01/agenda-engine/internal/usecase/settings"
	ucTemplates "github.com/BruksfildServices01/agenda-engine/internal/usecase/templates"
)

// Deps are the long-lived components the routes are built from.
type Deps struct {
	Repo      domain.Repository
	Publisher events.Publisher
	Limiter   ratelimit.Limiter
	Config    *config.Config
	Log       *zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORSMiddleware(d.Config.Auth.WebhookHeader))

	// ======================================================
	// USE CASES - AVAILABILITY
	// ======================================================
	getSlotsUC := ucAvailability.NewGetSlotsForDay(d.Repo)
	availableDaysUC := ucAvailability.NewAvailableDays(d.Repo)

	// ======================================================
	// USE CASES - BOOKINGS
	// ======================================================
	createBookingUC := ucBooking.NewCreateBooking(d.Repo, d.Publisher)
	updateStatusUC := ucBooking.NewUpdateBookingStatus(d.Repo, d.Publisher)
	listByDateUC := ucBooking.NewListBookingsByDate(d.Repo)
	clientReplyUC := ucBooking.NewHandleClientReply(d.Repo, updateStatusUC, d.Log)

	// ======================================================
	// USE CASES - SETTINGS
	// ======================================================
	getScheduleUC := ucSettings.NewGetScheduleConfig(d.Repo)
	updateHoursUC := ucSettings.NewUpdateWorkingHours(d.Repo, d.Publisher)
	replaceBreaksUC := ucSettings.NewReplaceBreaks(d.Repo, d.Publisher)
	addUnavailableUC := ucSettings.NewAddUnavailableDay(d.Repo, d.Publisher)
	removeUnavailableUC := ucSettings.NewRemoveUnavailableDay(d.Repo, d.Publisher)

	// ======================================================
	// USE CASES - SERVICES
	// ======================================================
	listServicesUC := ucService.NewListServices(d.Repo)
	createServiceUC := ucService.NewCreateService(d.Repo, d.Publisher)
	updateServiceUC := ucService.NewUpdateService(d.Repo, d.Publisher)
	toggleServiceUC := ucService.NewToggleService(d.Repo, d.Publisher)
	deleteServiceUC := ucService.NewDeleteService(d.Repo, d.Publisher)

	// ======================================================
	// USE CASES - WHATSAPP TEMPLATES
	// ======================================================
	getTemplatesUC := ucTemplates.NewGetTemplates(d.Repo)
	saveTemplateUC := ucTemplates.NewSaveTemplate(d.Repo, d.Publisher)
	resetTemplateUC := ucTemplates.NewResetTemplate(d.Repo, d.Publisher)

	// ======================================================
	// HANDLERS
	// ======================================================
	publicHandler := handlers.NewPublicHandler(d.Repo, getSlotsUC, availableDaysUC, createBookingUC)
	bookingHandler := handlers.NewBookingHandler(updateStatusUC, listByDateUC)
	settingsHandler := handlers.NewSettingsHandler(
		getScheduleUC,
		updateHoursUC,
		replaceBreaksUC,
		addUnavailableUC,
		removeUnavailableUC,
	)
	serviceHandler := handlers.NewServiceHandler(
		listServicesUC,
		createServiceUC,
		updateServiceUC,
		toggleServiceUC,
		deleteServiceUC,
	)
	templateHandler := handlers.NewTemplateHandler(getTemplatesUC, saveTemplateUC, resetTemplateUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.Repo)
	webhookHandler := handlers.NewWebhookHandler(clientReplyUC, d.Log)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/:slug/services", publicHandler.ListServices)
			publicAPI.GET("/:slug/slots", publicHandler.Slots)
			publicAPI.GET("/:slug/available-days", publicHandler.AvailableDays)
			publicAPI.POST(
				"/:slug/bookings",
				middleware.RateLimitMiddleware(d.Limiter, d.Log),
				publicHandler.CreateBooking,
			)
		}

		// ------------------------------
		// WEBHOOK
		// ------------------------------
		api.POST(
			"/webhook/whatsapp",
			middleware.APIKeyMiddleware(d.Config.Auth.WebhookHeader, d.Config.Auth.WebhookAPIKey),
			webhookHandler.WhatsApp,
		)

		// ------------------------------
		// STAFF
		// ------------------------------
		secured := api.Group("/me")
		secured.Use(middleware.AuthMiddleware(d.Config.Auth.JWTSecret))
		{
			secured.GET("/bookings", bookingHandler.ListByDate)
			secured.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)

			secured.GET("/working-hours", settingsHandler.GetSchedule)
			secured.PUT("/working-hours", settingsHandler.UpdateWorkingHours)
			secured.PUT("/breaks", settingsHandler.ReplaceBreaks)
			secured.POST("/unavailable-days", settingsHandler.AddUnavailableDay)
			secured.DELETE("/unavailable-days/:id", settingsHandler.RemoveUnavailableDay)

			secured.GET("/services", serviceHandler.List)
			secured.POST("/services", serviceHandler.Create)
			secured.PUT("/services/:id", serviceHandler.Update)
			secured.PATCH("/services/:id/status", serviceHandler.SetStatus)
			secured.DELETE("/services/:id", serviceHandler.Delete)

			secured.GET("/whatsapp-templates", templateHandler.List)
			secured.PUT("/whatsapp-templates/:type", templateHandler.Save)
			secured.DELETE("/whatsapp-templates/:type", templateHandler.Reset)

			secured.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
