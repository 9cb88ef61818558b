package api

import (
	"log"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jordanlanch/realtycrm/pkg/activity"
	"github.com/jordanlanch/realtycrm/pkg/api/handlers"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/assistant"
	"github.com/jordanlanch/realtycrm/pkg/dashboard"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/matching"
	"github.com/jordanlanch/realtycrm/pkg/metrics"
	custommiddleware "github.com/jordanlanch/realtycrm/pkg/middleware"
	"github.com/jordanlanch/realtycrm/pkg/notifications"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/storage"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

// Services is everything the HTTP surface is built from. Cache, Storage,
// Metrics, RateLimiter and Extra are optional.
type Services struct {
	JWTSecret   string
	CORSOrigins []string
	// UploadsDir is served at UploadsURL when images are stored locally
	UploadsDir string
	UploadsURL string

	DB            handlers.Pinger
	Cache         handlers.Pinger
	Leads         *leads.Service
	Properties    *properties.Service
	Deals         *deals.Service
	Tasks         *tasks.Service
	Activities    *activity.Service
	Notifications *notifications.Service
	Matches       *matching.Service
	Dashboard     *dashboard.Service
	Pipeline      *pipeline.Controller
	Assistant     *assistant.Bridge
	Storage       storage.Store
	Metrics       *metrics.Metrics
	RateLimiter   *custommiddleware.RateLimiter
	// Extra runs right after Recover, e.g. error tracking
	Extra []echo.MiddlewareFunc
}

// NewRouter builds the echo instance with the global middleware chain and
// every /api/v1 route
func NewRouter(s Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURIPath: true,
		LogMethod:  true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", v.Method, loggedURI(c.Request().URL), v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(s.Extra...)
	e.Use(middleware.RequestID())
	if s.Metrics != nil {
		e.Use(s.Metrics.Middleware())
	}
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(s.CORSOrigins)))
	e.Use(middleware.Secure())
	headers := custommiddleware.SecurityHeadersConfig{}
	if s.UploadsDir != "" {
		headers.UploadsPrefix = s.UploadsURL
	}
	e.Use(custommiddleware.SecurityHeaders(headers))
	e.Use(middleware.BodyLimit("12M"))
	if s.RateLimiter != nil {
		e.Use(s.RateLimiter.RateLimitMiddleware())
	}

	if s.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
	if s.UploadsDir != "" && s.UploadsURL != "" {
		e.Static(s.UploadsURL, s.UploadsDir)
	}

	v1 := e.Group("/api/v1")

	healthHandler := handlers.NewHealthHandler(s.DB, s.Cache)
	v1.GET("/health", healthHandler.Health)
	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	leadHandler := handlers.NewLeadHandler(s.Leads)
	propertyHandler := handlers.NewPropertyHandler(s.Properties, s.Storage)
	dealHandler := handlers.NewDealHandler(s.Deals)
	taskHandler := handlers.NewTaskHandler(s.Tasks)
	pipelineHandler := handlers.NewPipelineHandler(s.Pipeline, s.Leads, s.Properties, s.Deals)
	notificationHandler := handlers.NewNotificationHandler(s.Notifications)
	matchHandler := handlers.NewMatchHandler(s.Matches)
	dashboardHandler := handlers.NewDashboardHandler(s.Dashboard)
	activityHandler := handlers.NewActivityHandler(s.Activities)

	var assistantRecorder handlers.AssistantRecorder
	if s.Metrics != nil {
		assistantRecorder = s.Metrics
	}
	aiHandler := handlers.NewAIHandler(s.Assistant, assistantRecorder)

	protected := v1.Group("")
	protected.Use(custommw.JWTMiddleware(s.JWTSecret))

	leadsGroup := protected.Group("/leads")
	{
		leadsGroup.GET("", leadHandler.List)
		leadsGroup.POST("", leadHandler.Create)
		leadsGroup.GET("/:id", leadHandler.Get)
		leadsGroup.PATCH("/:id", leadHandler.Update)
		leadsGroup.PATCH("/:id/status", pipelineHandler.MoveStatus(pipeline.KindLead))
		leadsGroup.GET("/:id/matches", matchHandler.List)
		leadsGroup.POST("/:id/matches/regenerate", matchHandler.Regenerate)
	}

	propertiesGroup := protected.Group("/properties")
	{
		propertiesGroup.GET("", propertyHandler.List)
		propertiesGroup.POST("", propertyHandler.Create)
		propertiesGroup.GET("/:id", propertyHandler.Get)
		propertiesGroup.PATCH("/:id", propertyHandler.Update)
		propertiesGroup.PATCH("/:id/status", pipelineHandler.MoveStatus(pipeline.KindProperty))
		propertiesGroup.POST("/:id/images", propertyHandler.UploadImage)
	}

	dealsGroup := protected.Group("/deals")
	{
		dealsGroup.GET("", dealHandler.List)
		dealsGroup.POST("", dealHandler.Create)
		dealsGroup.GET("/:id", dealHandler.Get)
		dealsGroup.PATCH("/:id", dealHandler.Update)
		dealsGroup.PATCH("/:id/status", pipelineHandler.MoveStatus(pipeline.KindDeal))
	}

	tasksGroup := protected.Group("/tasks")
	{
		tasksGroup.GET("", taskHandler.List)
		tasksGroup.POST("", taskHandler.Create)
		tasksGroup.GET("/:id", taskHandler.Get)
		tasksGroup.PATCH("/:id", taskHandler.Update)
		tasksGroup.PATCH("/:id/status", taskHandler.UpdateStatus)
	}

	protected.GET("/pipeline/:kind", pipelineHandler.Board)
	// Export links are opened by the browser, so the token may ride in the query
	v1.GET("/pipeline/:kind/export", pipelineHandler.Export, custommw.JWTFromQueryOrHeader(s.JWTSecret))

	notificationsGroup := protected.Group("/notifications")
	{
		notificationsGroup.GET("", notificationHandler.List)
		notificationsGroup.GET("/unread-count", notificationHandler.UnreadCount)
		notificationsGroup.PATCH("/read-all", notificationHandler.MarkAllRead)
		notificationsGroup.PATCH("/:id/read", notificationHandler.MarkRead)
	}

	protected.PATCH("/matches/:id/status", matchHandler.UpdateStatus)
	protected.GET("/dashboard/summary", dashboardHandler.Summary)
	protected.GET("/activities", activityHandler.List)
	protected.POST("/activities", activityHandler.Create)
	protected.POST("/ai/chat", aiHandler.Chat)

	return e
}

// loggedURI renders a request path and query for the access log with the
// export download token masked
func loggedURI(u *url.URL) string {
	q := u.Query()
	if len(q) == 0 {
		return u.Path
	}
	if q.Has("token") {
		q.Set("token", "REDACTED")
	}
	return u.Path + "?" + q.Encode()
}
