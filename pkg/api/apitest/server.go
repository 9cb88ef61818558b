// Package apitest builds the full HTTP API over a migrated in-memory
// database for handler and SDK tests.
package apitest

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/activity"
	"github.com/jordanlanch/realtycrm/pkg/ai/llm"
	"github.com/jordanlanch/realtycrm/pkg/api"
	"github.com/jordanlanch/realtycrm/pkg/assistant"
	"github.com/jordanlanch/realtycrm/pkg/auth"
	"github.com/jordanlanch/realtycrm/pkg/dashboard"
	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/database/databasetest"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/matching"
	"github.com/jordanlanch/realtycrm/pkg/notifications"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/storage"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

// Secret signs the tokens issued by Token
const Secret = "apitest-secret"

// Options adjusts the server under test
type Options struct {
	// LLM backs the assistant; nil leaves it unconfigured
	LLM llm.LLMClient
	// Storage receives image uploads; nil uses a temp dir
	Storage storage.Store
	// Strict enables the transition allow-list
	Strict bool
}

// Server is the API under test plus direct access to its services
type Server struct {
	Echo          *echo.Echo
	DB            *database.Client
	Leads         *leads.Service
	Properties    *properties.Service
	Deals         *deals.Service
	Tasks         *tasks.Service
	Notifications *notifications.Service
	Matches       *matching.Service
}

// New wires every service the way cmd/api does, without Redis
func New(t testing.TB, opts Options) *Server {
	t.Helper()

	db := databasetest.Open(t)
	log := logger.Nop()

	notificationService := notifications.NewService(db, nil, log)
	leadService := leads.NewService(db, nil, log).WithNotifier(notificationService)
	propertyService := properties.NewService(db, nil, log)
	dealService := deals.NewService(db, nil, log)
	taskService := tasks.NewService(db, nil, log)
	activityService := activity.NewService(db, log)
	matchService := matching.NewService(db, leadService, propertyService, log).WithNotifier(notificationService)

	controller := pipeline.NewController(pipeline.Options{
		Stores: map[pipeline.Kind]pipeline.StatusStore{
			pipeline.KindLead:     leadService,
			pipeline.KindProperty: propertyService,
			pipeline.KindDeal:     dealService,
		},
		Policy:     pipeline.PolicyFor(opts.Strict),
		Activities: activityService,
		Notifier:   notificationService,
		Logger:     log,
	})

	store := opts.Storage
	if store == nil {
		local, err := storage.NewLocalStore(t.TempDir(), "/uploads")
		if err != nil {
			t.Fatalf("failed creating upload dir: %v", err)
		}
		store = local
	}

	e := api.NewRouter(api.Services{
		JWTSecret:     Secret,
		CORSOrigins:   []string{"http://localhost:3000"},
		DB:            db,
		Leads:         leadService,
		Properties:    propertyService,
		Deals:         dealService,
		Tasks:         taskService,
		Activities:    activityService,
		Notifications: notificationService,
		Matches:       matchService,
		Dashboard:     dashboard.NewService(db, taskService, notificationService, log),
		Pipeline:      controller,
		Assistant:     assistant.New(opts.LLM, log),
		Storage:       store,
	})

	return &Server{
		Echo:          e,
		DB:            db,
		Leads:         leadService,
		Properties:    propertyService,
		Deals:         dealService,
		Tasks:         taskService,
		Notifications: notificationService,
		Matches:       matchService,
	}
}

// Start serves the API on a local listener until the test ends
func (s *Server) Start(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s.Echo)
	t.Cleanup(srv.Close)
	return srv
}

// Token issues a valid token for userID
func Token(t testing.TB, userID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, userID+"@example.com", "agent", Secret, 1)
	if err != nil {
		t.Fatalf("failed issuing token: %v", err)
	}
	return token
}
