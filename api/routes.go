package api

import (
	"github.com/garnizeh/worklog/internal/config"
	"github.com/garnizeh/worklog/internal/db"
	"github.com/garnizeh/worklog/internal/jobs"
	"github.com/garnizeh/worklog/internal/repository/sqlite"
	"github.com/gorilla/mux"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, pool *jobs.WorkerPool) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(database, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	importsHandler := NewImportsHandler(repo, pool, cfg.UploadDir)
	kpiHandler := NewKPIHandler(repo, pool)
	anomaliesHandler := NewAnomaliesHandler(repo, pool)
	associationsHandler := NewAssociationsHandler(repo)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Import endpoints
	apiV1.HandleFunc("/imports", importsHandler.Upload).Methods("POST")
	apiV1.HandleFunc("/imports", importsHandler.ListSessions).Methods("GET")
	apiV1.HandleFunc("/imports/{session_id}", importsHandler.GetSession).Methods("GET")

	// KPI endpoints
	apiV1.HandleFunc("/kpi", kpiHandler.List).Methods("GET")
	apiV1.HandleFunc("/kpi/recalculate", kpiHandler.Recalculate).Methods("POST")

	// Anomaly endpoints
	apiV1.HandleFunc("/anomalies", anomaliesHandler.List).Methods("GET")
	apiV1.HandleFunc("/anomalies/scan", anomaliesHandler.Scan).Methods("POST")
	apiV1.HandleFunc("/anomalies/{id}/resolve", anomaliesHandler.Resolve).Methods("PATCH")

	// Association queue endpoints
	apiV1.HandleFunc("/associations", associationsHandler.ListPending).Methods("GET")
	apiV1.HandleFunc("/associations/{id}/confirm", associationsHandler.Confirm).Methods("POST")

	return r
}
