package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quickhire/internal/config"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/http/handlers"
	"github.com/geocoder89/quickhire/internal/http/middlewares"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Service is everything the HTTP layer asks of the marketplace.
type Service interface {
	handlers.AuthService
	handlers.JobService
	handlers.ApplicationService
	handlers.SkillService
}

type Deps struct {
	Log      *slog.Logger
	Config   config.Config
	Service  Service
	Verifier middlewares.TokenVerifier

	// Optional. Without Prom no HTTP metrics are recorded; without Gatherer
	// /metrics is not mounted; without Ping /readyz always reports ready.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if d.Config.OTELEnabled {
		r.Use(otelgin.Middleware("quickhire-api"))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())

	// health
	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.Verifier)
	requireAuth := authMW.RequireAuth()
	employer := authMW.RequireRole(user.RoleEmployer)
	freelancer := authMW.RequireRole(user.RoleFreelancer)

	authLimiter := middlewares.NewRateLimiter(d.Config.AuthRatePerMin)
	limitByIP := authLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	authH := handlers.NewAuthHandler(d.Service, log)
	jobsH := handlers.NewJobsHandler(d.Service, log)
	appsH := handlers.NewApplicationsHandler(d.Service, log)
	skillsH := handlers.NewSkillsHandler(d.Service, log)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON(), middlewares.MaxBodyBytes(middlewares.DefaultMaxBody))

	auth := api.Group("/auth")
	auth.POST("/register", limitByIP, authH.Register)
	auth.POST("/login", limitByIP, authH.Login)
	auth.GET("/me", requireAuth, authH.Me)

	jobs := api.Group("/jobs")
	jobs.GET("", jobsH.ListJobs)
	jobs.GET("/employer/dashboard", requireAuth, employer, jobsH.EmployerDashboard)
	jobs.GET("/:id", jobsH.GetJob)
	jobs.POST("", requireAuth, employer, jobsH.CreateJob)
	jobs.PUT("/:id", requireAuth, employer, jobsH.UpdateJob)
	jobs.PATCH("/:id/status", requireAuth, employer, jobsH.SetStatus)
	jobs.DELETE("/:id", requireAuth, employer, jobsH.ArchiveJob)

	apps := api.Group("/applications")
	apps.POST("/jobs/:jobId", requireAuth, freelancer, appsH.Apply)
	apps.GET("/jobs/:jobId", requireAuth, employer, appsH.ListForJob)
	apps.GET("/freelancer/dashboard", requireAuth, freelancer, appsH.FreelancerDashboard)

	skills := api.Group("/skills")
	skills.GET("", skillsH.ListSkills)
	skills.POST("", requireAuth, employer, skillsH.CreateSkill)
	skills.POST("/seed", requireAuth, employer, skillsH.SeedSkills)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	return r
}
