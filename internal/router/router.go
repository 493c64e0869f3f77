package router

import (
	"log/slog"
	"net/http"

	"melodist/config"
	"melodist/internal/domain"
	"melodist/internal/handler"
	"melodist/internal/metrics"
	"melodist/internal/middleware"
	"melodist/internal/policy"
	"melodist/internal/ratelimit"
	"melodist/internal/repository"
	"melodist/internal/service"
	"melodist/internal/ws"
	"melodist/pkg/catalog"
	"melodist/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators built in main.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *slog.Logger
	Policy   *policy.Engine
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Metrics
	Hub      *ws.Hub
	Storage  cloudinary.Storage
	Searcher catalog.Searcher
}

func Setup(d Deps) *gin.Engine {
	cfg, db, logger := d.Config, d.DB, d.Logger
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.With(slog.String("component", "http"))))
	r.Use(d.Metrics.Middleware())
	if d.Limiter != nil {
		r.Use(middleware.RateLimit(d.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	artistRepo := repository.NewArtistRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	takedownRepo := repository.NewTakedownRepository(db)
	oacRepo := repository.NewOACRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, d.Policy, logger)
	notifSvc := service.NewNotificationService(notificationRepo, logger)
	statusSvc := service.NewStatusService(db, notifSvc, d.Hub, d.Metrics, logger)
	releaseSvc := service.NewReleaseService(releaseRepo, artistRepo, labelRepo, d.Storage, d.Searcher, logger)
	requestSvc := service.NewRequestService(releaseRepo, artistRepo, labelRepo, takedownRepo, oacRepo, logger)
	withdrawalSvc := service.NewWithdrawalService(walletRepo, withdrawalRepo, logger)
	royaltySvc := service.NewRoyaltyService(db, notifSvc, logger)
	directory := service.NewDirectory(artistRepo, labelRepo, profileRepo, releaseRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo, logger)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, auditRepo, logger)
	meHandler := handler.NewMeHandler(profileRepo, logger)
	artistHandler := handler.NewArtistHandler(artistRepo, labelRepo, logger)
	releaseHandler := handler.NewReleaseHandler(releaseSvc, directory, d.Policy, logger)
	walletHandler := handler.NewWalletHandler(walletRepo, royaltySvc, logger)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, logger)
	requestHandler := handler.NewRequestHandler(requestSvc, directory, logger)
	notificationHandler := handler.NewNotificationHandler(notifSvc, logger)
	adminHandler := handler.NewAdminHandler(handler.AdminDeps{
		AdminRepo:   adminRepo,
		Profiles:    profileRepo,
		Artists:     artistRepo,
		Labels:      labelRepo,
		Withdrawals: withdrawalRepo,
		Takedowns:   takedownRepo,
		OAC:         oacRepo,
		AuditRepo:   auditRepo,
		Status:      statusSvc,
		Directory:   directory,
		Releases:    releaseSvc,
		Requests:    requestSvc,
		Withdrawal:  withdrawalSvc,
		Royalties:   royaltySvc,
		Hub:         d.Hub,
	}, logger)

	authMw := middleware.AuthRequired(&cfg.JWT, middleware.LoginPath)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/verify-email", authHandler.VerifyEmail)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", authHandler.Me)
			me.GET("/profile", meHandler.GetProfile)
			me.PATCH("/profile", meHandler.UpdateProfile)

			me.GET("/artists", artistHandler.ListArtists)
			me.POST("/artists", artistHandler.CreateArtist)
			me.PUT("/artists/:id", artistHandler.UpdateArtist)
			me.GET("/labels", artistHandler.ListLabels)
			me.POST("/labels", artistHandler.CreateLabel)
			me.PUT("/labels/:id", artistHandler.UpdateLabel)

			me.GET("/releases", releaseHandler.List)
			me.POST("/releases", releaseHandler.Create)
			me.GET("/releases/:id", releaseHandler.Get)

			me.GET("/wallet", walletHandler.GetBalance)
			me.GET("/wallet/transactions", walletHandler.Transactions)
			me.GET("/royalties", walletHandler.RoyaltyReports)
			me.GET("/withdrawals", withdrawalHandler.List)
			me.POST("/withdrawals", withdrawalHandler.Create)

			me.GET("/takedowns", requestHandler.ListTakedowns)
			me.POST("/takedowns", requestHandler.CreateTakedown)
			me.GET("/oac-requests", requestHandler.ListOAC)
			me.POST("/oac-requests", requestHandler.CreateOAC)

			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		api.POST("/admin/login", authHandler.AdminLogin)
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(&cfg.JWT, middleware.AdminLoginPath), middleware.AdminRequired(d.Policy, logger))
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/statuses", adminHandler.Statuses)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/artists", adminHandler.ListArtists)
			admin.DELETE("/artists/:id", adminHandler.DeleteArtist)
			admin.GET("/labels", adminHandler.ListLabels)
			admin.DELETE("/labels/:id", adminHandler.DeleteLabel)

			admin.GET("/releases", adminHandler.ListReleases)
			admin.GET("/releases/:id", adminHandler.GetRelease)
			admin.DELETE("/releases/:id", adminHandler.DeleteRelease)
			admin.GET("/releases/:id/catalog", adminHandler.CatalogMatch)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.GET("/withdrawals/:id", adminHandler.GetWithdrawal)
			admin.GET("/takedowns", adminHandler.ListTakedowns)
			admin.GET("/takedowns/:id", adminHandler.GetTakedown)
			admin.GET("/oac-requests", adminHandler.ListOAC)
			admin.GET("/oac-requests/:id", adminHandler.GetOAC)

			for _, e := range domain.Entities {
				base := "/" + routeName(e) + "/:id"
				admin.PATCH(base+"/status", adminHandler.SetStatus(e))
				admin.GET(base+"/history", adminHandler.History(e))
			}

			admin.GET("/royalties", adminHandler.ListRoyalties)
			admin.POST("/royalties", adminHandler.CreditRoyalty)
			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}
	}

	r.GET("/ws/admin", ws.UpgradeAdmin(&cfg.JWT, d.Policy, d.Hub, logger.With(slog.String("component", "ws"))))

	return r
}

// routeName is the plural path segment used for an entity.
func routeName(e domain.Entity) string {
	switch e {
	case domain.EntityRelease:
		return "releases"
	case domain.EntityWithdrawal:
		return "withdrawals"
	case domain.EntityTakedown:
		return "takedowns"
	case domain.EntityOAC:
		return "oac-requests"
	}
	return string(e)
}
