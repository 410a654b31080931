package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/draft"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/observability"
	obsmiddleware "github.com/smallbiznis/invoicekit/internal/observability/logger"
	obstracing "github.com/smallbiznis/invoicekit/internal/observability/tracing"
	productdomain "github.com/smallbiznis/invoicekit/internal/product/domain"
	"github.com/smallbiznis/invoicekit/internal/providers/email"
	"github.com/smallbiznis/invoicekit/internal/quota"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(provideMailboxLinker),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// MailboxLinker stores the refresh token of a user's own mailbox.
type MailboxLinker interface {
	Link(ctx context.Context, userID, address, refreshToken string, prefers bool) (*email.Credential, error)
}

func provideMailboxLinker(tokens *email.TokenManager) MailboxLinker { return tokens }

func NewEngine(cfg config.Config, obsCfg observability.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", HeaderUserID, HeaderAdminToken, "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-Id"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obstracing.WithErrorClassifier(classifyErrorForLog)))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	invoiceSvc      invoicedomain.Service
	drafts          *draft.Service
	productSvc      productdomain.Service
	settingsSvc     settingsdomain.Service
	subscriptionSvc subscriptiondomain.Service
	gate            *quota.Gate
	mailbox         MailboxLinker
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	InvoiceSvc      invoicedomain.Service
	Drafts          *draft.Service
	ProductSvc      productdomain.Service
	SettingsSvc     settingsdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Gate            *quota.Gate
	Mailbox         MailboxLinker
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http"),
		invoiceSvc:      p.InvoiceSvc,
		drafts:          p.Drafts,
		productSvc:      p.ProductSvc,
		settingsSvc:     p.SettingsSvc,
		subscriptionSvc: p.SubscriptionSvc,
		gate:            p.Gate,
		mailbox:         p.Mailbox,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/templates", s.ListTemplates)
	api.POST("/documents/compute", s.ComputeDocument)

	user := api.Group("", UserRequired())

	// -------- Documents --------
	user.POST("/documents/preview", s.PreviewDocument)
	user.POST("/documents/export", s.ExportDocument)
	user.POST("/documents/email", s.EmailDocument)
	user.POST("/documents", s.SaveDocument)
	user.GET("/documents", s.ListDocuments)
	user.GET("/documents/:id", s.GetDocument)
	user.POST("/documents/:id/edit", s.EditDocument)

	// -------- Drafts --------
	drafts := user.Group("/drafts/:kind")
	{
		drafts.GET("", s.GetDraft)
		drafts.DELETE("", s.DiscardDraft)
		drafts.PATCH("", s.PatchDraft)
		drafts.POST("/reset", s.ResetDraft)
		drafts.PUT("/meta", s.SetDraftMeta)
		drafts.PUT("/parties/:role", s.SetDraftParty)
		drafts.POST("/items", s.AddDraftItem)
		drafts.PATCH("/items/:pos", s.UpdateDraftItem)
		drafts.DELETE("/items/:pos", s.RemoveDraftItem)
		drafts.PUT("/items/:pos/product", s.FillDraftItem)
	}

	// -------- Products --------
	user.GET("/products", s.ListProducts)
	user.POST("/products", s.CreateProduct)
	user.GET("/products/:id", s.GetProductByID)
	user.POST("/products/:id/archive", s.ArchiveProduct)

	// -------- Settings --------
	user.GET("/settings/branding", s.GetBranding)
	user.PATCH("/settings/branding", s.UpdateBranding)
	user.POST("/settings/branding/logo", s.UploadLogo)
	user.PUT("/settings/mailbox", s.LinkMailbox)

	// -------- Usage --------
	user.GET("/usage", s.GetUsage)
}

func (s *Server) registerAdminRoutes() {
	if s.cfg.AdminToken == "" {
		return
	}
	admin := s.engine.Group("/admin", AdminTokenRequired(s.cfg.AdminToken))
	admin.PUT("/subscriptions/:userId", s.ChangePlan)
}
