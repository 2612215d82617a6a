package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	appadvisory "github.com/Gokhanagingil/grc-sub001/internal/application/advisory"
	appaudit "github.com/Gokhanagingil/grc-sub001/internal/application/audit"
	appcapa "github.com/Gokhanagingil/grc-sub001/internal/application/capa"
	appcontrols "github.com/Gokhanagingil/grc-sub001/internal/application/controls"
	appcontroltests "github.com/Gokhanagingil/grc-sub001/internal/application/controltests"
	apppolicies "github.com/Gokhanagingil/grc-sub001/internal/application/policies"
	apprisks "github.com/Gokhanagingil/grc-sub001/internal/application/risks"
	"github.com/Gokhanagingil/grc-sub001/internal/config"
	advdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	auditdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/audit"
	capadomain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
	controlsdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	controltestsdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/controltests"
	policiesdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	risksdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
	"github.com/Gokhanagingil/grc-sub001/internal/infra/ai/noop"
	aiopenai "github.com/Gokhanagingil/grc-sub001/internal/infra/ai/openai"
	"github.com/Gokhanagingil/grc-sub001/internal/infra/cache"
	mysqlp "github.com/Gokhanagingil/grc-sub001/internal/infra/db/mysql"
	postgresp "github.com/Gokhanagingil/grc-sub001/internal/infra/db/postgres"
	"github.com/Gokhanagingil/grc-sub001/internal/infra/httpserver"
	minioStore "github.com/Gokhanagingil/grc-sub001/internal/infra/storage"
	"github.com/Gokhanagingil/grc-sub001/internal/logging"
	"github.com/Gokhanagingil/grc-sub001/internal/middleware"
)

// repos groups one backend's repository set
type repos struct {
	risks        risksdomain.Repository
	capas        capadomain.Repository
	controls     controlsdomain.Repository
	policies     policiesdomain.Repository
	controlTests controltestsdomain.Repository
	audit        auditdomain.Repository
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.Logging.Level)
	ctx := context.Background()

	// connect database (mysql default, postgres opt-in)
	var db *sql.DB
	var rp repos
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		rp = repos{
			risks:        postgresp.NewRiskRepository(db),
			capas:        postgresp.NewCAPARepository(db),
			controls:     postgresp.NewControlRepository(db),
			policies:     postgresp.NewPolicyRepository(db),
			controlTests: postgresp.NewControlTestRepository(db),
			audit:        postgresp.NewAuditRepository(db),
		}
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		rp = repos{
			risks:        mysqlp.NewRiskRepository(db),
			capas:        mysqlp.NewCAPARepository(db),
			controls:     mysqlp.NewControlRepository(db),
			policies:     mysqlp.NewPolicyRepository(db),
			controlTests: mysqlp.NewControlTestRepository(db),
			audit:        mysqlp.NewAuditRepository(db),
		}
	}
	defer db.Close()

	// init minio (optional: advisory artifact snapshots)
	var artifacts advdomain.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	// advisory cache backend
	ttl := time.Duration(cfg.Advisory.CacheTTLMinutes) * time.Minute
	var advisoryCache advdomain.Cache
	if cfg.Advisory.CacheBackend == "badger" {
		bc, err := cache.NewBadger(cfg.Advisory.BadgerPath, ttl)
		if err != nil {
			log.Fatalf("badger cache init error: %v", err)
		}
		defer bc.Close()
		advisoryCache = bc
	} else {
		advisoryCache = cache.NewMemory(ttl)
	}

	// advisory provider (noop default; openai needs an api key)
	var provider advdomain.Provider = noop.New()
	if cfg.AI.Provider == "openai" {
		provider = aiopenai.NewProvider(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model)
	}

	clock := application.SystemClock{}

	risksSvc := &apprisks.Service{Repo: rp.risks, Clock: clock}
	capaSvc := &appcapa.Service{Repo: rp.capas, Clock: clock}
	controlsSvc := &appcontrols.Service{Repo: rp.controls, Clock: clock}
	policiesSvc := &apppolicies.Service{Repo: rp.policies, Clock: clock}
	controlTestsSvc := &appcontroltests.Service{Repo: rp.controlTests, Controls: rp.controls, Clock: clock}
	auditSvc := &appaudit.Service{Repo: rp.audit, Clock: clock}

	advisorySvc := &appadvisory.Service{
		Risks:     rp.risks,
		Provider:  provider,
		Cache:     advisoryCache,
		CAPAs:     capaSvc,
		Audit:     auditSvc,
		Artifacts: artifacts,
		Clock:     clock,
		Logger:    logger,
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(middleware.RequestLogging(logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
		// middleware runs before route matching, so pull the tenant
		// straight from the /v1/{tenant}/... path
		mux.Use(middleware.TenantGuard(func(r *http.Request) string {
			parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 3)
			if len(parts) >= 2 && parts[0] == "v1" {
				return parts[1]
			}
			return ""
		}))
	}
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))

	mux.Mount("/", httpserver.NewRouter(httpserver.Deps{
		Risks:        risksSvc,
		Advisory:     advisorySvc,
		CAPAs:        capaSvc,
		Controls:     controlsSvc,
		Policies:     policiesSvc,
		ControlTests: controlTestsSvc,
		Audit:        auditSvc,
		Health: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr, "driver", cfg.Database.Driver, "provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
