package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/pressgate/internal/admin"
	"github.com/dropDatabas3/pressgate/internal/authz"
	"github.com/dropDatabas3/pressgate/internal/cache"
	"github.com/dropDatabas3/pressgate/internal/config"
	httpx "github.com/dropDatabas3/pressgate/internal/http"
	"github.com/dropDatabas3/pressgate/internal/http/handlers"
	"github.com/dropDatabas3/pressgate/internal/http/router"
	jwtx "github.com/dropDatabas3/pressgate/internal/jwt"
	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/rate"
	"github.com/dropDatabas3/pressgate/internal/security/password"
	tokens "github.com/dropDatabas3/pressgate/internal/security/token"
	"github.com/dropDatabas3/pressgate/internal/seed"
	"github.com/dropDatabas3/pressgate/internal/store/core"
	"github.com/dropDatabas3/pressgate/internal/store/memory"
	"github.com/dropDatabas3/pressgate/internal/store/pg"
)

// loadConfig carga el YAML; si no existe usa defaults + env.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		cfg = config.Default()
		if verr := cfg.Validate(); verr != nil {
			return nil, verr
		}
		return cfg, nil
	}
	return nil, err
}

// openStore abre el repositorio según el driver configurado.
// Devuelve el pool pg (nil para memory) para metrics y readiness.
func openStore(ctx context.Context, cfg *config.Config) (core.Repository, func() *pgxpool.Pool, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.New(ctx, cfg.Storage.DSN, cfg.RBAC.ProtectedRole, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return st, st.Pool, st.Close, nil
	default:
		st := memory.New(cfg.RBAC.ProtectedRole)
		return st, func() *pgxpool.Pool { return nil }, func() {}, nil
	}
}

func buildKeys(cfg *config.Config) (*jwtx.KeySet, error) {
	if cfg.JWT.SigningSeed != "" {
		return jwtx.FromSeed(cfg.JWT.KID, cfg.JWT.SigningSeed)
	}
	// Sin seed: clave efímera, los tokens mueren con el proceso.
	logger.L().Warn("jwt.signing_seed not set, using ephemeral key")
	return jwtx.NewEd25519(cfg.JWT.KID)
}

func buildLimiters(cfg *config.Config) (global, login rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	win := mustDuration(cfg.Rate.Window)
	loginWin := mustDuration(cfg.Rate.Login.Window)

	if cfg.Cache.Kind == "redis" {
		rc := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		prefix := cfg.Cache.Redis.Prefix
		global = rate.NewRedisLimiter(rc, prefix+"rl:", cfg.Rate.MaxRequests, win)
		login = rate.NewRedisLimiter(rc, prefix+"rl-login:", cfg.Rate.Login.Limit, loginWin)
		return global, login
	}
	global = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, win)
	login = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, loginWin)
	return global, login
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       os.Getenv("LOG_LEVEL"),
				ServiceName: "pressgate",
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Storage
			repo, pool, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer closeStore()

			// El store en memoria arranca vacío: sembrar catálogo y dueño.
			if cfg.Storage.Driver == "memory" {
				if err := seed.Run(ctx, repo, seedOptions(cfg)); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}

			// Cache (denylist de jti)
			cc, err := cache.New(cache.Config{
				Driver:   cfg.Cache.Kind,
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
				Prefix:   cfg.Cache.Redis.Prefix,
			})
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			revoked := tokens.NewRevocationList(cc)

			// JWT
			keys, err := buildKeys(cfg)
			if err != nil {
				return fmt.Errorf("jwt keys: %w", err)
			}
			issuer := jwtx.NewIssuer(cfg.JWT.Issuer, keys, cfg.AccessTTL())

			// Autorización + admin
			engine := authz.New(repo, cfg.RBAC.ProtectedRole)
			adminSvc := admin.NewService(admin.Deps{Repo: repo, ProtectedRole: cfg.RBAC.ProtectedRole})

			// Metrics
			metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{
				Registry: prometheus.DefaultRegisterer,
				Pool:     pool,
			})
			if err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			// Controllers
			authCtrl := handlers.NewAuthController(handlers.AuthDeps{
				Repo:    repo,
				Issuer:  issuer,
				Revoked: revoked,
				Policy: password.Policy{
					MinLength:     cfg.Security.PasswordPolicy.MinLength,
					RequireUpper:  cfg.Security.PasswordPolicy.RequireUpper,
					RequireLower:  cfg.Security.PasswordPolicy.RequireLower,
					RequireDigit:  cfg.Security.PasswordPolicy.RequireDigit,
					RequireSymbol: cfg.Security.PasswordPolicy.RequireSymbol,
				},
				HashParams:  password.Default,
				DefaultRole: cfg.RBAC.DefaultRole,
				AutoLogin:   cfg.Register.AutoLogin,
			})
			healthCtrl := &handlers.HealthController{
				JWKS:  keys.JWKSJSON(),
				Cache: cc,
				Ready: func(ctx context.Context) error {
					if p := pool(); p != nil {
						if err := p.Ping(ctx); err != nil {
							return err
						}
					}
					return cc.Ping(ctx)
				},
			}

			globalLim, loginLim := buildLimiters(cfg)

			h := router.New(router.Deps{
				Engine:             engine,
				Issuer:             issuer,
				Revoked:            revoked,
				Auth:               authCtrl,
				Posts:              handlers.NewPostsController(repo),
				Admin:              handlers.NewAdminController(adminSvc),
				Health:             healthCtrl,
				Metrics:            metricsHandler,
				WithMetrics:        httpx.WithMetrics,
				Limiter:            globalLim,
				LoginLimiter:       loginLim,
				CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			})

			log.Info("starting pressgate",
				logger.String("addr", cfg.Server.Addr),
				logger.String("storage", cfg.Storage.Driver),
				logger.String("cache", cfg.Cache.Kind),
				logger.Role(cfg.RBAC.ProtectedRole),
			)

			srv := httpx.NewServer(cfg.Server.Addr, h)
			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("bye")
			return nil
		},
	}
}

func seedOptions(cfg *config.Config) seed.Options {
	return seed.Options{
		ProtectedRole: cfg.RBAC.ProtectedRole,
		OwnerUsername: cfg.Seed.Owner.Username,
		OwnerPassword: cfg.Seed.Owner.Password,
		HashParams:    password.Default,
	}
}

// mustDuration: las duraciones ya pasaron por Validate.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
