// board-service
//
// Job board backend: companies post jobs and move them through
// Draft → Open → Closed, applicants apply with a resume and track their
// applications, and the owning company reviews and updates each one.
//
// Exposes the REST API on HTTP_PORT and BoardService (JSON over gRPC) on
// GRPC_PORT for the Gateway. Publishes EVENT_* messages to Redis for the
// Gateway's live feed and queues outbound mail on NATS; the mailer
// subscription in this same process delivers it over SMTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"jobmate/board-service/internal/applications"
	"jobmate/board-service/internal/config"
	"jobmate/board-service/internal/db"
	"jobmate/board-service/internal/events"
	"jobmate/board-service/internal/grpcserver"
	"jobmate/board-service/internal/httpapi"
	"jobmate/board-service/internal/identity"
	"jobmate/board-service/internal/jobs"
	"jobmate/board-service/internal/logger"
	"jobmate/board-service/internal/mailer"
	"jobmate/board-service/internal/notify"
	"jobmate/board-service/internal/ratelimit"
	"jobmate/board-service/internal/security"
	"jobmate/board-service/internal/store"
	"jobmate/board-service/internal/store/memory"
	"jobmate/board-service/internal/store/postgres"
	"jobmate/board-service/internal/telemetry"
	"jobmate/board-service/internal/upload"
)

const serviceName = "board-service"

// ── Infrastructure ──────────────────────────────────────────────────────────

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func newStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using the in-memory store; data is lost on restart")
		return memory.New(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info("connecting to PostgreSQL")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	st := postgres.New(pool, log)

	if cfg.RunMigrations {
		if err := st.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			err := st.Close()
			pool.Close()
			return err
		},
	})
	return st, nil
}

func newRedis(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("connecting to Redis")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return rdb.Close() }})
	return rdb, nil
}

func newNATS(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	nc, err := db.NewNATSConnection(cfg.NATSURL, cfg.NATSConnTimeout)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return nc.Drain() }})
	return nc, nil
}

func newStorage(cfg *config.Config) (upload.Storage, error) {
	return upload.NewCloudinary(cfg.CloudinaryURL, cfg.ResumeFolder)
}

func newDispatcher(nc *nats.Conn, log *zap.Logger) notify.Dispatcher {
	return notify.NewNATSDispatcher(nc, log)
}

func newPublisher(rdb *redis.Client, log *zap.Logger) events.Publisher {
	return events.NewRedisPublisher(rdb, log)
}

func newLimiter(rdb *redis.Client, log *zap.Logger) ratelimit.Limiter {
	return ratelimit.NewRedisLimiter(rdb, log)
}

// ── Engines ─────────────────────────────────────────────────────────────────

func newIdentity(
	cfg *config.Config,
	st store.Store,
	rdb *redis.Client,
	mail notify.Dispatcher,
	log *zap.Logger,
) *identity.Service {
	return identity.NewService(
		st,
		security.NewRedisSessions(rdb),
		security.NewJWTProvider(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		security.NewSigner(cfg.SigningSecret, cfg.VerifyTokenTTL),
		mail,
		log,
		identity.Config{PublicBaseURL: cfg.PublicBaseURL, VerifyResendMaxAge: cfg.VerifyResendAge},
	)
}

func newJobs(st store.Store, pub events.Publisher, log *zap.Logger) *jobs.Service {
	return jobs.NewService(st, st, pub, log)
}

func newApplications(
	cfg *config.Config,
	st store.Store,
	storage upload.Storage,
	mail notify.Dispatcher,
	pub events.Publisher,
	log *zap.Logger,
) *applications.Service {
	return applications.NewService(st, st, storage, mail, pub, log, cfg.MaxResumeBytes)
}

// ── Servers ─────────────────────────────────────────────────────────────────

func newHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	st store.Store,
	idSvc *identity.Service,
	jobsSvc *jobs.Service,
	apps *applications.Service,
	limiter ratelimit.Limiter,
	log *zap.Logger,
) *http.Server {
	api := httpapi.NewServer(httpapi.Deps{
		Identity:       idSvc,
		Jobs:           jobsSvc,
		Applications:   apps,
		Limiter:        limiter,
		Logger:         log,
		Ping:           st.Ping,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
		MaxResumeBytes: cfg.MaxResumeBytes,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("http listen: %w", err)
			}
			log.Info("HTTP listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

func newGRPCServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	idSvc *identity.Service,
	jobsSvc *jobs.Service,
	apps *applications.Service,
	log *zap.Logger,
) *grpc.Server {
	srv := grpcserver.NewGRPCServer(grpcserver.NewServer(jobsSvc, apps, idSvc, log))

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", ":"+cfg.GRPCPort)
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			log.Info("gRPC listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil {
					log.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			srv.GracefulStop()
			return nil
		},
	})
	return srv
}

// ── Invokes ─────────────────────────────────────────────────────────────────

func startTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	shutdown, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	if cfg.OTLPEndpoint != "" {
		log.Info("tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}

func startMailer(lc fx.Lifecycle, cfg *config.Config, nc *nats.Conn, log *zap.Logger) error {
	if !cfg.MailerEnabled {
		log.Info("mailer disabled; outbound mail stays queued on NATS")
		return nil
	}
	sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	h := mailer.NewHandler(log, nc, telemetry.GetTracer(serviceName+"/mailer"), sender)
	return h.RegisterSubscriptions(lc)
}

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Provide(
			config.Load,
			newLogger,
			newStore,
			newRedis,
			newNATS,
			newStorage,
			newDispatcher,
			newPublisher,
			newLimiter,
			newIdentity,
			newJobs,
			newApplications,
			newHTTPServer,
			newGRPCServer,
		),
		fx.Invoke(
			startTracing,
			startMailer,
			func(*http.Server, *grpc.Server) {},
		),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
