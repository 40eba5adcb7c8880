package cmdutil

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/db/postgres"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func StartProfiling() {
	if config.ProfilingPort <= 0 {
		return
	}
	log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
	go func() {
		//nolint:gosec // by design
		err := http.ListenAndServe(
			fmt.Sprintf("localhost:%d", config.ProfilingPort),
			nil)
		if err != nil {
			log.Error("Profiling server stopped", log.ErrorField(err))
		}
	}()
}

// SetupGoRoutinesDump prints all goroutine stacks on SIGQUIT.
func SetupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

// StartTelemetry returns nil if telemetry is disabled or could not be set up.
func StartTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry")
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry
}

// WaitForServices waits until the configured database and NATS server accept
// tcp connections.
func WaitForServices(ctx context.Context) error {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	addrs := []string{}
	if config.DB != "" {
		addrs = append(addrs, utils.ExtractFromDBURL(config.DB))
	}
	if config.NatsURL != "" {
		addrs = append(addrs, utils.ExtractFromNatsURL(config.NatsURL))
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(errs) > 0 {
		return fmt.Errorf("required services not ready: %w", errs[0])
	}
	return nil
}

// OpenDB returns nil without error if no database is configured.
func OpenDB(ctx context.Context, withOtlp bool) (*pgxpool.Pool, error) {
	if config.DB == "" {
		return nil, nil
	}
	sqlLogger, err := SQLLogger()
	if err != nil {
		return nil, err
	}
	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewMyTracer(sqlLogger, log.DebugLevel),
	}
	if withOtlp {
		pgTracer = append(pgTracer, postgres.NewOtlpTracer())
	}
	return postgres.InitWithURL(ctx, config.DB, postgres.WithTracer(&pgTracer))
}

// ConnectNats returns nil without error if no NATS url is configured.
func ConnectNats() (*nats.Conn, error) {
	if config.NatsURL == "" {
		return nil, nil
	}
	l := log.Default().Named("nats")
	return nats.Connect(config.NatsURL,
		nats.Name("f1sr"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("disconnected", log.ErrorField(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info("reconnected", log.String("url", nc.ConnectedUrl()))
		}))
}
