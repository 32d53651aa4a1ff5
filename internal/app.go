package internal

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"net/http"
	"nonomi/internal/controllers"
	dispatch "nonomi/internal/dispatch/interfaces"
	feed "nonomi/internal/feed/interfaces"
	"nonomi/internal/providers"
	"nonomi/internal/services"
	"nonomi/internal/status/interfaces"
	"nonomi/internal/structures"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	WebServer *http.Server

	conf   *structures.Config
	logger providers.Logger
	poller interfaces.PollerInterface
	audio  dispatch.AudioPlayer
	hub    feed.HubInterface
}

func NewApp(
	healthController *controllers.HealthController,
	poller interfaces.PollerInterface,
	service services.StatusServiceInterface,
	dispatcher dispatch.DispatcherInterface,
	audio dispatch.AudioPlayer,
	hub feed.HubInterface,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) *App {
	// state first, so /status already reflects a record while its effects run
	poller.OnUpdate(service.HandleUpdate)
	poller.OnUpdate(dispatcher.Handle)
	poller.OnError(service.HandleError)
	poller.OnRecover(service.HandleRecovered)

	// Inner mux: API routes
	apiMux := http.NewServeMux()
	providers.Mount(router, apiMux)

	instrumentedAPI := providers.MetricsMiddleware(metrics, apiMux)

	// Outer mux: infrastructure, the feed socket and the instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	mux.Handle("/feed", hub)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		// No read or write timeout: /feed is long-lived and /frame waits on the agent.
		WebServer: &http.Server{
			Addr:              conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		conf:   conf,
		logger: logger,
		poller: poller,
		audio:  audio,
		hub:    hub,
	}
}

// Run serves HTTP and polls the status endpoint until ctx is cancelled or
// SIGINT/SIGTERM arrives, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.logger.Close()

	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	a.poller.StartPolling()

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")

		a.poller.StopPolling()
		a.audio.Stop()
		a.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.WebServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
