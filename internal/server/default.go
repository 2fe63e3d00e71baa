package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/tradecove/catalog/modules/core/services"
	"github.com/tradecove/catalog/pkg/configuration"
	"github.com/tradecove/catalog/pkg/middleware"
)

// Controller is anything that can mount routes on the router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type Options struct {
	Configuration *configuration.Configuration
	Logger        *logrus.Logger
	Pool          *pgxpool.Pool
	Tenants       *services.TenantService

	// Controllers mounted behind tenant resolution.
	TenantControllers []Controller
	// Controllers mounted on the bare router, e.g. metrics.
	SystemControllers []Controller
}

type HTTPServer struct {
	log    *logrus.Logger
	server *http.Server
}

func Default(opts *Options) *HTTPServer {
	root := mux.NewRouter()
	root.Use(
		middleware.RequestLogger(opts.Logger),
		middleware.ProvidePool(opts.Pool),
	)

	for _, c := range opts.SystemControllers {
		c.Register(root)
		opts.Logger.WithField("prefix", c.Key()).Info("mounted system controller")
	}

	api := root.NewRoute().Subrouter()
	api.Use(middleware.RequireTenant(opts.Tenants))
	for _, c := range opts.TenantControllers {
		c.Register(api)
		opts.Logger.WithField("prefix", c.Key()).Info("mounted controller")
	}

	return &HTTPServer{
		log: opts.Logger,
		server: &http.Server{
			Addr:         opts.Configuration.SocketAddress,
			Handler:      root,
			ReadTimeout:  opts.Configuration.ReadTimeout,
			WriteTimeout: opts.Configuration.WriteTimeout,
		},
	}
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *HTTPServer) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("address", s.server.Addr).Info("server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		s.log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
