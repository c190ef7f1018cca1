package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	v1 "github.com/imrenagi/go-product-images/api/v1"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Opts struct {
	Addr        string
	ServiceName string
	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string
}

func New(opts Opts, ctrl v1.Controller) Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "product-images"
	}
	return Server{
		opts: opts,
		ctrl: ctrl,
	}
}

type Server struct {
	opts Opts
	ctrl v1.Controller
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("starting server")

	prometheusExporter, err := NewPrometheusExporter()
	if err != nil {
		return err
	}
	telemetryShutdownFn, err := InitTelemetry(ctx, s.opts, prometheusExporter)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.newHTTPHandler(),
		// ReadTimeout is the maximum duration for reading the entire request, including the body.
		ReadTimeout: 30 * time.Second,
		// WriteTimeout is the maximum duration before timing out writes of the response.
		WriteTimeout: 30 * time.Second,
		// ReadHeaderTimeout is necessary here to prevent slowloris attacks.
		// https://www.cloudflare.com/learning/ddos/ddos-attack-tools/slowloris/
		ReadHeaderTimeout: 5 * time.Second,
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
		IdleTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting http server on %s", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("http server stopped unexpectedly")
		return errors.Join(err, telemetryShutdownFn(context.Background()))
	}

	gracefulShutdownPeriod := 30 * time.Second
	log.Warn().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown http server gracefully")
	}
	log.Warn().Msg("http server gracefully stopped")

	if err := telemetryShutdownFn(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown telemetry providers")
	}
	return nil
}

func (s *Server) newHTTPHandler() http.Handler {
	mux := mux.NewRouter()
	mux.Use(
		otelhttp.NewMiddleware("product-images"),
		LogInterceptor)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.WithRouteTag("/", http.HandlerFunc(v1.Web()))).Methods(http.MethodGet)
	apiRouter := mux.PathPrefix("/api").Subrouter()

	c := s.ctrl
	apiV1Router := apiRouter.PathPrefix("/v1").Subrouter()
	apiV1Router.Handle("/products", otelhttp.WithRouteTag("/api/v1/products", c.ListProducts())).Methods(http.MethodGet)
	apiV1Router.Handle("/products", otelhttp.WithRouteTag("/api/v1/products", c.CreateProduct())).Methods(http.MethodPost)
	apiV1Router.Handle("/products/{product_id}", otelhttp.WithRouteTag("/api/v1/products/{product_id}", c.GetProduct())).Methods(http.MethodGet)
	apiV1Router.Handle("/products/{product_id}", otelhttp.WithRouteTag("/api/v1/products/{product_id}", c.DeleteProduct())).Methods(http.MethodDelete)
	apiV1Router.Handle("/products/{product_id}/image", otelhttp.WithRouteTag("/api/v1/products/{product_id}/image", c.GetImage())).Methods(http.MethodGet)
	apiV1Router.Handle("/products/{product_id}/image", otelhttp.WithRouteTag("/api/v1/products/{product_id}/image", c.FormUpload())).Methods(http.MethodPut)
	apiV1Router.Handle("/products/{product_id}/image", otelhttp.WithRouteTag("/api/v1/products/{product_id}/image", c.DeleteImage())).Methods(http.MethodDelete)
	apiV1Router.Handle("/products/{product_id}/image/binary", otelhttp.WithRouteTag("/api/v1/products/{product_id}/image/binary", c.BinaryUpload())).Methods(http.MethodPost)

	return otelhttp.NewHandler(mux, "/")
}
