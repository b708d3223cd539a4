// Package app wires the configured components into a runnable service: the
// store clients, the stamp-guarded propagator, the action service, the
// reconciliation loop and the operator API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/api/assignments"
	"github.com/mridultyagi687/TSGLogistics-sub000/config"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/engine"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/matching"
	coremetrics "github.com/mridultyagi687/TSGLogistics-sub000/core/metrics"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/propagation"
	coretelemetry "github.com/mridultyagi687/TSGLogistics-sub000/core/telemetry"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/loadstore"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/logger"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/metrics"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/telemetry"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/vendorstore"
	"github.com/mridultyagi687/TSGLogistics-sub000/internal/eventbus"
)

// Service orchestrates the reconciler, the telemetry forwarder and the API.
type Service struct {
	Reconciler *engine.Reconciler
	Actions    *assignment.Service

	bus       eventbus.EventBus
	forwarder *telemetry.Forwarder
	publisher coretelemetry.Publisher
	api       http.Handler
	apiAddr   string
	promPort  string
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	loads, err := loadstore.New(cfg.LoadStore)
	if err != nil {
		return nil, err
	}
	vendors, err := vendorstore.New(cfg.VendorStore)
	if err != nil {
		return nil, err
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	publisher, err := coretelemetry.NewPublisher(cfg.Telemetry.Publishers)
	if err != nil {
		return nil, fmt.Errorf("telemetry publishers: %w", err)
	}

	bus := eventbus.New()
	guard := propagation.NewStampGuard(loads, logger.New("propagation"))
	actions, err := assignment.NewService(vendors, guard, bus, logger.New("assignment"), cfg.Engine.Strict())
	if err != nil {
		return nil, err
	}
	reconciler, err := engine.NewReconciler(
		loads,
		vendors,
		matching.NewWeightedScorer(),
		vendors,
		actions,
		sink,
		bus,
		logger.New("engine"),
		cfg.Engine.Interval(),
		cfg.Engine.OrgID,
	)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Reconciler: reconciler,
		Actions:    actions,
		bus:        bus,
		forwarder:  telemetry.NewForwarder(bus, loads, publisher, logger.New("telemetry"), 0),
		publisher:  publisher,
		promPort:   cfg.Metrics.PrometheusPort,
		log:        logg,
	}
	if !cfg.Metrics.PromEnabled() {
		svc.promPort = ""
	}
	if cfg.API.Enabled {
		svc.api = assignments.NewHandler(vendors, actions, cfg.API.Token, logger.New("api"))
		svc.apiAddr = cfg.API.Addr
	}
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled. The
// reconciler is joined before returning so an in-flight cycle drains rather
// than being cut off mid-write.
func (s *Service) Run(ctx context.Context) error {
	go s.forwarder.Run(ctx)
	reconcilerDone := make(chan struct{})
	go func() {
		defer close(reconcilerDone)
		s.Reconciler.Run(ctx)
	}()
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.api != nil {
		srv := &http.Server{Addr: s.apiAddr, Handler: s.api, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		go func() {
			s.log.Infof("api listening on %s", s.apiAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	<-reconcilerDone
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.publisher.Close()
}
