// Package app wires the planning service, its adapters and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/opsplan/api/audit"
	"github.com/kilianp07/opsplan/api/schedules"
	"github.com/kilianp07/opsplan/config"
	"github.com/kilianp07/opsplan/core/debounce"
	coremetrics "github.com/kilianp07/opsplan/core/metrics"
	"github.com/kilianp07/opsplan/core/model"
	coremon "github.com/kilianp07/opsplan/core/monitoring"
	"github.com/kilianp07/opsplan/core/plan"
	"github.com/kilianp07/opsplan/core/planlog"
	"github.com/kilianp07/opsplan/infra/logger"
	"github.com/kilianp07/opsplan/infra/metrics"
	"github.com/kilianp07/opsplan/infra/monitoring"
	"github.com/kilianp07/opsplan/infra/mqtt"
	"github.com/kilianp07/opsplan/infra/store"
	"github.com/kilianp07/opsplan/internal/eventbus"
)

// Service holds the running components.
type Service struct {
	Plan  *plan.Service
	View  *plan.View
	Store store.Backend

	cfg      *config.Config
	audit    planlog.LogStore
	sink     coremetrics.MetricsSink
	bus      *eventbus.TypedBus[plan.Change]
	notifier *mqtt.Notifier
	log      logger.Logger
}

// New builds every component from cfg. Nothing is served until Run.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	log := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	svc := &Service{Store: backend, cfg: cfg, log: log}
	if err := svc.init(); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) init() error {
	var err error
	if s.audit, err = planlog.NewStore(s.cfg.Logging.Audit()); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	if s.sink, err = coremetrics.NewMetricsSink(s.cfg.Metrics.Sinks); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	s.bus = eventbus.NewTyped[plan.Change]()
	if s.cfg.MQTT.Enabled {
		if s.notifier, err = mqtt.NewNotifier(s.cfg.MQTT); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	s.Plan, err = plan.NewService(s.Store, s.Store, s.cfg.Plan, logger.New("plan"), s.sink, s.audit, s.bus)
	if err != nil {
		return fmt.Errorf("plan service: %w", err)
	}
	s.View = plan.NewView(s.Plan, s.Plan.Config().ViewMode, model.DateOf(time.Now()))
	return nil
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/audit/logs", audit.NewLogHandler(s.audit, s.cfg.HTTP.AuditToken))
	mux.Handle("/", schedules.NewHandler(s.Plan, s.View))
	return mux
}

// Run serves the API until ctx is canceled. Committed changes are fanned out
// to the MQTT notifier and trigger a debounced refresh of the view.
func (s *Service) Run(ctx context.Context) error {
	if err := s.View.Refresh(ctx); err != nil {
		s.log.Warnf("initial view refresh: %v", err)
	}
	delay := time.Duration(s.Plan.Config().RefreshDebounceMS) * time.Millisecond
	refresh := debounce.New(delay, func() {
		if err := s.View.Refresh(ctx); err != nil {
			s.log.Errorf("view refresh: %v", err)
		}
	})
	defer refresh.Stop()
	s.bus.Consume(ctx, func(plan.Change) { refresh.Trigger() })
	if s.notifier != nil {
		s.bus.Consume(ctx, s.notifier.Publish)
	}

	if addr := s.cfg.HTTP.MetricsAddress; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.HTTP.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("serving schedule API on %s", s.cfg.HTTP.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	if s.notifier != nil {
		s.notifier.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	var errs []error
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
