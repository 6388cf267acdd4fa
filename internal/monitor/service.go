// Package monitor polls configured peripherals over the bus and serves
// their status over HTTP.
package monitor

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/FEASTorg/crumbs-go/internal/bus"
	"github.com/FEASTorg/crumbs-go/internal/config"
	"github.com/FEASTorg/crumbs-go/internal/endpoint"
	"github.com/FEASTorg/crumbs-go/internal/observability"
	"github.com/FEASTorg/crumbs-go/internal/protocol"
)

// PeripheralStatus is the last known state of one polled peripheral.
type PeripheralStatus struct {
	Address      byte      `json:"address"`
	Name         string    `json:"name"`
	TypeID       byte      `json:"type_id"`
	Online       bool      `json:"online"`
	LastSeen     time.Time `json:"last_seen,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	ReadFailures uint64    `json:"read_failures"`
	CRCFailures  uint64    `json:"crc_failures"`
}

type Service struct {
	cfg      config.MonitorConfig
	bus      bus.ReadWriter
	ep       *endpoint.Context
	log      zerolog.Logger
	appeared time.Time
	router   *gin.Engine

	mu          sync.RWMutex
	peripherals map[byte]*PeripheralStatus
}

func NewService(cfg config.MonitorConfig, rw bus.ReadWriter) *Service {
	observability.RegisterMetrics()
	logger := observability.ServiceLogger(cfg.Name)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.Instrument(cfg.Name, logger))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	peripherals := make(map[byte]*PeripheralStatus, len(cfg.Peripherals))
	for _, p := range cfg.Peripherals {
		peripherals[p.Address] = &PeripheralStatus{
			Address: p.Address,
			Name:    p.Name,
			TypeID:  p.TypeID,
		}
	}

	return &Service{
		cfg:         cfg,
		bus:         rw,
		ep:          endpoint.New(endpoint.RoleController, 0, endpoint.WithLogger(logger)),
		log:         logger,
		appeared:    time.Now(),
		router:      r,
		peripherals: peripherals,
	}
}

func (s *Service) HTTPRouter() *gin.Engine {
	return s.router
}

// Statuses returns a snapshot sorted by address.
func (s *Service) Statuses() []PeripheralStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PeripheralStatus, 0, len(s.peripherals))
	for _, p := range s.peripherals {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out
}

func (s *Service) Status(addr byte) (PeripheralStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peripherals[addr]
	if !ok {
		return PeripheralStatus{}, false
	}
	return *p, true
}

// PollAll sweeps every configured peripheral once.
func (s *Service) PollAll(ctx context.Context) {
	start := time.Now()
	for _, p := range s.cfg.Peripherals {
		if ctx.Err() != nil {
			return
		}
		s.pollOne(ctx, p.Address)
	}
	observability.RecordPollSweep(time.Since(start))
}

// pollOne stages the identity request, reads the reply, and folds the
// outcome into the peripheral's status.
func (s *Service) pollOne(ctx context.Context, addr byte) {
	err := s.poll(ctx, addr)

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.peripherals[addr]
	if p == nil {
		return
	}
	if err == nil {
		p.Online = true
		p.LastSeen = time.Now()
		p.LastError = ""
		observability.RecordPollOutcome("online")
		return
	}
	p.Online = false
	p.LastError = err.Error()
	if errors.Is(err, protocol.ErrCRCMismatch) {
		p.CRCFailures++
	} else {
		p.ReadFailures++
	}
	observability.RecordPollOutcome("offline")
	s.log.Debug().Uint8("addr", addr).Err(err).Msg("poll failed")
}

func (s *Service) poll(ctx context.Context, addr byte) error {
	if err := s.ep.Stage(ctx, s.bus, addr, protocol.OpcodeIdentity); err != nil {
		return err
	}

	var frame [protocol.MaxFrameSize]byte
	n, err := s.bus.Read(ctx, addr, frame[:])
	if err != nil {
		return err
	}

	var msg protocol.Message
	if err := s.ep.DecodeFrame(frame[:n], &msg); err != nil {
		observability.RecordDecodeError(decodeReason(err))
		return err
	}
	observability.RecordFrameDecoded()

	s.mu.Lock()
	if p := s.peripherals[addr]; p != nil && msg.TypeID != 0 {
		p.TypeID = msg.TypeID
	}
	s.mu.Unlock()
	return nil
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrCRCMismatch):
		return "crc_mismatch"
	case errors.Is(err, protocol.ErrTruncated):
		return "truncated"
	case errors.Is(err, protocol.ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, protocol.ErrFrameTooShort):
		return "frame_too_short"
	default:
		return "other"
	}
}

// Run polls on the configured interval and serves HTTP until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.RegisterRoutes()

	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	s.log.Info().
		Str("addr", s.cfg.Addr).
		Dur("interval", s.cfg.Interval()).
		Int("peripherals", len(s.cfg.Peripherals)).
		Msg("monitor started")

	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()

	s.PollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			return ctx.Err()
		case err := <-errc:
			return err
		case <-ticker.C:
			s.PollAll(ctx)
		}
	}
}
