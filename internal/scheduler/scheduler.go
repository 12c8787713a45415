// Package scheduler drives the periodic trading cycle: signal gathering,
// risk validation, and execution on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/broker"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/engine"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/monitoring"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/notify"
)

// DecisionSource produces one trade decision per cycle.
type DecisionSource interface {
	Decide(ctx context.Context, symbol string) (*domain.TradeDecision, error)
}

// Validator applies the risk rules to a decision.
type Validator interface {
	Validate(ctx context.Context, decision domain.TradeDecision) domain.RiskValidationResult
}

// Executor places the orders for a validated trade.
type Executor interface {
	Execute(ctx context.Context, p engine.ExecuteParams) domain.OrderResult
	Positions(ctx context.Context) ([]domain.Position, error)
}

// Scheduler runs the trading cycle for one symbol on a fixed interval.
// Cycles are strictly serialized: a tick that fires while a cycle is
// still running is dropped, not queued.
type Scheduler struct {
	symbol   string
	interval time.Duration

	decisions DecisionSource
	validator Validator
	executor  Executor
	clock     broker.MarketClock
	notifier  notify.Notifier
	health    *monitoring.HealthChecker
	log       *slog.Logger

	running sync.Mutex
}

// New creates a Scheduler. All collaborators are required except health,
// which may be nil.
func New(symbol string, interval time.Duration, decisions DecisionSource, validator Validator, executor Executor, clock broker.MarketClock, notifier notify.Notifier, health *monitoring.HealthChecker, log *slog.Logger) *Scheduler {
	return &Scheduler{
		symbol:    symbol,
		interval:  interval,
		decisions: decisions,
		validator: validator,
		executor:  executor,
		clock:     clock,
		notifier:  notifier,
		health:    health,
		log:       log.With("component", "scheduler", "symbol", symbol),
	}
}

// Run executes cycles until ctx is cancelled. The first cycle runs
// immediately; subsequent cycles fire on the interval. On shutdown it
// reports the open position state through the notifier.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started", "interval", s.interval)

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			s.shutdown()
			return ctx.Err()
		}
	}
}

// tick runs one cycle unless the previous one is still in flight.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.log.Warn("previous cycle still running, skipping tick")
		monitoring.RecordCycle(monitoring.CycleSkipped)
		return
	}
	defer s.running.Unlock()

	if err := s.runCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("cycle failed", "error", err)
		monitoring.RecordCycle(monitoring.CycleFailed)
		if s.health != nil {
			s.health.RecordError(err)
		}
		s.send(ctx, notify.CycleError(s.symbol, err))
	}
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	open, err := s.clock.IsMarketOpen(ctx)
	if err != nil {
		return err
	}
	if !open {
		s.log.Info("market closed, skipping cycle")
		monitoring.RecordCycle(monitoring.CycleMarketClosed)
		if s.health != nil {
			s.health.RecordCycle()
		}
		return nil
	}

	decision, err := s.decisions.Decide(ctx, s.symbol)
	if err != nil {
		return err
	}

	result := s.validator.Validate(ctx, *decision)
	if !result.Valid {
		s.log.Info("trade rejected", "reason", result.Reason, "details", result.Details)
		monitoring.RecordRejection(result.Reason)
		monitoring.RecordCycle(monitoring.CycleCompleted)
		if s.health != nil {
			s.health.RecordCycle()
		}
		s.send(ctx, notify.TradeRejected(s.symbol, result))
		return nil
	}

	if decision.Action == domain.ActionHold {
		s.log.Info("holding", "rationale", decision.Rationale)
		monitoring.RecordCycle(monitoring.CycleCompleted)
		if s.health != nil {
			s.health.RecordCycle()
		}
		return nil
	}

	params := engine.ExecuteParams{
		Symbol: s.symbol,
		Action: decision.Action,
		Qty:    result.Quantity,
	}
	if result.Params != nil {
		stop := result.Params.StopLoss
		params.StopLoss = &stop
		monitoring.UpdatePrice(s.symbol, result.Params.EntryPrice.InexactFloat64())
	}

	orderResult := s.executor.Execute(ctx, params)
	switch {
	case orderResult.PartialFailure:
		s.log.Error("position is unprotected", "error", orderResult.Error)
		monitoring.RecordPartialFailure()
		monitoring.RecordTrade(s.symbol, string(decision.Action))
	case orderResult.Success:
		monitoring.RecordTrade(s.symbol, string(decision.Action))
	default:
		s.log.Warn("execution rejected", "error", orderResult.Error)
	}

	monitoring.RecordCycle(monitoring.CycleCompleted)
	if s.health != nil {
		s.health.RecordCycle()
	}
	s.send(ctx, notify.TradeExecuted(s.symbol, orderResult))
	return nil
}

// shutdown reports the open position state. It runs after ctx is
// cancelled, so it uses a short detached context.
func (s *Scheduler) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	qty := decimal.Zero
	positions, err := s.executor.Positions(ctx)
	if err != nil {
		s.log.Warn("could not read positions during shutdown", "error", err)
	} else {
		for _, p := range positions {
			if p.Symbol == s.symbol {
				qty = p.Qty
			}
		}
	}
	s.send(ctx, notify.Shutdown(s.symbol, qty))
}

func (s *Scheduler) send(ctx context.Context, a notify.Alert) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, a); err != nil {
		s.log.Warn("notification failed", "title", a.Title, "error", err)
	}
}
