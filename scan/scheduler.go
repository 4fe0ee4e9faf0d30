// Package scan drives reply orchestration across many conversations
// in bounded passes for unattended operation: focused conversation
// first, then every thread flagged with unread tenant activity, with
// a session-scoped replied set that is periodically forgotten so
// follow-up messages get re-evaluated.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lindenrealty/rentscreen/convmem"
	"github.com/lindenrealty/rentscreen/orchestrate"
	"github.com/lindenrealty/rentscreen/surface"
)

var ErrAlreadyRunning = errors.New("scan: scheduler already running")

// Evaluator is the single-conversation decision step. Satisfied by
// *orchestrate.Orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, sfc surface.Surface, thread surface.Thread) orchestrate.Result
}

// Publisher receives one record per evaluation with a decision
// outcome. Optional.
type Publisher interface {
	Publish(ctx context.Context, result orchestrate.Result) error
}

type Config struct {
	// SettleDelay is how long to wait after switching focus before
	// reading the conversation.
	SettleDelay time.Duration

	// IdleInterval is the sleep between passes when nothing is left
	// to process.
	IdleInterval time.Duration

	// RepliedResetInterval bounds how long the session replied set
	// suppresses a conversation. Independent from IdleInterval.
	RepliedResetInterval time.Duration
}

type Scheduler struct {
	sfc       surface.Surface
	evaluator Evaluator
	memory    *convmem.Memory
	publisher Publisher
	logger    *slog.Logger
	cfg       Config

	state runState

	// evalMu serializes evaluations: exactly one is in flight at any
	// time, whether from the scan loop or a manual trigger.
	evalMu sync.Mutex

	repliedMu  sync.Mutex
	replied    map[string]struct{}
	lastForget time.Time
	nowFn      func() time.Time
}

func New(sfc surface.Surface, evaluator Evaluator, memory *convmem.Memory, publisher Publisher, logger *slog.Logger, cfg Config) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sfc:       sfc,
		evaluator: evaluator,
		memory:    memory,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		replied:   map[string]struct{}{},
		nowFn:     time.Now,
	}
}

// Run executes scan cycles until Stop is called or ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.start() {
		return ErrAlreadyRunning
	}
	defer s.state.stop()
	s.repliedMu.Lock()
	s.lastForget = s.nowFn()
	s.repliedMu.Unlock()

	s.logger.Info("scan_started",
		"settle_delay", s.cfg.SettleDelay.String(),
		"idle_interval", s.cfg.IdleInterval.String(),
		"replied_reset_interval", s.cfg.RepliedResetInterval.String(),
	)

	for s.state.isRunning() {
		if err := ctx.Err(); err != nil {
			s.logger.Info("scan_stopped", "reason", "context")
			return err
		}

		processed, err := s.cycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// Per-cycle failures are recoverable; re-poll later.
			s.logger.Warn("scan_cycle_failed", "error", err.Error())
		}

		if processed == 0 {
			if err := sleepWithContext(ctx, s.cfg.IdleInterval); err != nil {
				return err
			}
		}
		s.maybeForgetReplied()
	}

	s.logger.Info("scan_stopped", "reason", "stop_requested")
	return nil
}

// Stop requests termination after the in-flight evaluation completes.
func (s *Scheduler) Stop() {
	s.state.stop()
}

// cycle runs one scan pass and reports how many conversations were
// evaluated.
func (s *Scheduler) cycle(ctx context.Context) (int, error) {
	processed := 0
	handled := map[string]struct{}{}

	// The conversation already open gets evaluated first. It still goes
	// through FocusAndEvaluate so the observed focus cannot change
	// between this check and the read.
	focused, ok, err := s.sfc.FocusedThread(ctx)
	if err != nil {
		return processed, err
	}
	if ok && !s.excluded(focused.ID) {
		res, err := s.FocusAndEvaluate(ctx, focused)
		if err != nil {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}
			s.logger.Warn("focus_failed", "conversation_id", focused.ID, "error", err.Error())
		} else {
			processed++
			handled[focused.ID] = struct{}{}
			s.afterEvaluation(ctx, res)
		}
	}

	threads, err := s.sfc.ListThreads(ctx)
	if err != nil {
		return processed, err
	}

	for _, thread := range threads {
		if !thread.Unread {
			continue
		}
		if _, done := handled[thread.ID]; done {
			continue
		}
		if s.excluded(thread.ID) {
			continue
		}

		res, err := s.FocusAndEvaluate(ctx, thread)
		if err != nil {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}
			s.logger.Warn("focus_failed", "conversation_id", thread.ID, "error", err.Error())
			continue
		}
		processed++
		handled[thread.ID] = struct{}{}
		s.afterEvaluation(ctx, res)
	}

	s.logger.Debug("scan_cycle_done", "processed", processed)
	return processed, nil
}

// FocusAndEvaluate switches the surface to the thread, waits out the
// settle delay, and evaluates, all under the evaluation lock. It is
// also the entry point for manual "evaluate now" triggers: holding the
// lock across the whole sequence means no other evaluation can move
// focus between the switch and the read, so a record is only ever
// reconciled against its own thread's messages.
func (s *Scheduler) FocusAndEvaluate(ctx context.Context, thread surface.Thread) (orchestrate.Result, error) {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()
	if err := s.sfc.Focus(ctx, thread.ID); err != nil {
		return orchestrate.Result{}, err
	}
	if err := sleepWithContext(ctx, s.cfg.SettleDelay); err != nil {
		return orchestrate.Result{}, err
	}
	return s.evaluator.Evaluate(ctx, s.sfc, thread), nil
}

func (s *Scheduler) afterEvaluation(ctx context.Context, res orchestrate.Result) {
	if res.Outcome == orchestrate.OutcomeReplied {
		s.repliedMu.Lock()
		s.replied[res.ConversationID] = struct{}{}
		s.repliedMu.Unlock()
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, res); err != nil {
			s.logger.Warn("outcome_publish_failed", "conversation_id", res.ConversationID, "error", err.Error())
		}
	}
}

// excluded filters conversations that finished screening or were
// already replied to in this session window.
func (s *Scheduler) excluded(id string) bool {
	if s.memory.Get(id).ScreeningComplete {
		return true
	}
	s.repliedMu.Lock()
	defer s.repliedMu.Unlock()
	_, done := s.replied[id]
	return done
}

// maybeForgetReplied clears the session replied set once the
// configured window elapses, so conversations with tenant follow-ups
// are re-evaluated instead of being suppressed for the whole session.
func (s *Scheduler) maybeForgetReplied() {
	s.repliedMu.Lock()
	defer s.repliedMu.Unlock()
	if s.cfg.RepliedResetInterval <= 0 {
		return
	}
	now := s.nowFn()
	if now.Sub(s.lastForget) < s.cfg.RepliedResetInterval {
		return
	}
	if len(s.replied) > 0 {
		s.logger.Debug("replied_set_cleared", "size", len(s.replied))
	}
	s.replied = map[string]struct{}{}
	s.lastForget = now
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
