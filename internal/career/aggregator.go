// Package career computes the bounded career score of a candidate from the
// signals owned by other subsystems.
package career

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/types"
)

// Signal names used in logs and metrics.
const (
	SignalResume    = "resume"
	SignalSocial    = "social"
	SignalSkillPath = "skill_path"
	SignalActivity  = "activity"
)

// SignalReader reads the four independently owned signal tables.
// A nil value with a nil error means the producer has not written anything yet.
type SignalReader interface {
	ResumeScore(ctx context.Context, candidateID string) (*int, error)
	SocialCompleteness(ctx context.Context, candidateID string) (*int, error)
	SkillPathProgress(ctx context.Context, candidateID string) (*int, error)
	ApplicationCount(ctx context.Context, candidateID string) (int, error)
}

// ScoreWriter persists the computed score.
type ScoreWriter interface {
	UpsertCareerScore(ctx context.Context, score *types.CareerScore) error
}

// Aggregator recomputes career scores. It never subscribes to signal changes;
// producers call Recompute or OnSignalChanged after they write.
type Aggregator struct {
	signals SignalReader
	writer  ScoreWriter
	weights Weights
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	locks *keyedMutex

	lastMu    sync.Mutex
	computed  map[string]time.Time
	nextPrune time.Time
}

// computedPruneInterval bounds how often stale computedAt entries are dropped.
const computedPruneInterval = time.Minute

// NewAggregator validates the weights and builds an aggregator. writer may be
// nil, in which case scores are only returned.
func NewAggregator(signals SignalReader, writer ScoreWriter, weights Weights, log *zap.Logger, m *metrics.Metrics) (*Aggregator, error) {
	if signals == nil {
		return nil, fmt.Errorf("signal reader is required")
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("career weights: %w", err)
	}

	return &Aggregator{
		signals:  signals,
		writer:   writer,
		weights:  weights,
		logger:   logger.WithFields(log, zap.String("weights_version", weights.Version)),
		metrics:  m,
		now:      time.Now,
		locks:    newKeyedMutex(),
		computed: make(map[string]time.Time),
	}, nil
}

// Weights returns the declared weight vector.
func (a *Aggregator) Weights() Weights {
	return a.weights
}

// Recompute reads the current signals, computes and persists the score.
// Concurrent recomputes of the same candidate are serialized.
func (a *Aggregator) Recompute(ctx context.Context, candidateID string) (*types.CareerScore, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return nil, &types.ErrValidation{Field: "candidate_id", Message: "is required"}
	}

	unlock := a.locks.Lock(candidateID)
	defer unlock()

	signals := a.readSignals(ctx, candidateID)
	score := Compute(signals, a.weights)
	score.ComputedAt = a.nextComputedAt(candidateID)

	if a.writer != nil {
		if err := a.writer.UpsertCareerScore(ctx, score); err != nil {
			return nil, fmt.Errorf("persist career score: %w", err)
		}
	}

	a.metrics.Recomputed()
	a.logger.Info("career score recomputed",
		logger.Candidate(candidateID),
		zap.Int("career_score", score.Value),
		zap.Int("resume", score.Breakdown.Resume),
		zap.Int("social", score.Breakdown.Social),
		zap.Int("skill_path", score.Breakdown.SkillPath),
		zap.Int("activity", score.Breakdown.Activity),
	)

	return score, nil
}

// OnSignalChanged is called by a signal producer after it wrote new data.
func (a *Aggregator) OnSignalChanged(ctx context.Context, candidateID, signal string) (*types.CareerScore, error) {
	a.logger.Debug("signal changed", logger.Candidate(candidateID), zap.String("signal", signal))
	return a.Recompute(ctx, candidateID)
}

// Compute is the pure scoring function. Missing signals count as zero.
func Compute(signals types.CandidateSignals, w Weights) *types.CareerScore {
	breakdown := types.ScoreBreakdown{
		Resume:    clampPercent(deref(signals.ResumeScore)),
		Social:    clampPercent(deref(signals.SocialCompleteness)),
		SkillPath: clampPercent(deref(signals.SkillPathProgress)),
		Activity:  ActivitySignal(signals.ApplicationCount),
	}

	weighted := w.Resume*float64(breakdown.Resume) +
		w.Social*float64(breakdown.Social) +
		w.SkillPath*float64(breakdown.SkillPath) +
		w.Activity*float64(breakdown.Activity)

	return &types.CareerScore{
		CandidateID:    signals.CandidateID,
		Value:          clampPercent(int(math.Round(weighted))),
		Breakdown:      breakdown,
		WeightsVersion: w.Version,
	}
}

// ActivitySignal converts an application count to a 0-100 signal.
func ActivitySignal(applications int) int {
	if applications <= 0 {
		return 0
	}
	if applications >= 10 {
		return 100
	}
	return applications * 10
}

func (a *Aggregator) readSignals(ctx context.Context, candidateID string) types.CandidateSignals {
	signals := types.CandidateSignals{CandidateID: candidateID}

	signals.ResumeScore = a.optional(SignalResume, candidateID, func() (*int, error) {
		return a.signals.ResumeScore(ctx, candidateID)
	})
	signals.SocialCompleteness = a.optional(SignalSocial, candidateID, func() (*int, error) {
		return a.signals.SocialCompleteness(ctx, candidateID)
	})
	signals.SkillPathProgress = a.optional(SignalSkillPath, candidateID, func() (*int, error) {
		return a.signals.SkillPathProgress(ctx, candidateID)
	})

	count, err := a.signals.ApplicationCount(ctx, candidateID)
	if err != nil {
		a.missing(SignalActivity, candidateID, err)
		count = 0
	}
	signals.ApplicationCount = count

	return signals
}

func (a *Aggregator) optional(signal, candidateID string, read func() (*int, error)) *int {
	v, err := read()
	if err != nil {
		a.missing(signal, candidateID, err)
		return nil
	}
	if v == nil {
		a.metrics.SignalMissing(signal)
		a.logger.Debug("signal absent, treating as zero", logger.Candidate(candidateID), zap.String("signal", signal))
	}
	return v
}

func (a *Aggregator) missing(signal, candidateID string, err error) {
	a.metrics.SignalMissing(signal)
	a.logger.Warn("signal unreadable, treating as zero",
		logger.Candidate(candidateID),
		zap.String("signal", signal),
		zap.Error(err),
	)
}

// nextComputedAt returns a timestamp strictly after the previous one for the
// candidate. Microsecond precision matches the database column.
func (a *Aggregator) nextComputedAt(candidateID string) time.Time {
	now := a.now().UTC().Truncate(time.Microsecond)

	a.lastMu.Lock()
	defer a.lastMu.Unlock()

	if !now.Before(a.nextPrune) {
		a.pruneComputed(now)
	}

	if last, ok := a.computed[candidateID]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	a.computed[candidateID] = now
	return now
}

// pruneComputed drops entries older than now. Any later timestamp for those
// candidates is already after them. Callers hold lastMu.
func (a *Aggregator) pruneComputed(now time.Time) {
	for id, last := range a.computed {
		if last.Before(now) {
			delete(a.computed, id)
		}
	}
	a.nextPrune = now.Add(computedPruneInterval)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
