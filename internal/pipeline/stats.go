package pipeline

import (
	"slices"
	"sync"
	"time"
)

// Pipeline stages with recorded latencies.
const (
	StageFetch   = "fetch"
	StageParse   = "parse"
	StageSink    = "sink"
	StageWebhook = "webhook"
)

// defaultRingSize bounds memory for all stages together.
const defaultRingSize = 4096

// StatsSnapshot is a point-in-time aggregate of latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

type stageSample struct {
	stage string
	at    time.Time
	ms    int64
}

// StageStats keeps the latest stage timings in one fixed-size ring. When
// the ring is full the oldest sample is overwritten, whatever its stage.
// Samples older than the window are left out of snapshots.
type StageStats struct {
	mu     sync.Mutex
	ring   []stageSample
	next   int
	filled bool
	window time.Duration
	stages []string
	now    func() time.Time
}

func NewStageStats(window time.Duration, stages ...string) *StageStats {
	return newStageStats(window, defaultRingSize, stages...)
}

func newStageStats(window time.Duration, size int, stages ...string) *StageStats {
	if window <= 0 {
		window = time.Hour
	}
	if size <= 0 {
		size = defaultRingSize
	}
	return &StageStats{
		ring:   make([]stageSample, size),
		window: window,
		stages: stages,
		now:    time.Now,
	}
}

// Record adds a sample for stage. Unknown stages are ignored and
// negative durations count as zero.
func (s *StageStats) Record(stage string, d time.Duration) {
	if !slices.Contains(s.stages, stage) {
		return
	}
	ms := max(d.Milliseconds(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = stageSample{stage: stage, at: s.now(), ms: ms}
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.filled = true
	}
}

// Snapshot aggregates the in-window samples of every known stage. Stages
// without samples report a zero snapshot.
func (s *StageStats) Snapshot() map[string]StatsSnapshot {
	byStage := make(map[string][]int64, len(s.stages))

	s.mu.Lock()
	cutoff := s.now().Add(-s.window)
	n := s.next
	if s.filled {
		n = len(s.ring)
	}
	for _, sm := range s.ring[:n] {
		if sm.at.Before(cutoff) {
			continue
		}
		byStage[sm.stage] = append(byStage[sm.stage], sm.ms)
	}
	s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.stages))
	for _, stage := range s.stages {
		out[stage] = summarize(byStage[stage])
	}
	return out
}

func summarize(ms []int64) StatsSnapshot {
	if len(ms) == 0 {
		return StatsSnapshot{}
	}
	slices.Sort(ms)
	var total int64
	for _, v := range ms {
		total += v
	}
	return StatsSnapshot{
		Count: len(ms),
		MinMs: ms[0],
		MaxMs: ms[len(ms)-1],
		AvgMs: float64(total) / float64(len(ms)),
		P50Ms: quantile(ms, 0.50),
		P95Ms: quantile(ms, 0.95),
		P99Ms: quantile(ms, 0.99),
	}
}

// quantile interpolates linearly between the two nearest ranks of sorted.
func quantile(sorted []int64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i+1 >= len(sorted) {
		return float64(sorted[len(sorted)-1])
	}
	frac := pos - float64(i)
	return float64(sorted[i]) + frac*float64(sorted[i+1]-sorted[i])
}
