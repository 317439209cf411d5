package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/circuitkg/core"
)

// latencyWindow is how many recent unit latencies the ETA averages over.
const latencyWindow = 16

// Progress is a point-in-time snapshot of a running stage.
type Progress struct {
	Stage     core.Stage
	Total     int
	Completed int
	Failed    int
	Elapsed   time.Duration
	ETA       time.Duration // zero until at least one unit has settled
}

// Done reports whether every unit has settled.
func (p Progress) Done() bool {
	return p.Completed+p.Failed >= p.Total
}

// Tracker records unit completions for one stage and estimates time to
// finish from a rolling average of recent unit latencies. Safe for
// concurrent use by pool workers.
type Tracker struct {
	stage   core.Stage
	total   int
	started time.Time

	mu        sync.Mutex
	completed int
	failed    int
	latencies [latencyWindow]time.Duration
	observed  int
}

// NewTracker creates a tracker for a stage of total units.
func NewTracker(stage core.Stage, total int) *Tracker {
	return &Tracker{stage: stage, total: total, started: time.Now()}
}

// Observe records one settled unit and its latency.
func (t *Tracker) Observe(latency time.Duration, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if failed {
		t.failed++
	} else {
		t.completed++
	}
	t.latencies[t.observed%latencyWindow] = latency
	t.observed++
}

// Snapshot returns the current progress. The ETA is the number of unsettled
// units times the rolling average latency.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := Progress{
		Stage:     t.stage,
		Total:     t.total,
		Completed: t.completed,
		Failed:    t.failed,
		Elapsed:   time.Since(t.started),
	}

	n := t.observed
	if n > latencyWindow {
		n = latencyWindow
	}
	if n > 0 {
		var sum time.Duration
		for i := 0; i < n; i++ {
			sum += t.latencies[i]
		}
		avg := sum / time.Duration(n)
		remaining := t.total - t.completed - t.failed
		p.ETA = avg * time.Duration(remaining)
	}
	return p
}

// Write renders a one-line progress report.
func (t *Tracker) Write(w io.Writer) error {
	p := t.Snapshot()
	_, err := fmt.Fprintf(w, "[%s] %d/%d done, %d failed, elapsed %s, eta %s\n",
		p.Stage, p.Completed, p.Total, p.Failed,
		p.Elapsed.Round(time.Second), p.ETA.Round(time.Second))
	return err
}
