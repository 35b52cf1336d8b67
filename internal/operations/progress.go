package operations

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressTracker tracks the symbols of a running batch. Counters are
// atomic so workers never wait on the reader.
type ProgressTracker struct {
	command   string
	runID     string
	total     int64
	completed atomic.Int64
	failed    atomic.Int64
	startTime time.Time

	mu      sync.Mutex
	current string
	endTime time.Time
}

// Progress is a point-in-time view of a batch
type Progress struct {
	Command    string    `json:"command"`
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Percentage float64   `json:"percentage"`
	Current    string    `json:"current,omitempty"`
	StartTime  time.Time `json:"start_time"`
	Elapsed    string    `json:"elapsed"`
	ETA        string    `json:"eta"`
	Done       bool      `json:"done"`
}

// NewProgressTracker creates a tracker for total symbols
func NewProgressTracker(command, runID string, total int) *ProgressTracker {
	return &ProgressTracker{
		command:   command,
		runID:     runID,
		total:     int64(total),
		startTime: time.Now(),
	}
}

// Start records the symbol a worker picked up
func (p *ProgressTracker) Start(symbol string) {
	p.mu.Lock()
	p.current = symbol
	p.mu.Unlock()
}

// Complete counts a finished symbol and returns its 1-based position
func (p *ProgressTracker) Complete(err error) int {
	if err != nil {
		p.failed.Add(1)
	}
	return int(p.completed.Add(1))
}

// Finish marks the batch as ended
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	p.endTime = time.Now()
	p.current = ""
	p.mu.Unlock()
}

// Total returns the number of symbols in the batch
func (p *ProgressTracker) Total() int {
	return int(p.total)
}

// Snapshot returns the current progress
func (p *ProgressTracker) Snapshot() Progress {
	p.mu.Lock()
	current, end := p.current, p.endTime
	p.mu.Unlock()

	completed := p.completed.Load()
	elapsed := time.Since(p.startTime)
	if !end.IsZero() {
		elapsed = end.Sub(p.startTime)
	}

	out := Progress{
		Command:   p.command,
		RunID:     p.runID,
		Total:     int(p.total),
		Completed: int(completed),
		Failed:    int(p.failed.Load()),
		Current:   current,
		StartTime: p.startTime,
		Elapsed:   formatDuration(elapsed),
		ETA:       eta(completed, p.total, elapsed),
		Done:      !end.IsZero(),
	}
	if p.total > 0 {
		out.Percentage = float64(completed) / float64(p.total) * 100
	}
	return out
}

// eta extrapolates the remaining time from the completion rate
func eta(completed, total int64, elapsed time.Duration) string {
	if completed >= total {
		return formatDuration(0)
	}
	if completed == 0 || elapsed <= 0 {
		return "calculating..."
	}
	rate := float64(completed) / elapsed.Seconds()
	remaining := float64(total-completed) / rate
	return formatDuration(time.Duration(remaining * float64(time.Second)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}
