package session

import (
	"strings"
	"time"
)

// DefaultPauseThreshold is how long the input stream must stay silent before
// the buffered speech counts as one completed thought.
const DefaultPauseThreshold = 2000 * time.Millisecond

// PauseDetector accumulates final transcript fragments and tracks the single
// deadline after which the buffer is considered a finished utterance. It owns
// no timer: the orchestrator's loop arms one timer against Deadline and calls
// Expire when it fires, so there is never a cancelled-timer race to reason
// about. Not safe for concurrent use; the session goroutine is the only
// caller.
type PauseDetector struct {
	threshold time.Duration
	buffer    []string
	deadline  time.Time
	counting  bool
}

func NewPauseDetector(threshold time.Duration) *PauseDetector {
	if threshold <= 0 {
		threshold = DefaultPauseThreshold
	}
	return &PauseDetector{threshold: threshold}
}

// Observe records one final fragment and restarts the countdown. Empty text
// still restarts the countdown (it is speech evidence) but is not buffered.
func (d *PauseDetector) Observe(text string, now time.Time) {
	if text != "" {
		d.buffer = append(d.buffer, text)
	}
	d.deadline = now.Add(d.threshold)
	d.counting = true
}

// Deadline returns the active countdown deadline, if one is running.
func (d *PauseDetector) Deadline() (time.Time, bool) {
	if !d.counting {
		return time.Time{}, false
	}
	return d.deadline, true
}

// Expire fires the countdown once now has reached the deadline, returning the
// space-joined buffer and resetting it. A whitespace-only buffer never fires;
// it is discarded the same way.
func (d *PauseDetector) Expire(now time.Time) (string, bool) {
	if !d.counting || now.Before(d.deadline) {
		return "", false
	}
	d.counting = false
	utterance := strings.Join(d.buffer, " ")
	d.buffer = d.buffer[:0]
	if strings.TrimSpace(utterance) == "" {
		return "", false
	}
	return utterance, true
}

// Stop cancels any running countdown without firing. The buffer is left in
// place; whatever is still buffered when the session ends is dropped with it.
func (d *PauseDetector) Stop() {
	d.counting = false
}
