package driver

import (
	"log"
	"sync"
	"time"
)

// throttle rate-limits a recurring log line. Loop errors fire at loop
// frequency; one line every interval plus a suppressed count is enough.
type throttle struct {
	every time.Duration

	mu      sync.Mutex
	last    time.Time
	dropped int
}

func (t *throttle) Printf(format string, args ...interface{}) {
	t.mu.Lock()
	now := time.Now()
	if !t.last.IsZero() && now.Sub(t.last) < t.every {
		t.dropped++
		t.mu.Unlock()
		return
	}
	dropped := t.dropped
	t.dropped = 0
	t.last = now
	t.mu.Unlock()

	if dropped > 0 {
		log.Printf(format+" (%d similar suppressed)", append(args, dropped)...)
		return
	}
	log.Printf(format, args...)
}
