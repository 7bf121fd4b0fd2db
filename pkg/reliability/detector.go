package reliability

import (
	"sync"
	"time"
)

// DefaultCleanupInterval is how often expired entries are purged
const DefaultCleanupInterval = time.Hour

// DuplicateDetector remembers message ids received within a time window
type DuplicateDetector struct {
	mu       sync.Mutex
	received map[string]time.Time
	window   time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewDuplicateDetector creates a detector and starts its cleanup goroutine.
// A window of zero or less disables detection; Seen then always reports false.
func NewDuplicateDetector(window time.Duration) *DuplicateDetector {
	return newDuplicateDetector(window, DefaultCleanupInterval, time.Now)
}

func newDuplicateDetector(window, interval time.Duration, now func() time.Time) *DuplicateDetector {
	d := &DuplicateDetector{
		received: make(map[string]time.Time),
		window:   window,
		now:      now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go d.cleanupLoop(interval)

	return d
}

// Seen records messageID as received and reports whether it had already been
// received within the window
func (d *DuplicateDetector) Seen(messageID string) bool {
	if d.window <= 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	receivedAt, exists := d.received[messageID]
	d.received[messageID] = now

	return exists && now.Sub(receivedAt) < d.window
}

// IsDuplicate reports whether messageID was recorded within the window
// without recording it
func (d *DuplicateDetector) IsDuplicate(messageID string) bool {
	if d.window <= 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	receivedAt, exists := d.received[messageID]
	return exists && d.now().Sub(receivedAt) < d.window
}

// MarkReceived records messageID as received now
func (d *DuplicateDetector) MarkReceived(messageID string) {
	if d.window <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.received[messageID] = d.now()
}

// Len returns the number of remembered ids
func (d *DuplicateDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.received)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (d *DuplicateDetector) Close() error {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
	return nil
}

func (d *DuplicateDetector) cleanupLoop(interval time.Duration) {
	defer close(d.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.purge()
		case <-d.stop:
			return
		}
	}
}

// purge removes ids received longer than the window ago
func (d *DuplicateDetector) purge() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, receivedAt := range d.received {
		if now.Sub(receivedAt) >= d.window {
			delete(d.received, id)
		}
	}
}
