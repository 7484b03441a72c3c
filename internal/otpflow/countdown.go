package otpflow

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCountdown is how long the user waits before a new code can be requested.
const DefaultCountdown = 600 * time.Second

// Ticker delivers the 1 Hz countdown pulses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker is the production TickerFactory.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Countdown counts whole seconds down to zero, after which a resend is allowed.
type Countdown struct {
	total     int
	newTicker TickerFactory
	onTick    func(remaining int)

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
	done      chan struct{}
}

// NewCountdown creates a stopped countdown that allows resending until Reset is called.
func NewCountdown(total time.Duration, factory TickerFactory, onTick func(remaining int)) *Countdown {
	if total <= 0 {
		total = DefaultCountdown
	}
	if factory == nil {
		factory = NewRealTicker
	}
	return &Countdown{
		total:     int(total / time.Second),
		newTicker: factory,
		onTick:    onTick,
	}
}

// Reset restarts the countdown from the full duration.
func (c *Countdown) Reset() {
	c.ResetTo(c.total)
}

// ResetTo restarts the countdown from seconds (clamped to the full duration).
func (c *Countdown) ResetTo(seconds int) {
	c.Stop()
	seconds = max(0, min(seconds, c.total))
	c.mu.Lock()
	c.remaining = seconds
	c.mu.Unlock()
	c.Start()
}

// Start runs the ticker goroutine if there is time left and it is not already running.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil || c.remaining == 0 {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done
	ticker := c.newTicker(time.Second)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				if c.Tick() == 0 {
					c.mu.Lock()
					if c.stop == stop {
						c.stop, c.done = nil, nil
					}
					c.mu.Unlock()
					return
				}
			}
		}
	}()
}

// Stop cancels the ticker goroutine and waits for it to exit. The remaining time is kept.
func (c *Countdown) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Tick removes one second. It never goes below zero.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	if c.remaining == 0 {
		c.mu.Unlock()
		return 0
	}
	c.remaining--
	remaining := c.remaining
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	return remaining
}

// Remaining is the number of seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// CanResend reports whether the countdown has reached zero.
func (c *Countdown) CanResend() bool {
	return c.Remaining() == 0
}

// Running reports whether the ticker goroutine is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// FormatMMSS renders seconds as MM:SS.
func FormatMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
