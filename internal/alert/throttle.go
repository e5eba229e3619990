package alert

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/types"
)

// ThrottleStore is the notification-log lookup the throttle needs.
type ThrottleStore interface {
	LastNotification(chatID int64, asset string, direction types.Direction, since time.Time) (*types.Notification, error)
}

// Throttle suppresses duplicate alerts: a candidate is denied when a
// notification for the same (chat, asset, direction) was sent within the
// window at a price within the relative tolerance of the current one. Price
// oscillating near a threshold therefore alerts once, not every cycle, while
// a meaningful move alerts again.
type Throttle struct {
	store     ThrottleStore
	window    time.Duration
	tolerance float64 // percent
	clock     Clock
}

func NewThrottle(store ThrottleStore, window time.Duration, tolerance float64, clock Clock) *Throttle {
	if clock == nil {
		clock = time.Now
	}
	return &Throttle{store: store, window: window, tolerance: tolerance, clock: clock}
}

// ShouldNotify reports whether an alert for the candidate trigger may be sent.
func (t *Throttle) ShouldNotify(chatID int64, asset string, direction types.Direction, observedPrice float64) bool {
	since := t.clock().Add(-t.window)
	last, err := t.store.LastNotification(chatID, asset, direction, since)
	if err != nil {
		// Fail open: a possible duplicate beats a silently dropped alert.
		log.Errorf("❌ throttle lookup failed for chat %d asset %s: %v", chatID, asset, err)
		return true
	}
	if last == nil || last.ObservedPrice <= 0 {
		return true
	}

	driftPct := math.Abs(observedPrice-last.ObservedPrice) / last.ObservedPrice * 100
	if driftPct <= t.tolerance {
		log.Debugf("suppressing duplicate alert: chat=%d asset=%s drift=%.2f%%", chatID, asset, driftPct)
		return false
	}
	return true
}
