package alert

import (
	"testing"
	"time"

	"crypto-alert-bot/internal/types"
)

type fakeThrottleStore struct {
	last *types.Notification
	err  error
}

func (f *fakeThrottleStore) LastNotification(chatID int64, asset string, direction types.Direction, since time.Time) (*types.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.last != nil && f.last.SentAt.Before(since) {
		return nil, nil
	}
	return f.last, nil
}

func TestThrottleApprovesWithoutPriorRecord(t *testing.T) {
	th := NewThrottle(&fakeThrottleStore{}, 4*time.Hour, 2.0, nil)

	if !th.ShouldNotify(42, "bitcoin", types.DirectionAbove, 50000) {
		t.Error("first alert should be approved")
	}
}

func TestThrottleSuppressesNearbyRepeat(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeThrottleStore{last: &types.Notification{
		ChatID:        42,
		Asset:         "bitcoin",
		Direction:     types.DirectionAbove,
		ObservedPrice: 50000,
		SentAt:        now.Add(-1 * time.Hour),
	}}
	th := NewThrottle(store, 4*time.Hour, 2.0, func() time.Time { return now })

	// 1% away from the last notified price: duplicate.
	if th.ShouldNotify(42, "bitcoin", types.DirectionAbove, 50500) {
		t.Error("alert 1%% from the last one within the window should be suppressed")
	}
}

func TestThrottleApprovesMeaningfulMove(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeThrottleStore{last: &types.Notification{
		ChatID:        42,
		Asset:         "bitcoin",
		Direction:     types.DirectionAbove,
		ObservedPrice: 50000,
		SentAt:        now.Add(-1 * time.Hour),
	}}
	th := NewThrottle(store, 4*time.Hour, 2.0, func() time.Time { return now })

	// 4% away: the price moved meaningfully since the last alert.
	if !th.ShouldNotify(42, "bitcoin", types.DirectionAbove, 52000) {
		t.Error("alert 4%% from the last one should be approved")
	}
}

func TestThrottleApprovesAfterWindowExpires(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeThrottleStore{last: &types.Notification{
		ChatID:        42,
		Asset:         "bitcoin",
		Direction:     types.DirectionAbove,
		ObservedPrice: 50000,
		SentAt:        now.Add(-5 * time.Hour),
	}}
	th := NewThrottle(store, 4*time.Hour, 2.0, func() time.Time { return now })

	if !th.ShouldNotify(42, "bitcoin", types.DirectionAbove, 50100) {
		t.Error("record outside the 4h window should not suppress")
	}
}

func TestThrottleFailsOpenOnLookupError(t *testing.T) {
	store := &fakeThrottleStore{err: errTest}
	th := NewThrottle(store, 4*time.Hour, 2.0, nil)

	if !th.ShouldNotify(42, "bitcoin", types.DirectionAbove, 50000) {
		t.Error("throttle should approve when the lookup fails")
	}
}
