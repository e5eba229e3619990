package database

import (
	"testing"
	"time"

	"crypto-alert-bot/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertSubscriptionIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	created, err := store.UpsertSubscription(42, "bitcoin", 50000, types.DirectionAbove)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Error("first upsert should report a new subscription")
	}

	created, err = store.UpsertSubscription(42, "bitcoin", 55000, types.DirectionAbove)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("repeat upsert should report an update, not a creation")
	}

	subs, err := store.SubscriptionsByChatID(42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d subscriptions, want exactly 1", len(subs))
	}
	if subs[0].Threshold != 55000 {
		t.Errorf("threshold = %v, want the latest value 55000", subs[0].Threshold)
	}
}

func TestUpsertKeepsDirectionsSeparate(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.UpsertSubscription(42, "bitcoin", 60000, types.DirectionAbove); err != nil {
		t.Fatalf("upsert above: %v", err)
	}
	if _, err := store.UpsertSubscription(42, "bitcoin", 40000, types.DirectionBelow); err != nil {
		t.Fatalf("upsert below: %v", err)
	}

	subs, err := store.SubscriptionsByChatID(42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions, want 2 (one per direction)", len(subs))
	}
}

func TestDeactivate(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.UpsertSubscription(42, "bitcoin", 60000, types.DirectionAbove); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.UpsertSubscription(42, "bitcoin", 40000, types.DirectionBelow); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	n, err := store.Deactivate(42, "bitcoin", types.DirectionAbove)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n != 1 {
		t.Errorf("deactivated %d subscriptions, want 1", n)
	}

	// Empty direction removes whatever is left.
	n, err = store.Deactivate(42, "bitcoin", "")
	if err != nil {
		t.Fatalf("deactivate any: %v", err)
	}
	if n != 1 {
		t.Errorf("deactivated %d subscriptions, want the remaining 1", n)
	}

	subs, err := store.SubscriptionsByChatID(42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("got %d active subscriptions, want 0", len(subs))
	}
}

func TestDeactivateIsScopedToChat(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.UpsertSubscription(1, "bitcoin", 60000, types.DirectionAbove); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.UpsertSubscription(2, "bitcoin", 60000, types.DirectionAbove); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, err := store.DeactivateAllForChat(1); err != nil {
		t.Fatalf("deactivate all: %v", err)
	}

	subs, err := store.ActiveSubscriptions()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(subs) != 1 || subs[0].ChatID != 2 {
		t.Errorf("got %+v, want only chat 2's subscription to survive", subs)
	}
}

func TestDistinctActiveAssets(t *testing.T) {
	store := newTestStore(t)

	for _, sub := range []struct {
		chatID int64
		asset  string
	}{
		{1, "bitcoin"},
		{2, "bitcoin"},
		{2, "ethereum"},
	} {
		if _, err := store.UpsertSubscription(sub.chatID, sub.asset, 1, types.DirectionAbove); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	assets, err := store.DistinctActiveAssets()
	if err != nil {
		t.Fatalf("distinct assets: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("got %v, want two distinct assets", assets)
	}

	n, err := store.CountActiveSubscriptions()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("active count = %d, want 3", n)
	}
}

func TestLastNotification(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	if got, err := store.LastNotification(42, "bitcoin", types.DirectionAbove, now.Add(-time.Hour)); err != nil || got != nil {
		t.Fatalf("empty table: got %v, %v, want nil, nil", got, err)
	}

	for _, n := range []types.Notification{
		{ChatID: 42, Asset: "bitcoin", Direction: types.DirectionAbove, ObservedPrice: 50100, Threshold: 50000, SentAt: now.Add(-2 * time.Hour)},
		{ChatID: 42, Asset: "bitcoin", Direction: types.DirectionAbove, ObservedPrice: 50400, Threshold: 50000, SentAt: now.Add(-30 * time.Minute)},
		{ChatID: 42, Asset: "bitcoin", Direction: types.DirectionBelow, ObservedPrice: 49000, Threshold: 49500, SentAt: now.Add(-10 * time.Minute)},
	} {
		if err := store.InsertNotification(n); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := store.LastNotification(42, "bitcoin", types.DirectionAbove, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ObservedPrice != 50400 {
		t.Errorf("got %+v, want the most recent matching record at 50400", got)
	}

	// The window excludes the two-hour-old record for a narrow since.
	got, err = store.LastNotification(42, "bitcoin", types.DirectionAbove, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil outside the window", got)
	}
}

func TestPruneNotificationsHonorsRetention(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	aged := types.Notification{ChatID: 1, Asset: "bitcoin", Direction: types.DirectionAbove,
		ObservedPrice: 40000, Threshold: 40000, SentAt: now.Add(-31 * 24 * time.Hour)}
	fresh := types.Notification{ChatID: 1, Asset: "ethereum", Direction: types.DirectionAbove,
		ObservedPrice: 3000, Threshold: 3000, SentAt: now.Add(-29 * 24 * time.Hour)}
	for _, n := range []types.Notification{aged, fresh} {
		if err := store.InsertNotification(n); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	pruned, err := store.PruneNotifications(now.Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d records, want 1", pruned)
	}

	since := now.Add(-60 * 24 * time.Hour)
	if got, _ := store.LastNotification(1, "ethereum", types.DirectionAbove, since); got == nil {
		t.Error("record inside the retention window should survive")
	}
	if got, _ := store.LastNotification(1, "bitcoin", types.DirectionAbove, since); got != nil {
		t.Error("record outside the retention window should be gone")
	}
}

func TestPriceLogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Truncate(time.Second)

	points := []types.PricePoint{
		{Asset: "bitcoin", Price: 50000, ObservedAt: now.Add(-2 * time.Hour)},
		{Asset: "bitcoin", Price: 50500, ObservedAt: now.Add(-time.Hour)},
		{Asset: "ethereum", Price: 3500, ObservedAt: now.Add(-time.Hour)},
		{Asset: "bitcoin", Price: 51000, ObservedAt: now},
	}
	if err := store.AppendPrices(points); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := store.PriceHistory("bitcoin", now.Add(-3*time.Hour))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d points, want 3", len(history))
	}
	if history[0].Price != 50000 || history[2].Price != 51000 {
		t.Errorf("history not ordered oldest first: %+v", history)
	}

	pruned, err := store.PrunePriceLog(now.Add(-90 * time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d points, want 1", pruned)
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveMetric("cycles_run", "", "", 12); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveMetric("cycles_run", "", "", 13); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.SaveMetric("alerts_per_asset", "asset", "bitcoin", 5); err != nil {
		t.Fatalf("save labeled: %v", err)
	}

	v, err := store.GetMetric("cycles_run")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 13 {
		t.Errorf("cycles_run = %v, want the overwritten value 13", v)
	}

	if v, err := store.GetMetric("does_not_exist"); err != nil || v != 0 {
		t.Errorf("missing metric: got %v, %v, want 0, nil", v, err)
	}

	labeled, err := store.GetMetricsWithLabels("alerts_per_asset")
	if err != nil {
		t.Fatalf("get labeled: %v", err)
	}
	if labeled["asset"]["bitcoin"] != 5 {
		t.Errorf("labeled metrics = %v, want asset/bitcoin=5", labeled)
	}
}
