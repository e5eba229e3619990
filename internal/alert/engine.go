// Package alert holds the evaluation engine: on every polling cycle it loads
// the active subscriptions, obtains prices, tests trigger conditions, applies
// duplicate suppression and dispatches notifications.
package alert

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/assets"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
)

// Clock returns the current time; injected for deterministic tests.
type Clock func() time.Time

// Store is the persistence surface the engine needs.
type Store interface {
	ThrottleStore
	ActiveSubscriptions() ([]types.Subscription, error)
	InsertNotification(types.Notification) error
	DeactivateAllForChat(chatID int64) (int64, error)
	AppendPrices([]types.PricePoint) error
	PriceHistory(asset string, since time.Time) ([]types.PricePoint, error)
	PruneNotifications(olderThan time.Time) (int64, error)
	PrunePriceLog(olderThan time.Time) (int64, error)
}

// PriceSource yields current prices for a set of assets. A partial or empty
// map is its only failure signal.
type PriceSource interface {
	GetPrices(assets []string) map[string]float64
}

// Notifier delivers one alert. History may be attached as a chart; it can be nil.
type Notifier interface {
	Notify(chatID int64, text string, history []types.PricePoint) types.DeliveryResult
}

// Config carries the engine's tunables, snapshotted at construction.
type Config struct {
	ThrottleWindow      time.Duration
	ThrottleTolerance   float64 // percent
	Retention           time.Duration
	PriceLogRetention   time.Duration
	ChartWindow         time.Duration
	HighVolumeThreshold int
	AdminChatID         int64
}

// CycleStats summarizes one evaluation pass.
type CycleStats struct {
	Checked    int
	Triggered  int
	Suppressed int
	Sent       int
	Blocked    int
	Failed     int
	PerAsset   map[string]int // alerts sent per asset
}

type Engine struct {
	store    Store
	prices   PriceSource
	notifier Notifier
	throttle *Throttle
	clock    Clock
	cfg      Config

	lastCleanup time.Time
}

func NewEngine(store Store, prices PriceSource, notifier Notifier, cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if cfg.ChartWindow == 0 {
		cfg.ChartWindow = 24 * time.Hour
	}
	if cfg.PriceLogRetention == 0 {
		cfg.PriceLogRetention = 7 * 24 * time.Hour
	}
	return &Engine{
		store:    store,
		prices:   prices,
		notifier: notifier,
		throttle: NewThrottle(store, cfg.ThrottleWindow, cfg.ThrottleTolerance, clock),
		clock:    clock,
		cfg:      cfg,
	}
}

// Triggered tests a subscription's trigger condition. Reserved directions
// never trigger.
func Triggered(direction types.Direction, price, threshold float64) bool {
	switch direction {
	case types.DirectionAbove:
		return price >= threshold
	case types.DirectionBelow:
		return price <= threshold
	default:
		return false
	}
}

// RunCycle executes one evaluation pass. Failures of individual subscriptions
// are isolated; only a fully failed price fetch aborts the cycle.
func (e *Engine) RunCycle() CycleStats {
	stats := CycleStats{PerAsset: make(map[string]int)}

	subs, err := e.store.ActiveSubscriptions()
	if err != nil {
		log.Errorf("❌ failed to load subscriptions: %v", err)
		return stats
	}
	if len(subs) == 0 {
		log.Debug("no active subscriptions, skipping cycle")
		return stats
	}

	assetSet := make(map[string]bool)
	var assetList []string
	for _, sub := range subs {
		if !assetSet[sub.Asset] {
			assetSet[sub.Asset] = true
			assetList = append(assetList, sub.Asset)
		}
	}

	prices := e.prices.GetPrices(assetList)
	if len(prices) == 0 {
		log.Warn("⚠️ no prices available, aborting cycle")
		return stats
	}

	now := e.clock()
	e.recordPrices(prices, now)

	for _, sub := range subs {
		observed, ok := prices[sub.Asset]
		if !ok {
			log.Warnf("⚠️ no price data found for asset: %s", sub.Asset)
			continue
		}
		stats.Checked++

		if sub.Direction == types.DirectionPercent {
			log.Warnf("subscription %d has reserved direction %q, skipping", sub.ID, sub.Direction)
			continue
		}
		if !Triggered(sub.Direction, observed, sub.Threshold) {
			continue
		}
		stats.Triggered++

		if !e.throttle.ShouldNotify(sub.ChatID, sub.Asset, sub.Direction, observed) {
			stats.Suppressed++
			continue
		}

		e.dispatch(sub, observed, now, &stats)
	}

	e.housekeep(now)
	e.reportHighVolume(stats)

	log.Infof("✅ cycle complete: checked=%d triggered=%d suppressed=%d sent=%d",
		stats.Checked, stats.Triggered, stats.Suppressed, stats.Sent)
	return stats
}

func (e *Engine) dispatch(sub types.Subscription, observed float64, now time.Time, stats *CycleStats) {
	history, err := e.store.PriceHistory(sub.Asset, now.Add(-e.cfg.ChartWindow))
	if err != nil {
		log.Errorf("❌ failed to load price history for %s: %v", sub.Asset, err)
		history = nil
	}

	switch e.notifier.Notify(sub.ChatID, formatAlertText(sub, observed), history) {
	case types.DeliverySuccess:
		stats.Sent++
		stats.PerAsset[sub.Asset]++
		err := e.store.InsertNotification(types.Notification{
			ChatID:        sub.ChatID,
			Asset:         sub.Asset,
			Direction:     sub.Direction,
			ObservedPrice: observed,
			Threshold:     sub.Threshold,
			SentAt:        now,
		})
		if err != nil {
			// Accepted at-least-once tradeoff: without the record the same
			// trigger may alert again next cycle.
			log.Errorf("❌ failed to record notification for chat %d: %v", sub.ChatID, err)
		}
	case types.DeliveryBlocked:
		stats.Blocked++
		n, err := e.store.DeactivateAllForChat(sub.ChatID)
		if err != nil {
			log.Errorf("❌ failed to deactivate subscriptions for blocked chat %d: %v", sub.ChatID, err)
			return
		}
		log.Infof("chat %d blocked the bot, deactivated %d subscriptions", sub.ChatID, n)
	case types.DeliveryTransient:
		stats.Failed++
		log.Warnf("⚠️ transient delivery failure for chat %d, retrying next cycle", sub.ChatID)
	}
}

func (e *Engine) recordPrices(prices map[string]float64, now time.Time) {
	points := make([]types.PricePoint, 0, len(prices))
	for asset, p := range prices {
		points = append(points, types.PricePoint{Asset: asset, Price: p, ObservedAt: now})
	}
	if err := e.store.AppendPrices(points); err != nil {
		log.Errorf("❌ failed to record observed prices: %v", err)
	}
}

// housekeep prunes aged notification records and price points, at most hourly.
func (e *Engine) housekeep(now time.Time) {
	if now.Sub(e.lastCleanup) < time.Hour {
		return
	}
	e.lastCleanup = now

	if n, err := e.store.PruneNotifications(now.Add(-e.cfg.Retention)); err != nil {
		log.Errorf("❌ notification cleanup failed: %v", err)
	} else if n > 0 {
		log.Infof("pruned %d notification records", n)
	}

	if n, err := e.store.PrunePriceLog(now.Add(-e.cfg.PriceLogRetention)); err != nil {
		log.Errorf("❌ price log cleanup failed: %v", err)
	} else if n > 0 {
		log.Debugf("pruned %d price points", n)
	}
}

// reportHighVolume sends an operational summary to the admin chat when a cycle
// dispatched unusually many alerts. Never fails the cycle.
func (e *Engine) reportHighVolume(stats CycleStats) {
	if e.cfg.AdminChatID == 0 || e.cfg.HighVolumeThreshold <= 0 || stats.Sent < e.cfg.HighVolumeThreshold {
		return
	}

	text := fmt.Sprintf(
		"📊 *High alert volume*\n\nChecked: %d\nTriggered: %d\nSuppressed: %d\nSent: *%d*",
		stats.Checked, stats.Triggered, stats.Suppressed, stats.Sent)
	if result := e.notifier.Notify(e.cfg.AdminChatID, text, nil); result != types.DeliverySuccess {
		log.Warnf("⚠️ failed to deliver high-volume summary to admin chat %d", e.cfg.AdminChatID)
	}
}

func formatAlertText(sub types.Subscription, observed float64) string {
	word := "reached"
	if sub.Direction == types.DirectionBelow {
		word = "dropped below"
	}
	return fmt.Sprintf(
		"🚨 *Price Alert Triggered*\n\n*%s* has %s your target of *$%s*\nCurrent Price: *$%s*",
		helpers.EscapeMarkdownV2(assets.DisplayName(sub.Asset)),
		word,
		helpers.FormatPriceUS(sub.Threshold, true),
		helpers.FormatPriceUS(observed, true),
	)
}

// cycleMutex ensures only one evaluation pass runs at a time.
var cycleMutex sync.Mutex

// Start launches the background polling loop. onStats, if non-nil, receives
// every cycle's summary.
func (e *Engine) Start(interval time.Duration, onStats func(CycleStats)) {
	go func() {
		for {
			cycleMutex.Lock()
			stats := e.runSafely()
			cycleMutex.Unlock()
			if onStats != nil {
				onStats(stats)
			}
			time.Sleep(interval)
		}
	}()
	log.Info("🚀 Alert service started.")
}

func (e *Engine) runSafely() (stats CycleStats) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 2048)
			stackSize := runtime.Stack(stackBuf, false)
			log.Errorf("🔥 panic recovered in alert cycle: %v\n%s", r, stackBuf[:stackSize])
		}
	}()
	return e.RunCycle()
}
