package database

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/types"
)

// UpsertSubscription creates a subscription or, when the (chat, asset,
// direction) tuple already exists, updates its threshold and reactivates it.
// Returns true when a new row was created.
func (s *Store) UpsertSubscription(chatID int64, asset string, threshold float64, direction types.Direction) (bool, error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE chat_id = ? AND asset = ? AND direction = ?)`,
		chatID, asset, string(direction),
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check existing subscription")
	}

	_, err = s.db.Exec(`
	INSERT INTO subscriptions (chat_id, asset, threshold, direction, active, created_at)
	VALUES (?, ?, ?, ?, 1, ?)
	ON CONFLICT(chat_id, asset, direction)
	DO UPDATE SET threshold = excluded.threshold, active = 1`,
		chatID, asset, threshold, string(direction), time.Now().Unix())
	if err != nil {
		return false, errors.Wrap(err, "failed to upsert subscription")
	}

	log.Debugf("subscription upserted: chat=%d asset=%s threshold=%f direction=%s created=%t",
		chatID, asset, threshold, direction, !exists)
	return !exists, nil
}

// Deactivate marks matching subscriptions inactive. An empty direction matches
// both directions. Rows are kept for audit; returns how many were deactivated.
func (s *Store) Deactivate(chatID int64, asset string, direction types.Direction) (int64, error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	query := `UPDATE subscriptions SET active = 0 WHERE chat_id = ? AND asset = ? AND active = 1`
	args := []interface{}{chatID, asset}
	if direction != "" {
		query += ` AND direction = ?`
		args = append(args, string(direction))
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to deactivate subscription")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeactivateAllForChat disables every active subscription of one recipient.
// Used when the chat transport reports the recipient as blocked.
func (s *Store) DeactivateAllForChat(chatID int64) (int64, error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	res, err := s.db.Exec(`UPDATE subscriptions SET active = 0 WHERE chat_id = ? AND active = 1`, chatID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to deactivate subscriptions for chat %d", chatID)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ActiveSubscriptions returns every active subscription.
func (s *Store) ActiveSubscriptions() ([]types.Subscription, error) {
	return s.querySubscriptions(
		`SELECT id, chat_id, asset, threshold, direction, active, created_at
		 FROM subscriptions WHERE active = 1 ORDER BY id`)
}

// SubscriptionsByChatID returns one chat's active subscriptions ordered by asset.
func (s *Store) SubscriptionsByChatID(chatID int64) ([]types.Subscription, error) {
	return s.querySubscriptions(
		`SELECT id, chat_id, asset, threshold, direction, active, created_at
		 FROM subscriptions WHERE active = 1 AND chat_id = ? ORDER BY asset, direction`, chatID)
}

// DistinctActiveAssets returns the set of assets referenced by active subscriptions.
func (s *Store) DistinctActiveAssets() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT asset FROM subscriptions WHERE active = 1`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query distinct assets")
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountActiveSubscriptions returns the number of active subscriptions.
func (s *Store) CountActiveSubscriptions() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE active = 1`).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count subscriptions")
	}
	return n, nil
}

func (s *Store) querySubscriptions(query string, args ...interface{}) ([]types.Subscription, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query subscriptions")
	}
	defer rows.Close()

	var subs []types.Subscription
	for rows.Next() {
		var sub types.Subscription
		var direction string
		var active int
		var createdAt int64
		if err := rows.Scan(&sub.ID, &sub.ChatID, &sub.Asset, &sub.Threshold, &direction, &active, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		sub.Direction = types.Direction(direction)
		sub.Active = active != 0
		sub.CreatedAt = time.Unix(createdAt, 0)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
