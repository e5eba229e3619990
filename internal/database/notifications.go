package database

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/types"
)

// InsertNotification appends a delivered-alert record. Records are never updated.
func (s *Store) InsertNotification(n types.Notification) error {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	_, err := s.db.Exec(`
	INSERT INTO notifications (chat_id, asset, direction, observed_price, threshold, sent_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		n.ChatID, n.Asset, string(n.Direction), n.ObservedPrice, n.Threshold, n.SentAt.Unix())
	if err != nil {
		return errors.Wrap(err, "failed to insert notification")
	}

	log.Debugf("notification recorded: chat=%d asset=%s price=%f", n.ChatID, n.Asset, n.ObservedPrice)
	return nil
}

// LastNotification returns the most recent record for the tuple sent at or
// after since, or nil when none exists.
func (s *Store) LastNotification(chatID int64, asset string, direction types.Direction, since time.Time) (*types.Notification, error) {
	var n types.Notification
	var dir string
	var sentAt int64
	err := s.db.QueryRow(`
	SELECT id, chat_id, asset, direction, observed_price, threshold, sent_at
	FROM notifications
	WHERE chat_id = ? AND asset = ? AND direction = ? AND sent_at >= ?
	ORDER BY sent_at DESC LIMIT 1`,
		chatID, asset, string(direction), since.Unix()).
		Scan(&n.ID, &n.ChatID, &n.Asset, &dir, &n.ObservedPrice, &n.Threshold, &sentAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query last notification")
	}
	n.Direction = types.Direction(dir)
	n.SentAt = time.Unix(sentAt, 0)
	return &n, nil
}

// PruneNotifications deletes records sent before olderThan and returns the count.
func (s *Store) PruneNotifications(olderThan time.Time) (int64, error) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	res, err := s.db.Exec(`DELETE FROM notifications WHERE sent_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune notifications")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
