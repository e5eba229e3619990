package database

import (
	"time"

	"github.com/pkg/errors"

	"crypto-alert-bot/internal/types"
)

// AppendPrices records observed prices. Only the evaluation cycle writes here.
func (s *Store) AppendPrices(points []types.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin price log transaction")
	}
	for _, p := range points {
		if _, err := tx.Exec(
			`INSERT INTO price_log (asset, price, observed_at) VALUES (?, ?, ?)`,
			p.Asset, p.Price, p.ObservedAt.Unix()); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "failed to insert price point")
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit price log")
}

// PriceHistory returns observed prices for an asset since the given time,
// oldest first.
func (s *Store) PriceHistory(asset string, since time.Time) ([]types.PricePoint, error) {
	rows, err := s.db.Query(`
	SELECT asset, price, observed_at FROM price_log
	WHERE asset = ? AND observed_at >= ? ORDER BY observed_at`,
		asset, since.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query price history")
	}
	defer rows.Close()

	var points []types.PricePoint
	for rows.Next() {
		var p types.PricePoint
		var observedAt int64
		if err := rows.Scan(&p.Asset, &p.Price, &observedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		p.ObservedAt = time.Unix(observedAt, 0)
		points = append(points, p)
	}
	return points, rows.Err()
}

// PrunePriceLog deletes price points observed before olderThan.
func (s *Store) PrunePriceLog(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM price_log WHERE observed_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune price log")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
