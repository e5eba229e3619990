package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SaveMetric persists a single metric value so counters survive restarts.
func (s *Store) SaveMetric(metricName, labelKey, labelValue string, value float64) error {
	_, err := s.db.Exec(`
	INSERT OR REPLACE INTO metrics (metric_name, label_key, label_value, metric_value)
	VALUES (?, ?, ?, ?)`, metricName, labelKey, labelValue, value)
	if err != nil {
		return errors.Wrapf(err, "failed to save metric %s", metricName)
	}
	log.Debugf("metric saved: %s[%s=%s] = %f", metricName, labelKey, labelValue, value)
	return nil
}

// GetMetric loads an unlabeled metric value, defaulting to 0 when absent.
func (s *Store) GetMetric(metricName string) (float64, error) {
	var value float64
	err := s.db.QueryRow(`
	SELECT metric_value FROM metrics
	WHERE metric_name = ? AND label_key = '' AND label_value = ''`, metricName).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", metricName)
	}
	return value, nil
}

// GetMetricsWithLabels loads every labeled series of one metric.
func (s *Store) GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error) {
	rows, err := s.db.Query(`
	SELECT label_key, label_value, metric_value FROM metrics
	WHERE metric_name = ? AND label_key != '' AND label_value != ''`, metricName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query metrics with labels")
	}
	defer rows.Close()

	metrics := make(map[string]map[string]float64)
	for rows.Next() {
		var labelKey, labelValue string
		var value float64
		if err := rows.Scan(&labelKey, &labelValue, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		if _, exists := metrics[labelKey]; !exists {
			metrics[labelKey] = make(map[string]float64)
		}
		metrics[labelKey][labelValue] = value
	}
	return metrics, rows.Err()
}
