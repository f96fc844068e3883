package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
)

// SettingLastReport holds the RFC 3339 time of the last delivered report.
const SettingLastReport = "last_report_at"

// Setting returns the stored value for name and whether it exists.
func (s *Store) Setting(name string) (string, bool, error) {
	db, err := s.conn()
	if err != nil {
		return "", false, err
	}
	var value string
	err = db.QueryRow("SELECT value FROM settings WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", name, err)
	}
	return value, true, nil
}

// SetSetting stores value under name, replacing any previous value.
func (s *Store) SetSetting(name, value string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO settings (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", name, err)
	}
	return nil
}
