package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/fleetops/statushub/internal/status"
)

const statusTable = "device_status"

// SQLiteStore persists status records in a local SQLite database. One
// logical table keyed by a store-assigned integer id, with a secondary
// index on device_id for the latest-state lookups.
type SQLiteStore struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	updateStmt *sql.Stmt
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite database %s failed", path)
	}
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureStatusSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	insertStmt, err := db.Prepare(`INSERT INTO ` + statusTable +
		` (device_id, timestamp, battery_level, rssi, online) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "prepare status insert failed")
	}
	updateStmt, err := db.Prepare(`UPDATE ` + statusTable +
		` SET timestamp = ?, battery_level = ?, rssi = ?, online = ? WHERE id = ?`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "prepare status update failed")
	}
	log.Debug().Str("path", path).Msg("sqlite status store opened")
	return &SQLiteStore{db: db, insertStmt: insertStmt, updateStmt: updateStmt}, nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "execute sqlite pragma %s failed", stmt)
		}
	}
	db.SetMaxOpenConns(1)
	return nil
}

func ensureStatusSchema(db *sql.DB) error {
	create := `CREATE TABLE IF NOT EXISTS ` + statusTable + ` (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	battery_level INTEGER NOT NULL,
	rssi INTEGER NOT NULL,
	online INTEGER NOT NULL
)`
	if _, err := db.Exec(create); err != nil {
		return errors.Wrap(err, "create status table failed")
	}
	index := `CREATE INDEX IF NOT EXISTS idx_device_status_device_id ON ` + statusTable + ` (device_id)`
	if _, err := db.Exec(index); err != nil {
		return errors.Wrap(err, "create device_id index failed")
	}
	return nil
}

// Insert appends a record and returns the AUTOINCREMENT id. Ids are never
// reused, even after deletes.
func (s *SQLiteStore) Insert(ctx context.Context, rec status.Record) (int64, error) {
	res, err := s.insertStmt.ExecContext(ctx,
		rec.DeviceID, encodeTime(rec.Timestamp), rec.BatteryLevel, rec.RSSI, boolToInt(rec.Online))
	if err != nil {
		return 0, errors.Wrap(err, "insert status row failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read inserted row id failed")
	}
	return id, nil
}

// Get returns the record with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (status.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, device_id, timestamp, battery_level, rssi, online FROM `+statusTable+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.Record{}, status.ErrNotFound
		}
		return status.Record{}, errors.Wrapf(err, "read status row %d failed", id)
	}
	return rec, nil
}

// Replace overwrites the stored content for rec.ID.
func (s *SQLiteStore) Replace(ctx context.Context, rec status.Record) error {
	res, err := s.updateStmt.ExecContext(ctx,
		encodeTime(rec.Timestamp), rec.BatteryLevel, rec.RSSI, boolToInt(rec.Online), rec.ID)
	if err != nil {
		return errors.Wrapf(err, "update status row %d failed", rec.ID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "read affected rows failed")
	}
	if affected == 0 {
		return status.ErrNotFound
	}
	return nil
}

// DeleteDevice removes every record for the device.
func (s *SQLiteStore) DeleteDevice(ctx context.Context, deviceID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+statusTable+` WHERE device_id = ?`, deviceID)
	if err != nil {
		return 0, errors.Wrapf(err, "delete rows for device %s failed", deviceID)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "read affected rows failed")
	}
	if removed == 0 {
		return 0, status.ErrNotFound
	}
	return removed, nil
}

// ListByDevice returns the device's records ordered by id, i.e. insertion
// order. The resolver's same-timestamp tie-break relies on that order.
func (s *SQLiteStore) ListByDevice(ctx context.Context, deviceID string) ([]status.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, timestamp, battery_level, rssi, online FROM `+statusTable+
			` WHERE device_id = ? ORDER BY id`, deviceID)
	if err != nil {
		return nil, errors.Wrapf(err, "query rows for device %s failed", deviceID)
	}
	return collectRecords(rows)
}

// ListAll returns every record ordered by id.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]status.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, timestamp, battery_level, rssi, online FROM `+statusTable+` ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query all status rows failed")
	}
	return collectRecords(rows)
}

// Close releases prepared statements and the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.insertStmt != nil {
		_ = s.insertStmt.Close()
	}
	if s.updateStmt != nil {
		_ = s.updateStmt.Close()
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (status.Record, error) {
	var rec status.Record
	var ts string
	var online int
	if err := row.Scan(&rec.ID, &rec.DeviceID, &ts, &rec.BatteryLevel, &rec.RSSI, &online); err != nil {
		return status.Record{}, err
	}
	parsed, err := decodeTime(ts)
	if err != nil {
		return status.Record{}, errors.Wrapf(err, "decode stored timestamp %q failed", ts)
	}
	rec.Timestamp = parsed
	rec.Online = online != 0
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]status.Record, error) {
	defer rows.Close()
	records := make([]status.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan status row failed")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate status rows failed")
	}
	return records, nil
}

// Timestamps are stored as RFC 3339 UTC text with nanosecond precision so
// sub-second reports round-trip exactly.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
