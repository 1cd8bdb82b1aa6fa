package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishscan/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "phishscan.db"

// DefaultHistoryLimit is used when a history query passes a non-positive limit.
const DefaultHistoryLimit = 50

// ErrNilResult is returned when Save is called without a result.
var ErrNilResult = errors.New("scan result is nil")

// ScanDB provides SQLite-based storage for scan history.
type ScanDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers don't block the writer.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *ScanDB) Path() string {
	return sdb.dbPath
}

func (sdb *ScanDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		score REAL NOT NULL,
		threats TEXT,
		signals_used TEXT,
		state TEXT NOT NULL,
		vetoed INTEGER NOT NULL DEFAULT 0,
		safety_level TEXT,
		result_json TEXT NOT NULL,
		scanned_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url);
	CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// ScanRecord is a stored scan without the per-signal detail.
// It is what history listings return.
type ScanRecord struct {
	// ID is the row identifier.
	ID int64 `json:"-"`

	// ScanID is the AggregateResult ID.
	ScanID string `json:"id"`

	URL         string             `json:"url"`
	Score       float64            `json:"score"`
	Threats     []model.ThreatTag  `json:"threats"`
	SignalsUsed []model.SignalName `json:"signals_used"`
	State       string             `json:"state"`
	Vetoed      bool               `json:"vetoed"`
	SafetyLevel model.SafetyLevel  `json:"safety_level"`
	ScannedAt   time.Time          `json:"timestamp"`
}

// Save stores an aggregate result and returns its row ID.
// Saving the same result twice is a no-op that returns the existing row.
func (sdb *ScanDB) Save(ctx context.Context, res *model.AggregateResult) (int64, error) {
	if res == nil {
		return 0, ErrNilResult
	}

	resultJSON, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	signals := make([]string, 0, len(res.SignalsUsed))
	for _, s := range res.SignalsUsed {
		signals = append(signals, string(s))
	}

	query := `
	INSERT INTO scans (scan_id, url, score, threats, signals_used, state, vetoed, safety_level, result_json, scanned_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(scan_id) DO NOTHING
	`

	if _, err := sdb.db.ExecContext(ctx, query,
		res.ID,
		res.URL,
		res.FinalScore,
		joinThreats(res.Threats),
		strings.Join(signals, ","),
		res.State.String(),
		res.Vetoed,
		string(res.SafetyLevel),
		string(resultJSON),
		res.ScannedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}

	var id int64
	if err := sdb.db.QueryRowContext(ctx, `SELECT id FROM scans WHERE scan_id = ?`, res.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read scan id: %w", err)
	}
	return id, nil
}

// History returns the most recent scans, newest first.
// A non-positive limit uses DefaultHistoryLimit.
func (sdb *ScanDB) History(ctx context.Context, limit int) ([]ScanRecord, error) {
	query := `
	SELECT id, scan_id, url, score, threats, signals_used, state, vetoed, safety_level, scanned_at
	FROM scans
	ORDER BY scanned_at DESC, id DESC
	LIMIT ?
	`
	return sdb.queryRecords(ctx, query, normalizeLimit(limit))
}

// HistoryForURL returns the most recent scans of one URL, newest first.
func (sdb *ScanDB) HistoryForURL(ctx context.Context, url string, limit int) ([]ScanRecord, error) {
	query := `
	SELECT id, scan_id, url, score, threats, signals_used, state, vetoed, safety_level, scanned_at
	FROM scans
	WHERE url = ?
	ORDER BY scanned_at DESC, id DESC
	LIMIT ?
	`
	return sdb.queryRecords(ctx, query, url, normalizeLimit(limit))
}

// GetByScanID retrieves the full result for a scan ID.
// It returns nil without error when the scan does not exist.
func (sdb *ScanDB) GetByScanID(ctx context.Context, scanID string) (*model.AggregateResult, error) {
	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, `SELECT result_json FROM scans WHERE scan_id = ?`, scanID).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	var res model.AggregateResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &res, nil
}

// Count returns the number of stored scans.
func (sdb *ScanDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := sdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return n, nil
}

func (sdb *ScanDB) queryRecords(ctx context.Context, query string, args ...any) ([]ScanRecord, error) {
	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	records := []ScanRecord{}
	for rows.Next() {
		var (
			rec       ScanRecord
			threats   sql.NullString
			signals   sql.NullString
			safety    sql.NullString
			scannedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.ScanID, &rec.URL, &rec.Score, &threats, &signals,
			&rec.State, &rec.Vetoed, &safety, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Threats = splitThreats(threats.String)
		rec.SignalsUsed = splitSignals(signals.String)
		rec.SafetyLevel = model.SafetyLevel(safety.String)
		rec.ScannedAt = parseTimestamp(scannedAt)
		records = append(records, rec)
	}

	return records, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

// Threats are stored comma separated so the column stays readable from the sqlite shell.
func joinThreats(tags []model.ThreatTag) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

func splitThreats(s string) []model.ThreatTag {
	tags := []model.ThreatTag{}
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, model.ThreatTag(part))
		}
	}
	return tags
}

func splitSignals(s string) []model.SignalName {
	names := []model.SignalName{}
	for part := range strings.SplitSeq(s, ",") {
		if part != "" {
			names = append(names, model.SignalName(part))
		}
	}
	return names
}

// timestampFormats contains the timestamp formats that may appear in scanned_at.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
