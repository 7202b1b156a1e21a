package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TransientsTable holds MySQL-backed cache entries.
const TransientsTable = "tricket_transients"

// MySQLStore keeps entries in a MySQL table, the same way WordPress keeps
// transients in its options table when no object cache is installed.
// Expired rows are treated as misses and removed on read.
type MySQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewMySQLStore wraps an open database handle.  Call EnsureSchema once at
// startup to create the table.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, now: time.Now}
}

// EnsureSchema creates the transients table when it does not exist.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrNilStore
	}
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+TransientsTable+` (
		cache_key  VARCHAR(191) NOT NULL PRIMARY KEY,
		value      LONGBLOB     NOT NULL,
		expires_at DATETIME(6)  NOT NULL,
		KEY idx_expires_at (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)
	if err != nil {
		return fmt.Errorf("create %s: %w", TransientsTable, err)
	}
	return nil
}

func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrNilStore
	}
	var (
		value     []byte
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM `+TransientsTable+` WHERE cache_key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !s.now().UTC().Before(expiresAt.UTC()) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, true, nil
}

func (s *MySQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.db == nil {
		return ErrNilStore
	}
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	expiresAt := s.now().UTC().Add(ttl)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+TransientsTable+` (cache_key, value, expires_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at)`,
		key, value, expiresAt,
	)
	return err
}

func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return ErrNilStore
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+TransientsTable+` WHERE cache_key = ?`, key)
	return err
}

// PurgeExpired removes every expired row and returns how many were deleted.
func (s *MySQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrNilStore
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+TransientsTable+` WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
