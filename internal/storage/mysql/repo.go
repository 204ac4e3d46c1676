// Package mysql implements the MySQL sink on go-sql-driver/mysql. Each batch
// becomes one multi-row INSERT built with squirrel and executed in a
// transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	myddl "visaprep/internal/storage/mysql/ddl"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

// maxPlaceholders stays under MySQL's 65535 prepared-statement limit.
const maxPlaceholders = 60000

// Config holds MySQL repository configuration.
type Config struct {
	DSN     string // go-sql-driver DSN, e.g. "user:pw@tcp(localhost:3306)/visa"
	Table   string
	Columns []string
}

// Repository is the MySQL implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, connects and returns a Close function.
// parseTime is forced on so DATE columns scan as time.Time.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	mc.ParseTime = true
	if mc.Loc == nil {
		mc.Loc = time.UTC
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows with multi-row INSERT statements in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmts, err := buildInserts(r.cfg.Table, columns, rows)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	var total int64
	for _, s := range stmts {
		res, err := tx.ExecContext(ctx, s.sql, s.args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// Exec runs one statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

type insertStmt struct {
	sql  string
	args []any
}

// buildInserts splits rows into INSERT statements that each stay under
// maxPlaceholders bound values.
func buildInserts(table string, columns []string, rows [][]any) ([]insertStmt, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("mysql: columns must not be empty")
	}
	perStmt := maxPlaceholders / len(columns)
	if perStmt < 1 {
		perStmt = 1
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = myddl.QuoteIdent(c)
	}
	into := myddl.Dialect.QuoteFQN(table)

	var out []insertStmt
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		b := sq.Insert(into).Columns(quoted...).PlaceholderFormat(sq.Question)
		for _, row := range rows[start:end] {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("mysql: row length %d != columns length %d", len(row), len(columns))
			}
			b = b.Values(row...)
		}
		q, args, err := b.ToSql()
		if err != nil {
			return nil, fmt.Errorf("mysql: build insert: %w", err)
		}
		out = append(out, insertStmt{sql: q, args: args})
	}
	return out, nil
}
