package sqlrepo

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Open connects to the database and applies pending migrations for the
// dialect. Migrations live under migrations/<dialect> as versioned files:
//
//	0001_name.up.sql / 0001_name.down.sql
func Open(dialect, dsn string) (*sql.DB, error) {
	d, err := Connect(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(d, dialect); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Connect opens and pings the database without touching its schema.
func Connect(dialect, dsn string) (*sql.DB, error) {
	driver, err := driverName(dialect)
	if err != nil {
		return nil, err
	}
	d, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	if dialect == DialectSQLite {
		if err := applyPragmas(d); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	return d, nil
}

func driverName(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return "postgres", nil
	case DialectSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func applyPragmas(d *sql.DB) error {
	// SQLite allows a single writer; one connection also keeps in-memory
	// databases from splitting per connection.
	d.SetMaxOpenConns(1)
	d.SetMaxIdleConns(1)
	// journal_mode may not be supported in some contexts (e.g., in-memory). Ignore errors.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := d.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		return err
	}
	_, err := d.Exec(`PRAGMA foreign_keys=ON`)
	return err
}

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

func loadMigrations(dialect string) (map[int]migration, error) {
	entries := map[int]migration{}
	dir := "migrations/" + dialect
	list, err := stdfs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		m := migFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		ver, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		item := entries[ver]
		item.version = ver
		item.name = m[2]
		p := dir + "/" + de.Name()
		if m[3] == "up" {
			item.upFile = p
		} else {
			item.downFile = p
		}
		entries[ver] = item
	}
	return entries, nil
}

func ensureMigrationsTable(d *sql.DB) error {
	_, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	return err
}

func appliedVersions(d *sql.DB) (map[int]bool, error) {
	if err := ensureMigrationsTable(d); err != nil {
		return nil, err
	}
	rows, err := d.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		got[v] = true
	}
	return got, rows.Err()
}

// Migrate applies every migration that has not been recorded yet, each in
// its own transaction.
func Migrate(d *sql.DB, dialect string) error {
	migs, err := loadMigrations(dialect)
	if err != nil {
		return err
	}
	applied, err := appliedVersions(d)
	if err != nil {
		return err
	}
	versions := make([]int, 0, len(migs))
	for v := range migs {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		if applied[v] {
			continue
		}
		m := migs[v]
		if strings.TrimSpace(m.upFile) == "" {
			return fmt.Errorf("missing up migration for version %04d", v)
		}
		sqlText, err := migrationsFS.ReadFile(m.upFile)
		if err != nil {
			return err
		}
		if err := inTx(d, string(sqlText), rebind(dialect, `INSERT INTO schema_migrations(version) VALUES(?)`), v); err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", v, m.name, err)
		}
	}
	return nil
}

// RollbackLast reverts the most recently applied migration, if its down
// script exists.
func RollbackLast(d *sql.DB, dialect string) error {
	if d == nil {
		return errors.New("nil db")
	}
	if err := ensureMigrationsTable(d); err != nil {
		return err
	}
	var version int
	err := d.QueryRow(`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		return err
	}
	migs, err := loadMigrations(dialect)
	if err != nil {
		return err
	}
	m, ok := migs[version]
	if !ok || m.downFile == "" {
		return fmt.Errorf("no down migration found for version %d", version)
	}
	sqlText, err := migrationsFS.ReadFile(m.downFile)
	if err != nil {
		return err
	}
	return inTx(d, string(sqlText), rebind(dialect, `DELETE FROM schema_migrations WHERE version = ?`), version)
}

func inTx(d *sql.DB, script, bookkeeping string, version int) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(bookkeeping, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// rebind rewrites ? placeholders to $n for postgres.
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
