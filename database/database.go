// Package database, mesaj deposunun bağlantılarını ve SQLite migration sistemini yönetir.
//
// Varsayılan depo pure-Go SQLite'tır (modernc.org/sqlite, CGO gerekmez).
// DATABASE_DRIVER=mongo seçildiğinde bağlantı mongo.go'daki ConnectMongo ile kurulur.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// recoverableErrors, yarım kalmış bir migration tekrar çalıştırıldığında
// güvenle atlanabilecek hata kalıpları.
var recoverableErrors = []string{
	"duplicate column name",
}

// DB, SQLite bağlantı havuzunu sarar. *sql.DB goroutine-safe'tir.
type DB struct {
	Conn *sql.DB
	log  *zap.Logger
}

// New, SQLite dosyasını açar (dizini yoksa oluşturur) ve migration'ları uygular.
//
// foreign_keys: SQLite'ta varsayılan kapalıdır; CASCADE için şart.
// journal_mode(WAL): okuyucular yazarı bloklamaz.
// busy_timeout: eşzamanlı yazmalarda "database is locked" yerine bekler.
// _txlock=immediate: transaction'lar BEGIN IMMEDIATE ile açılır. Okuma ile
// başlayan bir transaction'ın yazmaya yükseltilmesi WAL'da busy_timeout'u
// beklemeden SQLITE_BUSY verir; yazma kilidi en baştan alınınca sırayla beklenir.
func New(dbPath string, migrationsFS fs.FS, log *zap.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn, log: log}

	if err := db.runMigrations(migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("connected and migrations applied", zap.String("path", dbPath))
	return db, nil
}

// Close, bağlantı havuzunu kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations, migrations FS'teki .sql dosyalarını ad sırasıyla uygular.
// Uygulananlar schema_migrations tablosunda tutulur; her dosya bir kez çalışır.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}

	// Bootstrap: schema_migrations boş ama messages tablosu zaten var →
	// şema elle kurulmuş, dosyaları uygulanmış say.
	if len(applied) == 0 {
		var tableCount int
		if err := db.Conn.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='messages'",
		).Scan(&tableCount); err != nil {
			return fmt.Errorf("failed to check existing tables: %w", err)
		}

		if tableCount > 0 {
			for _, file := range sqlFiles {
				if _, err := db.Conn.Exec(
					"INSERT INTO schema_migrations (filename) VALUES (?)", file,
				); err != nil {
					return fmt.Errorf("failed to bootstrap migration %s: %w", file, err)
				}
			}
			db.log.Info("bootstrapped existing migrations", zap.Int("count", len(sqlFiles)))
			return nil
		}
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(file, string(content)); err != nil {
			return err
		}

		if _, err := db.Conn.Exec(
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		db.log.Info("migration applied", zap.String("file", file))
	}

	return nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := db.Conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migration rows: %w", err)
	}
	return applied, nil
}

// execStatements, bir migration dosyasını statement statement çalıştırır.
// recoverableErrors'daki hatalar loglanıp atlanır.
func (db *DB) execStatements(filename, content string) error {
	for i, stmt := range splitStatements(content) {
		if _, err := db.Conn.Exec(stmt); err != nil {
			errMsg := err.Error()
			recoverable := false
			for _, pattern := range recoverableErrors {
				if strings.Contains(errMsg, pattern) {
					recoverable = true
					break
				}
			}

			if recoverable {
				db.log.Warn("migration statement skipped",
					zap.String("file", filename), zap.Int("statement", i+1), zap.String("reason", errMsg))
				continue
			}

			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}

	return nil
}

// splitStatements, SQL metnini ';' ile böler. Tek tırnaklı string
// içindeki ';' ve "--" ile başlayan satır yorumları bölmeyi etkilemez.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		if ch == '\'' {
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(sql[i+1])
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			if s := strings.TrimSpace(current.String()); s != "" {
				statements = append(statements, s)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		statements = append(statements, s)
	}

	return statements
}
