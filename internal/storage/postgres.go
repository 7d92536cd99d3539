package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/xaenox/bizchat/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the config as a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// PostgresSource keeps the intent catalog in an "intents" table ordered by
// position.
var (
	_ CatalogSource = (*PostgresSource)(nil)
	_ CatalogWriter = (*PostgresSource)(nil)
)

type PostgresSource struct {
	db     *sql.DB
	dbName string
	logger *zap.Logger
}

func NewPostgresSource(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*PostgresSource, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	source := &PostgresSource{db: db, dbName: config.DBName, logger: logger}

	if err := source.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL catalog",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return source, nil
}

func (s *PostgresSource) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresSource) LoadIntents(ctx context.Context) ([]models.Intent, error) {
	query := `
		SELECT tag, patterns, responses
		FROM intents
		ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying intents: %w", err)
	}
	defer rows.Close()

	var intents []models.Intent
	for rows.Next() {
		var intent models.Intent
		if err := rows.Scan(
			&intent.Tag,
			pq.Array(&intent.Patterns),
			pq.Array(&intent.Responses),
		); err != nil {
			return nil, fmt.Errorf("error scanning intent: %w", err)
		}
		intents = append(intents, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating intents: %w", err)
	}

	return intents, nil
}

// ReplaceIntents swaps the whole catalog in one transaction, keeping the
// slice order as the match priority.
func (s *PostgresSource) ReplaceIntents(ctx context.Context, intents []models.Intent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM intents`); err != nil {
		return fmt.Errorf("error clearing intents: %w", err)
	}

	query := `
		INSERT INTO intents (position, tag, patterns, responses, updated_at)
		VALUES ($1, $2, COALESCE($3::text[], '{}'), COALESCE($4::text[], '{}'), $5)`

	now := time.Now()
	for i, intent := range intents {
		if _, err := tx.ExecContext(ctx, query,
			i,
			intent.Tag,
			pq.Array(intent.Patterns),
			pq.Array(intent.Responses),
			now,
		); err != nil {
			return fmt.Errorf("error inserting intent %q: %w", intent.Tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing catalog: %w", err)
	}

	s.logger.Info("Catalog stored in PostgreSQL", zap.Int("intents", len(intents)))
	return nil
}

func (s *PostgresSource) Describe() string {
	return "postgres:" + s.dbName
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}
