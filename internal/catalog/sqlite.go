package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/waypoint/internal/types"
)

// Compile-time interface check
var _ Catalog = (*SQLiteCatalog)(nil)

// statsTopN bounds the popular/recent id lists in library statistics.
const statsTopN = 5

// SQLiteCatalog represents the SQLite-backed workflow library.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog creates a new SQLiteCatalog instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// Put inserts or replaces a workflow. A missing id is generated.
func (c *SQLiteCatalog) Put(ctx context.Context, w types.Workflow) error {
	now := time.Now().UTC()
	if w.ID == "" {
		w.ID = ulid.Make().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}

	tags, err := json.Marshal(w.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	requirements, err := json.Marshal(w.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workflows
			(id, title, description, category, complexity, usage_count, average_rating, review_count, node_count, tags, requirements, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.Title, w.Description, w.Category, string(w.Complexity), w.UsageCount, w.AverageRating, w.ReviewCount, w.NodeCount, string(tags), string(requirements), w.CreatedAt.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert workflow: %w", err)
	}

	return nil
}

// Get returns a single workflow by id.
func (c *SQLiteCatalog) Get(ctx context.Context, id string) (*types.Workflow, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, title, description, category, complexity, usage_count, average_rating, review_count, node_count, tags, requirements, created_at
		FROM workflows WHERE id = ?
	`, id)

	w, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// List returns every workflow in the catalog.
func (c *SQLiteCatalog) List(ctx context.Context) ([]types.Workflow, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, title, description, category, complexity, usage_count, average_rating, review_count, node_count, tags, requirements, created_at
		FROM workflows ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []types.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *w)
	}
	return workflows, rows.Err()
}

// Stats returns aggregate library statistics: totals, per-category
// counts, and the most used and most recent workflow ids.
func (c *SQLiteCatalog) Stats(ctx context.Context) (*types.LibraryStats, error) {
	stats := &types.LibraryStats{
		CategoryCounts: map[string]int64{},
	}

	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workflows").Scan(&stats.TotalWorkflows); err != nil {
		return nil, fmt.Errorf("count workflows: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM workflows GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.CategoryCounts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	popular, err := c.idList(ctx, "SELECT id FROM workflows ORDER BY usage_count DESC LIMIT ?", statsTopN)
	if err != nil {
		return nil, fmt.Errorf("popular workflows: %w", err)
	}
	stats.PopularWorkflowIDs = popular

	recent, err := c.idList(ctx, "SELECT id FROM workflows ORDER BY created_at DESC LIMIT ?", statsTopN)
	if err != nil {
		return nil, fmt.Errorf("recent workflows: %w", err)
	}
	stats.RecentWorkflowIDs = recent

	return stats, nil
}

func (c *SQLiteCatalog) idList(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*types.Workflow, error) {
	var w types.Workflow
	var complexity, tags, requirements, createdAt string

	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Category, &complexity,
		&w.UsageCount, &w.AverageRating, &w.ReviewCount, &w.NodeCount,
		&tags, &requirements, &createdAt)
	if err != nil {
		return nil, err
	}

	w.Complexity = types.Complexity(complexity)
	if err := json.Unmarshal([]byte(tags), &w.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(requirements), &w.Requirements); err != nil {
		return nil, fmt.Errorf("unmarshal requirements: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		w.CreatedAt = t
	}

	return &w, nil
}
