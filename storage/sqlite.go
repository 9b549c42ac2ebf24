package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"streamlens/catalog"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "streamlens.db"

type SQLiteStorage struct {
	db       *sql.DB
	schema   *Schema
	dbPath   string
	dataPath string
}

func NewSQLiteStorage(dataPath string) *SQLiteStorage {
	dbPath := filepath.Join(dataPath, DBFileName)
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
	}
}

func (s *SQLiteStorage) Initialize() error {
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	_, err := s.GetDB()
	if err != nil {
		return err
	}

	schema, err := s.Schema()
	if err != nil {
		return err
	}
	applied, err := schema.Migrate(context.Background(), LatestVersion)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, m := range applied {
		slog.Info("applied migration", "version", m.Version, "file", m.File)
	}

	slog.Info("sqlite database initialized", "path", s.dbPath, "schema_version", schema.Latest())
	return nil
}

// Schema returns the migration handle of the opened database.
func (s *SQLiteStorage) Schema() (*Schema, error) {
	if s.schema != nil {
		return s.schema, nil
	}
	db, err := s.GetDB()
	if err != nil {
		return nil, err
	}
	schema, err := NewSchema(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	s.schema = schema
	return schema, nil
}

// ReplaceCatalog swaps the stored titles and prices for the contents of
// store in one transaction.
func (s *SQLiteStorage) ReplaceCatalog(ctx context.Context, store *catalog.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"title_countries", "title_genres", "titles", "prices"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insertTitle, err := tx.PrepareContext(ctx, `
	INSERT INTO titles (id, title, platform, type, release_year, score, main_genre, audience, imported_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare title insert: %w", err)
	}
	defer insertTitle.Close()

	insertGenre, err := tx.PrepareContext(ctx, `INSERT INTO title_genres (title_id, position, genre) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare genre insert: %w", err)
	}
	defer insertGenre.Close()

	insertCountry, err := tx.PrepareContext(ctx, `INSERT INTO title_countries (title_id, position, country) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare country insert: %w", err)
	}
	defer insertCountry.Close()

	importedAt := time.Now().Unix()
	for _, r := range store.Records() {
		if _, err := insertTitle.ExecContext(ctx, r.ID, r.Title, r.Platform, string(r.Type),
			r.ReleaseYear, r.Score, r.MainGenre, r.Audience, importedAt); err != nil {
			return fmt.Errorf("failed to insert title %d: %w", r.ID, err)
		}
		for i, g := range r.Genres {
			if _, err := insertGenre.ExecContext(ctx, r.ID, i, g); err != nil {
				return fmt.Errorf("failed to insert genre of title %d: %w", r.ID, err)
			}
		}
		for i, c := range r.Countries {
			if _, err := insertCountry.ExecContext(ctx, r.ID, i, c); err != nil {
				return fmt.Errorf("failed to insert country of title %d: %w", r.ID, err)
			}
		}
	}

	for _, p := range store.Prices() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO prices (platform, year, price) VALUES (?, ?, ?)`,
			p.Platform, p.Year, p.Price); err != nil {
			return fmt.Errorf("failed to insert price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	slog.Info("catalog stored", "titles", store.Len(), "prices", len(store.Prices()))
	return nil
}

// LoadCatalog rebuilds a store from the database. An empty database yields
// an empty store.
func (s *SQLiteStorage) LoadCatalog(ctx context.Context) (*catalog.Store, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, title, platform, type, release_year, score, main_genre, audience
	FROM titles
	ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	index := make(map[int]int)
	for rows.Next() {
		var r catalog.Record
		var contentType string
		if err := rows.Scan(&r.ID, &r.Title, &r.Platform, &contentType, &r.ReleaseYear, &r.Score,
			&r.MainGenre, &r.Audience); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		r.Type = catalog.ContentType(contentType)
		r.Genres = []string{}
		r.Countries = []string{}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read titles: %w", err)
	}

	if err := s.loadValues(ctx, `SELECT title_id, genre FROM title_genres ORDER BY title_id, position`,
		func(id int, v string) {
			if i, ok := index[id]; ok {
				records[i].Genres = append(records[i].Genres, v)
			}
		}); err != nil {
		return nil, err
	}
	if err := s.loadValues(ctx, `SELECT title_id, country FROM title_countries ORDER BY title_id, position`,
		func(id int, v string) {
			if i, ok := index[id]; ok {
				records[i].Countries = append(records[i].Countries, v)
			}
		}); err != nil {
		return nil, err
	}

	prices, err := s.loadPrices(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(records, prices), nil
}

func (s *SQLiteStorage) loadValues(ctx context.Context, query string, add func(id int, value string)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return fmt.Errorf("failed to scan value: %w", err)
		}
		add(id, value)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadPrices(ctx context.Context) ([]catalog.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT platform, year, price FROM prices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []catalog.PriceObservation
	for rows.Next() {
		var p catalog.PriceObservation
		if err := rows.Scan(&p.Platform, &p.Year, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (s *SQLiteStorage) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{Platforms: make(map[string]int)}

	var importedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN type = 'SHOW' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = 'MOVIE' THEN 1 ELSE 0 END), 0),
		MAX(imported_at)
	FROM titles
	`).Scan(&stats.Total, &stats.Shows, &stats.Movies, &importedAt)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get title counts: %w", err)
	}
	if importedAt.Valid {
		t := time.Unix(importedAt.Int64, 0).UTC()
		stats.ImportedAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT platform, COUNT(*) FROM titles GROUP BY platform`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get platform counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var platform string
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return Stats{}, fmt.Errorf("failed to scan platform count: %w", err)
		}
		stats.Platforms[platform] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to read platform counts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prices").Scan(&stats.Prices); err != nil {
		return Stats{}, fmt.Errorf("failed to get price count: %w", err)
	}

	schema, err := s.Schema()
	if err != nil {
		return Stats{}, err
	}
	status, err := schema.Status(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.SchemaVersion = status.Version
	stats.PendingMigrations = status.Pending()
	return stats, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		db, err := sql.Open("sqlite3", s.dbPath+"?_foreign_keys=on&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return s.db, nil
}
