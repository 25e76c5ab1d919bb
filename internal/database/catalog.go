// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minreads/novelrec/internal/metrics"
	"github.com/minreads/novelrec/internal/recommend"
	"github.com/minreads/novelrec/internal/recommend/algorithms"
)

// Interface compliance for the engine and resolver.
var (
	_ recommend.DataProvider = (*DB)(nil)
	_ recommend.CacheReader  = (*DB)(nil)
	_ recommend.CacheWriter  = (*DB)(nil)
)

// Favorites returns favorite events of active users on published
// novels. Un-favoriting is a soft delete on the platform, so rows
// with deleted_at set are revoked and excluded.
func (db *DB) Favorites(ctx context.Context) (out []recommend.Favorite, err error) {
	defer observe("select", "favorites", time.Now(), &err)

	query := `
		SELECT f.user_id, f.novel_id
		FROM favorites f
		JOIN users u ON u.id = f.user_id AND u.is_active
		JOIN novels n ON n.id = f.novel_id AND n.status = 'published'
		WHERE f.deleted_at IS NULL
	`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f recommend.Favorite
		if err := rows.Scan(&f.UserID, &f.NovelID); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return out, nil
}

// Ratings returns rating events of active users on published novels.
func (db *DB) Ratings(ctx context.Context) (out []recommend.Rating, err error) {
	defer observe("select", "ratings", time.Now(), &err)

	query := `
		SELECT r.user_id, r.novel_id, r.score
		FROM ratings r
		JOIN users u ON u.id = r.user_id AND u.is_active
		JOIN novels n ON n.id = r.novel_id AND n.status = 'published'
	`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r recommend.Rating
		if err := rows.Scan(&r.UserID, &r.NovelID, &r.Score); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return out, nil
}

// ReadHistory returns read-history events of active users on published
// novels.
func (db *DB) ReadHistory(ctx context.Context) (out []recommend.ReadEntry, err error) {
	defer observe("select", "read_history", time.Now(), &err)

	query := `
		SELECT h.user_id, h.novel_id
		FROM read_history h
		JOIN users u ON u.id = h.user_id AND u.is_active
		JOIN novels n ON n.id = h.novel_id AND n.status = 'published'
	`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query read history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r recommend.ReadEntry
		if err := rows.Scan(&r.UserID, &r.NovelID); err != nil {
			return nil, fmt.Errorf("scan read entry: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate read history: %w", err)
	}
	return out, nil
}

// PublishedNovels returns the full published catalog in ID order.
func (db *DB) PublishedNovels(ctx context.Context) (out []recommend.Novel, err error) {
	defer observe("select", "novels", time.Now(), &err)

	query := `
		SELECT id, title, author, category, tags, synopsis,
		       favorite_count, view_count, rating_avg, created_at, updated_at
		FROM novels
		WHERE status = 'published'
		ORDER BY id
	`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query novels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n       recommend.Novel
			tagsStr string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Author, &n.Category, &tagsStr, &n.Synopsis,
			&n.FavoriteCount, &n.ViewCount, &n.RatingAvg, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan novel: %w", err)
		}
		n.Tags = splitAndTrim(tagsStr)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate novels: %w", err)
	}
	return out, nil
}

// NovelStats returns popularity counters for the published catalog.
func (db *DB) NovelStats(ctx context.Context) ([]algorithms.NovelStats, error) {
	return db.queryStats(ctx, `
		SELECT id, favorite_count, view_count, rating_avg, updated_at
		FROM novels
		WHERE status = 'published'
		ORDER BY id
	`)
}

// CategoryStats returns popularity counters for one category.
func (db *DB) CategoryStats(ctx context.Context, category string) ([]algorithms.NovelStats, error) {
	return db.queryStats(ctx, `
		SELECT id, favorite_count, view_count, rating_avg, updated_at
		FROM novels
		WHERE status = 'published' AND category = ?
		ORDER BY id
	`, category)
}

func (db *DB) queryStats(ctx context.Context, query string, args ...any) (out []algorithms.NovelStats, err error) {
	defer observe("select", "novels", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query novel stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st algorithms.NovelStats
		if err := rows.Scan(&st.ID, &st.Favorites, &st.Views, &st.Rating, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan novel stats: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate novel stats: %w", err)
	}
	return out, nil
}

// NovelCategory returns the category of a published novel.
func (db *DB) NovelCategory(ctx context.Context, novelID int64) (category string, found bool, err error) {
	defer observe("select", "novels", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = db.conn.QueryRowContext(ctx,
		`SELECT category FROM novels WHERE id = ? AND status = 'published'`, novelID).
		Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query novel category: %w", err)
	}
	return category, true, nil
}

// LatestNovels returns the most recently updated published novel IDs,
// so serials bubble up on new chapters, not just on first publish.
func (db *DB) LatestNovels(ctx context.Context, limit int) (out []int64, err error) {
	defer observe("select", "novels", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id FROM novels
		WHERE status = 'published'
		ORDER BY updated_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest novels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan novel id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest novels: %w", err)
	}
	return out, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// observe records query metrics; err must point at the method's named
// return so the deferred call sees the final value.
func observe(op, table string, start time.Time, err *error) {
	metrics.RecordDBQuery(op, table, time.Since(start), *err)
}
