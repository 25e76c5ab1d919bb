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
	"time"

	"github.com/goccy/go-json"

	"github.com/minreads/novelrec/internal/logging"
	"github.com/minreads/novelrec/internal/recommend"
)

// ReplaceSimilarities swaps all similarity rows under one algorithm
// tag in a single transaction. Readers see the previous snapshot until
// commit.
func (db *DB) ReplaceSimilarities(ctx context.Context, tag string, rows []recommend.SimilarityRow) (err error) {
	defer observe("replace", "novel_similarity", time.Now(), &err)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM novel_similarity WHERE algorithm = ?`, tag); err != nil {
			return fmt.Errorf("delete old similarities: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO novel_similarity (novel_id, similar_novel_id, algorithm, score, updated_at)
			VALUES (?, ?, ?, ?, current_timestamp)
		`)
		if err != nil {
			return fmt.Errorf("prepare similarity insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row.NovelID, row.SimilarID, tag, row.Score); err != nil {
				return fmt.Errorf("insert similarity (%d,%d): %w", row.NovelID, row.SimilarID, err)
			}
		}
		return nil
	})
}

// ReplaceRecommendations swaps all recommendation rows under one
// algorithm tag in a single transaction.
func (db *DB) ReplaceRecommendations(ctx context.Context, tag string, rows []recommend.RecommendationRow) (err error) {
	defer observe("replace", "recommendation_cache", time.Now(), &err)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recommendation_cache WHERE algorithm = ?`, tag); err != nil {
			return fmt.Errorf("delete old recommendations: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recommendation_cache (user_id, novel_id, algorithm, score, updated_at)
			VALUES (?, ?, ?, ?, current_timestamp)
		`)
		if err != nil {
			return fmt.Errorf("prepare recommendation insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row.UserID, row.NovelID, tag, row.Score); err != nil {
				return fmt.Errorf("insert recommendation (%d,%d): %w", row.UserID, row.NovelID, err)
			}
		}
		return nil
	})
}

// ReplaceFeatureVectors swaps the persisted TF-IDF vectors wholesale.
// Vectors are serialized as JSON term-weight maps.
func (db *DB) ReplaceFeatureVectors(ctx context.Context, vectors []recommend.FeatureVector) (err error) {
	defer observe("replace", "novel_feature_vector", time.Now(), &err)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM novel_feature_vector`); err != nil {
			return fmt.Errorf("delete old feature vectors: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO novel_feature_vector (novel_id, vector, updated_at)
			VALUES (?, ?, current_timestamp)
		`)
		if err != nil {
			return fmt.Errorf("prepare feature vector insert: %w", err)
		}
		defer stmt.Close()

		for _, v := range vectors {
			payload, err := json.Marshal(v.Terms)
			if err != nil {
				return fmt.Errorf("marshal feature vector %d: %w", v.NovelID, err)
			}
			if _, err := stmt.ExecContext(ctx, v.NovelID, string(payload)); err != nil {
				return fmt.Errorf("insert feature vector %d: %w", v.NovelID, err)
			}
		}
		return nil
	})
}

// FeatureVectorByNovel reads back one persisted TF-IDF vector. The
// bool is false when no vector is stored for the novel.
func (db *DB) FeatureVectorByNovel(ctx context.Context, novelID int64) (recommend.FeatureVector, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var payload string
	err := db.conn.QueryRowContext(ctx,
		`SELECT vector FROM novel_feature_vector WHERE novel_id = ?`, novelID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return recommend.FeatureVector{}, false, nil
	}
	if err != nil {
		return recommend.FeatureVector{}, false, fmt.Errorf("query feature vector: %w", err)
	}

	fv := recommend.FeatureVector{NovelID: novelID, Terms: make(map[string]float64)}
	if err := json.Unmarshal([]byte(payload), &fv.Terms); err != nil {
		return recommend.FeatureVector{}, false, fmt.Errorf("unmarshal feature vector %d: %w", novelID, err)
	}
	return fv, true, nil
}

// SimilarNovels returns cached neighbors of a novel merged across
// algorithms: a neighbor cached by both passes keeps its higher score.
func (db *DB) SimilarNovels(ctx context.Context, novelID int64, limit int) (out []recommend.SimilarityRow, err error) {
	defer observe("select", "novel_similarity", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT similar_novel_id, MAX(score) AS score
		FROM novel_similarity
		WHERE novel_id = ?
		GROUP BY similar_novel_id
		ORDER BY score DESC, similar_novel_id
		LIMIT ?
	`, novelID, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar novels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row := recommend.SimilarityRow{NovelID: novelID}
		if err := rows.Scan(&row.SimilarID, &row.Score); err != nil {
			return nil, fmt.Errorf("scan similar novel: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar novels: %w", err)
	}
	return out, nil
}

// CachedRecommendations returns one user's cached rows under one tag,
// strongest first.
func (db *DB) CachedRecommendations(ctx context.Context, userID int64, tag string) (out []recommend.RecommendationRow, err error) {
	defer observe("select", "recommendation_cache", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT novel_id, score
		FROM recommendation_cache
		WHERE user_id = ? AND algorithm = ?
		ORDER BY score DESC, novel_id
	`, userID, tag)
	if err != nil {
		return nil, fmt.Errorf("query cached recommendations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row := recommend.RecommendationRow{UserID: userID}
		if err := rows.Scan(&row.NovelID, &row.Score); err != nil {
			return nil, fmt.Errorf("scan cached recommendation: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached recommendations: %w", err)
	}
	return out, nil
}

// withTx runs fn inside a transaction with commit-or-rollback.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
