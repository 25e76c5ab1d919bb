// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package database

import (
	"context"
	"fmt"
)

// The platform collections (novels, users, favorites, ratings,
// read_history) are populated by the platform's sync jobs; the engine
// only reads them. The cache tables (novel_similarity,
// recommendation_cache, novel_feature_vector) are owned by the engine.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS novels (
		id             BIGINT PRIMARY KEY,
		title          VARCHAR NOT NULL,
		author         VARCHAR NOT NULL DEFAULT '',
		category       VARCHAR NOT NULL DEFAULT '',
		tags           VARCHAR NOT NULL DEFAULT '',
		synopsis       VARCHAR NOT NULL DEFAULT '',
		status         VARCHAR NOT NULL DEFAULT 'draft',
		favorite_count BIGINT NOT NULL DEFAULT 0,
		view_count     BIGINT NOT NULL DEFAULT 0,
		rating_avg     DOUBLE NOT NULL DEFAULT 0,
		created_at     TIMESTAMP NOT NULL DEFAULT current_timestamp,
		updated_at     TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGINT PRIMARY KEY,
		username   VARCHAR NOT NULL DEFAULT '',
		is_active  BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id    BIGINT NOT NULL,
		novel_id   BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		deleted_at TIMESTAMP,
		UNIQUE (user_id, novel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		user_id    BIGINT NOT NULL,
		novel_id   BIGINT NOT NULL,
		score      DOUBLE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		UNIQUE (user_id, novel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS read_history (
		user_id      BIGINT NOT NULL,
		novel_id     BIGINT NOT NULL,
		last_read_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		UNIQUE (user_id, novel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS novel_similarity (
		novel_id         BIGINT NOT NULL,
		similar_novel_id BIGINT NOT NULL,
		algorithm        VARCHAR NOT NULL,
		score            DOUBLE NOT NULL,
		updated_at       TIMESTAMP NOT NULL DEFAULT current_timestamp,
		UNIQUE (novel_id, similar_novel_id, algorithm)
	)`,
	`CREATE TABLE IF NOT EXISTS recommendation_cache (
		user_id    BIGINT NOT NULL,
		novel_id   BIGINT NOT NULL,
		algorithm  VARCHAR NOT NULL,
		score      DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		UNIQUE (user_id, novel_id, algorithm)
	)`,
	`CREATE TABLE IF NOT EXISTS novel_feature_vector (
		novel_id   BIGINT PRIMARY KEY,
		vector     VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS idx_similarity_novel ON novel_similarity (novel_id, algorithm)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendation_user ON recommendation_cache (user_id, algorithm)`,
	`CREATE INDEX IF NOT EXISTS idx_novels_category ON novels (category)`,
}

func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
