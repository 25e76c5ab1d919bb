// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package database

import (
	"context"
	"testing"
	"time"

	"github.com/minreads/novelrec/internal/recommend"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

func mustExec(t *testing.T, db *DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Conn().Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// seedCatalog inserts two active users, one inactive user, three
// published novels and one draft, plus interactions touching all of
// them.
func seedCatalog(t *testing.T, db *DB) {
	t.Helper()

	mustExec(t, db, `INSERT INTO users (id, username, is_active) VALUES
		(1, 'reader-one', true),
		(2, 'reader-two', true),
		(3, 'dormant', false)`)

	mustExec(t, db, `INSERT INTO novels
		(id, title, author, category, tags, synopsis, status, favorite_count, view_count, rating_avg, created_at, updated_at) VALUES
		(10, '星辰变', '作者甲', '玄幻', '修炼, 热血', '一个少年的修炼之路', 'published', 100, 5000, 4.5, '2025-01-01', '2025-06-01'),
		(11, '都市之巅', '作者乙', '都市', '职场', '都市打拼的故事', 'published', 80, 9000, 4.0, '2025-02-01', '2025-07-01'),
		(12, '仙路漫漫', '作者甲', '玄幻', '修炼', '问道长生', 'published', 60, 3000, 4.8, '2025-03-01', '2025-05-01'),
		(13, '未发布草稿', '作者丙', '玄幻', '', '', 'draft', 999, 99999, 5.0, '2025-04-01', '2025-08-01')`)

	mustExec(t, db, `INSERT INTO favorites (user_id, novel_id) VALUES
		(1, 10), (1, 12), (2, 11),
		(3, 10),  -- inactive user
		(1, 13)   -- draft novel`)
	// Un-favoriting is a soft delete on the platform.
	mustExec(t, db, `INSERT INTO favorites (user_id, novel_id, deleted_at) VALUES
		(2, 12, TIMESTAMP '2025-08-01 00:00:00')`)

	mustExec(t, db, `INSERT INTO ratings (user_id, novel_id, score) VALUES
		(1, 11, 4.0), (2, 10, 5.0)`)

	mustExec(t, db, `INSERT INTO read_history (user_id, novel_id) VALUES
		(2, 12)`)
}

func TestFavoritesFiltersInactiveAndDraft(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	favorites, err := db.Favorites(context.Background())
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}

	if len(favorites) != 3 {
		t.Fatalf("got %d favorites, want 3 (inactive user, draft novel and soft-deleted row excluded): %+v",
			len(favorites), favorites)
	}
	for _, f := range favorites {
		if f.UserID == 3 {
			t.Errorf("favorite from inactive user leaked: %+v", f)
		}
		if f.NovelID == 13 {
			t.Errorf("favorite on draft novel leaked: %+v", f)
		}
		if f.UserID == 2 && f.NovelID == 12 {
			t.Errorf("soft-deleted favorite leaked: %+v", f)
		}
	}
}

func TestFavoritesExcludesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	// User 1 un-favorites novel 10: the row stays but gains a
	// deleted_at, and the 0.8 signal must disappear with it.
	mustExec(t, db, `UPDATE favorites SET deleted_at = current_timestamp
		WHERE user_id = 1 AND novel_id = 10`)

	favorites, err := db.Favorites(context.Background())
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if len(favorites) != 2 {
		t.Fatalf("got %d favorites, want 2 after un-favoriting: %+v", len(favorites), favorites)
	}
	for _, f := range favorites {
		if f.UserID == 1 && f.NovelID == 10 {
			t.Errorf("revoked favorite still returned: %+v", f)
		}
	}
}

func TestPublishedNovelsParsesTags(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	novels, err := db.PublishedNovels(context.Background())
	if err != nil {
		t.Fatalf("PublishedNovels: %v", err)
	}
	if len(novels) != 3 {
		t.Fatalf("got %d novels, want 3 published", len(novels))
	}

	first := novels[0]
	if first.ID != 10 {
		t.Fatalf("novels not in ID order: first is %d", first.ID)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "修炼" || first.Tags[1] != "热血" {
		t.Errorf("tags not split and trimmed: %q", first.Tags)
	}
}

func TestReplaceSimilaritiesSwapsSnapshotByTag(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	old := []recommend.SimilarityRow{
		{NovelID: 10, SimilarID: 11, Score: 0.2},
		{NovelID: 10, SimilarID: 12, Score: 0.9},
	}
	if err := db.ReplaceSimilarities(ctx, "item_cf", old); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	otherTag := []recommend.SimilarityRow{{NovelID: 10, SimilarID: 11, Score: 0.7}}
	if err := db.ReplaceSimilarities(ctx, "content", otherTag); err != nil {
		t.Fatalf("content replace: %v", err)
	}

	// Replacing item_cf must not touch the content rows.
	fresh := []recommend.SimilarityRow{{NovelID: 11, SimilarID: 12, Score: 0.5}}
	if err := db.ReplaceSimilarities(ctx, "item_cf", fresh); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	var count int
	if err := db.Conn().QueryRow(
		`SELECT COUNT(*) FROM novel_similarity WHERE algorithm = 'item_cf'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("item_cf rows after replace = %d, want 1", count)
	}
	if err := db.Conn().QueryRow(
		`SELECT COUNT(*) FROM novel_similarity WHERE algorithm = 'content'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("content rows after item_cf replace = %d, want 1", count)
	}
}

func TestSimilarNovelsMergesAcrossAlgorithms(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	if err := db.ReplaceSimilarities(ctx, "item_cf", []recommend.SimilarityRow{
		{NovelID: 10, SimilarID: 11, Score: 0.3},
		{NovelID: 10, SimilarID: 12, Score: 0.9},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceSimilarities(ctx, "content", []recommend.SimilarityRow{
		{NovelID: 10, SimilarID: 11, Score: 0.8},
	}); err != nil {
		t.Fatal(err)
	}

	rows, err := db.SimilarNovels(ctx, 10, 10)
	if err != nil {
		t.Fatalf("SimilarNovels: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d neighbors, want 2 merged", len(rows))
	}
	// 12 keeps 0.9, 11 keeps max(0.3, 0.8)=0.8.
	if rows[0].SimilarID != 12 || rows[0].Score != 0.9 {
		t.Errorf("rows[0] = %+v, want novel 12 at 0.9", rows[0])
	}
	if rows[1].SimilarID != 11 || rows[1].Score != 0.8 {
		t.Errorf("rows[1] = %+v, want novel 11 at 0.8 (max across tags)", rows[1])
	}
}

func TestCachedRecommendationsOrdering(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	if err := db.ReplaceRecommendations(ctx, "cf", []recommend.RecommendationRow{
		{UserID: 1, NovelID: 11, Score: 0.2},
		{UserID: 1, NovelID: 12, Score: 0.7},
		{UserID: 2, NovelID: 10, Score: 0.4},
	}); err != nil {
		t.Fatal(err)
	}

	rows, err := db.CachedRecommendations(ctx, 1, "cf")
	if err != nil {
		t.Fatalf("CachedRecommendations: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows for user 1, want 2", len(rows))
	}
	if rows[0].NovelID != 12 || rows[1].NovelID != 11 {
		t.Errorf("rows not in score order: %+v", rows)
	}

	empty, err := db.CachedRecommendations(ctx, 99, "cf")
	if err != nil {
		t.Fatalf("CachedRecommendations unknown user: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown user should have no rows, got %+v", empty)
	}
}

func TestFeatureVectorRoundtrip(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	vectors := []recommend.FeatureVector{
		{NovelID: 10, Terms: map[string]float64{"修炼": 0.8, "玄幻": 0.6}},
		{NovelID: 11, Terms: map[string]float64{"都市": 1.0}},
	}
	if err := db.ReplaceFeatureVectors(ctx, vectors); err != nil {
		t.Fatalf("ReplaceFeatureVectors: %v", err)
	}

	fv, found, err := db.FeatureVectorByNovel(ctx, 10)
	if err != nil {
		t.Fatalf("FeatureVectorByNovel: %v", err)
	}
	if !found {
		t.Fatal("vector for novel 10 not found")
	}
	if fv.Terms["修炼"] != 0.8 || fv.Terms["玄幻"] != 0.6 {
		t.Errorf("terms mismatch: %+v", fv.Terms)
	}

	_, found, err = db.FeatureVectorByNovel(ctx, 999)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("vector for unknown novel should not be found")
	}
}

func TestLatestNovelsOrdering(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	ids, err := db.LatestNovels(context.Background(), 2)
	if err != nil {
		t.Fatalf("LatestNovels: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	// Newest updated_at first: novel 11 (July), then 10 (June). Novel
	// 12 was created later but has not been updated since May.
	if ids[0] != 11 || ids[1] != 10 {
		t.Errorf("ids = %v, want [11 10]", ids)
	}
}

func TestNovelCategory(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	category, found, err := db.NovelCategory(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !found || category != "玄幻" {
		t.Errorf("category = %q found=%v, want 玄幻 true", category, found)
	}

	// Draft novels are invisible.
	_, found, err = db.NovelCategory(ctx, 13)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("draft novel should not resolve a category")
	}
}

func TestCategoryStats(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	stats, err := db.CategoryStats(context.Background(), "玄幻")
	if err != nil {
		t.Fatalf("CategoryStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d 玄幻 novels, want 2 (draft excluded)", len(stats))
	}
	for _, st := range stats {
		if st.ID != 10 && st.ID != 12 {
			t.Errorf("unexpected novel %d in category stats", st.ID)
		}
		if st.UpdatedAt.IsZero() {
			t.Errorf("novel %d has zero UpdatedAt", st.ID)
		}
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
