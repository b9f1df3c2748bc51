package services

import (
	"math"
	"testing"
	"time"

	"github.com/contribhub/backend/internal/models"
)

func TestTrendingScore_Weights(t *testing.T) {
	// At age zero the denominator is 2^1.5
	denom := math.Pow(2, 1.5)

	if got := TrendingScore(1, 0, 0, 0); math.Abs(got-1/denom) > 1e-9 {
		t.Errorf("one like = %v, expected %v", got, 1/denom)
	}
	if got := TrendingScore(0, 10, 0, 0); math.Abs(got-1/denom) > 1e-9 {
		t.Errorf("ten views = %v, expected %v", got, 1/denom)
	}
	if got := TrendingScore(0, 0, 1, 0); math.Abs(got-2/denom) > 1e-9 {
		t.Errorf("one comment = %v, expected %v", got, 2/denom)
	}
}

func TestTrendingScore_ZeroEngagement(t *testing.T) {
	if got := TrendingScore(0, 0, 0, 5); got != 0 {
		t.Errorf("zero engagement = %v, expected 0", got)
	}
}

func TestTrendingScore_MoreEngagementScoresHigher(t *testing.T) {
	base := TrendingScore(10, 100, 5, 24)
	if TrendingScore(11, 100, 5, 24) <= base {
		t.Error("extra like should raise the score")
	}
	if TrendingScore(10, 110, 5, 24) <= base {
		t.Error("extra views should raise the score")
	}
	if TrendingScore(10, 100, 6, 24) <= base {
		t.Error("extra comment should raise the score")
	}
}

func TestTrendingScore_OlderScoresLower(t *testing.T) {
	if TrendingScore(10, 100, 5, 48) >= TrendingScore(10, 100, 5, 24) {
		t.Error("older item with equal engagement should score lower")
	}
}

func TestTrendingScore_NegativeAgeClamped(t *testing.T) {
	if TrendingScore(5, 0, 0, -3) != TrendingScore(5, 0, 0, 0) {
		t.Error("negative age should behave like age zero")
	}
}

func TestTrending_RanksByScore(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	cold := createTestContribution(t, db, owner.ID, "cold")
	hot := createTestContribution(t, db, owner.ID, "hot")
	db.Model(hot).Updates(map[string]interface{}{"like_count": 50, "view_count": 500})
	db.Model(cold).Updates(map[string]interface{}{"like_count": 1})

	svc := NewTrendingService(db)
	resp, err := svc.Trending(&TrendingRequest{})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, expected 2", resp.Total)
	}
	if resp.Items[0].Contribution.Title != "hot" {
		t.Errorf("top item = %q, expected hot", resp.Items[0].Contribution.Title)
	}
	if resp.Items[0].Score <= resp.Items[1].Score {
		t.Errorf("scores not descending: %v then %v", resp.Items[0].Score, resp.Items[1].Score)
	}
}

func TestTrending_TopLevelCommentsOnly(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	commenter := createTestUser(t, db, "commenter")

	replied := createTestContribution(t, db, owner.ID, "replied")
	discussed := createTestContribution(t, db, owner.ID, "discussed")

	comments := NewCommentService(db)
	// One top-level comment plus three replies
	top, err := comments.Create(replied.ID, commenter.ID, &CreateCommentRequest{Body: "top"})
	if err != nil {
		t.Fatalf("Create comment failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := comments.Create(replied.ID, owner.ID, &CreateCommentRequest{Body: "reply", ParentID: &top.ID}); err != nil {
			t.Fatalf("Create reply failed: %v", err)
		}
	}
	// Two top-level comments
	comments.Create(discussed.ID, commenter.ID, &CreateCommentRequest{Body: "one"})
	comments.Create(discussed.ID, owner.ID, &CreateCommentRequest{Body: "two"})

	svc := NewTrendingService(db)
	resp, err := svc.Trending(&TrendingRequest{})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if resp.Items[0].Contribution.Title != "discussed" {
		t.Errorf("top item = %q; replies should not count toward the score", resp.Items[0].Contribution.Title)
	}
}

func TestTrending_EqualScoresNewerFirst(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	older := createTestContribution(t, db, owner.ID, "older")
	newer := createTestContribution(t, db, owner.ID, "newer")
	now := time.Now()
	db.Model(older).Update("created_at", now.Add(-time.Minute))
	db.Model(newer).Update("created_at", now)
	// Same engagement, both zero: equal scores
	svc := NewTrendingService(db)
	resp, err := svc.Trending(&TrendingRequest{})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if resp.Items[0].Contribution.Title != "newer" {
		t.Errorf("tie should break toward newer, got %q first", resp.Items[0].Contribution.Title)
	}
}

func TestTrending_ExcludesPrivateAndDrafts(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	createTestContribution(t, db, owner.ID, "visible")
	private := createTestContribution(t, db, owner.ID, "private")
	db.Model(private).Update("is_public", false)
	draft := createTestContribution(t, db, owner.ID, "draft")
	db.Model(draft).Update("status", models.ContributionStatusDraft)

	svc := NewTrendingService(db)
	resp, err := svc.Trending(&TrendingRequest{})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, expected only the public active item", resp.Total)
	}
}

func TestTrending_TypeFilterAndPagination(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	idea := createTestContribution(t, db, owner.ID, "an-idea")
	question := createTestContribution(t, db, owner.ID, "a-question")
	db.Model(question).Update("type", models.ContributionTypeQuestion)
	_ = idea

	svc := NewTrendingService(db)
	resp, err := svc.Trending(&TrendingRequest{Type: models.ContributionTypeQuestion})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Contribution.Title != "a-question" {
		t.Errorf("type filter returned %d items", resp.Total)
	}

	resp, err = svc.Trending(&TrendingRequest{Page: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("page 2 size 1 returned %d items", len(resp.Items))
	}

	resp, err = svc.Trending(&TrendingRequest{Page: 99, PageSize: 10})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("out-of-range page returned %d items", len(resp.Items))
	}
}

func TestTrending_SnapshotRefresh(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	createTestContribution(t, db, owner.ID, "first")

	svc := NewTrendingService(db)
	if err := svc.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// A fresh snapshot serves without recomputation
	createTestContribution(t, db, owner.ID, "second")
	resp, _ := svc.Trending(&TrendingRequest{})
	if resp.Total != 1 {
		t.Errorf("fresh snapshot Total = %d, expected cached 1", resp.Total)
	}

	if err := svc.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	resp, _ = svc.Trending(&TrendingRequest{})
	if resp.Total != 2 {
		t.Errorf("refreshed Total = %d, expected 2", resp.Total)
	}
}
