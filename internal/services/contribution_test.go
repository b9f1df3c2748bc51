package services

import (
	"testing"

	"github.com/contribhub/backend/internal/models"
)

func TestCreateContribution(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	svc := NewContributionService(db)
	c, err := svc.Create(owner.ID, &CreateContributionRequest{
		Type:    models.ContributionTypeIdea,
		Title:   "A better widget",
		Content: models.ContentDoc{"problem": "widgets are bad"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.Status != models.ContributionStatusDraft {
		t.Errorf("Status = %q, expected draft", c.Status)
	}
	if c.ShareToken == "" {
		t.Error("ShareToken should be generated")
	}
	if !c.IsPublic || !c.AllowCollaboration {
		t.Error("visibility defaults should be open")
	}

	// Share tokens are unique per contribution
	c2, err := svc.Create(owner.ID, &CreateContributionRequest{
		Type:  models.ContributionTypeIdea,
		Title: "Another widget",
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if c.ShareToken == c2.ShareToken {
		t.Error("share tokens should differ")
	}
}

func TestCreateContribution_Validation(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	svc := NewContributionService(db)

	if _, err := svc.Create(owner.ID, &CreateContributionRequest{Type: "essay", Title: "x"}); !IsConflict(err) {
		t.Errorf("unknown type: expected ConflictError, got %v", err)
	}
	if _, err := svc.Create(owner.ID, &CreateContributionRequest{Type: models.ContributionTypeIdea, Title: "   "}); !IsConflict(err) {
		t.Errorf("blank title: expected ConflictError, got %v", err)
	}
}

func TestUpdateContribution_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	c := createTestContribution(t, db, owner.ID, "idea-one")

	svc := NewContributionService(db)

	title := "Renamed"
	_, err := svc.Update(c.ID, other.ID, &UpdateContributionRequest{Title: &title})
	if !IsAuthorization(err) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	updated, err := svc.Update(c.ID, owner.ID, &UpdateContributionRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Title = %q", updated.Title)
	}
}

func TestGetByID_PrivateVisibility(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	member := createTestUser(t, db, "member")
	stranger := createTestUser(t, db, "stranger")
	c := createTestContribution(t, db, owner.ID, "idea-one")
	acceptedMember(t, db, c, member)
	db.Model(c).Update("is_public", false)

	svc := NewContributionService(db)

	if _, err := svc.GetByID(c.ID, owner.ID); err != nil {
		t.Errorf("owner should see their private contribution: %v", err)
	}
	if _, err := svc.GetByID(c.ID, member.ID); err != nil {
		t.Errorf("active member should see it: %v", err)
	}
	if _, err := svc.GetByID(c.ID, stranger.ID); !IsNotFound(err) {
		t.Errorf("stranger should get NotFound, got %v", err)
	}
}

func TestGetByShareToken(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	c := createTestContribution(t, db, owner.ID, "idea-one")

	svc := NewContributionService(db)

	found, err := svc.GetByShareToken(c.ShareToken)
	if err != nil {
		t.Fatalf("GetByShareToken failed: %v", err)
	}
	if found.ID != c.ID {
		t.Errorf("resolved ID = %d, expected %d", found.ID, c.ID)
	}

	if _, err := svc.GetByShareToken("no-such-token"); !IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRecordView(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	c := createTestContribution(t, db, owner.ID, "idea-one")

	svc := NewContributionService(db)
	for i := 0; i < 3; i++ {
		if err := svc.RecordView(c.ID); err != nil {
			t.Fatalf("RecordView failed: %v", err)
		}
	}

	var reloaded models.Contribution
	db.First(&reloaded, c.ID)
	if reloaded.ViewCount != 3 {
		t.Errorf("ViewCount = %d, expected 3", reloaded.ViewCount)
	}

	if err := svc.RecordView(9999); !IsNotFound(err) {
		t.Errorf("expected NotFound for missing contribution, got %v", err)
	}
}

func TestLikeUnlike(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	fan := createTestUser(t, db, "fan")
	c := createTestContribution(t, db, owner.ID, "idea-one")

	svc := NewContributionService(db)

	if err := svc.Like(c.ID, fan.ID); err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	// Once per user
	if err := svc.Like(c.ID, fan.ID); !IsConflict(err) {
		t.Fatalf("second like: expected ConflictError, got %v", err)
	}

	var reloaded models.Contribution
	db.First(&reloaded, c.ID)
	if reloaded.LikeCount != 1 {
		t.Errorf("LikeCount = %d, expected 1", reloaded.LikeCount)
	}

	if err := svc.Unlike(c.ID, fan.ID); err != nil {
		t.Fatalf("Unlike failed: %v", err)
	}
	if err := svc.Unlike(c.ID, fan.ID); !IsConflict(err) {
		t.Fatalf("second unlike: expected ConflictError, got %v", err)
	}

	db.First(&reloaded, c.ID)
	if reloaded.LikeCount != 0 {
		t.Errorf("LikeCount = %d after unlike, expected 0", reloaded.LikeCount)
	}

	// Unlike rolled back the counter; a fresh like works again
	if err := svc.Like(c.ID, fan.ID); err != nil {
		t.Fatalf("re-like failed: %v", err)
	}
}

func TestContributionList_Filters(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	createTestContribution(t, db, owner.ID, "public idea")
	private := createTestContribution(t, db, owner.ID, "private idea")
	db.Model(private).Update("is_public", false)
	question := createTestContribution(t, db, owner.ID, "a question")
	db.Model(question).Update("type", models.ContributionTypeQuestion)

	svc := NewContributionService(db)

	resp, err := svc.List(&ContributionListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("public Total = %d, expected 2", resp.Total)
	}

	resp, _ = svc.List(&ContributionListRequest{Type: models.ContributionTypeQuestion})
	if resp.Total != 1 {
		t.Errorf("question Total = %d, expected 1", resp.Total)
	}

	resp, _ = svc.List(&ContributionListRequest{Keyword: "question"})
	if resp.Total != 1 {
		t.Errorf("keyword Total = %d, expected 1", resp.Total)
	}

	// Owner listing includes private items
	own, err := svc.ListOwn(owner.ID, &ContributionListRequest{})
	if err != nil {
		t.Fatalf("ListOwn failed: %v", err)
	}
	if own.Total != 3 {
		t.Errorf("ListOwn Total = %d, expected 3", own.Total)
	}
}

func TestDeleteContribution(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	c := createTestContribution(t, db, owner.ID, "idea-one")

	svc := NewContributionService(db)

	if err := svc.Delete(c.ID, other.ID); !IsAuthorization(err) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if err := svc.Delete(c.ID, owner.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.GetByID(c.ID, owner.ID); !IsNotFound(err) {
		t.Errorf("deleted contribution should be NotFound, got %v", err)
	}
}
