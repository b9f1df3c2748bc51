package services

import (
	"testing"

	"github.com/contribhub/backend/internal/models"
)

func TestIsOwner(t *testing.T) {
	c := &models.Contribution{OwnerID: 7}

	if !IsOwner(c, 7) {
		t.Error("owner should match")
	}
	if IsOwner(c, 8) {
		t.Error("non-owner should not match")
	}
	if IsOwner(nil, 7) {
		t.Error("nil contribution is never owned")
	}
}

func TestIsActiveCollaborator(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{models.ParticipantStatusAccepted, true},
		{models.ParticipantStatusActive, true},
		{models.ParticipantStatusPending, false},
		{models.ParticipantStatusRejected, false},
		{models.ParticipantStatusLeft, false},
		{models.ParticipantStatusRemoved, false},
	}

	for _, tc := range cases {
		p := &models.Participant{UserID: 3, Status: tc.status}
		if got := IsActiveCollaborator(p, 3); got != tc.want {
			t.Errorf("status %q: IsActiveCollaborator = %v, expected %v", tc.status, got, tc.want)
		}
	}

	if IsActiveCollaborator(nil, 3) {
		t.Error("nil participant is never a collaborator")
	}
	p := &models.Participant{UserID: 3, Status: models.ParticipantStatusAccepted}
	if IsActiveCollaborator(p, 4) {
		t.Error("record for another user should not match")
	}
}

func TestCanSubmitEdit(t *testing.T) {
	c := &models.Contribution{ID: 1, OwnerID: 7}
	member := &models.Participant{ContributionID: 1, UserID: 3, Status: models.ParticipantStatusAccepted}

	if !CanSubmitEdit(c, member, 3) {
		t.Error("active collaborator should be able to submit")
	}
	if CanSubmitEdit(c, nil, 9) {
		t.Error("non-member should not be able to submit")
	}
	// The owner edits directly; the workflow is for everyone else
	ownerRecord := &models.Participant{ContributionID: 1, UserID: 7, Status: models.ParticipantStatusAccepted}
	if CanSubmitEdit(c, ownerRecord, 7) {
		t.Error("owner should not submit through the workflow")
	}
}

func TestCanReview(t *testing.T) {
	c := &models.Contribution{OwnerID: 7}

	if !CanReview(c, 7) {
		t.Error("owner should review")
	}
	if CanReview(c, 3) {
		t.Error("non-owner should not review")
	}
}

func TestParticipantTerminalStates(t *testing.T) {
	terminal := []string{
		models.ParticipantStatusRejected,
		models.ParticipantStatusLeft,
		models.ParticipantStatusRemoved,
	}
	live := []string{
		models.ParticipantStatusPending,
		models.ParticipantStatusAccepted,
		models.ParticipantStatusActive,
	}

	for _, status := range terminal {
		p := models.Participant{Status: status}
		if !p.IsTerminal() {
			t.Errorf("status %q should be terminal", status)
		}
	}
	for _, status := range live {
		p := models.Participant{Status: status}
		if p.IsTerminal() {
			t.Errorf("status %q should not be terminal", status)
		}
	}
}
