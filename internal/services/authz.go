package services

import "github.com/contribhub/backend/internal/models"

// Authorization predicates shared by the participant and edit request
// workflows. All of them operate on entity snapshots loaded by the caller;
// none performs I/O, so the workflows stay testable against in-memory
// fixtures.

// IsOwner reports whether userID owns the contribution.
func IsOwner(contribution *models.Contribution, userID uint) bool {
	return contribution != nil && contribution.OwnerID == userID
}

// IsActiveCollaborator reports whether the participant snapshot represents a
// live membership (accepted or active) for userID.
func IsActiveCollaborator(participant *models.Participant, userID uint) bool {
	return participant != nil && participant.UserID == userID && participant.IsActiveMember()
}

// CanSubmitEdit reports whether userID may propose a content edit: an active
// collaborator who is not the owner. Owners edit directly.
func CanSubmitEdit(contribution *models.Contribution, participant *models.Participant, userID uint) bool {
	return IsActiveCollaborator(participant, userID) && !IsOwner(contribution, userID)
}

// CanReview reports whether userID may approve or reject edit requests and
// join requests for the contribution.
func CanReview(contribution *models.Contribution, userID uint) bool {
	return IsOwner(contribution, userID)
}
