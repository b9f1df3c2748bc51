package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/contribhub/backend/internal/models"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory database with the full schema.
// Each call gets its own named shared-cache DSN so gorm's connection pool
// sees one database while tests stay independent of each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Contribution{},
		&models.Comment{},
		&models.Like{},
		&models.Participant{},
		&models.EditRequest{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Nickname: username,
		Role:     "user",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

func createTestContribution(t *testing.T, db *gorm.DB, ownerID uint, title string) *models.Contribution {
	t.Helper()
	contribution := models.Contribution{
		OwnerID:            ownerID,
		Type:               models.ContributionTypeIdea,
		Title:              title,
		Content:            models.ContentDoc{"problem": "initial problem", "solution": "initial solution"},
		IsPublic:           true,
		AllowCollaboration: true,
		Status:             models.ContributionStatusActive,
		ShareToken:         fmt.Sprintf("token-%d-%s", ownerID, title),
	}
	if err := db.Create(&contribution).Error; err != nil {
		t.Fatalf("failed to create contribution %s: %v", title, err)
	}
	return &contribution
}

// acceptedMember runs a user through the join workflow to active membership.
func acceptedMember(t *testing.T, db *gorm.DB, contribution *models.Contribution, user *models.User) *models.Participant {
	t.Helper()
	svc := NewParticipantService(db, NewNotificationService(db))
	p, err := svc.RequestJoin(contribution.ID, user.ID, "I want to help")
	if err != nil {
		t.Fatalf("failed to request join: %v", err)
	}
	p, err = svc.Decide(p.ID, contribution.OwnerID, models.ParticipantStatusAccepted, "welcome")
	if err != nil {
		t.Fatalf("failed to accept join: %v", err)
	}
	return p
}

// countNotifications returns how many notifications of the given type a
// recipient has.
func countNotifications(t *testing.T, db *gorm.DB, recipientID uint, notificationType string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", recipientID, notificationType).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	return count
}
