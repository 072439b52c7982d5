package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/opunath26/idea-arena-server/database"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.MigrateTables(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: email, Role: role, CreatedAt: fixedNow}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedCandidate(t *testing.T, db *gorm.DB, email string, status models.CandidateStatus) *models.Candidate {
	t.Helper()
	c := &models.Candidate{
		Name:        "Cand " + email,
		Email:       email,
		ContestType: "design",
		Status:      status,
		WorkStatus:  models.WorkAvailable,
		CreatedAt:   fixedNow,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return c
}

func newContestService(db *gorm.DB) (*ContestService, *TrackingService) {
	tracking := NewTrackingService(db)
	tracking.now = func() time.Time { return fixedNow }
	svc := NewContestService(db, tracking)
	svc.now = func() time.Time { return fixedNow }
	return svc, tracking
}

func createContest(t *testing.T, svc *ContestService, title string, fee float64) *models.Contest {
	t.Helper()
	c := &models.Contest{
		CreatorEmail: "creator@example.com",
		Title:        title,
		ContestType:  "design",
		CreationFee:  fee,
		PrizeMoney:   100,
	}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("create contest: %v", err)
	}
	return c
}

func reloadContest(t *testing.T, db *gorm.DB, id string) models.Contest {
	t.Helper()
	var c models.Contest
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		t.Fatalf("reload contest: %v", err)
	}
	return c
}

func reloadCandidate(t *testing.T, db *gorm.DB, id string) models.Candidate {
	t.Helper()
	var c models.Candidate
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		t.Fatalf("reload candidate: %v", err)
	}
	return c
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}
