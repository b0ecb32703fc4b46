package sessions

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Session{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	user := models.User{
		Names:    "Session User",
		Email:    "session@test.dev",
		Password: "hashed",
		Role:     models.RoleFreelancer,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateOrRefreshKeepsOneRowPerUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	user := seedUser(t, db)
	ctx := context.Background()

	if err := svc.CreateOrRefresh(ctx, user.ID, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := svc.CreateOrRefresh(ctx, user.ID, time.Hour); err != nil {
		t.Fatalf("second create: %v", err)
	}

	var count int64
	db.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single session row, got %d", count)
	}

	var sess models.Session
	if err := db.First(&sess, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !sess.IsActive {
		t.Fatal("refreshed session should be active")
	}
}

func TestInvalidateRevokesUntilNextLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	user := seedUser(t, db)
	ctx := context.Background()

	if err := svc.CreateOrRefresh(ctx, user.ID, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if svc.IsRevoked(ctx, user.ID.String()) {
		t.Fatal("fresh session must not be revoked")
	}

	if err := svc.Invalidate(ctx, user.ID, time.Hour); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if !svc.IsRevoked(ctx, user.ID.String()) {
		t.Fatal("logged-out session must be revoked")
	}

	// logging back in lifts the revocation
	if err := svc.CreateOrRefresh(ctx, user.ID, time.Hour); err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if svc.IsRevoked(ctx, user.ID.String()) {
		t.Fatal("re-login must clear the revocation")
	}
}

func TestExpiredSessionIsRevoked(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	user := seedUser(t, db)
	ctx := context.Background()

	if err := svc.CreateOrRefresh(ctx, user.ID, -time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !svc.IsRevoked(ctx, user.ID.String()) {
		t.Fatal("expired session must count as revoked")
	}
}

func TestUnknownUserIsNotRevoked(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	user := seedUser(t, db)

	if svc.IsRevoked(context.Background(), user.ID.String()) {
		t.Fatal("user without a session row must not be revoked")
	}
}
