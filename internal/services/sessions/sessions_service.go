package sessions

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taskbid/taskbid-api/internal/models"
)

// Service tracks the single active session per user. The session row is the
// source of truth; Redis carries a revocation key so a logged-out bearer token
// stops working on every instance without a DB lookup per request.
type Service struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, RDB: rdb}
}

func revokedKey(userID string) string {
	return "sessions:revoked:" + userID
}

// CreateOrRefresh upserts the user's session row and clears any standing
// revocation, so logging back in after a logout works immediately.
func (s *Service) CreateOrRefresh(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	sess := models.Session{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
		IsActive:  true,
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"expires_at": sess.ExpiresAt,
			"is_active":  true,
			"updated_at": time.Now(),
		}),
	}).Create(&sess).Error
	if err != nil {
		return err
	}

	if s.RDB != nil {
		if err := s.RDB.Del(ctx, revokedKey(userID.String())).Err(); err != nil {
			log.Printf("sessions: failed to clear revocation for %s: %v", userID, err)
		}
	}
	return nil
}

// Invalidate deactivates the session and marks the user's tokens revoked for
// the remaining token lifetime.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if err := s.DB.Model(&models.Session{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error; err != nil {
		return err
	}

	if s.RDB != nil {
		if err := s.RDB.Set(ctx, revokedKey(userID.String()), "1", ttl).Err(); err != nil {
			log.Printf("sessions: failed to write revocation for %s: %v", userID, err)
		}
	}
	return nil
}

// IsRevoked is checked by the JWT middleware on every authenticated request.
// Redis answers on the fast path; without Redis the session row decides.
func (s *Service) IsRevoked(ctx context.Context, userID string) bool {
	if s.RDB != nil {
		if n, err := s.RDB.Exists(ctx, revokedKey(userID)).Result(); err == nil {
			return n > 0
		}
	}

	var sess models.Session
	if err := s.DB.Where("user_id = ?", userID).First(&sess).Error; err != nil {
		// no session row: token was issued but never invalidated
		return false
	}
	return !sess.IsActive || time.Now().After(sess.ExpiresAt)
}
