package orchestrators

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/application/projections"
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// nowFrom returns f() in UTC, or the wall clock when f is nil.
func nowFrom(f func() time.Time) time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// invalidate drops cached dashboard snapshots after a write. Failures only
// delay freshness until the TTL expires, so they are logged and ignored.
func invalidate(ctx context.Context, c cache.Cache, franchiseID string, log *zap.Logger) {
	if c == nil {
		return
	}
	if err := projections.InvalidateDashboard(ctx, c, franchiseID); err != nil {
		log.Warn("dashboard_invalidate_failed", zap.String("franchise_id", franchiseID), zap.Error(err))
	}
}

// memberFranchise returns the franchise of memberID, or "" when members is
// nil or the member cannot be loaded.
func memberFranchise(ctx context.Context, members CheckInMemberStore, memberID string) string {
	if members == nil || memberID == "" {
		return ""
	}
	m, err := members.GetByID(ctx, memberID)
	if err != nil {
		return ""
	}
	return m.FranchiseID
}
