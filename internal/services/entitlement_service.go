package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courseshop/internal/domain"
	"courseshop/internal/metrics"
)

// EntitlementGranter makes sure a user holds an entitlement for each course.
// Grants are idempotent; the storage unique constraint on (user, course)
// absorbs concurrent duplicates.
type EntitlementGranter struct {
	Store   Gateway
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewEntitlementGranter(store Gateway, log *zap.Logger, m *metrics.Metrics) *EntitlementGranter {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntitlementGranter{Store: store, Log: log, Metrics: m, Now: time.Now}
}

// Grant runs GrantTx in its own transaction.
func (g *EntitlementGranter) Grant(ctx context.Context, userID string, courseIDs []string) (int, error) {
	var n int
	err := g.Store.InTx(ctx, func(tx Tx) error {
		var err error
		n, err = g.GrantTx(ctx, tx, userID, courseIDs)
		return err
	})
	if err != nil {
		return 0, storageErr("grant", err)
	}
	return n, nil
}

// GrantTx inserts the missing entitlements inside the caller's transaction
// and reports how many rows were created.
func (g *EntitlementGranter) GrantTx(ctx context.Context, tx Tx, userID string, courseIDs []string) (int, error) {
	ids := uniqueIDs(courseIDs)
	if userID == "" || len(ids) == 0 {
		return 0, nil
	}
	owned, err := tx.OwnedCourseIDs(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		have[id] = struct{}{}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	inserted := 0
	for _, id := range ids {
		if _, ok := have[id]; ok {
			continue
		}
		err := tx.InsertEntitlement(ctx, &domain.Entitlement{
			ID:        uuid.NewString(),
			UserID:    userID,
			CourseID:  id,
			CreatedAt: now().UTC(),
		})
		if errors.Is(err, ErrDuplicate) {
			// lost a race with another grant; the row exists, which is all we need
			g.logger().Debug("entitlement already present", zap.String("user_id", userID), zap.String("course_id", id))
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	g.Metrics.EntitlementsGranted(inserted)
	return inserted, nil
}

// ListForUser returns the courses a user can access.
func (g *EntitlementGranter) ListForUser(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	var out []domain.Entitlement
	err := g.Store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.EntitlementsByUser(ctx, userID)
		return err
	})
	return out, storageErr("list entitlements", err)
}

func (g *EntitlementGranter) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

// uniqueIDs trims, drops blanks and de-duplicates while keeping order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
