package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"courseshop/internal/domain"
	"courseshop/internal/services"
)

type EntitlementRepo struct{ db sqlx.ExtContext }

func NewEntitlementRepo(db sqlx.ExtContext) *EntitlementRepo { return &EntitlementRepo{db: db} }

func (r *EntitlementRepo) OwnedCourseIDs(ctx context.Context, userID string, courseIDs []string) ([]string, error) {
	out := []string{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT course_id FROM entitlements
		WHERE user_id = ? AND course_id IN (?)
	`, userID, courseIDs)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(query), args...)
	return out, err
}

// InsertEntitlement relies on UNIQUE(user_id, course_id); a conflict comes
// back as services.ErrDuplicate and leaves the transaction usable.
func (r *EntitlementRepo) InsertEntitlement(ctx context.Context, e *domain.Entitlement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entitlements(id, user_id, course_id, created_at)
		VALUES(?, ?, ?, ?)
	`, e.ID, e.UserID, e.CourseID, e.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: entitlement %s/%s", services.ErrDuplicate, e.UserID, e.CourseID)
	}
	return err
}

func (r *EntitlementRepo) EntitlementsByUser(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	out := []domain.Entitlement{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id, user_id, course_id, created_at
		FROM entitlements
		WHERE user_id = ?
		ORDER BY course_id
	`, userID)
	return out, err
}

// CountEntitlements is the number of rows for one (user, course) pair.
func (r *EntitlementRepo) CountEntitlements(ctx context.Context, userID, courseID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM entitlements WHERE user_id = ? AND course_id = ?`, userID, courseID)
	return n, err
}
