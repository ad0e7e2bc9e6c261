package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"courseshop/internal/domain"
)

type CourseRepo struct{ db sqlx.ExtContext }

func NewCourseRepo(db sqlx.ExtContext) *CourseRepo { return &CourseRepo{db: db} }

const courseCols = `id, title, price, published, COALESCE(created_at,'') AS created_at`

func (r *CourseRepo) CoursesByIDs(ctx context.Context, ids []string) ([]domain.Course, error) {
	out := []domain.Course{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+courseCols+` FROM courses WHERE published = 1 AND id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(query), args...)
	return out, err
}

func (r *CourseRepo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	out := []domain.Course{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+courseCols+` FROM courses WHERE published = 1 ORDER BY title`)
	return out, err
}

// CreateCourse is used by seeding and tests; a nil price makes the course free.
func (r *CourseRepo) CreateCourse(ctx context.Context, id, title string, price *decimal.Decimal, published bool) error {
	var p decimal.NullDecimal
	if price != nil {
		p = decimal.NewNullDecimal(*price)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses(id, title, price, published, created_at)
		VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, id, title, p, published)
	return err
}
