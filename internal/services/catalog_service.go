package services

import (
	"context"

	"courseshop/internal/domain"
)

// CatalogService is the read side of the course catalog.
type CatalogService struct {
	Store Gateway
}

func NewCatalogService(store Gateway) *CatalogService {
	return &CatalogService{Store: store}
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	var out []domain.Course
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListCourses(ctx)
		return err
	})
	return out, storageErr("list courses", err)
}

func (s *CatalogService) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	var out domain.Course
	err := s.Store.InTx(ctx, func(tx Tx) error {
		cs, err := tx.CoursesByIDs(ctx, []string{id})
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			return ErrNotFound
		}
		out = cs[0]
		return nil
	})
	return out, storageErr("get course", err)
}
