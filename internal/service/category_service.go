package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/repository"
)

// CategoryService manages the category catalogue events are filed under.
type CategoryService struct {
	categories CategoryStore
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, name string) (model.Category, error) {
	c := model.Category{Name: strings.TrimSpace(name)}
	if c.Name == "" {
		return model.Category{}, lifecycle.Validation(lifecycle.ReasonInvalidField, "name", "name must not be blank")
	}
	if err := s.categories.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Category{}, lifecycle.Conflict(lifecycle.ReasonNameTaken, 0, "category name already exists")
		}
		return model.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) Rename(ctx context.Context, id uint64, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, lifecycle.Validation(lifecycle.ReasonInvalidField, "name", "name must not be blank")
	}
	if err := s.categories.Rename(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Category{}, lifecycle.Conflict(lifecycle.ReasonNameTaken, id, "category name already exists")
		}
		return model.Category{}, storeErr(err, "category", id)
	}
	return model.Category{ID: id, Name: name}, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint64) (model.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return model.Category{}, storeErr(err, "category", id)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, from, size int) ([]model.Category, error) {
	return s.categories.List(ctx, from, size)
}
