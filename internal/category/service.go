package category

import (
	"context"
	"strings"
)

type Service interface {
	List(ctx context.Context, filter string) ([]Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter string) ([]Category, error) {
	return s.repo.List(ctx, strings.TrimSpace(filter))
}
