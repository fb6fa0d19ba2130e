package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maillot-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, opts ListOptions) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, input Input) (*Product, error)
	Update(ctx context.Context, id string, input Input) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func validateInput(input Input) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidProduct)
	case input.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case input.CountInStock < 0:
		return fmt.Errorf("%w: countInStock must not be negative", ErrInvalidProduct)
	}
	return nil
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListProducts"),
	)

	start := time.Now()
	products, err := s.repo.List(ctx, opts)
	if err != nil {
		log.Error("failed to fetch product list",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}

	log.Debug("get product list success",
		zap.Int("count", len(products)),
		zap.String("category", opts.Category),
		zap.Duration("duration", time.Since(start)),
	)
	return products, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input Input) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
	)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Product{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Price:        input.Price,
		Images:       input.Images,
		Category:     input.Category,
		CountInStock: input.CountInStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.String("product_id", p.ID))
	return p, nil
}

func (s *service) Update(ctx context.Context, id string, input Input) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProduct"),
		zap.String("product_id", id),
	)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(input.Name)
	p.Description = input.Description
	p.Price = input.Price
	p.Category = input.Category
	p.CountInStock = input.CountInStock
	if input.Images != nil {
		p.Images = input.Images
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			log.Error("failed to update product", zap.Error(err))
		}
		return nil, err
	}

	log.Info("product updated")
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrProductNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			logger.FromCtx(ctx).Error("failed to delete product",
				zap.String("product_id", id),
				zap.Error(err),
			)
		}
		return err
	}
	return nil
}
