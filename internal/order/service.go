package order

import (
	"context"
	"errors"
	"time"

	"maillot-be/internal/logger"
	"maillot-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher receives every persisted order. Dispatch must return
// immediately; delivery outcome never reaches the caller.
type Dispatcher interface {
	Dispatch(o Order)
}

type Service interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	GetOrders(ctx context.Context) ([]*Order, error)
	MarkPaid(ctx context.Context, id string, payment PaymentResult) (*Order, error)
	MarkDelivered(ctx context.Context, id string) (*Order, error)
	SetStatus(ctx context.Context, id string, status Status) (*Order, error)
}

type service struct {
	repo       Repository
	dispatcher Dispatcher
	now        func() time.Time
}

func NewService(repo Repository, dispatcher Dispatcher) Service {
	return &service{
		repo:       repo,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)

	if err := Validate(in); err != nil {
		log.Info("order rejected", zap.Error(err))
		return nil, err
	}

	now := s.now()
	items := make([]OrderItem, len(in.OrderItems))
	copy(items, in.OrderItems)

	// prices are stored as submitted
	o := &Order{
		ID:              uuid.NewString(),
		CustomerDetails: *in.CustomerDetails,
		OrderItems:      items,
		ItemsPrice:      in.ItemsPrice,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      in.TotalPrice,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.Float64("total_price", o.TotalPrice),
	)

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(*o)
	}

	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetOrders(ctx context.Context) ([]*Order, error) {
	return s.repo.List(ctx)
}

func (s *service) MarkPaid(ctx context.Context, id string, payment PaymentResult) (*Order, error) {
	return s.transition(ctx, id, Command{
		Transition: TransitionMarkPaid,
		Payment:    &payment,
	})
}

func (s *service) MarkDelivered(ctx context.Context, id string) (*Order, error) {
	return s.transition(ctx, id, Command{Transition: TransitionMarkDelivered})
}

func (s *service) SetStatus(ctx context.Context, id string, status Status) (*Order, error) {
	return s.transition(ctx, id, Command{
		Transition: TransitionSetStatus,
		Status:     status,
	})
}

// transition loads, applies and persists one lifecycle command.
func (s *service) transition(ctx context.Context, id string, cmd Command) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", string(cmd.Transition)),
		zap.String("order_id", id),
		zap.String("actor", utils.GetUserEmailFromContext(ctx)),
	)

	o, err := s.GetOrderByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("failed to load order", zap.Error(err))
		}
		return nil, err
	}

	cmd.At = s.now()
	if err := Apply(o, cmd); err != nil {
		log.Info("transition rejected", zap.Error(err))
		return nil, err
	}

	if err := s.repo.UpdateLifecycle(ctx, o); err != nil {
		log.Error("failed to persist transition", zap.Error(err))
		return nil, err
	}

	log.Info("order updated",
		zap.String("status", string(o.Status)),
		zap.Bool("is_paid", o.IsPaid),
		zap.Bool("is_delivered", o.IsDelivered),
	)
	return o, nil
}
