package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/validators"
	"github.com/google/uuid"
)

// API is the slice of the commerce client order history needs.
type API interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*commerceapi.Order, error)
	ListOrders(ctx context.Context) ([]commerceapi.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*commerceapi.CancelResult, error)
	RequestReturn(ctx context.Context, orderID uuid.UUID, orderItemID int64, reason string) (*commerceapi.ReturnRequest, error)
	CreateReview(ctx context.Context, req commerceapi.ReviewRequest) (*commerceapi.Review, error)
}

// Service exposes post-purchase order operations. Eligibility (cancel window,
// return window, one review per item) is decided by the server.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*commerceapi.Order, error)
	List(ctx context.Context) ([]commerceapi.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*commerceapi.CancelResult, error)
	RequestReturn(ctx context.Context, input ReturnInput) (*commerceapi.ReturnRequest, error)
	Review(ctx context.Context, input ReviewInput) (*commerceapi.Review, error)
}

// ReturnInput raises a return for one purchased item.
type ReturnInput struct {
	OrderID     uuid.UUID `json:"order"`
	OrderItemID int64     `json:"order_item" validate:"required,min=1"`
	Reason      string    `json:"reason" validate:"required,max=1000"`
}

// ReviewInput reviews one purchased item.
type ReviewInput struct {
	OrderItemID int64  `json:"order_item" validate:"required,min=1"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Title       string `json:"title" validate:"required,max=200"`
	Comment     string `json:"comment" validate:"max=5000"`
}

type service struct {
	api  API
	logg *logger.Logger
}

// NewService builds the order service.
func NewService(api API, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("orders api required")
	}
	return &service{api: api, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*commerceapi.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.api.GetOrder(ctx, id)
}

func (s *service) List(ctx context.Context) ([]commerceapi.Order, error) {
	return s.api.ListOrders(ctx)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*commerceapi.CancelResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ctx = s.logg.WithOrderID(ctx, id.String())
	res, err := s.api.CancelOrder(ctx, id)
	if err != nil {
		s.logg.Debug(s.logg.WithField(ctx, "error", err.Error()), "order cancel rejected")
		return nil, err
	}
	s.logg.Info(ctx, "order cancelled")
	return res, nil
}

func (s *service) RequestReturn(ctx context.Context, input ReturnInput) (*commerceapi.ReturnRequest, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.api.RequestReturn(ctx, input.OrderID, input.OrderItemID, input.Reason)
}

func (s *service) Review(ctx context.Context, input ReviewInput) (*commerceapi.Review, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return s.api.CreateReview(ctx, commerceapi.ReviewRequest{
		OrderItemID: input.OrderItemID,
		Rating:      input.Rating,
		Title:       input.Title,
		Comment:     input.Comment,
	})
}
