// Package store persists users, orders and the product references orders
// point at. Records are read and replaced wholesale; no store method merges
// partial documents.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserStore persists user records. Email is unique across users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	Status models.OrderStatus
	Limit  int
	Offset int
}

// OrderStore persists orders. Listings are newest first, carry the buyer's
// id and name only and load products without their photo.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, filter OrderFilter) ([]models.Order, error)
	ListAllOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateOrderStatus returns a nil order and a nil error when no order
	// has the given id.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

// ProductStore records catalog products referenced by orders.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
}

// Store bundles every persistence concern of the service.
type Store interface {
	UserStore
	OrderStore
	ProductStore
}

func prepareOrder(order *models.Order) {
	order.EnsureID()
	if order.Status == "" {
		order.Status = models.OrderStatusNotProcessed
	}
	for i := range order.Items {
		order.Items[i].EnsureID()
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
}
