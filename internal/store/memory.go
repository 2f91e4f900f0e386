package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
)

// MemoryStore is an in-process Store used for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	users    map[uuid.UUID]models.User
	emails   map[string]uuid.UUID
	products map[uuid.UUID]models.Product
	orders   map[uuid.UUID]memoryOrder
	now      func() time.Time
}

type memoryOrder struct {
	order models.Order
	seq   int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]models.User),
		emails:   make(map[string]uuid.UUID),
		products: make(map[uuid.UUID]models.Product),
		orders:   make(map[uuid.UUID]memoryOrder),
		now:      time.Now,
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return ErrDuplicateEmail
	}

	user.EnsureID()
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.users[user.ID]
	if owner, taken := s.emails[user.Email]; taken && owner != user.ID {
		return ErrDuplicateEmail
	}
	if exists {
		delete(s.emails, previous.Email)
		user.CreatedAt = previous.CreatedAt
	} else {
		user.EnsureID()
		user.CreatedAt = s.now()
	}
	user.UpdatedAt = s.now()
	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.EnsureID()
	now := s.now()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = *product
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	prepareOrder(order)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	order.CreatedAt, order.UpdatedAt = now, now
	stored := *order
	stored.Buyer = nil
	stored.Items = make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.CreatedAt, item.UpdatedAt = now, now
		item.Product = nil
		stored.Items[i] = item
	}

	s.seq++
	s.orders[order.ID] = memoryOrder{order: stored, seq: s.seq}
	return nil
}

func (s *MemoryStore) ListOrdersByBuyer(_ context.Context, buyerID uuid.UUID, filter OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listOrders(func(o models.Order) bool { return o.BuyerID == buyerID }, filter), nil
}

func (s *MemoryStore) ListAllOrders(_ context.Context, filter OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listOrders(func(models.Order) bool { return true }, filter), nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	entry.order.Status = status
	entry.order.UpdatedAt = s.now()
	s.orders[id] = entry

	order := s.populate(entry.order)
	return &order, nil
}

func (s *MemoryStore) listOrders(match func(models.Order) bool, filter OrderFilter) []models.Order {
	entries := make([]memoryOrder, 0, len(s.orders))
	for _, entry := range s.orders {
		if !match(entry.order) {
			continue
		}
		if filter.Status != "" && entry.order.Status != filter.Status {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})

	if filter.Limit > 0 {
		if filter.Offset >= len(entries) {
			entries = nil
		} else {
			end := filter.Offset + filter.Limit
			if end > len(entries) {
				end = len(entries)
			}
			entries = entries[filter.Offset:end]
		}
	}

	orders := make([]models.Order, 0, len(entries))
	for _, entry := range entries {
		orders = append(orders, s.populate(entry.order))
	}
	return orders
}

// populate returns a copy of order with the buyer's id and name and the
// referenced products, minus their photo, attached.
func (s *MemoryStore) populate(order models.Order) models.Order {
	if buyer, ok := s.users[order.BuyerID]; ok {
		order.Buyer = &models.User{BaseModel: models.BaseModel{ID: buyer.ID}, Name: buyer.Name}
	}

	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		if product, ok := s.products[item.ProductID]; ok {
			product.Photo = nil
			product.PhotoContentType = ""
			item.Product = &product
		}
		items[i] = item
	}
	order.Items = items
	return order
}
