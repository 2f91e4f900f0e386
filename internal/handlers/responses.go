package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
)

type userResponse struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	Address string      `json:"address"`
	Role    models.Role `json:"role"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Phone:   user.Phone,
		Address: user.Address,
		Role:    user.Role,
	}
}

type buyerResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Shipping    bool      `json:"shipping"`
}

type orderResponse struct {
	ID        uuid.UUID          `json:"id"`
	Products  []productResponse  `json:"products"`
	Payment   models.Payment     `json:"payment"`
	Buyer     *buyerResponse     `json:"buyer"`
	Status    models.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:        order.ID,
		Products:  make([]productResponse, 0, len(order.Items)),
		Payment:   order.Payment,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}

	if order.Buyer != nil {
		resp.Buyer = &buyerResponse{ID: order.Buyer.ID, Name: order.Buyer.Name}
	}

	for _, item := range order.Items {
		product := productResponse{ID: item.ProductID}
		if item.Product != nil {
			product.Name = item.Product.Name
			product.Slug = item.Product.Slug
			product.Description = item.Product.Description
			product.Price = item.Product.Price
			product.Quantity = item.Product.Quantity
			product.Shipping = item.Product.Shipping
		}
		resp.Products = append(resp.Products, product)
	}

	return resp
}

func newOrderResponses(orders []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}
