package models

import (
	"fmt"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusNotProcessed OrderStatus = "Not Processed"
	OrderStatusProcessing   OrderStatus = "Processing"
	OrderStatusShipped      OrderStatus = "Shipped"
	OrderStatusDelivered    OrderStatus = "Delivered"
	OrderStatusCancelled    OrderStatus = "Cancelled"
)

// OrderStatuses lists every allowed status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusNotProcessed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if !status.Valid() {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return status, nil
}

// Payment is the opaque result reported by the payment gateway at checkout.
type Payment struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Message   string `json:"message,omitempty"`
}

// Order is a purchase placed by a buyer.
type Order struct {
	BaseModel
	BuyerID uuid.UUID   `gorm:"type:uuid;index;not null" json:"buyer_id"`
	Buyer   *User       `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Items   []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"products"`
	Payment Payment     `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Status  OrderStatus `gorm:"type:varchar(20);not null;default:'Not Processed';check:status IN ('Not Processed','Processing','Shipped','Delivered','Cancelled')" json:"status"`
}

// OrderItem keeps one product reference of an order. Position preserves the
// order in which products were added, duplicates included.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Position  int       `gorm:"not null" json:"position"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}
