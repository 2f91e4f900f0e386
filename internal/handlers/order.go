package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

const notifyTimeout = 10 * time.Second

// OrderNotifier is told about status changes made by admins.
type OrderNotifier interface {
	NotifyOrderStatusChanged(ctx context.Context, n services.OrderStatusNotification) error
}

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders   store.OrderStore
	notifier OrderNotifier
	log      zerolog.Logger
}

// NewOrderHandler constructs OrderHandler. notifier may be nil.
func NewOrderHandler(orders store.OrderStore, notifier OrderNotifier, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, notifier: notifier, log: log}
}

// ListOrders returns the orders of the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}

	orders, err := h.orders.ListOrdersByBuyer(c.UserContext(), userID, filter)
	if err != nil {
		middleware.RequestLogger(c, h.log).Error().Err(err).Msg("listing buyer orders failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error while getting orders")
	}

	return c.JSON(newOrderResponses(orders))
}

// ListAllOrders returns every order, newest first. Admin only.
func (h *OrderHandler) ListAllOrders(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	if pg.Enabled {
		filter.Limit = pg.Limit
		filter.Offset = pg.Offset
	}

	orders, err := h.orders.ListAllOrders(c.UserContext(), filter)
	if err != nil {
		middleware.RequestLogger(c, h.log).Error().Err(err).Msg("listing all orders failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error while getting orders")
	}

	return c.JSON(newOrderResponses(orders))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus sets an order's status. Admin only. Any status may
// follow any other; an unknown order id yields a null body.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.orders.UpdateOrderStatus(c.UserContext(), orderID, status)
	if err != nil {
		middleware.RequestLogger(c, h.log).Error().Err(err).
			Str("order_id", orderID.String()).
			Msg("updating order status failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error while updating order")
	}
	if order == nil {
		middleware.RequestLogger(c, h.log).Warn().
			Str("order_id", orderID.String()).
			Msg("status update for unknown order")
		return c.JSON(nil)
	}

	log := middleware.RequestLogger(c, h.log)
	log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("order status updated")

	if h.notifier != nil {
		go h.notify(*log, h.statusNotification(c, order))
	}

	return c.JSON(newOrderResponse(order))
}

func (h *OrderHandler) statusNotification(c *fiber.Ctx, order *models.Order) services.OrderStatusNotification {
	n := services.OrderStatusNotification{
		OrderID:   order.ID.String(),
		Status:    string(order.Status),
		ItemCount: len(order.Items),
	}
	if order.Buyer != nil {
		n.BuyerName = order.Buyer.Name
	}
	if admin, ok := middleware.GetCurrentUser(c); ok {
		n.ChangedBy = admin.Name
	}
	return n
}

func (h *OrderHandler) notify(log zerolog.Logger, n services.OrderStatusNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := h.notifier.NotifyOrderStatusChanged(ctx, n); err != nil {
		log.Warn().Err(err).Str("order_id", n.OrderID).Msg("order status notification failed")
	}
}

func parseOrderFilter(c *fiber.Ctx) (store.OrderFilter, error) {
	var filter store.OrderFilter
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter.Status = status
	}
	return filter, nil
}
