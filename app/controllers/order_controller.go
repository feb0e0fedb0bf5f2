package controllers

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type orderCreated struct {
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Store handles POST /orders. Only the bearer header authenticates here,
// and it is checked before the body is read.
func (c *OrderController) Store(cx *ctx.Context) {
	caller, err := c.orders.Authenticate(cx.Header("Authorization"))
	if err != nil {
		cx.Fail(err, "Error creating order")
		return
	}

	var in services.CreateOrderInput
	if err := cx.Bind(&in); err != nil {
		cx.Fail(err, "Error creating order")
		return
	}

	order, err := c.orders.Create(cx.Context(), caller, in)
	if err != nil {
		cx.Fail(err, "Error creating order")
		return
	}

	cx.Log().Info("order created", "order_id", order.ID.Hex(), "total", order.TotalPrice)
	cx.Created(orderCreated{Message: "Order created successfully", Order: order})
}

// Index handles GET /orders.
func (c *OrderController) Index(cx *ctx.Context) {
	orders, err := c.orders.List(cx.Context(), cx.Token())
	if err != nil {
		cx.Fail(err, "Error fetching orders")
		return
	}
	cx.OK(orders)
}

// Show handles GET /orders/{id}.
func (c *OrderController) Show(cx *ctx.Context) {
	order, err := c.orders.Get(cx.Context(), cx.Token(), cx.Param("id"))
	if err != nil {
		cx.Fail(err, "Error fetching order")
		return
	}
	cx.OK(order)
}
