// Order HTTP handlers.
//
//   - POST   /orders                 (create; opens a debt for debt orders)
//   - GET    /orders                 (page, limit/offset)
//   - GET    /orders/all             (whole journal)
//   - GET    /orders/range           (start/end, inclusive)
//   - GET    /orders/{id}
//   - PATCH  /orders/{id}            (partial update)
//   - DELETE /orders/{id}            (undoable delete)
//   - POST   /snapshots/{id}/undo    (restore a deleted order)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/services"
	"github.com/tbourn/service-journal/internal/utils"
)

const (
	maxPageSize = 500
	msgBadJSON  = "Некорректный JSON"
)

// OrderPage is a page of orders with the window that produced it.
type OrderPage struct {
	Orders []domain.Order `json:"orders"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Create an order
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string             false "Replay protection for double submits"
// @Param       body             body    domain.OrderInput  true  "Order"
// @Success     201  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     422  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse "Debt could not be created"
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	var in domain.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}
	o, err := h.orders.SaveOrder(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, o)
}

// ListOrders godoc
// @ID          listOrders
// @Summary     Page through the journal, most recent first
// @Tags        Orders
// @Produce     json
// @Param       limit   query  int  false  "Page size"  minimum(1) maximum(500) default(50)
// @Param       offset  query  int  false  "Skip"       minimum(0) default(0)
// @Success     200  {object}  handlers.OrderPage
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	limit, offset := utils.Window(c.Query("limit"), c.Query("offset"), services.DefaultPageSize, maxPageSize)
	orders, err := h.orders.GetOrders(c.Request.Context(), limit, offset)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, OrderPage{Orders: orders, Limit: limit, Offset: offset})
}

// ListAllOrders godoc
// @ID          listAllOrders
// @Summary     The whole journal
// @Tags        Orders
// @Produce     json
// @Success     200  {array}   domain.Order
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /orders/all [get]
func (h *Handlers) ListAllOrders(c *gin.Context) {
	orders, err := h.orders.GetAllOrders(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}

// OrdersInRange godoc
// @ID          ordersInRange
// @Summary     Orders dated within [start, end]
// @Tags        Orders
// @Produce     json
// @Param       start  query  string  true  "YYYY-MM-DD"
// @Param       end    query  string  true  "YYYY-MM-DD"
// @Success     200  {array}   domain.Order
// @Failure     422  {object}  handlers.ErrorResponse
// @Router      /orders/range [get]
func (h *Handlers) OrdersInRange(c *gin.Context) {
	orders, err := h.orders.SearchByDateRange(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}

// GetOrder godoc
// @ID          getOrder
// @Summary     One order
// @Tags        Orders
// @Produce     json
// @Param       id  path  string  true  "Order id"
// @Success     200  {object}  domain.Order
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	o, err := h.orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// UpdateOrder godoc
// @ID          updateOrder
// @Summary     Partially update an order
// @Description Absent fields keep their value. Changing the pay type to or from debt opens or removes the debt.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       id    path  string             true  "Order id"
// @Param       body  body  domain.OrderPatch  true  "Fields to change"
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     422  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [patch]
func (h *Handlers) UpdateOrder(c *gin.Context) {
	var patch domain.OrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}
	o, err := h.orders.UpdateOrder(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// DeleteOrder godoc
// @ID          deleteOrder
// @Summary     Delete an order, undoable for a limited time
// @Tags        Orders
// @Produce     json
// @Param       id         path   string  true   "Order id"
// @Param       keep_debt  query  bool    false  "Leave the open debt in place"
// @Success     200  {object}  domain.DeleteResult
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [delete]
func (h *Handlers) DeleteOrder(c *gin.Context) {
	keepDebt := utils.BoolDefault(c.Query("keep_debt"), false)
	res, err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id"), !keepDebt)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// UndoDelete godoc
// @ID          undoDelete
// @Summary     Restore a deleted order from its snapshot
// @Tags        Orders
// @Produce     json
// @Param       id  path  string  true  "Snapshot id"
// @Success     200  {object}  domain.UndoResult
// @Failure     404  {object}  handlers.ErrorResponse "Unknown or expired snapshot"
// @Router      /snapshots/{id}/undo [post]
func (h *Handlers) UndoDelete(c *gin.Context) {
	res, err := h.orders.UndoDeleteOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
