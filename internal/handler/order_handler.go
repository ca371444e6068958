package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireAuth(), h.CreateOrder)
		orders.GET("", middleware.RequireAuth(), h.ListOrders)
		orders.GET("/:id", middleware.RequireAuth(), h.GetOrder)
		orders.PATCH("/:id/status",
			middleware.RequireRole(model.RoleITSupport, model.RoleEmpfang, model.RoleApprover, model.RoleAdmin),
			h.TransitionStatus)
		orders.POST("/:id/comments", middleware.RequireAuth(), h.AddComment)
	}
}

// CreateOrder submits a new procurement order for the authenticated requester
// @Summary      Create order
// @Description  Creates a procurement order; moves it to PENDING_APPROVAL when any item or a special request requires it
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderDTO  true  "Order payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	requesterID := c.GetString("userID")
	order, err := h.orderService.CreateOrder(c.Request.Context(), requesterID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// TransitionStatus moves an order to a new lifecycle status
// @Summary      Transition order status
// @Description  Applies a status transition; validates the edge against the status graph and the caller's role
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Order ID"
// @Param        payload  body      service.TransitionStatusDTO  true  "Target status and optional note"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	var req service.TransitionStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	target := model.OrderStatus(req.TargetStatus)
	if !target.IsValid() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unknown target status: "+req.TargetStatus))
		return
	}

	actorRole := model.Role(c.GetString("userRole"))
	actorID := c.GetString("userID")

	order, err := h.orderService.TransitionStatus(c.Request.Context(), c.Param("id"), target, actorRole, actorID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetOrder returns one order with items, approvals, history, and comments
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListOrders returns paginated orders, filterable by status and requester
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        status     query     string  false  "Filter by status"
// @Param        requester  query     string  false  "Filter by requester ID"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.OrderFilter{
		Status:      c.Query("status"),
		RequesterID: c.Query("requester"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	// Requesters only ever see their own orders.
	if model.Role(c.GetString("userRole")) == model.RoleRequester {
		filter.RequesterID = c.GetString("userID")
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// AddComment attaches a free-text comment to an order
// @Summary      Add order comment
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Order ID"
// @Param        payload  body      object  true  "Comment payload"
// @Success      201      {object}  response.Response{data=service.CommentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/comments [post]
func (h *OrderHandler) AddComment(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	comment, err := h.orderService.AddComment(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, comment))
}
