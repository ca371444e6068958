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

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	approvals.Use(middleware.RequireRole(model.RoleApprover, model.RoleAdmin))
	{
		approvals.GET("", h.ListApprovals)
		approvals.PUT("/orders/:orderId/decision", h.DecideApproval)
	}
}

// ListApprovals returns approvals, optionally filtered by status
// @Summary      List approvals
// @Description  Returns the approval queue; approvers see their own, admins see all
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "PENDING, APPROVED, or REJECTED"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/approvals [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ApprovalFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	// Approvers only see approvals addressed to them; admins see everything.
	if model.Role(c.GetString("userRole")) == model.RoleApprover {
		filter.ApproverID = c.GetString("userID")
	}

	approvals, total, err := h.approvalService.ListApprovals(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   approvals,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// DecideApproval resolves the caller's pending approval on an order
// @Summary      Decide approval
// @Description  Approves or rejects the caller's pending approval and moves the order out of PENDING_APPROVAL
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        orderId  path      string                     true  "Order ID"
// @Param        payload  body      service.DecideApprovalDTO  true  "Decision payload"
// @Success      200      {object}  response.Response{data=service.ApprovalResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/orders/{orderId}/decision [put]
func (h *ApprovalHandler) DecideApproval(c *gin.Context) {
	var req service.DecideApprovalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	approverID := c.GetString("userID")
	approval, err := h.approvalService.DecideApproval(c.Request.Context(), c.Param("orderId"), approverID, req.Approved, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}
