package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP status codes. Workflow-legality
// violations are client bugs (400), authorization failures are access denials
// (403) — the two are never conflated so clients can react differently.
func respondError(c *gin.Context, err error) {
	var (
		productNotFound   *service.ProductNotFoundError
		orderNotFound     *service.OrderNotFoundError
		approvalNotFound  *service.ApprovalNotFoundError
		illegalTransition *service.IllegalTransitionError
		unauthorized      *service.UnauthorizedTransitionError
		noApprover        *service.NoApproverFoundError
		notPending        *service.OrderNotPendingApprovalError
	)

	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.As(err, &productNotFound),
		errors.As(err, &illegalTransition):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.As(err, &orderNotFound), errors.As(err, &approvalNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.As(err, &noApprover), errors.As(err, &notPending):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
