package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductDTO struct {
	SKU              string `json:"sku" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	UnitPrice        string `json:"unit_price" binding:"required"`
	RequiresApproval bool   `json:"requires_approval"`
	ResponsibleRole  string `json:"responsible_role"`
}

type UpdateProductDTO struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	UnitPrice        string `json:"unit_price"`
	RequiresApproval *bool  `json:"requires_approval"`
	ResponsibleRole  string `json:"responsible_role"`
}

type ProductResponse struct {
	ID               string `json:"id"`
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Category         string `json:"category,omitempty"`
	UnitPrice        string `json:"unit_price"`
	RequiresApproval bool   `json:"requires_approval"`
	ResponsibleRole  string `json:"responsible_role"`
	CreatedAt        string `json:"created_at"`
}

// --- Interface ---

type ProductService interface {
	CreateProduct(ctx context.Context, actorID string, req CreateProductDTO) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, actorID, id string, req UpdateProductDTO) (*ProductResponse, error)
	DeactivateProduct(ctx context.Context, actorID, id string) error
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, search, category string) ([]ProductResponse, int64, error)
}

type productService struct {
	products repository.ProductRepository
	audits   repository.AuditRepository
	txm      repository.TransactionManager
}

func NewProductService(products repository.ProductRepository, audits repository.AuditRepository, txm repository.TransactionManager) ProductService {
	return &productService{products: products, audits: audits, txm: txm}
}

// --- Implementation ---

func (s *productService) CreateProduct(ctx context.Context, actorID string, req CreateProductDTO) (*ProductResponse, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid unit price: %w", err)
	}

	role := model.RoleITSupport
	if req.ResponsibleRole != "" {
		role = model.Role(req.ResponsibleRole)
		if role != model.RoleITSupport && role != model.RoleEmpfang {
			return nil, errors.New("responsible_role must be IT_SUPPORT or EMPFANG")
		}
	}

	if _, err := s.products.FindBySKU(ctx, req.SKU); err == nil {
		return nil, fmt.Errorf("product with SKU %q already exists", req.SKU)
	}

	product := &model.Product{
		SKU:              req.SKU,
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		UnitPrice:        price,
		RequiresApproval: req.RequiresApproval,
		ResponsibleRole:  role,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.products.Create(txCtx, product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}
		return s.logProductAction(txCtx, actorID, model.ActionCreateProduct, product)
	})
	if err != nil {
		return nil, err
	}

	return toProductResponse(product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, actorID, id string, req UpdateProductDTO) (*ProductResponse, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.products.FindByID(ctx, pid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ProductNotFoundError{ProductIDs: []string{id}}
	}
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.UnitPrice != "" {
		price, parseErr := decimal.NewFromString(req.UnitPrice)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid unit price: %w", parseErr)
		}
		product.UnitPrice = price
	}
	if req.RequiresApproval != nil {
		product.RequiresApproval = *req.RequiresApproval
	}
	if req.ResponsibleRole != "" {
		role := model.Role(req.ResponsibleRole)
		if role != model.RoleITSupport && role != model.RoleEmpfang {
			return nil, errors.New("responsible_role must be IT_SUPPORT or EMPFANG")
		}
		product.ResponsibleRole = role
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.products.Update(txCtx, product); updateErr != nil {
			return fmt.Errorf("failed to update product: %w", updateErr)
		}
		return s.logProductAction(txCtx, actorID, model.ActionUpdateProduct, product)
	})
	if err != nil {
		return nil, err
	}

	return toProductResponse(product), nil
}

func (s *productService) DeactivateProduct(ctx context.Context, actorID, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.products.FindByID(ctx, pid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ProductNotFoundError{ProductIDs: []string{id}}
	}
	if err != nil {
		return err
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.products.Deactivate(txCtx, pid); delErr != nil {
			return fmt.Errorf("failed to deactivate product: %w", delErr)
		}
		return s.logProductAction(txCtx, actorID, model.ActionDeleteProduct, product)
	})
}

func (s *productService) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.products.FindByID(ctx, pid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ProductNotFoundError{ProductIDs: []string{id}}
	}
	if err != nil {
		return nil, err
	}

	return toProductResponse(product), nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search, category string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.products.List(ctx, page, limit, search, category)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, *toProductResponse(&products[i]))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *productService) logProductAction(ctx context.Context, actorID, action string, product *model.Product) error {
	var userID *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		userID = &parsed
	}
	return s.audits.Log(ctx, &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   product.ID.String(),
		EntityName: product.SKU,
	})
}

func toProductResponse(p *model.Product) *ProductResponse {
	return &ProductResponse{
		ID:               p.ID.String(),
		SKU:              p.SKU,
		Name:             p.Name,
		Description:      p.Description,
		Category:         p.Category,
		UnitPrice:        p.UnitPrice.StringFixed(2),
		RequiresApproval: p.RequiresApproval,
		ResponsibleRole:  string(p.ResponsibleRole),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}
