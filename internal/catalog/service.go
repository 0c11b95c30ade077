package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
)

type backendClient interface {
	Get(ctx context.Context, path string, dest any) error
}

// Service reads the catalog through the backend. All listings are
// backend-authoritative; nothing is cached locally.
type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	FeaturedProducts(ctx context.Context) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error)
}

type service struct {
	client backendClient
}

// NewService builds the catalog reader.
func NewService(client backendClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &service{client: client}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.client.Get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	if err := s.client.Get(ctx, "/products/"+url.PathEscape(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *service) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return s.ListProducts(ctx)
	}
	var products []Product
	path := "/products?search=" + url.QueryEscape(trimmed)
	if err := s.client.Get(ctx, path, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) FeaturedProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.client.Get(ctx, "/products?featured=true", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.client.Get(ctx, "/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *service) GetCategory(ctx context.Context, id string) (*Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	var category Category
	if err := s.client.Get(ctx, "/categories/"+url.PathEscape(id), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *service) ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	var products []Product
	path := "/products?categoryId=" + url.QueryEscape(categoryID)
	if err := s.client.Get(ctx, path, &products); err != nil {
		return nil, err
	}
	return products, nil
}
