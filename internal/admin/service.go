package admin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/impresiones-magicas/storefront/internal/backend"
	"github.com/impresiones-magicas/storefront/internal/catalog"
	"github.com/impresiones-magicas/storefront/internal/session"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type backendClient interface {
	Get(ctx context.Context, path string, dest any) error
	Post(ctx context.Context, path string, body, dest any) error
	Patch(ctx context.Context, path string, body, dest any) error
	Delete(ctx context.Context, path string, dest any) error
}

type sessionReader interface {
	Current(ctx context.Context, sessionID string) (session.Session, error)
}

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Featured    *bool  `json:"featured,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
}

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name       string           `json:"name"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Stock      *int             `json:"stock,omitempty"`
	Featured   *bool            `json:"featured,omitempty"`
	CategoryID string           `json:"categoryId,omitempty"`
}

// AccountUser is a backend account as the admin list shows it.
type AccountUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// UserInput is the writable part of an account.
type UserInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// DashboardStats is the admin landing page's counters.
type DashboardStats struct {
	Users      int `json:"users"`
	Products   int `json:"products"`
	Categories int `json:"categories"`
}

// Service is the admin CRUD surface. Every call verifies the session holds an
// admin role before going to the wire; the backend still enforces its own
// authorization.
type Service interface {
	CreateCategory(ctx context.Context, sessionID string, in CategoryInput) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, sessionID, categoryID string, in CategoryInput) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, sessionID, categoryID string) error
	UploadCategoryImage(ctx context.Context, sessionID, categoryID string, image backend.MultipartFile) (*catalog.Category, error)

	CreateProduct(ctx context.Context, sessionID string, in ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, sessionID, productID string, in ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, sessionID, productID string) error
	UploadProductImages(ctx context.Context, sessionID, productID string, images []backend.MultipartFile) (*catalog.Product, error)

	ListUsers(ctx context.Context, sessionID string) ([]AccountUser, error)
	UpdateUser(ctx context.Context, sessionID, userID string, in UserInput) (*AccountUser, error)
	DeleteUser(ctx context.Context, sessionID, userID string) error

	Stats(ctx context.Context, sessionID string) (*DashboardStats, error)
}

type service struct {
	client   backendClient
	sessions sessionReader
}

// NewService builds the admin service.
func NewService(client backendClient, sessions sessionReader) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session reader required")
	}
	return &service{client: client, sessions: sessions}, nil
}

func (s *service) requireAdmin(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	if !sess.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func (s *service) CreateCategory(ctx context.Context, sessionID string, in CategoryInput) (*catalog.Category, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	var created catalog.Category
	if err := s.client.Post(ctx, "/categories", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) UpdateCategory(ctx context.Context, sessionID, categoryID string, in CategoryInput) (*catalog.Category, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	var updated catalog.Category
	if err := s.client.Patch(ctx, "/categories/"+url.PathEscape(categoryID), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) DeleteCategory(ctx context.Context, sessionID, categoryID string) error {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(categoryID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	return s.client.Delete(ctx, "/categories/"+url.PathEscape(categoryID), nil)
}

// UploadCategoryImage sends the single image under form field "file".
func (s *service) UploadCategoryImage(ctx context.Context, sessionID, categoryID string, image backend.MultipartFile) (*catalog.Category, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if len(image.Content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMedia, "image file is empty")
	}
	body := &backend.MultipartBody{Field: "file", Files: []backend.MultipartFile{image}}
	var updated catalog.Category
	if err := s.client.Post(ctx, "/categories/"+url.PathEscape(categoryID)+"/image", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) CreateProduct(ctx context.Context, sessionID string, in ProductInput) (*catalog.Product, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	var created catalog.Product
	if err := s.client.Post(ctx, "/products", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) UpdateProduct(ctx context.Context, sessionID, productID string, in ProductInput) (*catalog.Product, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	var updated catalog.Product
	if err := s.client.Patch(ctx, "/products/"+url.PathEscape(productID), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, sessionID, productID string) error {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.client.Delete(ctx, "/products/"+url.PathEscape(productID), nil)
}

// UploadProductImages sends every image under form field "files".
func (s *service) UploadProductImages(ctx context.Context, sessionID, productID string, images []backend.MultipartFile) (*catalog.Product, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if len(images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	for _, img := range images {
		if len(img.Content) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeMedia, "image file is empty")
		}
	}
	body := &backend.MultipartBody{Field: "files", Files: images}
	var updated catalog.Product
	if err := s.client.Post(ctx, "/products/"+url.PathEscape(productID)+"/images", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) ListUsers(ctx context.Context, sessionID string) ([]AccountUser, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	var users []AccountUser
	if err := s.client.Get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *service) UpdateUser(ctx context.Context, sessionID, userID string, in UserInput) (*AccountUser, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var updated AccountUser
	if err := s.client.Patch(ctx, "/users/"+url.PathEscape(userID), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) DeleteUser(ctx context.Context, sessionID, userID string) error {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.client.Delete(ctx, "/users/"+url.PathEscape(userID), nil)
}

func (s *service) Stats(ctx context.Context, sessionID string) (*DashboardStats, error) {
	if err := s.requireAdmin(ctx, sessionID); err != nil {
		return nil, err
	}
	var stats DashboardStats
	if err := s.client.Get(ctx, "/stats/dashboard", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
