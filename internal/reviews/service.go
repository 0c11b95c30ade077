package reviews

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
)

type backendClient interface {
	Get(ctx context.Context, path string, dest any) error
	Post(ctx context.Context, path string, body, dest any) error
	Patch(ctx context.Context, path string, body, dest any) error
	Delete(ctx context.Context, path string, dest any) error
}

// Review is one customer's rating of a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	User      Author    `json:"user"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Author is the snapshot of who wrote the review.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// ProductStats is the backend's aggregate for one product.
type ProductStats struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// Input is the writable part of a review.
type Input struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

const minCommentLength = 3

func (in Input) validate() error {
	if strings.TrimSpace(in.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if len(strings.TrimSpace(in.Comment)) < minCommentLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "comment must be at least 3 characters")
	}
	return nil
}

// Service is the review surface. Validation here only keeps garbage off the
// wire; the backend owns ownership and permission checks.
type Service interface {
	ListForProduct(ctx context.Context, productID string) ([]Review, error)
	Stats(ctx context.Context, productID string) (*ProductStats, error)
	Create(ctx context.Context, in Input) (*Review, error)
	Update(ctx context.Context, reviewID string, in Input) (*Review, error)
	Delete(ctx context.Context, reviewID string, confirmed bool) error
}

type service struct {
	client backendClient
}

// NewService builds the review service.
func NewService(client backendClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &service{client: client}, nil
}

func (s *service) ListForProduct(ctx context.Context, productID string) ([]Review, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var list []Review
	if err := s.client.Get(ctx, "/reviews/product/"+url.PathEscape(productID), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) Stats(ctx context.Context, productID string) (*ProductStats, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var stats ProductStats
	if err := s.client.Get(ctx, "/reviews/stats/"+url.PathEscape(productID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *service) Create(ctx context.Context, in Input) (*Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var created Review
	if err := s.client.Post(ctx, "/reviews", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) Update(ctx context.Context, reviewID string, in Input) (*Review, error) {
	if strings.TrimSpace(reviewID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated Review
	if err := s.client.Patch(ctx, "/reviews/"+url.PathEscape(reviewID), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete refuses to call the backend until the caller has confirmed. The
// confirmation is the storefront's own guard on the destructive call.
func (s *service) Delete(ctx context.Context, reviewID string, confirmed bool) error {
	if strings.TrimSpace(reviewID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	if !confirmed {
		return pkgerrors.New(pkgerrors.CodeValidation, "deletion must be confirmed")
	}
	return s.client.Delete(ctx, "/reviews/"+url.PathEscape(reviewID), nil)
}

// CanModify reports whether edit and delete affordances should be shown for
// the given viewer. Rendering hint only, never a permission check.
func CanModify(viewerID string, review Review) bool {
	return viewerID != "" && viewerID == review.User.ID
}
