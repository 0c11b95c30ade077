package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/impresiones-magicas/storefront/internal/backend"
	"github.com/impresiones-magicas/storefront/internal/clientstate"
	"github.com/impresiones-magicas/storefront/internal/customize"
	"github.com/impresiones-magicas/storefront/internal/session"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

type backendClient interface {
	Get(ctx context.Context, path string, dest any) error
	Post(ctx context.Context, path string, body, dest any) error
	Delete(ctx context.Context, path string, dest any) error
}

type sessionReader interface {
	Current(ctx context.Context, sessionID string) (session.Session, error)
}

// Service mediates every cart mutation through the backend and hands back the
// server's authoritative cart. Exactly one cart is active per browser
// session: the user's server-bound cart when authenticated, otherwise an
// anonymous cart whose id is persisted in client state.
type Service interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	AddToCart(ctx context.Context, sessionID, productID string, quantity int, customization *customize.Customization) (*Cart, error)
	RemoveFromCart(ctx context.Context, sessionID, itemID string) (*Cart, error)
	DecreaseQuantity(ctx context.Context, sessionID, itemID string) (*Cart, error)
}

type service struct {
	client   backendClient
	sessions sessionReader
	state    clientstate.Store
	logg     *logger.Logger
}

// NewService builds the cart store.
func NewService(client backendClient, sessions sessionReader, state clientstate.Store, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if state == nil {
		return nil, fmt.Errorf("client state store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, sessions: sessions, state: state, logg: logg}, nil
}

type addItemRequest struct {
	ProductID     string                   `json:"productId"`
	Quantity      int                      `json:"quantity"`
	Customization *customize.Customization `json:"customization,omitempty"`
}

// Load resolves the active cart. Authenticated sessions always resolve to the
// user's server-bound cart; the backend owns merging any anonymous contents
// at login, the storefront never merges locally.
func (s *service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.IsAuthenticated() {
		var cart Cart
		if err := s.client.Get(ctx, "/cart/user", &cart); err != nil {
			return nil, err
		}
		return &cart, nil
	}
	return s.loadAnonymous(ctx, sessionID)
}

func (s *service) loadAnonymous(ctx context.Context, sessionID string) (*Cart, error) {
	cartID, err := s.state.Get(ctx, sessionID, clientstate.KeyCartID)
	if err != nil && !errors.Is(err, clientstate.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read persisted cart id")
	}

	if cartID != "" {
		var cart Cart
		err := s.client.Get(ctx, "/cart/"+url.PathEscape(cartID), &cart)
		if err == nil {
			return &cart, nil
		}
		// A stale persisted id just means the backend dropped the cart;
		// fall through and create a fresh one.
		if backend.StatusCode(err) != http.StatusNotFound {
			return nil, err
		}
		s.logg.Warn(s.logg.WithCartID(ctx, cartID), "persisted anonymous cart gone, recreating")
	}

	var cart Cart
	if err := s.client.Post(ctx, "/cart", map[string]any{}, &cart); err != nil {
		return nil, err
	}
	if err := s.state.Set(ctx, sessionID, clientstate.KeyCartID, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist anonymous cart id")
	}
	return &cart, nil
}

// AddToCart lazily loads a cart, then asks the backend to add the item. Stock
// and item-merge decisions are the backend's; whatever it answers replaces
// the mirror.
func (s *service) AddToCart(ctx context.Context, sessionID, productID string, quantity int, customization *customize.Customization) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if customization != nil {
		if err := customization.Validate(); err != nil {
			return nil, err
		}
	}

	cart, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.addItem(ctx, cart.ID, addItemRequest{
		ProductID:     productID,
		Quantity:      quantity,
		Customization: customization,
	})
}

func (s *service) addItem(ctx context.Context, cartID string, req addItemRequest) (*Cart, error) {
	var updated Cart
	path := "/cart/" + url.PathEscape(cartID) + "/items"
	if err := s.client.Post(ctx, path, req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveFromCart deletes a line. Without a loaded cart it is a safe no-op.
func (s *service) RemoveFromCart(ctx context.Context, sessionID, itemID string) (*Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	cart, err := s.currentCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, nil
	}
	return s.removeItem(ctx, cart.ID, itemID)
}

func (s *service) removeItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	var updated Cart
	path := "/cart/" + url.PathEscape(cartID) + "/items/" + url.PathEscape(itemID)
	if err := s.client.Delete(ctx, path, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DecreaseQuantity steps a line down by one. The backend accepts no negative
// delta, so quantities above one are delete-then-re-add; a failed re-add gets
// one compensating re-add at the original quantity before the error surfaces.
func (s *service) DecreaseQuantity(ctx context.Context, sessionID, itemID string) (*Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	cart, err := s.currentCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}

	item := cart.FindItem(itemID)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	// Quantity one means the line disappears entirely: exactly one delete.
	if item.Quantity <= 1 {
		return s.removeItem(ctx, cart.ID, itemID)
	}

	snapshot := *item
	if _, err := s.removeItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}

	updated, err := s.addItem(ctx, cart.ID, addItemRequest{
		ProductID:     snapshot.Product.ID,
		Quantity:      snapshot.Quantity - 1,
		Customization: snapshot.Customization,
	})
	if err == nil {
		return updated, nil
	}

	// The remove landed but the re-add did not: try once to restore the
	// original line so the item is not silently lost.
	compCtx := s.logg.WithFields(ctx, map[string]any{
		"cart_id": cart.ID,
		"item_id": itemID,
	})
	s.logg.Error(compCtx, "decrease re-add failed, compensating", err)
	if _, compErr := s.addItem(ctx, cart.ID, addItemRequest{
		ProductID:     snapshot.Product.ID,
		Quantity:      snapshot.Quantity,
		Customization: snapshot.Customization,
	}); compErr != nil {
		s.logg.Error(compCtx, "compensating re-add failed, item lost", compErr)
	}
	return nil, err
}

// currentCart resolves the active cart without creating one: nil means no
// cart exists yet for this session.
func (s *service) currentCart(ctx context.Context, sessionID string) (*Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.IsAuthenticated() {
		var cart Cart
		if err := s.client.Get(ctx, "/cart/user", &cart); err != nil {
			return nil, err
		}
		return &cart, nil
	}

	cartID, err := s.state.Get(ctx, sessionID, clientstate.KeyCartID)
	if errors.Is(err, clientstate.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read persisted cart id")
	}

	var cart Cart
	if err := s.client.Get(ctx, "/cart/"+url.PathEscape(cartID), &cart); err != nil {
		if backend.StatusCode(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}
