package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impresiones-magicas/storefront/internal/backend"
	"github.com/impresiones-magicas/storefront/internal/clientstate"
	"github.com/impresiones-magicas/storefront/internal/session"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
	"github.com/impresiones-magicas/storefront/pkg/logger"
	"github.com/rs/zerolog"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

type stubBackend struct {
	responses map[string]string
	failures  map[string]error
	calls     []recordedCall
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (s *stubBackend) record(method, path string, body any) string {
	encoded := ""
	if body != nil {
		raw, _ := json.Marshal(body)
		encoded = string(raw)
	}
	s.calls = append(s.calls, recordedCall{method: method, path: path, body: encoded})
	return method + " " + path
}

func (s *stubBackend) respond(key string, dest any) error {
	if err, ok := s.failures[key]; ok {
		delete(s.failures, key)
		return err
	}
	body, ok := s.responses[key]
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, &backend.StatusError{
			Status:     http.StatusNotFound,
			StatusText: "Not Found",
		}, "backend request failed")
	}
	if dest == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), dest)
}

func (s *stubBackend) Get(_ context.Context, path string, dest any) error {
	return s.respond(s.record(http.MethodGet, path, nil), dest)
}

func (s *stubBackend) Post(_ context.Context, path string, body, dest any) error {
	return s.respond(s.record(http.MethodPost, path, body), dest)
}

func (s *stubBackend) Delete(_ context.Context, path string, dest any) error {
	return s.respond(s.record(http.MethodDelete, path, nil), dest)
}

func (s *stubBackend) callsByMethod(method string) []recordedCall {
	var out []recordedCall
	for _, call := range s.calls {
		if call.method == method {
			out = append(out, call)
		}
	}
	return out
}

type stubSessions struct {
	session session.Session
}

func (s *stubSessions) Current(context.Context, string) (session.Session, error) {
	return s.session, nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "cart-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func cartJSON(id string, items ...Item) string {
	raw, _ := json.Marshal(Cart{ID: id, Items: items})
	return string(raw)
}

func anonymousService(t *testing.T, backendStub *stubBackend) (Service, *clientstate.MemoryStore) {
	t.Helper()
	state := clientstate.NewMemoryStore()
	svc, err := NewService(backendStub, &stubSessions{session: session.Session{State: session.StateAnonymous}}, state, quietLogger())
	require.NoError(t, err)
	return svc, state
}

func TestLoadCreatesAnonymousCartAndPersistsID(t *testing.T) {
	backendStub := newStubBackend()
	backendStub.responses["POST /cart"] = cartJSON("cart-1")
	svc, state := anonymousService(t, backendStub)

	cart, err := svc.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "cart-1", cart.ID)

	persisted, err := state.Get(context.Background(), "sess-1", clientstate.KeyCartID)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", persisted)
}

func TestLoadRecreatesCartWhenPersistedIDIsStale(t *testing.T) {
	backendStub := newStubBackend()
	backendStub.responses["POST /cart"] = cartJSON("cart-2")
	svc, state := anonymousService(t, backendStub)
	require.NoError(t, state.Set(context.Background(), "sess-1", clientstate.KeyCartID, "gone"))

	cart, err := svc.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-2", cart.ID)

	persisted, err := state.Get(context.Background(), "sess-1", clientstate.KeyCartID)
	require.NoError(t, err)
	assert.Equal(t, "cart-2", persisted)
}

func TestLoadAuthenticatedUsesUserCart(t *testing.T) {
	backendStub := newStubBackend()
	backendStub.responses["GET /cart/user"] = cartJSON("cart-u")
	svc, err := NewService(backendStub, &stubSessions{session: session.Session{
		State: session.StateAuthenticated,
		Token: "tok",
		User:  &session.User{ID: "u1"},
	}}, clientstate.NewMemoryStore(), quietLogger())
	require.NoError(t, err)

	cart, err := svc.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-u", cart.ID)
}

func TestAddToCartPostsProductAndQuantity(t *testing.T) {
	backendStub := newStubBackend()
	backendStub.responses["POST /cart"] = cartJSON("cart-1")
	backendStub.responses["POST /cart/cart-1/items"] = cartJSON("cart-1", Item{ID: "i1", Quantity: 2})
	svc, _ := anonymousService(t, backendStub)

	cart, err := svc.AddToCart(context.Background(), "sess-1", "prod-9", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())

	posts := backendStub.callsByMethod(http.MethodPost)
	require.Len(t, posts, 2)
	assert.Equal(t, "/cart/cart-1/items", posts[1].path)
	assert.JSONEq(t, `{"productId":"prod-9","quantity":2}`, posts[1].body)
}

func TestAddToCartRejectsBadInput(t *testing.T) {
	svc, _ := anonymousService(t, newStubBackend())

	_, err := svc.AddToCart(context.Background(), "sess-1", "", 1, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddToCart(context.Background(), "sess-1", "prod-1", 0, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecreaseQuantityOneIssuesSingleDelete(t *testing.T) {
	backendStub := newStubBackend()
	backendStub.responses["GET /cart/cart-1"] = cartJSON("cart-1", Item{ID: "i1", Quantity: 1})
	backendStub.responses["DELETE /cart/cart-1/items/i1"] = cartJSON("cart-1")
	svc, state := anonymousService(t, backendStub)
	require.NoError(t, state.Set(context.Background(), "sess-1", clientstate.KeyCartID, "cart-1"))

	cart, err := svc.DecreaseQuantity(context.Background(), "sess-1", "i1")
	require.NoError(t, err)
	assert.Equal(t, 0, cart.ItemCount())

	assert.Len(t, backendStub.callsByMethod(http.MethodDelete), 1)
	assert.Empty(t, backendStub.callsByMethod(http.MethodPost))
}

func TestDecreaseQuantityThreeDeletesThenReAddsTwo(t *testing.T) {
	backendStub := newStubBackend()
	item := Item{ID: "i1", Quantity: 3}
	item.Product.ID = "prod-9"
	backendStub.responses["GET /cart/cart-1"] = cartJSON("cart-1", item)
	backendStub.responses["DELETE /cart/cart-1/items/i1"] = cartJSON("cart-1")
	reAdded := Item{ID: "i2", Quantity: 2}
	reAdded.Product.ID = "prod-9"
	backendStub.responses["POST /cart/cart-1/items"] = cartJSON("cart-1", reAdded)
	svc, state := anonymousService(t, backendStub)
	require.NoError(t, state.Set(context.Background(), "sess-1", clientstate.KeyCartID, "cart-1"))

	cart, err := svc.DecreaseQuantity(context.Background(), "sess-1", "i1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())

	deletes := backendStub.callsByMethod(http.MethodDelete)
	posts := backendStub.callsByMethod(http.MethodPost)
	require.Len(t, deletes, 1)
	require.Len(t, posts, 1)
	assert.Equal(t, "/cart/cart-1/items/i1", deletes[0].path)
	assert.JSONEq(t, `{"productId":"prod-9","quantity":2}`, posts[0].body)
}

func TestDecreaseQuantityCompensatesFailedReAdd(t *testing.T) {
	backendStub := newStubBackend()
	item := Item{ID: "i1", Quantity: 3}
	item.Product.ID = "prod-9"
	backendStub.responses["GET /cart/cart-1"] = cartJSON("cart-1", item)
	backendStub.responses["DELETE /cart/cart-1/items/i1"] = cartJSON("cart-1")
	backendStub.failures["POST /cart/cart-1/items"] = fmt.Errorf("backend unavailable")
	restored := Item{ID: "i3", Quantity: 3}
	restored.Product.ID = "prod-9"
	backendStub.responses["POST /cart/cart-1/items"] = cartJSON("cart-1", restored)
	svc, state := anonymousService(t, backendStub)
	require.NoError(t, state.Set(context.Background(), "sess-1", clientstate.KeyCartID, "cart-1"))

	_, err := svc.DecreaseQuantity(context.Background(), "sess-1", "i1")
	require.Error(t, err)

	// First POST fails, compensating POST restores the original quantity.
	posts := backendStub.callsByMethod(http.MethodPost)
	require.Len(t, posts, 2)
	assert.JSONEq(t, `{"productId":"prod-9","quantity":2}`, posts[0].body)
	assert.JSONEq(t, `{"productId":"prod-9","quantity":3}`, posts[1].body)
}

func TestRemoveFromCartWithoutCartIsNoOp(t *testing.T) {
	backendStub := newStubBackend()
	svc, _ := anonymousService(t, backendStub)

	cart, err := svc.RemoveFromCart(context.Background(), "sess-1", "i1")
	require.NoError(t, err)
	assert.Nil(t, cart)
	assert.Empty(t, backendStub.calls)
}

func TestItemCountSumsQuantities(t *testing.T) {
	cart := &Cart{Items: []Item{{Quantity: 2}, {Quantity: 5}, {Quantity: 1}}}
	assert.Equal(t, 8, cart.ItemCount())

	var empty *Cart
	assert.Equal(t, 0, empty.ItemCount())
}
