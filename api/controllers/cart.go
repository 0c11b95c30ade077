package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/impresiones-magicas/storefront/api/responses"
	"github.com/impresiones-magicas/storefront/api/validators"
	"github.com/impresiones-magicas/storefront/internal/cart"
	"github.com/impresiones-magicas/storefront/internal/customize"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

type cartResponse struct {
	Cart      *cart.Cart `json:"cart"`
	ItemCount int        `json:"itemCount"`
	Subtotal  string     `json:"subtotal"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	return cartResponse{
		Cart:      c,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal().StringFixed(2),
	}
}

func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loaded, err := svc.Load(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(loaded))
	}
}

type addItemRequest struct {
	ProductID     string                   `json:"productId" validate:"required"`
	Quantity      int                      `json:"quantity" validate:"required,min=1"`
	Customization *customize.Customization `json:"customization,omitempty"`
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddToCart(r.Context(), sessionID, payload.ProductID, payload.Quantity, payload.Customization)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(updated))
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RemoveFromCart(r.Context(), sessionID, chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if updated == nil {
			responses.WriteSuccess(w, cartResponse{ItemCount: 0, Subtotal: "0.00"})
			return
		}
		responses.WriteSuccess(w, toCartResponse(updated))
	}
}

func CartDecreaseItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.DecreaseQuantity(r.Context(), sessionID, chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(updated))
	}
}
