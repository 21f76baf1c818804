package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelarm/shopyard-backend/api/middleware"
	"github.com/avelarm/shopyard-backend/api/responses"
	"github.com/avelarm/shopyard-backend/api/validators"
	cartsvc "github.com/avelarm/shopyard-backend/internal/cart"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/logger"
)

// CartFetch returns the visitor's cart without creating one.
func CartFetch(svc cartsvc.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.GetCart(r.Context(), visitorFromRequest(r, tokens))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(res.Snapshot))
	}
}

// CartAddItem merges quantity into the cart, creating cart and cookie on
// first use.
func CartAddItem(svc cartsvc.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.AddItem(r.Context(), visitorFromRequest(r, tokens), payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueToken(w, tokens, res)
		responses.WriteSuccess(w, newCartResponse(res.Snapshot))
	}
}

// CartUpdateItem replaces a line's quantity wholesale.
func CartUpdateItem(svc cartsvc.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.UpdateItemQuantity(r.Context(), visitorFromRequest(r, tokens), productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueToken(w, tokens, res)
		responses.WriteSuccess(w, newCartResponse(res.Snapshot))
	}
}

// CartRemoveItem deletes one line from the cart.
func CartRemoveItem(svc cartsvc.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.RemoveItem(r.Context(), visitorFromRequest(r, tokens), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueToken(w, tokens, res)
		responses.WriteSuccess(w, newCartResponse(res.Snapshot))
	}
}

// CartClear empties the cart while keeping the identity cookie valid.
func CartClear(svc cartsvc.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ClearCart(r.Context(), visitorFromRequest(r, tokens))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueToken(w, tokens, res)
		responses.WriteSuccess(w, newCartResponse(res.Snapshot))
	}
}

func visitorFromRequest(r *http.Request, tokens *cartsvc.TokenManager) cartsvc.Visitor {
	token, ok := tokens.Read(r)
	meta := middleware.ClientMetaFromContext(r.Context())
	return cartsvc.Visitor{
		Token:     token,
		HasToken:  ok,
		ClientIP:  meta.IP,
		UserAgent: meta.UserAgent,
	}
}

// issueToken writes the identity cookie only when the service reports a
// freshly committed cart.
func issueToken(w http.ResponseWriter, tokens *cartsvc.TokenManager, res *cartsvc.Resolution) {
	if res.IssuedToken == nil {
		return
	}
	tokens.Issue(w, *res.IssuedToken)
}

func productIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "productID")
	productID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return productID, nil
}
