package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/shopverse/checkout/internal/domain/checkout"
	"github.com/shopverse/checkout/internal/domain/order"
)

type placeOrderRequest struct {
	UserID     string       `json:"user_id"`
	CouponCode string       `json:"couponCode"`
	Items      []order.Item `json:"items"`
}

// PlaceOrder prices the requested items, applies an optional coupon, and
// persists the order. Rejections map to 422, a coupon exhausted by a
// concurrent redemption to 409.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), checkout.PlaceOrderRequest{
		UserID:     req.UserID,
		Items:      req.Items,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		h.writePlaceOrderError(w, r, err)
		return
	}

	receipt := result.Receipt
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(receipt.OrderID) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, receipt.Subtotal) })
		e.Field("discount", func(e *jx.Encoder) { encodeDecimal(e, receipt.DiscountAmount) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, receipt.FinalTotal) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range req.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Str(item.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
					})
				}
			})
		})
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range result.Products {
					encodeProduct(e, p)
				}
			})
		})
	})
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) writePlaceOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rejected    *checkout.RejectedError
		notFound    *checkout.ProductNotFoundError
		badQuantity *checkout.InvalidQuantityError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyItems),
		errors.Is(err, checkout.ErrMissingUser),
		errors.Is(err, checkout.ErrNegativeAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &badQuantity), errors.As(err, &notFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, rejected.Reason)
	case errors.Is(err, checkout.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeInternalError(w, r, errors.Wrap(err, "place order"))
	}
}
