package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/shopverse/checkout/internal/domain/checkout"
)

type evaluateCouponRequest struct {
	Code       string          `json:"code"`
	UserID     string          `json:"user_id"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

// EvaluateCoupon quotes a coupon against a prospective order total. The
// answer is advisory: eligibility is re-checked when the order commits.
func (h *Handler) EvaluateCoupon(w http.ResponseWriter, r *http.Request) {
	var req evaluateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := h.checkout.Evaluate(r.Context(), req.Code, req.UserID, req.OrderTotal)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrMissingUser),
			errors.Is(err, checkout.ErrMissingCode),
			errors.Is(err, checkout.ErrNegativeAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternalError(w, r, errors.Wrap(err, "evaluate coupon"))
		}
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("eligible", func(e *jx.Encoder) { e.Bool(ev.Eligible) })
		if !ev.Eligible {
			e.Field("reason", func(e *jx.Encoder) { e.Str(ev.Reason) })
		}
		e.Field("discount_amount", func(e *jx.Encoder) { encodeDecimal(e, ev.DiscountAmount) })
		e.Field("final_total", func(e *jx.Encoder) { encodeDecimal(e, ev.FinalTotal) })
	})
	writeJSON(w, http.StatusOK, &e)
}
