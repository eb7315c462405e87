package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopverse/checkout/internal/domain/coupon"
	"github.com/shopverse/checkout/internal/domain/ledger"
	"github.com/shopverse/checkout/internal/domain/order"
)

// Service orchestrates coupon application. Evaluate is optimistic and
// side-effect free; Commit is authoritative and atomic.
type Service struct {
	rules   coupon.Repository // evaluate path, may be cache-backed
	coupons coupon.Repository // commit path, always hits storage
	entries ledger.Repository
	store   Store
	now     func() time.Time

	tracer      trace.Tracer
	redemptions metric.Int64Counter
	conflicts   metric.Int64Counter
}

// NewService creates a checkout Service. rules serves the read-only evaluate
// path and may be wrapped in a cache; coupons serves the commit path and must
// read storage directly.
func NewService(
	rules coupon.Repository,
	coupons coupon.Repository,
	entries ledger.Repository,
	store Store,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	meter := mp.Meter("checkout")

	redemptions, err := meter.Int64Counter("coupon.redemptions")
	if err != nil {
		return nil, errors.Wrap(err, "create redemptions counter")
	}
	conflicts, err := meter.Int64Counter("coupon.commit_conflicts")
	if err != nil {
		return nil, errors.Wrap(err, "create conflicts counter")
	}

	return &Service{
		rules:       rules,
		coupons:     coupons,
		entries:     entries,
		store:       store,
		now:         time.Now,
		tracer:      tp.Tracer("checkout"),
		redemptions: redemptions,
		conflicts:   conflicts,
	}, nil
}

// Evaluate answers whether a coupon code is usable by a user for a
// prospective order total and what the discount would be. The ledger is read
// for counts but never written, so calling Evaluate any number of times has
// no effect on future evaluations.
func (s *Service) Evaluate(ctx context.Context, code, userID string, orderTotal decimal.Decimal) (*Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Evaluate")
	defer span.End()

	if err := validateInput(code, userID, orderTotal); err != nil {
		return nil, err
	}

	c, counts, err := s.load(ctx, s.rules, code, userID)
	if err != nil {
		if reason, ok := rejectionReason(err); ok {
			return &Evaluation{Eligible: false, Reason: reason, FinalTotal: orderTotal}, nil
		}
		return nil, err
	}

	if err := eligible(c, counts, orderTotal, s.now()); err != nil {
		reason, ok := rejectionReason(err)
		if !ok {
			return nil, err
		}
		return &Evaluation{Eligible: false, Reason: reason, FinalTotal: orderTotal}, nil
	}

	discount, err := coupon.Discount(c, orderTotal)
	if err != nil {
		return nil, errors.Wrap(err, "calculate discount")
	}

	return &Evaluation{
		Eligible:       true,
		DiscountAmount: discount,
		FinalTotal:     orderTotal.Sub(discount),
	}, nil
}

// Commit finalizes an order. Without a coupon code it persists the order
// as-is. With one it validates optimistically, prices the discount, and asks
// the store to write the order and the ledger entry atomically; the store
// re-checks the usage limits under lock, and a limit newly exhausted there
// surfaces as ErrConflict. A failed commit leaves no partial state and may be
// resubmitted as a whole, starting from validation.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Commit")
	defer span.End()

	if req.UserID == "" {
		return nil, ErrMissingUser
	}
	if req.OrderTotal.IsNegative() {
		return nil, ErrNegativeAmount
	}

	now := s.now()
	o := &order.Order{
		ID:         req.OrderID,
		UserID:     req.UserID,
		Items:      req.Items,
		Subtotal:   req.OrderTotal.Round(2),
		Discount:   decimal.Zero,
		Total:      req.OrderTotal.Round(2),
		CouponCode: req.CouponCode,
		CreatedAt:  now,
	}
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	if req.CouponCode == "" {
		if err := s.store.CreateOrder(ctx, o); err != nil {
			return nil, errors.Wrap(err, "create order")
		}
		return receipt(o), nil
	}

	c, counts, err := s.load(ctx, s.coupons, req.CouponCode, req.UserID)
	if err != nil {
		return nil, asRejection(err)
	}
	if err := eligible(c, counts, req.OrderTotal, now); err != nil {
		return nil, asRejection(err)
	}

	discount, err := coupon.Discount(c, req.OrderTotal)
	if err != nil {
		return nil, errors.Wrap(err, "calculate discount")
	}

	o.Discount = discount
	o.Total = o.Subtotal.Sub(discount)
	if o.Total.IsNegative() {
		o.Total = decimal.Zero
	}

	entry := &ledger.Usage{
		ID:             uuid.New(),
		CouponID:       c.ID,
		UserID:         req.UserID,
		OrderID:        o.ID,
		DiscountAmount: discount,
		OrderTotal:     o.Subtotal,
		UsedAt:         now,
	}

	if err := s.store.CommitRedemption(ctx, o, entry); err != nil {
		// The optimistic check above passed, so a limit failure here means a
		// concurrent redemption consumed the remaining usage.
		if errors.Is(err, coupon.ErrUsageLimitReached) || errors.Is(err, coupon.ErrUserLimitReached) {
			s.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("code", c.Code)))
			return nil, ErrConflict
		}
		return nil, errors.Wrap(err, "commit redemption")
	}

	s.redemptions.Add(ctx, 1, metric.WithAttributes(attribute.String("code", c.Code)))
	return receipt(o), nil
}

// load fetches the coupon and its ledger aggregates for one user.
func (s *Service) load(ctx context.Context, repo coupon.Repository, code, userID string) (*coupon.Coupon, coupon.UsageCounts, error) {
	var counts coupon.UsageCounts

	c, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return nil, counts, coupon.ErrNotFound
		}
		return nil, counts, errors.Wrap(err, "lookup coupon")
	}

	counts.Total, err = s.entries.CountForCoupon(ctx, c.ID)
	if err != nil {
		return nil, counts, errors.Wrap(err, "count coupon usage")
	}
	counts.ByUser, err = s.entries.CountForUser(ctx, c.ID, userID)
	if err != nil {
		return nil, counts, errors.Wrap(err, "count user usage")
	}
	return c, counts, nil
}

// eligible runs the amount gate first, then the usability checks, preserving
// the first-failure-wins contract of the engine.
func eligible(c *coupon.Coupon, counts coupon.UsageCounts, orderTotal decimal.Decimal, now time.Time) error {
	if !coupon.ValidForAmount(c, orderTotal) {
		return coupon.ErrMinimumPurchase
	}
	return coupon.UsableBy(c, counts, now)
}

func validateInput(code, userID string, orderTotal decimal.Decimal) error {
	if code == "" {
		return ErrMissingCode
	}
	if userID == "" {
		return ErrMissingUser
	}
	if orderTotal.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// asRejection converts engine sentinels into RejectedError, passing other
// errors through untouched.
func asRejection(err error) error {
	if reason, ok := rejectionReason(err); ok {
		return &RejectedError{Reason: reason}
	}
	return err
}

func receipt(o *order.Order) *Receipt {
	return &Receipt{
		OrderID:        o.ID,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.Discount,
		FinalTotal:     o.Total,
	}
}
