package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopverse/checkout/internal/domain/order"
	"github.com/shopverse/checkout/internal/domain/product"
)

// ErrEmptyItems rejects a placement request with no line items.
var ErrEmptyItems = errors.New("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "product " + e.ProductID + " not found"
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return "quantity must be greater than 0 for product " + e.ProductID
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID     string
	Items      []order.Item
	CouponCode string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Receipt  *Receipt
	Products []product.Product
}

// Committer finalizes a priced order, applying a coupon when one is present.
// Service satisfies it.
type Committer interface {
	Commit(ctx context.Context, req CommitRequest) (*Receipt, error)
}

// Placement prices an order against the catalog and hands it to a Committer
// for coupon application and persistence.
type Placement struct {
	products product.Repository
	checkout Committer
}

// NewPlacement creates a Placement service.
func NewPlacement(products product.Repository, co Committer) *Placement {
	return &Placement{
		products: products,
		checkout: co,
	}
}

// PlaceOrder validates line items, fetches products in a single batch to
// compute the subtotal, and commits the order through checkout.
func (s *Placement) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Verify every requested product was found and compute the subtotal.
	products := make([]product.Product, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		products = append(products, p)
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	receipt, err := s.checkout.Commit(ctx, CommitRequest{
		UserID:     req.UserID,
		Items:      req.Items,
		OrderTotal: subtotal,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	return &PlaceOrderResult{
		Receipt:  receipt,
		Products: products,
	}, nil
}
