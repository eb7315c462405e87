package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopverse/checkout/internal/domain/order"
	"github.com/shopverse/checkout/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]product.Product
	err  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockCommitter struct {
	lastReq CommitRequest
	receipt *Receipt
	err     error
}

func (m *mockCommitter) Commit(_ context.Context, req CommitRequest) (*Receipt, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.receipt != nil {
		return m.receipt, nil
	}
	return &Receipt{
		OrderID:    "o1",
		Subtotal:   req.OrderTotal,
		FinalTotal: req.OrderTotal,
	}, nil
}

// --- Helpers ---

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func newTestProduct(id, price string) product.Product {
	return product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Category: "test",
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewPlacement(newProductRepo(), &mockCommitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := NewPlacement(newProductRepo(newTestProduct("p1", "10.00")), &mockCommitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Items:  []order.Item{{ProductID: "p1", Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	svc := NewPlacement(newProductRepo(), &mockCommitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Items:  []order.Item{{ProductID: "missing", Quantity: 1}},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestPlaceOrder_SubtotalFromLineItems(t *testing.T) {
	committer := &mockCommitter{}
	svc := NewPlacement(newProductRepo(
		newTestProduct("p1", "10.00"),
		newTestProduct("p2", "20.00"),
	), committer)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Items: []order.Item{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		CouponCode: "SAVE5",
	})

	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.True(t, decimal.RequireFromString("40.00").Equal(committer.lastReq.OrderTotal))
	assert.Equal(t, "SAVE5", committer.lastReq.CouponCode)
	assert.Equal(t, "u1", committer.lastReq.UserID)
}

func TestPlaceOrder_DuplicateLineItems(t *testing.T) {
	committer := &mockCommitter{}
	svc := NewPlacement(newProductRepo(newTestProduct("p1", "3.50")), committer)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Items: []order.Item{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p1", Quantity: 2},
		},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.50").Equal(committer.lastReq.OrderTotal))
}

func TestPlaceOrder_CommitErrorPropagates(t *testing.T) {
	committer := &mockCommitter{err: ErrConflict}
	svc := NewPlacement(newProductRepo(newTestProduct("p1", "10.00")), committer)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:     "u1",
		Items:      []order.Item{{ProductID: "p1", Quantity: 1}},
		CouponCode: "LAST1",
	})

	require.ErrorIs(t, err, ErrConflict)
}
