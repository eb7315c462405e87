//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestEvaluateCoupon_NoAuth(t *testing.T) {
	req := evaluateRequest{Code: "WELCOME10", UserID: "u-eval", OrderTotal: "100"}
	resp := doPost(t, "/api/coupons/evaluate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestEvaluateCoupon_Eligible(t *testing.T) {
	req := evaluateRequest{Code: "WELCOME10", UserID: "u-eval", OrderTotal: "100"}
	resp := doPostWithAuth(t, "/api/coupons/evaluate", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ev := decodeJSON[evaluateResponse](t, resp)
	if !ev.Eligible {
		t.Fatalf("expected eligible, got reason %q", ev.Reason)
	}
	if ev.DiscountAmount != 10 {
		t.Errorf("discount: got %v, want 10", ev.DiscountAmount)
	}
	if ev.FinalTotal != 90 {
		t.Errorf("final total: got %v, want 90", ev.FinalTotal)
	}
}

func TestEvaluateCoupon_CapApplies(t *testing.T) {
	// WELCOME10 is 10% capped at 50.
	req := evaluateRequest{Code: "WELCOME10", UserID: "u-eval", OrderTotal: "1000"}
	resp := doPostWithAuth(t, "/api/coupons/evaluate", req, testAPIKey)
	defer resp.Body.Close()

	ev := decodeJSON[evaluateResponse](t, resp)
	if ev.DiscountAmount != 50 {
		t.Errorf("discount: got %v, want cap of 50", ev.DiscountAmount)
	}
	if ev.FinalTotal != 950 {
		t.Errorf("final total: got %v, want 950", ev.FinalTotal)
	}
}

func TestEvaluateCoupon_MinimumPurchase(t *testing.T) {
	// SAVE5 requires a minimum purchase of 20.
	req := evaluateRequest{Code: "SAVE5", UserID: "u-eval", OrderTotal: "10"}
	resp := doPostWithAuth(t, "/api/coupons/evaluate", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ev := decodeJSON[evaluateResponse](t, resp)
	if ev.Eligible {
		t.Fatal("expected ineligible below minimum purchase")
	}
	if ev.Reason != "minimum purchase not met" {
		t.Errorf("reason: got %q", ev.Reason)
	}
	if ev.FinalTotal != 10 {
		t.Errorf("final total unchanged: got %v, want 10", ev.FinalTotal)
	}
}

func TestEvaluateCoupon_UnknownCode(t *testing.T) {
	req := evaluateRequest{Code: "NOSUCHCODE", UserID: "u-eval", OrderTotal: "100"}
	resp := doPostWithAuth(t, "/api/coupons/evaluate", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ev := decodeJSON[evaluateResponse](t, resp)
	if ev.Eligible {
		t.Fatal("expected ineligible for unknown code")
	}
	if ev.Reason != "coupon not found" {
		t.Errorf("reason: got %q", ev.Reason)
	}
}

func TestEvaluateCoupon_CaseInsensitive(t *testing.T) {
	req := evaluateRequest{Code: "welcome10", UserID: "u-eval", OrderTotal: "100"}
	resp := doPostWithAuth(t, "/api/coupons/evaluate", req, testAPIKey)
	defer resp.Body.Close()

	ev := decodeJSON[evaluateResponse](t, resp)
	if !ev.Eligible {
		t.Fatalf("lowercase code should match, got reason %q", ev.Reason)
	}
}

func TestEvaluateCoupon_IsIdempotent(t *testing.T) {
	// Evaluating repeatedly must not consume usage.
	req := evaluateRequest{Code: "FLASH25", UserID: "u-repeat", OrderTotal: "40"}
	for i := range 5 {
		resp := doPostWithAuth(t, "/api/coupons/evaluate", req, testAPIKey)
		ev := decodeJSON[evaluateResponse](t, resp)
		resp.Body.Close()

		if !ev.Eligible {
			t.Fatalf("evaluation %d: expected eligible, got %q", i+1, ev.Reason)
		}
	}
}
