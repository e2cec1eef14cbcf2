package engine

import (
	"testing"

	"github.com/funnelstack/funnel-probe/internal/models"
)

func TestCartHasItems(t *testing.T) {
	cases := []struct {
		observation string
		want        bool
	}{
		{"cart icon shows 0 items, no success message", false},
		{"cart icon shows 1 item, sepete eklendi", true},
		{"the cart is empty", false},
		{"product added to cart, badge updated", true},
		{"sepetiniz boş", false},
		{"", false},
		{"the page looks the same as before", false},
	}
	for _, tc := range cases {
		if got := CartHasItems(tc.observation); got != tc.want {
			t.Fatalf("CartHasItems(%q) = %v, want %v", tc.observation, got, tc.want)
		}
	}
}

func TestVariantErrorDetected(t *testing.T) {
	cases := []struct {
		observation string
		want        bool
	}{
		{"Please select a size before adding to cart", true},
		{"Lütfen beden seçiniz", true},
		{"This field is required", true},
		{"Everything looks fine, no messages", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := VariantErrorDetected(tc.observation); got != tc.want {
			t.Fatalf("VariantErrorDetected(%q) = %v, want %v", tc.observation, got, tc.want)
		}
	}
}

func TestDiagnoseCartFailure(t *testing.T) {
	cases := []struct {
		observation  string
		wantID       string
		wantCategory models.FindingCategory
	}{
		{"the product is marked sold out", "product-out-of-stock", models.CategoryWarning},
		{"ürün stokta yok", "product-out-of-stock", models.CategoryWarning},
		{"please sign in to add items", "login-required-to-buy", models.CategoryCritical},
		{"üye girişi gerekli", "login-required-to-buy", models.CategoryCritical},
		{"error: select a variant first", "variant-selection-blocked", models.CategoryCritical},
		{"the button did nothing at all", "add-to-cart-failed", models.CategoryCritical},
	}
	for _, tc := range cases {
		f := DiagnoseCartFailure(tc.observation)
		if f.ID != tc.wantID {
			t.Fatalf("DiagnoseCartFailure(%q).ID = %q, want %q", tc.observation, f.ID, tc.wantID)
		}
		if f.Category != tc.wantCategory {
			t.Fatalf("DiagnoseCartFailure(%q).Category = %q, want %q", tc.observation, f.Category, tc.wantCategory)
		}
	}
}
