package engine

import (
	"strings"

	"github.com/funnelstack/funnel-probe/internal/models"
)

// variantErrorTerms is the bilingual lexicon used to probe for a
// "select a size/variant first" error after an add-to-cart attempt.
var variantErrorTerms = []string{
	"size", "beden", "select", "seç", "variant", "renk", "color", "required", "zorunlu", "lütfen",
}

// VariantErrorDetected reports whether an observation looks like a
// variant-required error. Deliberately crude: a case-insensitive substring
// scan over the serialized observation.
func VariantErrorDetected(observation string) bool {
	text := strings.ToLower(observation)
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, term := range variantErrorTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

var (
	cartNegativeTerms = []string{"0 item", "shows 0", "empty", "no item", "not added", "boş"}
	cartPositiveTerms = []string{"1", "item", "added", "eklendi", "success", "başarı"}
)

// CartHasItems decides whether the cart observation proves the add-to-cart
// succeeded. Positive evidence is required: the absence of a "0"/"empty"
// marker alone is not enough.
func CartHasItems(observation string) bool {
	text := strings.ToLower(observation)
	for _, term := range cartNegativeTerms {
		if strings.Contains(text, term) {
			return false
		}
	}
	for _, term := range cartPositiveTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// DiagnoseCartFailure maps a diagnostic observation to the most specific
// finding for a failed add-to-cart.
func DiagnoseCartFailure(observation string) models.Finding {
	text := strings.ToLower(observation)

	switch {
	case containsAny(text, "out of stock", "sold out", "stokta yok", "tükendi"):
		return models.Finding{
			ID:             "product-out-of-stock",
			Category:       models.CategoryWarning,
			Title:          "Product is out of stock",
			Description:    "The tested product could not be purchased because it is unavailable.",
			Recommendation: "Hide or restock unavailable products, and offer alternatives on the product page.",
		}
	case containsAny(text, "login", "log in", "sign in", "account required", "giriş yap", "üye girişi"):
		return models.Finding{
			ID:             "login-required-to-buy",
			Category:       models.CategoryCritical,
			Title:          "Login required before adding to cart",
			Description:    "The store demands an account before a product can even enter the cart.",
			Recommendation: "Allow anonymous carts; ask for credentials at checkout, not before.",
		}
	case VariantErrorDetected(text):
		return models.Finding{
			ID:             "variant-selection-blocked",
			Category:       models.CategoryCritical,
			Title:          "Variant selection blocks add-to-cart",
			Description:    "Size/variant selection kept failing even after targeted retries.",
			Recommendation: "Preselect a default variant or make the selector impossible to miss.",
		}
	default:
		return models.Finding{
			ID:             "add-to-cart-failed",
			Category:       models.CategoryCritical,
			Title:          "Add-to-cart does not work",
			Description:    "The product could not be added to the cart and no specific cause was visible.",
			Recommendation: "Test the add-to-cart flow across devices; check for script errors on the button.",
		}
	}
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
