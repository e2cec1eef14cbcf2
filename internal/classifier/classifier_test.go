package classifier

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/funnelstack/funnel-probe/internal/models"
)

func findingIDs(findings []models.Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.ID)
	}
	return ids
}

func hasID(findings []models.Finding, id string) bool {
	for _, f := range findings {
		if f.ID == id {
			return true
		}
	}
	return false
}

func TestHomepageNoSearchFires(t *testing.T) {
	findings := Classify("no search bar visible, navigation is clear", HomepageRules())

	if !hasID(findings, "homepage-no-search") {
		t.Fatalf("expected homepage-no-search, got %v", findingIDs(findings))
	}
	if hasID(findings, "homepage-navigation-unclear") {
		t.Fatalf("homepage-navigation-unclear must not fire for clear navigation")
	}
	for _, f := range findings {
		if f.ID == "homepage-no-search" && f.Category != models.CategoryWarning {
			t.Fatalf("expected warning category, got %s", f.Category)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	text := "the price is not visible, images look blurry, no reviews at all"
	first := Classify(text, ProductPageRules())
	second := Classify(text, ProductPageRules())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classifier output differs between identical calls")
	}
	if len(first) == 0 {
		t.Fatalf("expected findings for %q", text)
	}
}

func TestClassifyEmptyObservation(t *testing.T) {
	if findings := Classify("   ", HomepageRules()); len(findings) != 0 {
		t.Fatalf("expected no findings for blank text, got %v", findingIDs(findings))
	}
}

func TestExclusionSuppressesRule(t *testing.T) {
	findings := Classify("guest checkout is available, form is short", CheckoutRules())
	if hasID(findings, "checkout-no-guest-option") {
		t.Fatalf("exclusion term should suppress checkout-no-guest-option")
	}

	findings = Classify("there is no guest option, an account is required before paying", CheckoutRules())
	if !hasID(findings, "checkout-no-guest-option") {
		t.Fatalf("expected checkout-no-guest-option, got %v", findingIDs(findings))
	}
}

func TestTurkishLexiconMatches(t *testing.T) {
	findings := Classify("sayfada arama çubuğu yok ve menü karmaşık görünüyor", HomepageRules())
	if !hasID(findings, "homepage-no-search") {
		t.Fatalf("expected homepage-no-search for Turkish text, got %v", findingIDs(findings))
	}
	if !hasID(findings, "homepage-navigation-unclear") {
		t.Fatalf("expected homepage-navigation-unclear for Turkish text, got %v", findingIDs(findings))
	}

	findings = Classify("sepete eklendi mesajı hemen göründü", CartRules())
	if !hasID(findings, "cart-clear-feedback") {
		t.Fatalf("expected cart-clear-feedback for Turkish confirmation, got %v", findingIDs(findings))
	}
}

func TestEvidenceCarriesObservationSnippet(t *testing.T) {
	text := "no search bar visible anywhere on this page"
	findings := Classify(text, HomepageRules())
	if len(findings) == 0 {
		t.Fatalf("expected at least one finding")
	}
	if findings[0].Evidence != text {
		t.Fatalf("evidence should carry the raw observation, got %q", findings[0].Evidence)
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	got := Snippet(string(long), 240)
	if len(got) != 243 {
		t.Fatalf("expected truncated snippet of 243 bytes, got %d", len(got))
	}
}

func TestLoadLibraryExtendsBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	pack := `homepage:
  - id: homepage-banner-blindness
    category: suggestion
    title: Hero banner hides products
    description: The hero carousel pushes products below the fold.
    recommendation: Shrink the hero banner.
    match:
      any: ["huge hero banner", "carousel dominates"]
`
	if err := os.WriteFile(path, []byte(pack), 0o600); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	lib, err := LoadLibrary(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := len(HomepageRules().Rules)
	if len(lib.Homepage.Rules) != base+1 {
		t.Fatalf("expected %d homepage rules, got %d", base+1, len(lib.Homepage.Rules))
	}

	findings := Classify("a huge hero banner covers the whole viewport", lib.Homepage)
	if !hasID(findings, "homepage-banner-blindness") {
		t.Fatalf("expected pack rule to fire, got %v", findingIDs(findings))
	}
}

func TestLoadLibraryMissingFileIsNotError(t *testing.T) {
	lib, err := LoadLibrary("/nonexistent/rules.yaml", nil)
	if err != nil {
		t.Fatalf("missing pack should not error: %v", err)
	}
	if len(lib.Checkout.Rules) == 0 {
		t.Fatalf("expected built-in checkout rules")
	}
}

func TestCoOccurrenceRule(t *testing.T) {
	rule := Rule{
		ID:       "synthetic-co-occurrence",
		Category: models.CategoryWarning,
		Title:    "synthetic",
		Match: RuleMatch{
			All: []string{"cart", "empty"},
			Any: []string{"after clicking"},
		},
	}
	set := RuleSet{Stage: "synthetic", Rules: []Rule{rule}}

	if got := Classify("the cart stayed empty after clicking add", set); len(got) != 1 {
		t.Fatalf("expected co-occurrence rule to fire, got %d findings", len(got))
	}
	if got := Classify("the cart has one item after clicking add", set); len(got) != 0 {
		t.Fatalf("rule must not fire when an All term is absent")
	}
}
