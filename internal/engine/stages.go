package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/funnelstack/funnel-probe/internal/classifier"
	"github.com/funnelstack/funnel-probe/internal/models"
)

// Fixed synthetic shopper identity used during form filling. Never real data.
const (
	shopperEmail = "shopper.test@example.com"
	shopperPhone = "+90 555 000 0000"
)

// Observation prompts for the extract-heavy stages. Kept together so the
// wording can be tuned without touching control flow.
const (
	promptHomepageUX = "Describe the homepage: is a search bar visible, is the navigation clear, " +
		"are featured products shown with prices, is there a trust or contact section, " +
		"and does anything block browsing (popup, cookie wall)?"

	promptDiscovery = "Are purchasable products with prices visible on this page, " +
		"or must I first navigate to a shop or products section? Describe what you see."

	promptProductPageCheck = "Is this a single-product detail page with an add-to-cart control? " +
		"Answer yes or no, then briefly say why."

	promptProductUX = "Describe this product page across these dimensions: price clarity, image quality, " +
		"add-to-cart button prominence, description quality, stock indicator, customer reviews, " +
		"variant or size selectors, shipping information, trust signals, and anything confusing."

	promptVariantError = "Is there an error message asking to select a size, color, or variant " +
		"before adding to cart? Quote any visible error text."

	promptCartState = "What does the cart icon or badge show now? " +
		"Is there a message confirming the product was added to the cart? Quote what you see."

	promptCartUX = "Describe the cart experience: was the add-to-cart feedback clear, " +
		"is a free-shipping threshold mentioned, are upsells shown, " +
		"and is the path to checkout obvious?"

	promptCartOrCheckout = "What page is this now: a cart page, a checkout page, or something else? " +
		"Quote the page heading."

	promptCartDiagnostic = "Describe the current state around the add-to-cart button: " +
		"any out-of-stock notice, login or sign-in requirement, or visible error message. " +
		"Quote any such text."

	promptGuestOption = "Does this checkout offer a guest checkout option, " +
		"or does it require logging in or creating an account first?"

	promptAddressForm = "Is an address form with input fields visible, " +
		"or is there an 'add address' button that must be clicked first?"

	promptAddressModal = "Is an address modal or dialog currently open with a save or confirm button?"

	promptCheckoutUX = "Describe this checkout page across these dimensions: discount code field, " +
		"upsell offers, payment button clarity, trust badges, shipping cost clarity, " +
		"guest checkout option, number of required fields, visible validation errors, " +
		"progress indicator, and any average-order-value incentives."
)

// navigate opens the store homepage. A failure here means the store is not
// reachable at all, which the caller escalates to a failed run.
func (o *Orchestrator) navigate(ctx context.Context, st *runState) error {
	return o.act(ctx, st, "Opened store homepage",
		fmt.Sprintf("Go to %s and wait for the page to load.", st.run.StoreURL))
}

// analyzeHomepage is best-effort enrichment: an extract failure becomes a
// warning finding, never a drop-off.
func (o *Orchestrator) analyzeHomepage(ctx context.Context, st *runState) {
	text, err := o.extract(ctx, st, "Analyzed homepage", promptHomepageUX)
	if err != nil {
		o.noteExtractFailure(st, "homepage", err)
		return
	}
	o.classify(st, text, o.rules.Homepage)
}

// discoverProduct walks from wherever the homepage landed to a single-product
// page. It tolerates a landing page (menu fallback plus one dropdown
// correction) and retries the product click once with a more specific
// instruction before giving up.
func (o *Orchestrator) discoverProduct(ctx context.Context, st *runState) {
	overview, err := o.extract(ctx, st, "Checked product visibility", promptDiscovery)
	if err == nil && looksLikeLandingPage(overview) {
		before := st.lastURL
		menuErr := o.act(ctx, st, "Opened products menu",
			"Hover over or open the main products or shop menu, then click a product category.")
		if menuErr == nil && st.lastURL == before {
			// Menu opened but nothing navigated; the dropdown is likely
			// still hanging open.
			_ = o.act(ctx, st, "Clicked category in open menu",
				"A navigation dropdown appears to be open. Click the first product category link inside it.")
		}
	}

	firstErr := o.act(ctx, st, "Clicked a product",
		"Click on one specific individual product (not a category or collection) to open its detail page.")
	if firstErr == nil && o.onProductPage(ctx, st) {
		return
	}

	retryErr := o.act(ctx, st, "Clicked a product (retry)",
		"Click directly on a single product card or product image, the kind with its own price, "+
			"so that a product detail page with an add-to-cart button opens.")
	if retryErr == nil && o.onProductPage(ctx, st) {
		return
	}

	evidence := "no product detail page could be reached"
	if retryErr != nil {
		evidence = retryErr.Error()
	} else if firstErr != nil {
		evidence = firstErr.Error()
	}
	st.dropOff(models.DropOffProductDiscovery)
	st.findings.add(models.Finding{
		ID:             "no-products",
		Category:       models.CategoryCritical,
		Title:          "No purchasable product could be reached",
		Description:    "The shopper could not navigate from the homepage to any product detail page.",
		Evidence:       evidence,
		Recommendation: "Surface products (with prices) directly on the homepage or one obvious click away.",
	})
}

// onProductPage probes whether the current page is a single-product page.
// An extract failure counts as a negative probe.
func (o *Orchestrator) onProductPage(ctx context.Context, st *runState) bool {
	answer, err := o.extract(ctx, st, "Verified product page", promptProductPageCheck)
	if err != nil {
		return false
	}
	return affirmative(answer)
}

// analyzeProductPage is best-effort enrichment, same contract as the
// homepage analysis.
func (o *Orchestrator) analyzeProductPage(ctx context.Context, st *runState) {
	text, err := o.extract(ctx, st, "Analyzed product page", promptProductUX)
	if err != nil {
		o.noteExtractFailure(st, "product page", err)
		return
	}
	o.classify(st, text, o.rules.ProductPage)
}

// cartStrategies is the escalating add-to-cart ladder. Each entry is strictly
// more specific than the previous one about the variant selector.
var cartStrategies = []string{
	"If a size or variant selector is present, select the first available option, " +
		"then click the add-to-cart button.",
	"Click the first enabled size or color option explicitly so it is visibly selected, " +
		"then click the add-to-cart button again.",
	"Open the size or variant dropdown selector, choose the first selectable entry from the list, " +
		"then click the add-to-cart button.",
}

// addToCart runs the retry ladder, then decides success from a cart-state
// observation. start is the run's wall-clock start, used for the
// time-to-add-to-cart metric.
func (o *Orchestrator) addToCart(ctx context.Context, st *runState, start time.Time) {
	attempts := o.maxCart
	if attempts > len(cartStrategies) {
		attempts = len(cartStrategies)
	}

	for i := 0; i < attempts; i++ {
		label := "Added product to cart"
		if i > 0 {
			label = fmt.Sprintf("Added product to cart (attempt %d)", i+1)
		}
		_ = o.act(ctx, st, label, cartStrategies[i])

		if i == attempts-1 {
			break
		}
		probe, err := o.extract(ctx, st, "Probed for variant error", promptVariantError)
		if err != nil || !VariantErrorDetected(probe) {
			break
		}
	}

	o.wait(ctx)
	cartState, err := o.extract(ctx, st, "Checked cart state", promptCartState)
	if err == nil && CartHasItems(cartState) {
		st.run.AddToCartSuccess = true
		elapsed := o.clock().Sub(start).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		st.run.TimeToAddToCartSeconds = &elapsed
		st.findings.add(models.Finding{
			ID:             "add-to-cart-works",
			Category:       models.CategoryPositive,
			Title:          "Add-to-cart works",
			Description:    "The product entered the cart without friction.",
			Evidence:       classifier.Snippet(cartState, 240),
			Recommendation: "",
		})
		if cartUX, uxErr := o.extract(ctx, st, "Analyzed cart experience", promptCartUX); uxErr == nil {
			o.classify(st, cartUX, o.rules.Cart)
		} else {
			o.noteExtractFailure(st, "cart experience", uxErr)
		}
		return
	}

	diagnostic, diagErr := o.extract(ctx, st, "Diagnosed cart failure", promptCartDiagnostic)
	finding := DiagnoseCartFailure(diagnostic)
	switch {
	case diagErr != nil:
		finding.Evidence = diagErr.Error()
	case strings.TrimSpace(diagnostic) != "":
		finding.Evidence = classifier.Snippet(diagnostic, 240)
	case err != nil:
		finding.Evidence = err.Error()
	default:
		finding.Evidence = classifier.Snippet(cartState, 240)
	}
	st.findings.add(finding)
	st.dropOff(models.DropOffAddToCart)
}

// navigateCheckout opens the cart and, when the result is still a cart page,
// proceeds to checkout. Any failure in the stage is a checkout_navigation
// drop-off; reaching a cart/checkout-labeled surface counts as reached.
func (o *Orchestrator) navigateCheckout(ctx context.Context, st *runState) {
	if err := o.act(ctx, st, "Opened cart",
		"Click the cart icon or a 'View Cart' / 'Sepet' link to open the cart."); err != nil {
		o.checkoutUnreachable(st, err)
		return
	}

	page, err := o.extract(ctx, st, "Identified cart or checkout page", promptCartOrCheckout)
	if err != nil {
		o.checkoutUnreachable(st, err)
		return
	}

	if onCartPage(page) {
		if err := o.act(ctx, st, "Proceeded to checkout",
			"Click the 'Checkout' / 'Proceed to checkout' / 'Ödemeye geç' button."); err != nil {
			o.checkoutUnreachable(st, err)
			return
		}
	}

	st.run.CheckoutReached = true
}

func (o *Orchestrator) checkoutUnreachable(st *runState, err error) {
	st.dropOff(models.DropOffCheckoutNavigation)
	st.findings.add(models.Finding{
		ID:             "checkout-unreachable",
		Category:       models.CategoryCritical,
		Title:          "Checkout could not be reached",
		Description:    "The cart was populated but the shopper could not get to a checkout surface.",
		Evidence:       err.Error(),
		Recommendation: "Make the cart icon and checkout button reachable from every page after an add-to-cart.",
	})
}

// fillCheckoutForm walks a fixed, ordered, best-effort fill sequence. Every
// sub-step lands on the timeline whether it worked or not, sub-step failures
// aggregate into a single warning, and the stage never sets a drop-off.
// The payment step is approached but a pay/place-order control is never
// clicked.
func (o *Orchestrator) fillCheckoutForm(ctx context.Context, st *runState) {
	var failures []string
	note := func(step string, err error) {
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", step, err))
		}
	}

	guest, err := o.extract(ctx, st, "Checked guest checkout option", promptGuestOption)
	note("guest detection", err)
	if err == nil && mentionsGuestOption(guest) {
		note("guest opt-in", o.act(ctx, st, "Selected guest checkout",
			"Choose the guest checkout option so no account is required."))
	}

	note("contact info", o.act(ctx, st, "Filled contact info",
		fmt.Sprintf("Fill the email field with %s and, if present, the phone field with %s.",
			shopperEmail, shopperPhone)))

	note("name fields", o.act(ctx, st, "Filled name fields",
		"Fill the first name field with 'Test' and the last name field with 'Shopper'."))

	addressForm, err := o.extract(ctx, st, "Checked for address form", promptAddressForm)
	note("address form detection", err)
	if err == nil && needsAddressButton(addressForm) {
		note("open address form", o.act(ctx, st, "Opened address form",
			"Click the 'add address' or 'new address' button to open the address form."))
	}
	note("address fields", o.act(ctx, st, "Filled address fields",
		"Fill the address fields: street 'Test Caddesi 1', city 'Istanbul', "+
			"postal code '34000', and country if asked."))

	modal, err := o.extract(ctx, st, "Checked for address dialog", promptAddressModal)
	note("address dialog detection", err)
	if err == nil && affirmative(modal) {
		note("address dialog save", o.act(ctx, st, "Saved address dialog",
			"Click the save or confirm button on the open address dialog."))
	}

	note("shipping method", o.act(ctx, st, "Selected shipping method",
		"Select the first available shipping method."))

	note("advance to payment", o.act(ctx, st, "Advanced to payment step",
		"Click the button that advances to the payment step. "+
			"Never click a final pay, purchase, or place-order button."))

	evidence := fmt.Sprintf("%d of 9 sub-steps completed", 9-len(failures))
	st.recorder.Record("Filled checkout form", st.lastURL, len(failures) == 0, evidence)
	st.run.CheckoutFormFilled = true

	if len(failures) > 0 {
		st.findings.add(models.Finding{
			ID:             "checkout-form-issues",
			Category:       models.CategoryWarning,
			Title:          "Checkout form has friction",
			Description:    "Some checkout form steps could not be completed by the automated shopper.",
			Evidence:       classifier.Snippet(strings.Join(failures, "; "), 240),
			Recommendation: "Reduce required fields and make each form control unambiguous.",
		})
	}

	if checkoutUX, uxErr := o.extract(ctx, st, "Analyzed checkout page", promptCheckoutUX); uxErr == nil {
		o.classify(st, checkoutUX, o.rules.Checkout)
	} else {
		o.noteExtractFailure(st, "checkout page", uxErr)
	}
}

// noteExtractFailure downgrades a failed UX extract to a warning finding.
func (o *Orchestrator) noteExtractFailure(st *runState, surface string, err error) {
	o.logger.Warn("ux extract failed", "surface", surface, "error", err)
	st.findings.add(models.Finding{
		ID:             "ux-extract-failed",
		Category:       models.CategoryWarning,
		Title:          "Page analysis was incomplete",
		Description:    fmt.Sprintf("The %s could not be fully observed, so some findings may be missing.", surface),
		Evidence:       err.Error(),
		Recommendation: "",
	})
}

// looksLikeLandingPage decides from a discovery observation whether products
// are not directly purchasable here.
func looksLikeLandingPage(observation string) bool {
	text := strings.ToLower(observation)
	return containsAny(text,
		"must navigate", "navigate to", "shop section", "no products", "no purchasable",
		"landing page", "menu first", "not visible", "ürün görünmüyor", "kategoriye git")
}

// affirmative interprets a yes/no probe answer.
func affirmative(answer string) bool {
	text := strings.ToLower(answer)
	if containsAny(text, "no,", "no.", "answer: no", "hayır") || strings.TrimSpace(text) == "no" {
		return false
	}
	return containsAny(text, "yes", "evet")
}

func onCartPage(observation string) bool {
	text := strings.ToLower(observation)
	if containsAny(text, "checkout", "ödeme") {
		return false
	}
	return containsAny(text, "cart", "sepet")
}

func mentionsGuestOption(observation string) bool {
	return containsAny(strings.ToLower(observation), "guest", "üye olmadan", "üyeliksiz")
}

func needsAddressButton(observation string) bool {
	return containsAny(strings.ToLower(observation),
		"add address", "new address", "adres ekle", "no address form", "button that must be clicked")
}
