package classifier

import "github.com/funnelstack/funnel-probe/internal/models"

// Built-in stage rule tables. Store content may be English or Turkish, so the
// lexicons carry both; the Turkish terms are load-bearing, not decorative.
// Match phrases are anchored on the subject ("no search", "price is not")
// rather than bare negations, so one language cannot trip a rule on behalf of
// the other.

// HomepageRules covers first-impression and discoverability signals.
func HomepageRules() RuleSet {
	return RuleSet{Stage: "homepage", Rules: []Rule{
		{
			ID:             "homepage-no-search",
			Category:       models.CategoryWarning,
			Title:          "Search is missing or hard to find",
			Description:    "Shoppers who know what they want rely on site search; without it they fall back to menu digging.",
			Recommendation: "Add a persistent, visible search bar in the header.",
			Match: RuleMatch{
				Any: []string{"no search", "search bar not", "search icon not", "search is missing", "search is not visible", "hard to find search", "cannot find search", "arama yok", "arama çubuğu yok", "arama bulunmuyor"},
			},
		},
		{
			ID:             "homepage-navigation-unclear",
			Category:       models.CategoryWarning,
			Title:          "Navigation is confusing",
			Description:    "Visitors could not tell where product categories live.",
			Recommendation: "Flatten the menu and name categories after what shoppers buy.",
			Match: RuleMatch{
				Any:  []string{"navigation unclear", "navigation is confusing", "confusing navigation", "hard to navigate", "cluttered menu", "menü karmaşık", "gezinme zor"},
				None: []string{"navigation is clear", "clear navigation"},
			},
		},
		{
			ID:             "homepage-no-products-visible",
			Category:       models.CategoryWarning,
			Title:          "No purchasable products above the fold",
			Description:    "The landing view shows no products or prices, forcing an extra navigation step.",
			Recommendation: "Surface best-selling products with prices on the homepage.",
			Match: RuleMatch{
				Any: []string{"no products visible", "products are not visible", "no prices visible", "only a landing page", "ürünler görünmüyor", "fiyat görünmüyor"},
			},
		},
		{
			ID:             "homepage-popup-interference",
			Category:       models.CategoryWarning,
			Title:          "Popup blocks the first interaction",
			Description:    "An overlay or popup interrupts shoppers before they see any products.",
			Recommendation: "Delay promotional popups until after the first meaningful interaction.",
			Match: RuleMatch{
				Any:  []string{"popup blocking", "pop-up blocking", "modal blocking", "overlay blocking", "newsletter popup", "popup appeared immediately", "açılır pencere engelliyor"},
				None: []string{"no popup", "no pop-up"},
			},
		},
		{
			ID:             "homepage-slow-load",
			Category:       models.CategoryWarning,
			Title:          "Homepage loads slowly",
			Description:    "Perceived load time on the landing page is high.",
			Recommendation: "Compress hero imagery and defer non-critical scripts.",
			Match: RuleMatch{
				Any: []string{"slow to load", "loads slowly", "long load time", "took a long time to load", "yavaş yükleniyor"},
			},
		},
		{
			ID:          "homepage-strong-first-impression",
			Category:    models.CategoryPositive,
			Title:       "Strong first impression",
			Description: "The landing page presents a clear value proposition and orderly layout.",
			Match: RuleMatch{
				Any: []string{"clear value proposition", "well organized", "well-organized", "professional design", "clean layout", "düzenli tasarım", "profesyonel görünüm"},
			},
		},
	}}
}

// ProductPageRules covers the ~10 product-page UX dimensions.
func ProductPageRules() RuleSet {
	return RuleSet{Stage: "product_page", Rules: []Rule{
		{
			ID:             "product-price-unclear",
			Category:       models.CategoryWarning,
			Title:          "Price is not clearly displayed",
			Description:    "Shoppers could not immediately find the product price.",
			Recommendation: "Show the price next to the product title, above the fold.",
			Match: RuleMatch{
				Any:  []string{"price is not", "price not visible", "price unclear", "unclear price", "price is hidden", "hard to find the price", "fiyat görünmüyor", "fiyat belirsiz"},
				None: []string{"price is clear", "price is clearly", "clearly displayed", "clearly visible"},
			},
		},
		{
			ID:             "product-low-quality-images",
			Category:       models.CategoryWarning,
			Title:          "Product imagery is weak",
			Description:    "Images are low quality or too few to evaluate the product.",
			Recommendation: "Provide several high-resolution photos with zoom.",
			Match: RuleMatch{
				Any: []string{"blurry", "pixelated", "low quality image", "low-quality image", "only one image", "single image", "images are too small", "düşük kaliteli görsel", "görseller bulanık"},
			},
		},
		{
			ID:             "product-add-to-cart-hidden",
			Category:       models.CategoryCritical,
			Title:          "Add-to-cart control is not prominent",
			Description:    "The primary purchase control is missing or buried on the product page.",
			Recommendation: "Make the add-to-cart button the most prominent element on the page.",
			Match: RuleMatch{
				Any: []string{"no add to cart", "add to cart button is not", "add to cart is not visible", "cannot find add to cart", "add-to-cart hidden", "sepete ekle butonu yok", "sepete ekle görünmüyor"},
			},
		},
		{
			ID:             "product-description-thin",
			Category:       models.CategorySuggestion,
			Title:          "Product description is thin",
			Description:    "The description is missing or too short to answer buying questions.",
			Recommendation: "Expand descriptions with materials, dimensions, and care details.",
			Match: RuleMatch{
				Any: []string{"no description", "description is missing", "description is very short", "description is too short", "thin description", "sparse description", "açıklama yok", "açıklama yetersiz"},
			},
		},
		{
			ID:             "product-stock-unclear",
			Category:       models.CategoryWarning,
			Title:          "Stock availability is unclear",
			Description:    "There is no indicator telling shoppers whether the product is available.",
			Recommendation: "Show an explicit in-stock/out-of-stock indicator near the price.",
			Match: RuleMatch{
				Any:  []string{"no stock indicator", "stock not shown", "stock is not shown", "availability unclear", "availability is unclear", "stok bilgisi yok"},
				None: []string{"in stock", "out of stock"},
			},
		},
		{
			ID:             "product-no-reviews",
			Category:       models.CategorySuggestion,
			Title:          "No customer reviews",
			Description:    "Social proof is absent on the product page.",
			Recommendation: "Collect and display customer reviews with ratings.",
			Match: RuleMatch{
				Any: []string{"no reviews", "zero reviews", "without reviews", "no customer reviews", "yorum yok", "değerlendirme yok"},
			},
		},
		{
			ID:             "product-variant-selection-confusing",
			Category:       models.CategoryWarning,
			Title:          "Variant selection is confusing",
			Description:    "Size or color selection is unclear or easy to miss before adding to cart.",
			Recommendation: "Use large, clearly-labelled variant controls and mark unavailable options.",
			Match: RuleMatch{
				Any: []string{"variant selector is confusing", "size selection unclear", "confusing size", "unclear which sizes", "beden seçimi karmaşık", "varyant seçimi zor"},
			},
		},
		{
			ID:             "product-shipping-info-missing",
			Category:       models.CategorySuggestion,
			Title:          "Shipping information missing on product page",
			Description:    "Shoppers cannot estimate delivery cost or time before the cart.",
			Recommendation: "Surface shipping cost and delivery estimates on the product page.",
			Match: RuleMatch{
				Any:  []string{"no shipping info", "shipping not mentioned", "shipping information missing", "no shipping information", "kargo bilgisi yok"},
				None: []string{"free shipping"},
			},
		},
		{
			ID:             "product-no-trust-signals",
			Category:       models.CategorySuggestion,
			Title:          "No trust signals near the buy box",
			Description:    "Payment or security reassurance is absent where the purchase decision happens.",
			Recommendation: "Add payment logos and a returns note near the add-to-cart button.",
			Match: RuleMatch{
				Any: []string{"no trust badges", "no security badges", "no trust signals", "güven rozeti yok"},
			},
		},
		{
			ID:          "product-page-complete",
			Category:    models.CategoryPositive,
			Title:       "Product page answers key questions",
			Description: "Price, imagery, and availability are all clearly presented.",
			Match: RuleMatch{
				Any: []string{"all key information", "well presented", "comprehensive product page", "clearly presented", "detaylı ürün sayfası"},
			},
		},
	}}
}

// CartRules covers the post-add-to-cart experience.
func CartRules() RuleSet {
	return RuleSet{Stage: "cart", Rules: []Rule{
		{
			ID:             "cart-no-feedback",
			Category:       models.CategoryWarning,
			Title:          "Weak add-to-cart feedback",
			Description:    "After adding a product there is no clear confirmation the action worked.",
			Recommendation: "Show an immediate confirmation with a link to the cart.",
			Match: RuleMatch{
				Any: []string{"no confirmation", "no feedback", "unclear whether added", "not obvious the item was added", "onay mesajı yok", "geri bildirim yok"},
			},
		},
		{
			ID:          "cart-free-shipping-nudge",
			Category:    models.CategoryPositive,
			Title:       "Free-shipping threshold messaging",
			Description: "The cart nudges shoppers toward the free-shipping threshold, a proven AOV lever.",
			Match: RuleMatch{
				Any: []string{"free shipping threshold", "qualify for free shipping", "away from free shipping", "more for free shipping", "üzeri kargo bedava", "kargo bedava"},
			},
		},
		{
			ID:             "cart-no-upsell",
			Category:       models.CategorySuggestion,
			Title:          "No cross-sell in the cart",
			Description:    "The cart shows no related or complementary products.",
			Recommendation: "Recommend complementary products in the cart view.",
			Match: RuleMatch{
				Any: []string{"no upsell", "no cross-sell", "no recommended products", "no related products", "öneri yok", "önerilen ürün yok"},
			},
		},
		{
			ID:             "cart-checkout-path-unclear",
			Category:       models.CategoryWarning,
			Title:          "Path to checkout is unclear",
			Description:    "Shoppers cannot easily tell how to proceed from cart to checkout.",
			Recommendation: "Make the checkout button the single dominant action in the cart.",
			Match: RuleMatch{
				Any: []string{"checkout button is not", "hard to find checkout", "unclear how to proceed", "no obvious checkout", "ödeme adımı belirsiz", "ödeme butonu bulunamadı"},
			},
		},
		{
			ID:          "cart-clear-feedback",
			Category:    models.CategoryPositive,
			Title:       "Clear add-to-cart confirmation",
			Description: "The store confirms the add-to-cart action immediately and visibly.",
			Match: RuleMatch{
				Any: []string{"clear confirmation", "success message shown", "cart updated immediately", "cart badge updated", "sepete eklendi mesajı"},
			},
		},
	}}
}

// CheckoutRules covers the 10 checkout-page UX dimensions.
func CheckoutRules() RuleSet {
	return RuleSet{Stage: "checkout", Rules: []Rule{
		{
			ID:             "checkout-no-guest-option",
			Category:       models.CategoryCritical,
			Title:          "No guest checkout",
			Description:    "Forcing account creation before purchase is a leading cause of checkout abandonment.",
			Recommendation: "Offer guest checkout with an optional account step after purchase.",
			Match: RuleMatch{
				Any:  []string{"no guest", "guest checkout not", "without guest", "requires account", "must create an account", "üyelik zorunlu", "üye olmadan alışveriş yok"},
				None: []string{"guest checkout is available", "guest checkout available", "guest option available"},
			},
		},
		{
			ID:             "checkout-too-many-fields",
			Category:       models.CategoryWarning,
			Title:          "Checkout form is too long",
			Description:    "The form asks for more fields than needed to complete a purchase.",
			Recommendation: "Trim the form to essentials and defer optional questions.",
			Match: RuleMatch{
				Any: []string{"too many fields", "long form", "excessive fields", "more than 10 fields", "çok fazla alan"},
			},
		},
		{
			ID:             "checkout-no-trust-badges",
			Category:       models.CategorySuggestion,
			Title:          "No trust badges at checkout",
			Description:    "Security reassurance is absent at the moment of highest anxiety.",
			Recommendation: "Show SSL and payment-network badges near the payment controls.",
			Match: RuleMatch{
				Any:  []string{"no trust badges", "trust badges missing", "trust signals missing", "no trust signals", "güven rozeti yok"},
				None: []string{"trust badges are shown", "trust badges visible"},
			},
		},
		{
			ID:             "checkout-shipping-cost-surprise",
			Category:       models.CategoryWarning,
			Title:          "Shipping costs appear late",
			Description:    "Shipping cost is unclear or revealed only at the end of checkout.",
			Recommendation: "Show shipping costs in the cart, before checkout begins.",
			Match: RuleMatch{
				Any:  []string{"shipping cost not shown", "shipping costs appear late", "unclear shipping cost", "shipping cost unclear", "shipping cost surprise", "kargo ücreti belirsiz"},
				None: []string{"shipping cost is clear", "shipping costs are clear"},
			},
		},
		{
			ID:             "checkout-no-discount-field",
			Category:       models.CategorySuggestion,
			Title:          "No discount-code field",
			Description:    "Shoppers holding a promo code have nowhere to apply it.",
			Recommendation: "Add a collapsed discount-code field to the order summary.",
			Match: RuleMatch{
				Any: []string{"no discount field", "no coupon field", "no promo code field", "kupon alanı yok", "indirim kodu alanı yok"},
			},
		},
		{
			ID:             "checkout-validation-errors",
			Category:       models.CategoryWarning,
			Title:          "Form validation fights the shopper",
			Description:    "Fields were rejected or errored during a normal fill attempt.",
			Recommendation: "Validate inline, accept common formats, and keep entered values on error.",
			Match: RuleMatch{
				Any:  []string{"validation error", "field rejected", "form errors", "kept showing errors", "doğrulama hatası"},
				None: []string{"no validation errors"},
			},
		},
		{
			ID:             "checkout-no-progress-indicator",
			Category:       models.CategorySuggestion,
			Title:          "No checkout progress indicator",
			Description:    "Shoppers cannot tell how many steps remain before payment.",
			Recommendation: "Add a step indicator (cart, details, shipping, payment).",
			Match: RuleMatch{
				Any: []string{"no progress indicator", "cannot tell which step", "no step indicator", "adım göstergesi yok"},
			},
		},
		{
			ID:             "checkout-payment-button-unclear",
			Category:       models.CategoryWarning,
			Title:          "Payment action is not obvious",
			Description:    "The control that advances to payment is hard to identify.",
			Recommendation: "Use one high-contrast primary button labelled with the next step.",
			Match: RuleMatch{
				Any:  []string{"payment button is not clear", "payment button is hard to find", "payment button not prominent", "pay button is hard to find", "ödeme butonu belirsiz"},
				None: []string{"payment button is clear"},
			},
		},
		{
			ID:          "checkout-aov-incentives",
			Category:    models.CategoryPositive,
			Title:       "Order-value incentives at checkout",
			Description: "The checkout promotes bundles, thresholds, or other order-value incentives.",
			Match: RuleMatch{
				Any: []string{"order bump", "bundle offer", "spend more to save", "gift with purchase", "hediye kazan"},
			},
		},
		{
			ID:          "checkout-smooth",
			Category:    models.CategoryPositive,
			Title:       "Smooth checkout flow",
			Description: "The checkout is short, clear, and free of friction.",
			Match: RuleMatch{
				Any: []string{"checkout is smooth", "straightforward checkout", "clear checkout flow", "ödeme akışı sorunsuz"},
			},
		},
	}}
}
