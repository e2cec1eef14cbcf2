package classifier

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Library bundles the stage rule tables used across a funnel run.
type Library struct {
	Homepage    RuleSet
	ProductPage RuleSet
	Cart        RuleSet
	Checkout    RuleSet
}

// DefaultLibrary returns the built-in bilingual rule tables.
func DefaultLibrary() Library {
	return Library{
		Homepage:    HomepageRules(),
		ProductPage: ProductPageRules(),
		Cart:        CartRules(),
		Checkout:    CheckoutRules(),
	}
}

type rulePackFile struct {
	Homepage    []Rule `yaml:"homepage"`
	ProductPage []Rule `yaml:"product_page"`
	Cart        []Rule `yaml:"cart"`
	Checkout    []Rule `yaml:"checkout"`
}

// LoadLibrary returns the built-in tables extended with an optional YAML rule
// pack. A missing file is not an error; the built-ins are returned as-is.
func LoadLibrary(path string, logger *slog.Logger) (Library, error) {
	lib := DefaultLibrary()
	if path == "" {
		return lib, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lib, nil
		}
		return lib, err
	}
	var pack rulePackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return lib, err
	}

	lib.Homepage.Rules = append(lib.Homepage.Rules, pack.Homepage...)
	lib.ProductPage.Rules = append(lib.ProductPage.Rules, pack.ProductPage...)
	lib.Cart.Rules = append(lib.Cart.Rules, pack.Cart...)
	lib.Checkout.Rules = append(lib.Checkout.Rules, pack.Checkout...)

	if logger != nil {
		extra := len(pack.Homepage) + len(pack.ProductPage) + len(pack.Cart) + len(pack.Checkout)
		if extra > 0 {
			logger.Info("loaded extra classifier rules", slog.String("path", path), slog.Int("rules", extra))
		}
	}
	return lib, nil
}
