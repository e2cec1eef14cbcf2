package models

import "time"

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// DropOffStep names the first funnel stage at which the store failed the shopper.
type DropOffStep string

const (
	DropOffInitialization     DropOffStep = "initialization"
	DropOffProductDiscovery   DropOffStep = "product_discovery"
	DropOffAddToCart          DropOffStep = "add_to_cart"
	DropOffCheckoutNavigation DropOffStep = "checkout_navigation"
)

// FunnelRun holds the mutable progress state for a single mystery-shopper run.
// It is owned exclusively by the orchestrator and frozen once the run terminates.
type FunnelRun struct {
	RunID                  string
	StoreURL               string
	AddToCartSuccess       bool
	CheckoutReached        bool
	CheckoutFormFilled     bool
	DropOffStep            *DropOffStep
	TimeToAddToCartSeconds *float64
	SessionURL             string
	StartedAt              time.Time
}

// Snapshot freezes the funnel flags into the wire-facing metrics shape.
func (r *FunnelRun) Snapshot() Metrics {
	return Metrics{
		AddToCartSuccess:       r.AddToCartSuccess,
		CheckoutReached:        r.CheckoutReached,
		CheckoutFormFilled:     r.CheckoutFormFilled,
		DropOffStep:            r.DropOffStep,
		TimeToAddToCartSeconds: r.TimeToAddToCartSeconds,
	}
}

// Metrics is the funnel-completion snapshot included in every result.
type Metrics struct {
	AddToCartSuccess       bool         `json:"add_to_cart_success"`
	CheckoutReached        bool         `json:"checkout_reached"`
	CheckoutFormFilled     bool         `json:"checkout_form_filled"`
	DropOffStep            *DropOffStep `json:"drop_off_step"`
	TimeToAddToCartSeconds *float64     `json:"time_to_add_to_cart_seconds"`
}

// AnalysisResult is the terminal aggregate for a run. Its JSON form is the
// externally visible report and must remain stable field-for-field.
type AnalysisResult struct {
	RunID      string          `json:"run_id"`
	StoreURL   string          `json:"store_url"`
	Status     RunStatus       `json:"status"`
	Score      int             `json:"score"`
	Metrics    Metrics         `json:"metrics"`
	Findings   []Finding       `json:"findings"`
	Timeline   []TimelineEvent `json:"timeline"`
	SessionURL string          `json:"session_url,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
