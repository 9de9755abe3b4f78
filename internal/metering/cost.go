package metering

import "github.com/visiongate/visiongate/internal/model"

// Pricing holds the per-unit prices in minor currency units (cents).
type Pricing struct {
	PerTokenCents int64
	PerImageCents int64
}

// CalculateCost maps a usage measurement to an integer currency amount in
// minor units. This is the amount handed to the payment provider verbatim.
func CalculateCost(usage model.Usage, pricing Pricing) int64 {
	return usage.PromptTokens*pricing.PerTokenCents + usage.Images*pricing.PerImageCents
}
