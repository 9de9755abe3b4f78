// Package inference defines the model engine contract and its HTTP client.
//
// The model itself runs out of process; the gateway only loads it once at
// startup and forwards describe requests. Concurrent calls are serialized
// or parallelized entirely at the engine's discretion - the gateway imposes
// no concurrency control of its own.
package inference

import "context"

// DescribeInput carries one inference request.
// Pointer fields distinguish "unset" from an explicit zero value so the
// engine's own defaults apply when the caller omits a knob.
type DescribeInput struct {
	Text                string
	DescriptionType     string
	EnableSampling      *bool
	SamplingTopP        *float64
	SamplingTemperature *float64

	// Image holds the raw uploaded image bytes, already validated as a
	// decodable bitmap by the caller. Nil means text-only.
	Image []byte
}

// Engine generates descriptions from text and/or image input.
type Engine interface {
	// Load initializes the model weights. Called once before serving;
	// a failure here is fatal to the process.
	Load(ctx context.Context) error

	// Describe runs one inference call and returns the generated text.
	Describe(ctx context.Context, input DescribeInput) (string, error)
}
