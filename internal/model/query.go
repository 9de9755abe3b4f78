package model

// Query is the transient request payload for a completion call.
// All fields are optional; nil means "let the model use its default".
type Query struct {
	Text                string   `json:"text,omitempty"`
	DescriptionType     string   `json:"description_type,omitempty"`
	EnableSampling      *bool    `json:"enable_sampling,omitempty"`
	SamplingTopP        *float64 `json:"sampling_topp,omitempty"`
	SamplingTemperature *float64 `json:"sampling_temperature,omitempty"`
}

// InferenceResult is the transient completion response body.
type InferenceResult struct {
	Response string `json:"response"`
}

// AccountRequest carries credentials for register, rotate and delete calls.
type AccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIKeyResponse returns a freshly issued API key to the caller.
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// CheckoutRequest identifies the account to bill.
type CheckoutRequest struct {
	UserID string `json:"user_id"`
}

// CheckoutResponse returns the payment-provider session handle.
type CheckoutResponse struct {
	ID string `json:"id"`
}

// DetailResponse is the generic detail envelope used for errors and
// confirmation messages, matching the gateway's public error shape.
type DetailResponse struct {
	Detail string `json:"detail"`
}
