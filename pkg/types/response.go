package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// MessagePayload is returned by endpoints that only acknowledge an action.
type MessagePayload struct {
	Message string `json:"message"`
	SKU     string `json:"sku,omitempty"`
}
