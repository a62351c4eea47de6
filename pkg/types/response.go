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

// Notice is a user-facing informational payload (not an error), e.g. the
// empty-cart checkout response.
type Notice struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
