package types

// StatusResponse is the body of a successful relay.
type StatusResponse struct {
	Message string `json:"message"`
}

// ErrorResponse mirrors what middleware.ErrorHandler renders.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
