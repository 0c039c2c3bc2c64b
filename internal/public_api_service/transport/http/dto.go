package http

// SendMessageRequest is the payload for POST /api/v1/messages/send and
// POST /api/v1/messages/test. Recipients is raw multi-line or CSV text; the
// dispatch service parses it.
type SendMessageRequest struct {
	Recipients string `json:"recipients" validate:"required"`
	Message    string `json:"message" validate:"required,min=1"`
}

// GenericErrorResponse is the JSON error envelope for all API errors.
type GenericErrorResponse struct {
	Error string `json:"error"`
}
