package response

// ErrorBody is the error envelope returned by every endpoint.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func Error(code, message string, details interface{}) interface{} {
	return errorEnvelope{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}}
}
