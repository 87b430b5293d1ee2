package response

// Pagination mirrors the pagination block the dashboard consumes alongside
// every paginated collection.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	Limit       int   `json:"limit"`
}

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// SuccessMessage wraps data plus a human-readable message.
func SuccessMessage(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// Paginated wraps a collection slice together with its pagination block.
func Paginated(data interface{}, p Pagination) Response {
	return Response{Success: true, Data: data, Pagination: &p}
}

// Error wraps an error message in a failed envelope.
func Error(message string) Response {
	return Response{Success: false, Message: message}
}

// ValidationError carries field-level messages for form submissions. The
// dashboard renders these inline next to each field.
func ValidationError(message string, errors map[string][]string) Response {
	return Response{Success: false, Message: message, Errors: errors}
}
