package model

import "notebook/internal/note/validation"

type CreateNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdateNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type FieldErrorResponse struct {
	Reason  validation.Reason `json:"reason"`
	Message string            `json:"message"`
}

type ErrorResponse struct {
	Error  string                        `json:"error"`
	Fields map[string]FieldErrorResponse `json:"fields,omitempty"`
}

// NewValidationErrorResponse renders every violation keyed by field name.
func NewValidationErrorResponse(err *validation.Error) ErrorResponse {
	fields := make(map[string]FieldErrorResponse, len(err.Violations))
	for field, v := range err.Fields() {
		fields[field] = FieldErrorResponse{Reason: v.Reason(), Message: v.Message()}
	}
	return ErrorResponse{Error: "validation failed", Fields: fields}
}
