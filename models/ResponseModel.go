package models

// ErrorResponse is the body of every single-message failure.
type ErrorResponse struct {
	Error   string `json:"error" example:"Project not found"`
	Details string `json:"details,omitempty" example:""`
}

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"Valid email is required"`
}

// ValidationErrorResponse is returned when request fields fail validation.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}
