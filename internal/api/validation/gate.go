package validation

import "github.com/storehaus/gatekeeper/internal/role"

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DecisionRequest mirrors the fields needed for gate decision validation.
type DecisionRequest struct {
	Status       string
	Role         *string
	RequiredRole *string
}

// ValidateDecisionRequest validates a client-supplied gate snapshot.
// Returns a slice of field errors; empty slice means valid.
func ValidateDecisionRequest(req DecisionRequest) []FieldError {
	var errs []FieldError

	var status role.Status
	if req.Status == "" {
		errs = append(errs, FieldError{Field: "status", Message: "status is required"})
	} else if err := status.UnmarshalText([]byte(req.Status)); err != nil {
		errs = append(errs, FieldError{Field: "status", Message: "status must be one of \"not_applicable\", \"loading\", \"resolved\", \"errored\""})
	}

	if req.Role != nil {
		if _, ok := role.Parse(*req.Role); !ok {
			errs = append(errs, FieldError{Field: "role", Message: "role must be \"provider\" or \"customer\""})
		}
	} else if status == role.Resolved {
		errs = append(errs, FieldError{Field: "role", Message: "role is required when status is \"resolved\""})
	}

	if req.RequiredRole != nil {
		if _, ok := role.Parse(*req.RequiredRole); !ok {
			errs = append(errs, FieldError{Field: "requiredRole", Message: "requiredRole must be \"provider\" or \"customer\""})
		}
	}

	return errs
}
