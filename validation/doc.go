// Package validation validates connector inputs and configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Failures are returned as
// *errors.AppError with per-field details.
//
// # Struct Tag Validation
//
//	type RunInput struct {
//	    ActorID string `json:"actor_id" validate:"required,apify_id"`
//	    Memory  int    `json:"memory" validate:"omitempty,min=128"`
//	}
//	err := validation.Validate(in)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.ResourceID("dataset_id", id)
//	err := v.Validate()
package validation
