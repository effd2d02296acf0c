// Package validation validates configuration structs using
// go-playground/validator struct tags.
//
//	type Config struct {
//	    Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
//	}
//	err := validation.Validate(cfg)
//
// Failures are returned as *errors.AppError with per-field details.
package validation
