// Package validator provides request validation utilities
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors is a slice of ValidationError
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	var messages []string
	for _, e := range ve {
		messages = append(messages, e.Message)
	}
	return strings.Join(messages, "; ")
}

// Init initializes the validator with custom validators
func Init() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Register custom tag name function to use JSON tags
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			// Register custom validators
			_ = v.RegisterValidation("severity", validateSeverity)
			_ = v.RegisterValidation("operator", validateOperator)
			_ = v.RegisterValidation("metricname", validateMetricName)
			_ = v.RegisterValidation("authtype", validateAuthType)
			_ = v.RegisterValidation("eventstatus", validateEventStatus)
		}
	})
}

// ParseValidationErrors converts validator.ValidationErrors to ValidationErrors
func ParseValidationErrors(err error) ValidationErrors {
	var validationErrors ValidationErrors

	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, e := range ve {
			field := e.Field()
			tag := e.Tag()

			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Tag:     tag,
				Message: formatErrorMessage(field, tag, e.Param()),
			})
		}
	}

	return validationErrors
}

// formatErrorMessage creates a human-readable error message
func formatErrorMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + param
	case "max":
		return field + " must be at most " + param
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return field + " must be one of: " + param
	case "severity":
		return field + " must be a valid severity (critical, warning, info)"
	case "operator":
		return field + " must be a valid operator (>, <, ==, !=, >=, <=)"
	case "metricname":
		return field + " must be a valid metric (latency, throughput, error_count, rule_status, memory_usage, cpu_usage)"
	case "authtype":
		return field + " must be a valid auth type (none, basic, bearer, api_key)"
	case "eventstatus":
		return field + " must be a valid status (triggered, acknowledged, resolved, silenced)"
	case "gte":
		return field + " must be greater than or equal to " + param
	case "lte":
		return field + " must be less than or equal to " + param
	default:
		return field + " is invalid"
	}
}

// Custom validators

// validateSeverity checks if a string is a valid alert severity
func validateSeverity(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Default will be set
	}
	validSeverities := map[string]bool{
		"critical": true,
		"warning":  true,
		"info":     true,
	}
	return validSeverities[val]
}

// validateOperator checks if a string is a valid condition operator
func validateOperator(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	validOperators := map[string]bool{
		">":  true,
		"<":  true,
		"==": true,
		"!=": true,
		">=": true,
		"<=": true,
	}
	return validOperators[val]
}

// validateMetricName checks if a string is a valid snapshot metric name
func validateMetricName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	validMetrics := map[string]bool{
		"latency":      true,
		"throughput":   true,
		"error_count":  true,
		"rule_status":  true,
		"memory_usage": true,
		"cpu_usage":    true,
	}
	return validMetrics[val]
}

// validateAuthType checks if a string is a valid target auth type
func validateAuthType(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Default to "none"
	}
	validTypes := map[string]bool{
		"none":    true,
		"basic":   true,
		"bearer":  true,
		"api_key": true,
	}
	return validTypes[val]
}

// validateEventStatus checks if a string is a valid event status
func validateEventStatus(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	validStatuses := map[string]bool{
		"triggered":    true,
		"acknowledged": true,
		"resolved":     true,
		"silenced":     true,
	}
	return validStatuses[val]
}
