package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed, user-presentable view of a storage error.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts gorm/Postgres errors into a code and message safe to
// return to clients. Sensitive driver details are never passed through.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	errStr := strings.ToLower(err.Error())

	// Unique constraint violation (23505)
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: duplicateMessage(context),
		}
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStr, "foreign key constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "A referenced record does not exist",
		}
	}

	// Not null constraint violation (23502)
	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "A required field is missing",
		}
	}

	return ErrorInfo{
		Code:    InternalDatabaseError,
		Message: "Something went wrong, please try again later",
	}
}

func notFoundMessage(context string) string {
	switch context {
	case "product":
		return "Product not found"
	case "cart":
		return "Cart not found"
	case "order":
		return "Order not found"
	case "user":
		return "User not found"
	default:
		return "Resource not found"
	}
}

func duplicateMessage(context string) string {
	switch context {
	case "user":
		return "An account with this email already exists"
	case "order":
		return "This payment session is already linked to an order"
	default:
		return "Resource already exists"
	}
}
