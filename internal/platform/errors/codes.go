// Package errors provides structured domain errors with HTTP mappings.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Auth errors
	CodeAuthEmailEmpty         Code = "AUTH_EMAIL_EMPTY"
	CodeAuthEmailInvalid       Code = "AUTH_EMAIL_INVALID"
	CodeAuthEmailTaken         Code = "AUTH_EMAIL_TAKEN"
	CodeAuthPasswordTooShort   Code = "AUTH_PASSWORD_TOO_SHORT"
	CodeAuthInvalidCredentials Code = "AUTH_INVALID_CREDENTIALS"
	CodeAuthInvalidRole        Code = "AUTH_INVALID_ROLE"
	CodeAuthSessionInvalid     Code = "AUTH_SESSION_INVALID"
	CodeAuthUnauthenticated    Code = "AUTH_UNAUTHENTICATED"
	CodeAuthForbidden          Code = "AUTH_FORBIDDEN"

	// Catalog errors
	CodeCategoryNameEmpty         Code = "CATEGORY_NAME_EMPTY"
	CodeCategoryNameTaken         Code = "CATEGORY_NAME_TAKEN"
	CodeStoreNameEmpty            Code = "STORE_NAME_EMPTY"
	CodeStoreInUse                Code = "STORE_IN_USE"
	CodeProductNameEmpty          Code = "PRODUCT_NAME_EMPTY"
	CodeProductInvalidPrice       Code = "PRODUCT_INVALID_PRICE"
	CodeProductInvalidStock       Code = "PRODUCT_INVALID_STOCK"
	CodeProductInsufficientStock  Code = "PRODUCT_INSUFFICIENT_STOCK"
	CodeProductStoreEmpty         Code = "PRODUCT_STORE_EMPTY"
	CodeProductCategoryEmpty      Code = "PRODUCT_CATEGORY_EMPTY"

	// Cart errors
	CodeCartEmpty           Code = "CART_EMPTY"
	CodeCartStoreMismatch   Code = "CART_STORE_MISMATCH"
	CodeCartQuantityInvalid Code = "CART_QUANTITY_INVALID"

	// Order errors
	CodeOrderInvalidStatus           Code = "ORDER_INVALID_STATUS"
	CodeOrderInvalidStatusTransition Code = "ORDER_INVALID_STATUS_TRANSITION"
	CodeOrderCancelWindowClosed      Code = "ORDER_CANCEL_WINDOW_CLOSED"
	CodeOrderNoItems                 Code = "ORDER_NO_ITEMS"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidPageSize Code = "INVALID_PAGE_SIZE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeAuthEmailTaken, CodeCategoryNameTaken,
		CodeStoreInUse, CodeCartStoreMismatch, CodeProductInsufficientStock,
		CodeOrderInvalidStatusTransition, CodeOrderCancelWindowClosed:
		return http.StatusConflict
	case CodeAuthInvalidCredentials, CodeAuthSessionInvalid, CodeAuthUnauthenticated:
		return http.StatusUnauthorized
	case CodeAuthForbidden:
		return http.StatusForbidden
	case CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
