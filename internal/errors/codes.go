package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL. The frontend maps these to messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"

	// ==================== Catalog (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND"

	// ==================== Cart (CART_) ====================
	CartNotFound      = "CART_NOT_FOUND"
	CartItemNotFound  = "CART_ITEM_NOT_FOUND"
	CartEmpty         = "CART_EMPTY"
	StockInsufficient = "STOCK_INSUFFICIENT"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound     = "ORDER_NOT_FOUND"
	OrderInvalidState = "ORDER_INVALID_STATE"

	// ==================== Payments (PAYMENT_) ====================
	PaymentSessionFailed    = "PAYMENT_SESSION_FAILED"
	PaymentSignatureInvalid = "PAYMENT_SIGNATURE_INVALID"
	PaymentInvalidPayload   = "PAYMENT_INVALID_PAYLOAD"

	// ==================== Notifications (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
