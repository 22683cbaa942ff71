package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// Frontends map these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed token
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // token blacklisted
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate email
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"     // duplicate username
	AuthCodeInvalid        = "AUTH_CODE_INVALID"        // wrong verification code
	AuthCodeExpired        = "AUTH_CODE_EXPIRED"        // verification code expired
	AuthTwoFactorRequired  = "AUTH_2FA_REQUIRED"        // second factor pending
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID" // bad or used reset token
	AuthResetTokenExpired  = "AUTH_RESET_TOKEN_EXPIRED" // reset token expired

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // no access to the resource
	AuthzStaffOnly = "AUTHZ_STAFF_ONLY" // staff accounts only
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY" // owner accounts only

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // malformed payload
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // malformed identifier
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // wrong field format
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // value out of range
	ValidationRequired      = "VALIDATION_REQUIRED"       // missing required field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // no such resource
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // duplicate resource
	ResourceConflict      = "RESOURCE_CONFLICT"       // conflicting state

	// ==================== Products (PRODUCT_) ====================
	ProductNotFound     = "PRODUCT_NOT_FOUND"     // no such product
	ProductOutOfStock   = "PRODUCT_OUT_OF_STOCK"  // insufficient stock
	ProductInvalidPrice = "PRODUCT_INVALID_PRICE" // non-positive price

	// ==================== Cart (CART_) ====================
	CartEmpty           = "CART_EMPTY"            // checkout of an empty cart
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"   // product not in cart
	CartInvalidQuantity = "CART_INVALID_QUANTITY" // quantity below 1

	// ==================== Orders (ORDER_) ====================
	OrderNotFound       = "ORDER_NOT_FOUND"       // no such order
	OrderInvalidStatus  = "ORDER_INVALID_STATUS"  // unknown status value
	OrderNotCancellable = "ORDER_NOT_CANCELLABLE" // already shipped/delivered/cancelled

	// ==================== Reviews (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"      // no such review
	ReviewInvalidRating = "REVIEW_INVALID_RATING" // rating outside 1..5
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS" // item already reviewed
	ReviewNotEligible   = "REVIEW_NOT_ELIGIBLE"   // order item not delivered

	// ==================== Wishlist (WISHLIST_) ====================
	WishlistItemNotFound = "WISHLIST_ITEM_NOT_FOUND" // product not wishlisted
	WishlistItemExists   = "WISHLIST_ITEM_EXISTS"    // product already wishlisted

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unexpected failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // database failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // downstream service failure
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // misconfiguration
)
