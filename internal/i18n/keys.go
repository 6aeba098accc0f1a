// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthSessionEnded       = "auth.session_ended"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Listings
	KeyListingCreated   = "listing.created"
	KeyListingUpdated   = "listing.updated"
	KeyListingNotFound  = "listing.not_found"
	KeyListingNotOwner  = "listing.not_owner"
	KeyListingNoDelete  = "listing.delete_unsupported"
	KeyListingNoContact = "listing.no_contact"

	// Drafts
	KeyDraftNotFound = "draft.not_found"
	KeyDraftMissing  = "draft.missing_fields"

	// Uploads
	KeyUploadSuccess = "upload.success"
	KeyUploadFailed  = "upload.failed"
	KeyUploadMissing = "upload.missing_file"

	// Preferences
	KeyPreferenceSaved = "preference.saved"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// System
	KeySystemError       = "system.error"
	KeySystemUnavailable = "system.unavailable"
	KeyRateLimitExceeded = "system.rate_limit"
)
