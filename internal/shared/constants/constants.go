package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys
	ContextKeyRequestID = "request_id"
	ContextKeyToken     = "auth_token"

	// Database table names
	TableReferrals      = "referrals"
	TableReferralGroups = "referral_groups"
)
