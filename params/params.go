package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	LoginOTPLength       = 6                // digits in a login one-time passcode
	LoginOTPExpiration   = 5 * time.Minute  // otp code expiration duration
	ResetTokenLength     = 32               // random bytes in a password reset token
	ResetTokenExpiration = 30 * time.Minute // reset token expiration duration

	MinPasswordLength = 6

	CSRFTokenLength     = 32               // random bytes in a csrf token
	CSRFTokenExpiration = 1 * time.Hour    // csrf token expiration duration
	CSRFSweepInterval   = 30 * time.Minute // expired csrf entry sweep interval

	DevTokenExpiration  = 30 * 24 * time.Hour // session token lifetime outside production
	ProdTokenExpiration = 7 * 24 * time.Hour  // session token lifetime in production

	AuditQueueSize            = 256 // buffered audit events before best-effort drops
	DefaultAuditRetentionDays = 90
	MinAuditRetentionDays     = 7
	MaxAuditRetentionDays     = 365

	HealthCheckServerAddr = ":3001"
)

// Sliding window request caps on the sensitive auth endpoints, per client IP.
// Each window is independent of the others.
const (
	LoginRateLimit           = 5
	LoginRateWindow          = 15 * time.Minute
	VerifyOTPRateLimit       = 5
	VerifyOTPRateWindow      = 10 * time.Minute
	ResendOTPRateLimit       = 3
	ResendOTPRateWindow      = 15 * time.Minute
	ForgotPasswordRateLimit  = 3
	ForgotPasswordRateWindow = 15 * time.Minute
	ResetPasswordRateLimit   = 5
	ResetPasswordRateWindow  = 15 * time.Minute
)
