// solforum/config/config.go
package config

const (
	AppVersion = "1.2.0"

	// Form & Post Limits
	MinTitleLen    = 3
	MaxTitleLen    = 200
	MinContentLen  = 1
	MaxContentLen  = 50000
	MinReasonLen   = 5
	MaxReasonLen   = 1000
	MinPasswordLen = 6
	MaxPasswordLen = 128
	MaxBioLen      = 500

	BcryptCost = 12

	// Avatar Upload Limits
	MaxAvatarSize = 2 * 1024 * 1024 // 2MB
	AvatarSize    = 256

	// Pagination
	ThreadsPerPage = 20
	PostsPerPage   = 20

	// Session
	SessionMaxAgeDays = 30

	// Rate Limiting Defaults
	DefaultRateLimitEvery  = "10s"
	DefaultRateLimitBurst  = 5
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"
)
