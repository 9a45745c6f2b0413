package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidAmount        ErrorCode = 103
	ErrCodeInvalidPrice         ErrorCode = 104

	// Lifecycle errors (200-299)
	ErrCodePhaseTransition     ErrorCode = 200
	ErrCodePermissionViolation ErrorCode = 201
	ErrCodeModeViolation       ErrorCode = 202
	ErrCodeNotInitialized      ErrorCode = 203

	// Portfolio errors (300-399)
	ErrCodeInsufficientPosition ErrorCode = 300
	ErrCodeInsufficientFunds    ErrorCode = 301
	ErrCodePositionNotFound     ErrorCode = 302

	// Order errors (400-499)
	ErrCodeOrderFailed           ErrorCode = 400
	ErrCodeOrderNotFound         ErrorCode = 401
	ErrCodeMarketDataUnavailable ErrorCode = 402
	ErrCodeZeroVolume            ErrorCode = 403
	ErrCodePriceLimit            ErrorCode = 404

	// Engine errors (500-599)
	ErrCodeCallbackFailed      ErrorCode = 500
	ErrCodeMissingCallback     ErrorCode = 501
	ErrCodeEngineConfigError   ErrorCode = 502
	ErrCodeEngineNoTradingDays ErrorCode = 503

	// Data errors (600-699)
	ErrCodeDataNotFound          ErrorCode = 600
	ErrCodeDataSourceUnavailable ErrorCode = 601
	ErrCodeQueryFailed           ErrorCode = 602
)
