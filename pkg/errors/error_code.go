package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter    ErrorCode = 100
	ErrCodeInvalidPositionSize ErrorCode = 101

	// Bar feed errors (200-299)
	ErrCodeEmptyBarFeed       ErrorCode = 200
	ErrCodeUnorderedBarFeed   ErrorCode = 201
	ErrCodeDuplicateBarDate   ErrorCode = 202
	ErrCodeMissingPrice       ErrorCode = 203
	ErrCodeBarFeedUnavailable ErrorCode = 204
	ErrCodeBarFeedQueryFailed ErrorCode = 205

	// Prediction feed errors (300-399)
	ErrCodePredictionLoadFailed ErrorCode = 300
	ErrCodePredictionJoinFailed ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400
	ErrCodeUnknownStrategy     ErrorCode = 401

	// Backtest errors (500-599)
	ErrCodeBacktestConfigError ErrorCode = 500
	ErrCodeBacktestStateError  ErrorCode = 501
	ErrCodeBacktestWriteFailed ErrorCode = 502

	// Report errors (600-699)
	ErrCodeReportNoSnapshots ErrorCode = 600
	ErrCodeReportWriteFailed ErrorCode = 601
)
