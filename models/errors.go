package models

import "errors"

// Named error kinds surfaced by the pipeline. Callers use errors.Is against
// these sentinels; concrete errors wrap one of them with %w for context.
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrUnsupportedTimeframe = errors.New("unsupported timeframe")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrLLMUnavailable       = errors.New("llm backend unavailable")
	ErrLLMParseError        = errors.New("llm response could not be parsed")
	ErrCollectorConnection  = errors.New("collector connection error")
	ErrCollectorProtocol    = errors.New("collector protocol error")
	ErrInvalidConfig        = errors.New("invalid configuration")
)
