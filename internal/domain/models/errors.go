package models

import "errors"

// Error taxonomy. Data and analyzer errors are absorbed by the cycle;
// execution errors surface inside ExecutionResult; configuration errors
// abort startup.
var (
	ErrDataUnavailable   = errors.New("market data unavailable")
	ErrAnalyzerFault     = errors.New("analyzer fault")
	ErrInvalidSignal     = errors.New("signal not valid for execution")
	ErrExecutionRejected = errors.New("order rejected")
	ErrExecutionTimeout  = errors.New("order submission timed out")
	ErrConfiguration     = errors.New("invalid configuration")
)
