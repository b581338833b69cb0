package errors

import (
	"errors"
	"fmt"
	"time"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Kind classifies failures by how they are reported to the user.
type Kind string

const (
	KindUserInput Kind = "user_input"
	KindNotFound  Kind = "not_found"
	KindUpstream  Kind = "upstream_http"
	KindNetwork   Kind = "network"
	KindRateLimit Kind = "rate_limit"
	KindUnknown   Kind = "unknown"
)

// User-facing message keys resolved through i18n.
const (
	MsgNotFound    = "errors.not_found"
	MsgNoChartData = "errors.no_chart_data"
	MsgUpstream    = "errors.upstream"
	MsgNetwork     = "errors.network"
	MsgGeneric     = "errors.generic"
	MsgRateLimited = "errors.rate_limited"
)

type AppError struct {
	Code        string
	Kind        Kind
	Message     string
	UserMessage string
	Severity    Severity
	Op          string
	Coin        string
	Status      int
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewUserInputError reports missing or empty user input; usageKey is the prompt to show.
func NewUserInputError(op, usageKey string) *AppError {
	return &AppError{
		Code:        "E100",
		Kind:        KindUserInput,
		Message:     fmt.Sprintf("%s: missing ticker", op),
		UserMessage: usageKey,
		Severity:    SeverityLow,
		Op:          op,
	}
}

func NewNotFoundError(op, coin string) *AppError {
	return &AppError{
		Code:        "E210",
		Kind:        KindNotFound,
		Message:     fmt.Sprintf("%s: coin %q not found", op, coin),
		UserMessage: MsgNotFound,
		Severity:    SeverityLow,
		Op:          op,
		Coin:        coin,
	}
}

// NewNoDataError reports an empty price series.
func NewNoDataError(op, coin string) *AppError {
	return &AppError{
		Code:        "E211",
		Kind:        KindNotFound,
		Message:     fmt.Sprintf("%s: no series data for %q", op, coin),
		UserMessage: MsgNoChartData,
		Severity:    SeverityLow,
		Op:          op,
		Coin:        coin,
	}
}

func NewUpstreamError(op, coin string, status int) *AppError {
	return &AppError{
		Code:        "E300",
		Kind:        KindUpstream,
		Message:     fmt.Sprintf("%s: market api returned status %d", op, status),
		UserMessage: MsgUpstream,
		Severity:    SeverityMedium,
		Op:          op,
		Coin:        coin,
		Status:      status,
	}
}

func NewNetworkError(op, coin string, cause error) *AppError {
	return &AppError{
		Code:        "E310",
		Kind:        KindNetwork,
		Message:     fmt.Sprintf("%s: market api unreachable", op),
		UserMessage: MsgNetwork,
		Severity:    SeverityMedium,
		Op:          op,
		Coin:        coin,
		cause:       cause,
	}
}

func NewUnknownError(op, coin string, cause error) *AppError {
	return &AppError{
		Code:        "E900",
		Kind:        KindUnknown,
		Message:     fmt.Sprintf("%s: unexpected failure", op),
		UserMessage: MsgGeneric,
		Severity:    SeverityHigh,
		Op:          op,
		Coin:        coin,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter time.Duration) *AppError {
	return &AppError{
		Code:        "E500",
		Kind:        KindRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %s", retryAfter),
		UserMessage: MsgRateLimited,
		Severity:    SeverityLow,
	}
}

// KindOf returns the Kind of err, or KindUnknown for non-application errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind
	}

	return KindUnknown
}
