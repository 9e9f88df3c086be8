package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/smithy-go"

	"sentence-generator/internal/prompt"
)

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type retryAfterHinter interface {
	RetryAfterHint() time.Duration
}

var transientAPICodes = map[string]bool{
	"ThrottlingException":                    true,
	"Throttling":                             true,
	"TooManyRequestsException":               true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"SlowDown":                               true,
	"ServiceUnavailableException":            true,
	"ServiceUnavailable":                     true,
	"InternalServerException":                true,
	"InternalFailure":                        true,
	"ModelNotReadyException":                 true,
	"ModelTimeoutException":                  true,
	"RequestTimeout":                         true,
	"RequestTimeoutException":                true,
}

var permanentAPICodes = map[string]bool{
	"ValidationException":         true,
	"AccessDeniedException":       true,
	"ResourceNotFoundException":   true,
	"UnrecognizedClientException": true,
	"InvalidSignatureException":   true,
	"ExpiredTokenException":       true,
}

// classifyGenerationError maps a generation failure to
// ErrorTransientGeneration or ErrorPermanentGeneration. Errors that carry no
// classifiable signal are treated as transient.
func classifyGenerationError(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) && (ue.Code == ErrorPermanentGeneration || ue.Code == ErrorTransientGeneration) {
		return ue.Code
	}
	if errors.Is(err, prompt.ErrMalformedOutput) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransientGeneration
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case transientAPICodes[code]:
			return ErrorTransientGeneration
		case permanentAPICodes[code]:
			return ErrorPermanentGeneration
		}
	}

	if status, ok := upstreamStatusCode(err); ok {
		switch {
		case status == http.StatusRequestTimeout, status == http.StatusTooEarly, status == http.StatusTooManyRequests:
			return ErrorTransientGeneration
		case status >= 500:
			return ErrorTransientGeneration
		case status >= 400:
			return ErrorPermanentGeneration
		}
	}

	return ErrorTransientGeneration
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	code := statusErr.HTTPStatusCode()
	return code, code > 0
}

func retryAfter(err error) time.Duration {
	var h retryAfterHinter
	if errors.As(err, &h) {
		return h.RetryAfterHint()
	}
	return 0
}
