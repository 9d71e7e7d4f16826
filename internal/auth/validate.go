package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/yt-thumbnail-wizard/internal/metrics"
)

// DefaultValidationModel is the cheap model used to probe a key.
const DefaultValidationModel = "gemini-3-flash-preview"

// APIError is a classified failure from the Gemini API.
type APIError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType categorizes Gemini API failures.
type ErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network or server-side issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

// String returns the metric label for t.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ValidateAPIKey verifies the client's key with a minimal request. It returns
// nil if the key works, or an *APIError describing the failure.
func ValidateAPIKey(ctx context.Context, client *genai.Client) error {
	log.Debug().Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, DefaultValidationModel, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	var result *APIError
	switch {
	case err != nil:
		result = ClassifyError(err)
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		result = &APIError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	label := "success"
	if result != nil {
		label = result.Type.String()
	}
	metrics.New(metrics.Namespace).
		Dimension("Result", label).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()

	if result != nil {
		return result
	}
	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}

// ClassifyError maps a Gemini client error to an *APIError. It returns nil
// for a nil error.
func ClassifyError(err error) *APIError {
	if err == nil {
		return nil
	}

	var classified *APIError
	if errors.As(err, &classified) {
		return classified
	}

	// The client returns APIError by value; check the pointer form too.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(&apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(apiErrPtr, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		log.Error().Err(err).Msg("Invalid API key")
		return &APIError{Type: ErrTypeInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		log.Error().Err(err).Msg("API quota exceeded")
		return &APIError{Type: ErrTypeQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		log.Error().Err(err).Msg("Network error calling Gemini API")
		return &APIError{Type: ErrTypeNetworkError, Message: "network error reaching the model API", Err: err}

	default:
		log.Error().Err(err).Msg("Unknown Gemini API error")
		return &APIError{Type: ErrTypeUnknown, Message: "model API request failed", Err: err}
	}
}

func classifyAPIError(apiErr *genai.APIError, wrapped error) *APIError {
	switch apiErr.Code {
	case 400:
		log.Error().Int("code", apiErr.Code).Msg("Bad request - possibly invalid API key format")
		return &APIError{Type: ErrTypeInvalidKey, Message: "bad request - API key may be malformed", Err: wrapped}
	case 401, 403:
		log.Error().Int("code", apiErr.Code).Msg("Authentication failed - invalid API key")
		return &APIError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: wrapped}
	case 429:
		log.Error().Int("code", apiErr.Code).Msg("Rate limit exceeded")
		return &APIError{Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded - try again later", Err: wrapped}
	case 500, 502, 503, 504:
		log.Error().Int("code", apiErr.Code).Msg("Gemini API server error")
		return &APIError{Type: ErrTypeNetworkError, Message: "model API server error - try again later", Err: wrapped}
	default:
		log.Error().Int("code", apiErr.Code).Str("message", apiErr.Message).Msg("Google API error")
		return &APIError{Type: ErrTypeUnknown, Message: apiErr.Message, Err: wrapped}
	}
}
