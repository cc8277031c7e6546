package image

import (
	"errors"
	"fmt"
)

// ConfigurationError means no API credential was available. No request was sent.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API key is missing: %v", e.Err)
	}
	return "API key is missing"
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ServiceError carries the transport or API failure unchanged so the user
// sees the original diagnostic.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

type EmptyResponseError struct{}

func (*EmptyResponseError) Error() string { return "no image data found in response" }

// ModerationBlockedError reports the completion reason given by the service.
type ModerationBlockedError struct {
	Reason  string
	Message string
}

func (e *ModerationBlockedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("image generation stopped: %s: %s", e.Reason, e.Message)
	}
	return "image generation stopped: " + e.Reason
}

const (
	KindOK            = "ok"
	KindConfiguration = "configuration"
	KindService       = "service"
	KindEmpty         = "empty"
	KindBlocked       = "blocked"
	KindUnknown       = "unknown"
)

func Kind(err error) string {
	var (
		cfgErr     *ConfigurationError
		svcErr     *ServiceError
		emptyErr   *EmptyResponseError
		blockedErr *ModerationBlockedError
	)
	switch {
	case err == nil:
		return KindOK
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &svcErr):
		return KindService
	case errors.As(err, &emptyErr):
		return KindEmpty
	case errors.As(err, &blockedErr):
		return KindBlocked
	default:
		return KindUnknown
	}
}
