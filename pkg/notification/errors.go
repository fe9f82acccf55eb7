package notification

import "errors"

// Delivery error codes. The two registration-token codes mark a device
// token that will never be deliverable again.
const (
	CodeInvalidRegistrationToken = "messaging/invalid-registration-token"
	CodeTokenNotRegistered       = "messaging/registration-token-not-registered"
	CodeInvalidArgument          = "messaging/invalid-argument"
	CodeInvalidPayload           = "messaging/invalid-payload"
	CodeSenderIDMismatch         = "messaging/mismatched-credential"
	CodeQuotaExceeded            = "messaging/message-rate-exceeded"
	CodeUnavailable              = "messaging/server-unavailable"
	CodeInternal                 = "messaging/internal-error"
	CodeThirdPartyAuth           = "messaging/third-party-auth-error"

	CodeUnknown = "unknown"
)

// DeliveryError is the normalized failure returned by a push sender.
// Code is empty when the underlying failure could not be classified.
type DeliveryError struct {
	Code    string
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StaleToken reports whether the failure means the target token must be discarded.
func (e *DeliveryError) StaleToken() bool {
	return e.Code == CodeInvalidRegistrationToken || e.Code == CodeTokenNotRegistered
}

// AsDeliveryError returns err as a *DeliveryError, wrapping it with no code
// when it is not one already.
func AsDeliveryError(err error) *DeliveryError {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	return &DeliveryError{Message: err.Error(), Err: err}
}
