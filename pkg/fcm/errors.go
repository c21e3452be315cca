package fcm

import (
	"strings"

	"firebase.google.com/go/v4/messaging"
)

// Provider error codes reported per token
const (
	CodeRegistrationTokenNotRegistered = "messaging/registration-token-not-registered"
	CodeInvalidRegistrationToken       = "messaging/invalid-registration-token"
	CodeInvalidArgument                = "messaging/invalid-argument"
	CodeMismatchedCredential           = "messaging/mismatched-credential"
	CodeQuotaExceeded                  = "messaging/message-rate-exceeded"
	CodeServerUnavailable              = "messaging/server-unavailable"
	CodeInternalError                  = "messaging/internal-error"
	CodeThirdPartyAuthError            = "messaging/third-party-auth-error"
	CodeUnknownError                   = "messaging/unknown-error"
)

// ErrorCode maps a firebase messaging error to a provider code string.
// err must be the unwrapped error returned by the messaging client.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case messaging.IsUnregistered(err):
		return CodeRegistrationTokenNotRegistered
	case messaging.IsInvalidArgument(err):
		// FCM reports malformed tokens as INVALID_ARGUMENT
		if strings.Contains(strings.ToLower(err.Error()), "registration token") {
			return CodeInvalidRegistrationToken
		}
		return CodeInvalidArgument
	case messaging.IsSenderIDMismatch(err):
		return CodeMismatchedCredential
	case messaging.IsQuotaExceeded(err):
		return CodeQuotaExceeded
	case messaging.IsUnavailable(err):
		return CodeServerUnavailable
	case messaging.IsInternal(err):
		return CodeInternalError
	case messaging.IsThirdPartyAuthError(err):
		return CodeThirdPartyAuthError
	default:
		return CodeUnknownError
	}
}

// IsPermanent reports whether code means the token will never be deliverable again
func IsPermanent(code string) bool {
	return code == CodeRegistrationTokenNotRegistered || code == CodeInvalidRegistrationToken
}
