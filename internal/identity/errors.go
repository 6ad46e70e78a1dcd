package identity

import "strings"

// Error codes from the identity provider's reserved taxonomy.
const (
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeTokenExpired      = "auth/user-token-expired"
	CodeNetwork           = "auth/network-request-failed"
	CodePopupClosed       = "auth/popup-closed-by-user"
	CodeNotAllowed        = "auth/operation-not-allowed"
	CodeNoCurrentUser     = "auth/no-current-user"
	CodeInternal          = "auth/internal-error"
)

// Error is an identity provider rejection.
type Error struct {
	Code    string
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Message + " (" + e.Code + ")"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code so callers can write
// errors.Is(err, &identity.Error{Code: identity.CodeEmailInUse}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var codeMessages = map[string]string{
	CodeEmailInUse:        "The email address is already in use by another account.",
	CodeWeakPassword:      "The password is too weak.",
	CodeInvalidCredential: "Invalid email or password.",
	CodeInvalidEmail:      "The email address is badly formatted.",
	CodeUserDisabled:      "This account has been disabled.",
	CodeTooManyRequests:   "Too many attempts. Try again later.",
	CodeTokenExpired:      "Your session has expired. Please log in again.",
	CodeNetwork:           "A network error occurred while contacting the identity provider.",
	CodePopupClosed:       "The sign-in window was closed before completing.",
	CodeNotAllowed:        "This sign-in method is not enabled.",
	CodeNoCurrentUser:     "No user is signed in.",
	CodeInternal:          "An internal identity provider error occurred.",
}

func newError(code string, cause error) *Error {
	return &Error{Code: code, Message: codeMessages[code], Err: cause}
}

// mapRESTCode translates an Identity Toolkit error message such as
// "EMAIL_EXISTS" or "WEAK_PASSWORD : Password should be at least 6
// characters" to a taxonomy code.
func mapRESTCode(msg string) string {
	key := msg
	if i := strings.Index(key, " "); i >= 0 {
		key = key[:i]
	}
	switch key {
	case "EMAIL_EXISTS":
		return CodeEmailInUse
	case "WEAK_PASSWORD":
		return CodeWeakPassword
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "INVALID_IDP_RESPONSE":
		return CodeInvalidCredential
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return CodeInvalidEmail
	case "USER_DISABLED":
		return CodeUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return CodeTooManyRequests
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "INVALID_ID_TOKEN", "USER_NOT_FOUND", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return CodeTokenExpired
	case "OPERATION_NOT_ALLOWED", "PASSWORD_LOGIN_DISABLED":
		return CodeNotAllowed
	}
	return CodeInternal
}
