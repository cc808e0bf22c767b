package gate

import "fmt"

// FailureCode classifies why a guarded operation was refused. The set is
// closed: callers switch on it to decide whether a failure is retryable
// (only CodeBackendError is) and what to show the operator.
type FailureCode string

const (
	// CodeNone marks a successful result.
	CodeNone FailureCode = ""
	// CodeValidation marks malformed input: bad device type, bad path
	// syntax, bad numeric code format. Never retried.
	CodeValidation FailureCode = "validation"
	// CodeAuthFailed marks a secret-gate check failure.
	CodeAuthFailed FailureCode = "auth-failed"
	// CodeAccessDenied marks a missing or expired owner grant.
	CodeAccessDenied FailureCode = "access-denied"
	// CodeScopeDenied marks a live grant that lacks the required scope.
	CodeScopeDenied FailureCode = "scope-denied"
	// CodePathNotAllowed marks a target path outside the allow-listed roots.
	CodePathNotAllowed FailureCode = "path-not-allowed"
	// CodeNotFound marks a missing request, grant, or job record.
	CodeNotFound FailureCode = "not-found"
	// CodeBackendError wraps a failure from an external command runner or
	// the persistence layer. The raw diagnostic is kept in the message.
	CodeBackendError FailureCode = "backend-error"
)

// Result is the uniform outcome of every operator-facing operation.
// Guarded operations never return Go errors or panic across this
// boundary; failures are carried as a code plus a readable message.
type Result struct {
	OK      bool        `json:"ok"`
	Code    FailureCode `json:"code,omitempty"`
	Message string      `json:"message"`
}

// Okf builds a successful Result with a formatted message.
func Okf(format string, args ...any) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

// Failf builds a failed Result with the given code and formatted message.
func Failf(code FailureCode, format string, args ...any) Result {
	return Result{OK: false, Code: code, Message: fmt.Sprintf(format, args...)}
}

// storeFailure wraps a persistence error as a backend failure. The store
// is local, so surfacing the raw error text helps diagnosis and leaks
// nothing sensitive.
func storeFailure(err error) Result {
	return Failf(CodeBackendError, "store error: %v", err)
}
