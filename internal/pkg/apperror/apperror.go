package apperror

// AppError is a custom error type that carries the HTTP status code it maps to.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 409, 422)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Detailer is implemented by structured errors that expose extra fields
// (e.g. the id of a conflicting booking) to API clients.
type Detailer interface {
	Details() map[string]any
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
