package errs

// Error codes carried back to clients through the gateway's error event.
const (
	ServerInternalError = 1001 // transient infrastructure failure
	ArgsError           = 1002 // malformed or missing input
	NoPermissionError   = 1003 // acting user lacks permission
	RecordNotFoundError = 1004
	RecordIsExistError  = 1005
	TokenInvalidError   = 1101 // bad/expired credential at handshake
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "server error")
	ErrArgs           = NewCodeError(ArgsError, "invalid argument")
	ErrNoPermission   = NewCodeError(NoPermissionError, "no permission")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "record not found")
	ErrRecordIsExist  = NewCodeError(RecordIsExistError, "record already exists")
	ErrTokenInvalid   = NewCodeError(TokenInvalidError, "token invalid")
)

// Validation builds an ArgsError with a client-facing message.
func Validation(msg string) CodeError { return NewCodeError(ArgsError, msg) }

// Forbidden builds a NoPermissionError with a client-facing message.
func Forbidden(msg string) CodeError { return NewCodeError(NoPermissionError, msg) }

// NotFound builds a RecordNotFoundError with a client-facing message.
func NotFound(msg string) CodeError { return NewCodeError(RecordNotFoundError, msg) }

// Conflict builds a RecordIsExistError with a client-facing message.
func Conflict(msg string) CodeError { return NewCodeError(RecordIsExistError, msg) }
