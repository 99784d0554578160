package gateway

import (
	"ChatWave/tools/errs"
)

// ErrorPayload is the body of the error event sent back to the acting client.
type ErrorPayload struct {
	Message  string `json:"message"`
	Context  string `json:"context"`
	CanRetry bool   `json:"canRetry"`
}

const genericErrMsg = "An error occurred. Please try again."

// errorPayload maps a handler failure onto the client-facing taxonomy:
// validation/authorization/not-found/conflict carry their message with
// canRetry=false; anything else (store failures, panics, unknown shapes)
// degrades to a generic message with canRetry=true.
func errorPayload(eventCtx string, err error) ErrorPayload {
	if codeErr, ok := errs.AsCodeError(err); ok {
		switch codeErr.Code {
		case errs.ArgsError, errs.NoPermissionError, errs.RecordNotFoundError, errs.RecordIsExistError:
			return ErrorPayload{Message: codeErr.Msg, Context: eventCtx, CanRetry: false}
		}
	}
	return ErrorPayload{Message: genericErrMsg, Context: eventCtx, CanRetry: true}
}
