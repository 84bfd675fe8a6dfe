package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/graphql-go/graphql/gqlerrors"

	"tush00nka/filehub/internal/service"
)

const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeConflict         = "CONFLICT"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
)

// Error is a client-facing resolver error; Code ends up in extensions.code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

var _ gqlerrors.ExtendedError = (*Error)(nil)

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var errInternal = NewError(CodeInternal, "Internal server error")

// toGraphQLError maps a non-nil service error onto a client error. Anything
// unknown is logged and replaced by a generic internal error.
func toGraphQLError(ctx context.Context, log *slog.Logger, err error) *Error {
	var gqlErr *Error
	switch {
	case errors.As(err, &gqlErr):
		return gqlErr
	case errors.Is(err, service.ErrInvalidCredentials):
		return NewError(CodeUnauthenticated, "Invalid credentials")
	case errors.Is(err, service.ErrUnauthorized):
		return NewError(CodeUnauthenticated, "Unauthorized")
	case errors.Is(err, service.ErrEmailTaken):
		return NewError(CodeConflict, "Email already registered")
	case errors.Is(err, service.ErrFileNotFound):
		return NewError(CodeNotFound, "File not found")
	case errors.Is(err, service.ErrValidation):
		return NewError(CodeBadUserInput, err.Error())
	}

	log.ErrorContext(ctx, "unhandled resolver error", "err", err)
	return errInternal
}

func formatErrors(code string, errs []gqlerrors.FormattedError) []gqlerrors.FormattedError {
	for i := range errs {
		if errs[i].Extensions == nil {
			errs[i].Extensions = map[string]interface{}{}
		}
		errs[i].Extensions["code"] = code
	}
	return errs
}

func formatError(err *Error) []gqlerrors.FormattedError {
	return []gqlerrors.FormattedError{{
		Message:    err.Message,
		Extensions: err.Extensions(),
	}}
}
