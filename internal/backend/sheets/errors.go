package sheets

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// classifyError maps client failures onto the core taxonomy. Rejected or
// unauthorised credentials become AuthError, everything else RemoteError.
func classifyError(primitive, method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if core.IsAuth(err) || core.IsRemote(err) {
		return err
	}

	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return &core.AuthError{Method: method, Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &core.AuthError{Method: method, Err: err}
		}
		return &core.RemoteError{Primitive: primitive, StatusCode: gerr.Code, Err: err}
	}

	return &core.RemoteError{Primitive: primitive, Err: err}
}
