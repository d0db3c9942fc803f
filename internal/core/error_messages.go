package core

// # Error Codes Reference
//
// Engine failures are mapped to user-friendly messages with a code that can
// be quoted to support staff.
//
// # Store Errors
//
//	AUTH001 - Store credentials missing, malformed or rejected
//	          Action: Check the service account configuration and sheet sharing
//	NET001  - The tabular store could not be reached or returned an error
//	          Action: Please try again in a few moments
//	NET002  - The store rejected the request because of quota
//	          Action: Wait a minute before retrying
//
// # Collection Errors
//
//	SHEET001 - Collection has no header row
//	           Action: Add a header row to the sheet before writing records
//	COL001   - Unknown collection
//	           Action: Verify the collection name
//	COL002   - Collection has no identifier field
//	           Action: This collection can only be listed or appended to
//
// # Record Errors
//
//	REC001 - No record matches the given identifier
//	         Action: Verify the identifier; the record may have been deleted
//	VAL001 - The submitted data is invalid
//	         Action: Correct the highlighted fields and resubmit
//
// # Request Errors
//
//	REQ001 - Request was cancelled
//	REQ002 - Request timed out
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// technical error.
//
// # Matching
//
// Typed errors and sentinels are matched first with errors.Is / errors.As, in
// table order. Errors that lost their type (for example after crossing a
// process boundary) fall back to case-insensitive substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorRule matches an error and yields its user message.
type errorRule struct {
	match   func(error) bool
	pattern string
	msg     UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func remoteStatus(codes ...int) func(error) bool {
	return func(err error) bool {
		var re *RemoteError
		if !errors.As(err, &re) {
			return false
		}
		for _, c := range codes {
			if re.StatusCode == c {
				return true
			}
		}
		return false
	}
}

// errorRules is evaluated in order; the first match wins, so specific rules
// come before general ones.
var errorRules = []errorRule{
	{
		match:   is(ErrNotFound),
		pattern: "record not found",
		msg: UserMessage{
			Message: "No record matches the given identifier",
			Action:  "Verify the identifier; the record may have been deleted",
			Code:    "REC001",
		},
	},
	{
		match:   is(ErrEmptySchema),
		pattern: "no header row",
		msg: UserMessage{
			Message: "Collection has no header row",
			Action:  "Add a header row to the sheet before writing records",
			Code:    "SHEET001",
		},
	},
	{
		match:   is(ErrUnknownCollection),
		pattern: "unknown collection",
		msg: UserMessage{
			Message: "Unknown collection",
			Action:  "Verify the collection name",
			Code:    "COL001",
		},
	},
	{
		match:   is(ErrNoIdentifier),
		pattern: "no identifier field",
		msg: UserMessage{
			Message: "Collection has no identifier field",
			Action:  "This collection can only be listed or appended to",
			Code:    "COL002",
		},
	},
	{
		match:   is(ErrInvalidRecord),
		pattern: "invalid record",
		msg: UserMessage{
			Message: "The submitted data is invalid",
			Action:  "Correct the highlighted fields and resubmit",
			Code:    "VAL001",
		},
	},
	{
		match:   IsAuth,
		pattern: "authentication failed",
		msg: UserMessage{
			Message: "Store credentials are missing or were rejected",
			Action:  "Check the service account configuration and sheet sharing",
			Code:    "AUTH001",
		},
	},
	{
		match:   is(context.Canceled),
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		match:   is(context.DeadlineExceeded),
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
	{
		match:   remoteStatus(http.StatusTooManyRequests),
		pattern: "quota",
		msg: UserMessage{
			Message: "The store is rate limiting requests",
			Action:  "Wait a minute before retrying",
			Code:    "NET002",
		},
	},
	{
		match:   IsRemote,
		pattern: "remote",
		msg: UserMessage{
			Message: "The tabular store could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "NET001",
		},
	},
}

// defaultMessage is returned when no rule matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, rule := range errorRules {
		if rule.match != nil && rule.match(err) {
			return rule.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, rule := range errorRules {
		if rule.pattern != "" && strings.Contains(lower, rule.pattern) {
			return rule.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
