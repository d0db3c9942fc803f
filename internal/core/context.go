package core

import "context"

type contextKey string

const ctxKeyRequestMetadata contextKey = "request_metadata"

// RequestMetadata identifies who triggered a mutation, for the audit trail.
type RequestMetadata struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// ContextWithRequestMetadata attaches request metadata to ctx.
func ContextWithRequestMetadata(ctx context.Context, md RequestMetadata) context.Context {
	return context.WithValue(ctx, ctxKeyRequestMetadata, md)
}

// RequestMetadataFromContext extracts request metadata, if any.
func RequestMetadataFromContext(ctx context.Context) RequestMetadata {
	if md, ok := ctx.Value(ctxKeyRequestMetadata).(RequestMetadata); ok {
		return md
	}
	return RequestMetadata{}
}
