package logger

import "context"

type contextKey string

const scanIDKey contextKey = "scan_id"

// WithScanID tags the context with the ID of the scan cycle it belongs to
func WithScanID(ctx context.Context, scanID string) context.Context {
	return context.WithValue(ctx, scanIDKey, scanID)
}

// GetScanID retrieves the scan ID from context
func GetScanID(ctx context.Context) string {
	if scanID, ok := ctx.Value(scanIDKey).(string); ok {
		return scanID
	}
	return ""
}
