package client

import "context"

type captureOffKey struct{}

// DisableCapture marks ctx so that CaptureEvent refuses submissions
// made under it. The ingest pipeline sets this before touching
// persistence: an error raised while processing an event must never be
// captured and fed back into the pipeline it came from.
func DisableCapture(ctx context.Context) context.Context {
	return context.WithValue(ctx, captureOffKey{}, true)
}

// CaptureDisabled reports whether ctx forbids event capture.
func CaptureDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(captureOffKey{}).(bool)
	return disabled
}
