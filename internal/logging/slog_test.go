package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_LevelsAndAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestNew_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false).With("component", "notifications", "tab", "auth")
	log.Info(context.Background(), "fetched", "unread", 3)

	out := buf.String()
	for _, want := range []string{"component=notifications", "tab=auth", "unread=3", "msg=fetched"} {
		assert.Contains(t, out, want)
	}
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	log := Discard()
	log.Info(context.TODO(), "ok")
	log.With("k", "v").Error(context.TODO(), "ok")
}
