package imaging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, Other},
		{io.EOF, Other},
		{progress.ErrCancelled, Cancelled},
		{fmt.Errorf("wrapped: %w", progress.ErrCancelled), Cancelled},
		{newError("load", DecodeFailure, io.EOF), DecodeFailure},
		{newError("resample", CompressionFailure, progress.ErrCancelled), Cancelled},
		{newError("outer", Other, newError("inner", ColorProfileFailure, io.EOF)), ColorProfileFailure},
		{fmt.Errorf("context: %w", errorf("new", UnsupportedComponentCount, "%d", 7)), UnsupportedComponentCount},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v): got %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestError_Is(t *testing.T) {
	err := newError("compress", CompressionFailure, progress.ErrCancelled)

	if !errors.Is(err, &Error{Kind: Cancelled}) {
		t.Error("errors.Is should match a bare kind")
	}
	if errors.Is(err, &Error{Kind: DecodeFailure}) {
		t.Error("errors.Is matched the wrong kind")
	}
	if !errors.Is(err, progress.ErrCancelled) {
		t.Error("cancellation cause should be reachable")
	}
	if !IsCancelled(err) {
		t.Error("IsCancelled: got false")
	}
}

func TestError_Message(t *testing.T) {
	err := errorf("set channel", UnsupportedComponentCount, "target channel %d of %d", 5, 4)
	want := "set channel: unsupported component count: target channel 5 of 4"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	bare := &Error{Kind: DecodeFailure, Op: "load"}
	if !strings.Contains(bare.Error(), "decode failure") {
		t.Errorf("got %q", bare.Error())
	}
	if ErrorKind(99).String() != "error" {
		t.Errorf("unknown kind: got %q", ErrorKind(99).String())
	}
}
