package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
	"testing"

	"github.com/aws/smithy-go"
)

type statusErr int

func (e statusErr) Error() string { return fmt.Sprintf("http response error %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind error
	}{
		{"deadline typed", fmt.Errorf("put: %w", context.DeadlineExceeded), ErrTimeout},
		{"timed out message", errors.New("operation timed out"), ErrTimeout},
		{"enospc typed", &fs.PathError{Op: "write", Path: "/x", Err: syscall.ENOSPC}, ErrDiskFull},
		{"permission typed", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}, ErrPermissionDenied},
		{"not exist typed", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, ErrNotFound},
		{"AccessDenied response", errors.New("AccessDenied: you do not have access"), ErrAccessDenied},
		{"HTTP 403", errors.New("received status 403"), ErrAccessDenied},
		{"permission message", errors.New("permission denied for /data/output"), ErrPermissionDenied},
		{"NoSuchKey", errors.New("NoSuchKey: key missing"), ErrNotFound},
		{"quota", errors.New("quota exceeded for user"), ErrDiskFull},
		{"SlowDown", errors.New("SlowDown: please reduce request rate"), ErrThrottled},
		{"expired token", errors.New("ExpiredToken: token has expired"), ErrAuth},
		{"connection refused", errors.New("dial: connection refused"), ErrNetwork},
		{"unknown", errors.New("something odd"), ErrUnclassified},
		{"api code", fmt.Errorf("put object: %w", &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "gone"}), ErrNotFound},
		{"api code throttling", &smithy.GenericAPIError{Code: "SlowDown"}, ErrThrottled},
		{"api code unknown falls through", &smithy.GenericAPIError{Code: "Weird", Message: "connection refused"}, ErrNetwork},
		{"http 401", fmt.Errorf("get: %w", statusErr(401)), ErrAuth},
		{"http 503", statusErr(503), ErrThrottled},
		{"refused typed", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.wantKind {
				t.Errorf("classifyError(%v) = %v, want %v", tt.err, got, tt.wantKind)
			}
		})
	}
}

func TestWrapErrors(t *testing.T) {
	if WrapWriteError(nil, "p") != nil || WrapReadError(nil, "p") != nil || WrapInitError(nil, "d") != nil {
		t.Fatal("wrapping nil should return nil")
	}

	base := errors.New("no space left on device")
	err := WrapWriteError(base, "datasets/x")

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %T", err)
	}
	if se.Op != "write" || se.Path != "datasets/x" {
		t.Errorf("Op/Path = %q/%q, want write/datasets/x", se.Op, se.Path)
	}
	if !errors.Is(err, ErrDiskFull) {
		t.Error("errors.Is(err, ErrDiskFull) = false, want true")
	}
	if !errors.Is(err, base) {
		t.Error("underlying error lost from chain")
	}

	// Already-classified errors are not wrapped twice.
	if again := WrapReadError(err, "other"); again != err {
		t.Errorf("re-wrap = %v, want original", again)
	}
}

func TestStorageError_Error(t *testing.T) {
	withPath := NewStorageError(ErrNotFound, "read", "a/b", errors.New("missing"))
	if got := withPath.Error(); got != "read a/b: not found: missing" {
		t.Errorf("Error() = %q", got)
	}
	noPath := NewStorageError(ErrTimeout, "init", "", errors.New("slow"))
	if got := noPath.Error(); got != "init: operation timed out: slow" {
		t.Errorf("Error() = %q", got)
	}
}
