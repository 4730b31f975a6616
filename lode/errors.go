package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
)

// Storage failure kinds. A *StorageError matches its kind with errors.Is.
// ErrAuth is missing or invalid credentials; ErrAccessDenied is valid
// credentials without permission.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrDiskFull         = errors.New("no space left on device")
	ErrTimeout          = errors.New("operation timed out")
	ErrThrottled        = errors.New("rate limited")
	ErrAuth             = errors.New("authentication failed")
	ErrAccessDenied     = errors.New("access denied")
	ErrNetwork          = errors.New("network error")
	ErrUnclassified     = errors.New("storage error")
)

// StorageError is a storage failure tagged with its kind, the operation
// ("init", "write", "read") and the path or dataset involved.
type StorageError struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	target := e.Op
	if e.Path != "" {
		target += " " + e.Path
	}
	return fmt.Sprintf("%s: %v: %v", target, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return errors.Is(e.Kind, target) }

// NewStorageError creates a classified storage error.
func NewStorageError(kind error, op, path string, err error) *StorageError {
	return &StorageError{Kind: kind, Op: op, Path: path, Err: err}
}

// WrapWriteError classifies a write failure. nil stays nil.
func WrapWriteError(err error, path string) error { return wrap(err, "write", path) }

// WrapReadError classifies a read failure. nil stays nil.
func WrapReadError(err error, path string) error { return wrap(err, "read", path) }

// WrapInitError classifies a client or dataset construction failure.
func WrapInitError(err error, dataset string) error { return wrap(err, "init", dataset) }

func wrap(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return NewStorageError(classifyError(err), op, path, err)
}

// classifyError picks the kind for err: typed Go errors, then S3 API error
// codes, then HTTP status, then message text.
func classifyError(err error) error {
	if kind := classifyTyped(err); kind != nil {
		return kind
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := apiCodes[strings.ToLower(apiErr.ErrorCode())]; ok {
			return kind
		}
	}
	var resp interface{ HTTPStatusCode() int }
	if errors.As(err, &resp) {
		if kind, ok := httpStatuses[resp.HTTPStatusCode()]; ok {
			return kind
		}
	}
	return classifyMessage(strings.ToLower(err.Error()))
}

func classifyTyped(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return ErrTimeout
	}
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrNetwork
	}
	return nil
}

var apiCodes = map[string]error{
	"accessdenied":          ErrAccessDenied,
	"allaccessdisabled":     ErrAccessDenied,
	"nosuchkey":             ErrNotFound,
	"nosuchbucket":          ErrNotFound,
	"notfound":              ErrNotFound,
	"slowdown":              ErrThrottled,
	"throttling":            ErrThrottled,
	"requestlimitexceeded":  ErrThrottled,
	"invalidaccesskeyid":    ErrAuth,
	"signaturedoesnotmatch": ErrAuth,
	"expiredtoken":          ErrAuth,
	"requesttimeout":        ErrTimeout,
}

var httpStatuses = map[int]error{
	401: ErrAuth,
	403: ErrAccessDenied,
	404: ErrNotFound,
	408: ErrTimeout,
	429: ErrThrottled,
	503: ErrThrottled,
}

// messageKinds is checked in order; the first match wins.
var messageKinds = []struct {
	kind    error
	substrs []string
}{
	{ErrAccessDenied, []string{"accessdenied", "access denied", "forbidden", "403"}},
	{ErrPermissionDenied, []string{"permission denied", "eacces"}},
	{ErrNotFound, []string{"no such file", "does not exist", "not found", "enoent", "404", "nosuchkey", "nosuchbucket"}},
	{ErrDiskFull, []string{"no space left", "disk full", "enospc", "quota exceeded"}},
	{ErrTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrThrottled, []string{"slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"}},
	{ErrAuth, []string{
		"nocredentialproviders", "credentials", "invalidaccesskeyid",
		"signaturedoesnotmatch", "expiredtoken", "401", "unauthorized",
	}},
	{ErrNetwork, []string{"connection refused", "no route to host", "network unreachable", "dns", "dial tcp"}},
}

func classifyMessage(msg string) error {
	for _, m := range messageKinds {
		for _, sub := range m.substrs {
			if strings.Contains(msg, sub) {
				return m.kind
			}
		}
	}
	return ErrUnclassified
}
