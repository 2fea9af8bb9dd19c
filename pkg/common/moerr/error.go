// Copyright 2023 ColStream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package moerr carries the coded errors of the engine. Every error that
// crosses a package boundary is a *Error with a stable numeric code so
// that callers can branch on the class of failure instead of matching
// message strings.
package moerr

import (
	"context"
	"errors"
	"fmt"
)

const (
	Ok uint16 = 0

	// Group 1: internal errors
	ErrInternal         uint16 = 20101
	ErrNYI              uint16 = 20102
	ErrQueryInterrupted uint16 = 20104

	// Group 2: numeric and functions
	ErrOutOfRange uint16 = 20201
	ErrInvalidArg uint16 = 20203

	// Group 3: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301

	// Group 4: unexpected state and io errors
	ErrInvalidState uint16 = 20400
	ErrIOError      uint16 = 20401
)

// Error is the error type of the engine. Code is one of the Err*
// constants above.
type Error struct {
	code uint16
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

func newError(_ context.Context, code uint16, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// IsMoErrCode reports whether err is, or wraps, a *Error with the
// given code.
func IsMoErrCode(err error, code uint16) bool {
	if err == nil {
		return code == Ok
	}
	var me *Error
	return errors.As(err, &me) && me.code == code
}

func NewInternalError(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrInternal, "internal error: "+fmt.Sprintf(format, args...))
}

func NewNYI(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrNYI, fmt.Sprintf(format, args...)+" not yet implemented")
}

func NewQueryInterrupted(ctx context.Context) *Error {
	return newError(ctx, ErrQueryInterrupted, "query interrupted")
}

func NewOutOfRange(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrOutOfRange, "out of range: "+fmt.Sprintf(format, args...))
}

func NewInvalidArg(ctx context.Context, arg string, val any) *Error {
	return newError(ctx, ErrInvalidArg, fmt.Sprintf("invalid argument %s, bad value %v", arg, val))
}

func NewBadConfig(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrBadConfig, "invalid configuration: "+fmt.Sprintf(format, args...))
}

func NewInvalidInput(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrInvalidInput, "invalid input: "+fmt.Sprintf(format, args...))
}

func NewInvalidState(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrInvalidState, "invalid state "+fmt.Sprintf(format, args...))
}

func NewIOError(ctx context.Context, format string, args ...any) *Error {
	return newError(ctx, ErrIOError, "io error: "+fmt.Sprintf(format, args...))
}
