// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package release implements the release lifecycle, baseline resolution,
// effective-view lookup, diff engine, and parameter index described by the
// content-release data model. It is storage-agnostic: callers supply a
// Store implementation (see store.go).
package release

import (
	"errors"
	"fmt"
)

// ErrorCode is one of the stable wire error strings a core operation can
// return. Callers (the dispatcher, tests) map it to the documented contract
// rather than matching on Go error values.
type ErrorCode string

// Stable wire error codes.
const (
	ErrContentReleaseAlreadyExists          ErrorCode = "content_release_already_exists"
	ErrContentReleaseDoesNotExist           ErrorCode = "content_release_does_not_exist"
	ErrBaseContentReleaseDoesNotExist       ErrorCode = "base_content_release_does_not_exist"
	ErrContentReleaseMoreThanOne            ErrorCode = "content_release_more_than_one"
	ErrContentReleaseTitleVersionNotDefined ErrorCode = "content_release_title_version_not_defined"
	ErrContentReleaseExtraParamDoesNotExist ErrorCode = "content_release_extra_parameter_does_not_exist"
	ErrReleaseDocumentDoesNotExist          ErrorCode = "release_document_does_not_exist"
	ErrNoContentReleaseLive                 ErrorCode = "no_content_release_live"
	ErrParametersMissing                    ErrorCode = "parameters_missing"
	ErrPublishDatetimeInPast                ErrorCode = "publishdatetime_in_past"
	ErrNotDatetime                          ErrorCode = "not_datetime"
	ErrContentReleasePublish                ErrorCode = "content_release_publish"
	ErrContentReleaseNotPublish             ErrorCode = "content_release_not_publish"

	// ErrReleaseChainCycle is not part of the wire contract in §6 — it signals
	// a corrupted base-release chain detected at read time (§4.3). It is
	// returned to the caller as an error and never silently retried; the
	// release package does not log it.
	ErrReleaseChainCycle ErrorCode = "release_chain_cycle"
)

// Error wraps a stable ErrorCode with an optional underlying cause. The
// dispatcher recovers the code with errors.As and renders it as the
// response's error_code field; the underlying cause (if any) stays out of
// the wire response and is only useful for logs.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a bare Error carrying only a code.
func NewError(code ErrorCode) *Error { return &Error{Code: code} }

// WrapError builds an Error carrying both a code and an underlying cause.
func WrapError(code ErrorCode, err error) *Error { return &Error{Code: code, Err: err} }

// CodeOf extracts the ErrorCode from err, if any link in its chain is an
// *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Store-level sentinel errors. Implementations of Store return these (or
// errors wrapping these) so the release package can classify "not found"
// vs. "already exists" without depending on a specific database driver.
var (
	ErrNotFound  = errors.New("release: not found")
	ErrDuplicate = errors.New("release: duplicate")
)

func isNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func isDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }
