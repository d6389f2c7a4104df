// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := mnerr.New(
		mnerr.CodeConfigValidateInvalidValue,
		"invalid provider configuration",
		mnerr.FieldProvider("openai"),
		mnerr.Field("priority", 1),
	)

	require.Error(t, err)
	assert.Equal(t, mnerr.CodeConfigValidateInvalidValue, mnerr.CodeOf(err))
	assert.True(t, mnerr.HasCode(err, mnerr.CodeConfigValidateInvalidValue))

	fields := mnerr.FieldsOf(err)
	assert.Equal(t, "openai", fields["provider"])
	assert.Equal(t, 1, fields["priority"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, mnerr.CodeStoreDatabaseFailure, mnerr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := mnerr.Wrap(
		root,
		mnerr.CodeStoreDocumentNotFound,
		"loading document",
		mnerr.FieldDocument("doc-42"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, mnerr.CodeStoreDocumentNotFound, mnerr.CodeOf(err))
	assert.True(t, mnerr.IsNotFound(err))
	assert.Equal(t, "doc-42", mnerr.FieldsOf(err)["document_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, mnerr.Wrap(nil, mnerr.CodeInternalFailure, "ignored"))
	assert.NoError(t, mnerr.Wrapf(nil, mnerr.CodeInternalFailure, "ignored %s", "arg"))
}

func TestWrapfFormatsAndPreservesChain(t *testing.T) {
	root := stderrors.New("timeout")
	err := mnerr.Wrapf(root, mnerr.CodeProviderUpstreamFailure, "calling %s model %s", "anthropic", "claude")

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, mnerr.CodeProviderUpstreamFailure, mnerr.CodeOf(err))
	assert.Contains(t, err.Error(), "calling anthropic model claude")
}

// ---------------------------------------------------------------------------
// With
// ---------------------------------------------------------------------------

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := mnerr.New(mnerr.CodeProviderNotCapable, "no embedding support")
	withCtx := mnerr.With(base, mnerr.FieldProvider("anthropic"))

	require.Error(t, withCtx)
	assert.Equal(t, mnerr.CodeProviderNotCapable, mnerr.CodeOf(withCtx))
	assert.Equal(t, "anthropic", mnerr.FieldsOf(withCtx)["provider"])
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	plain := stderrors.New("something broke")
	enriched := mnerr.With(plain, mnerr.FieldCacheKey("doc:d1"))

	require.Error(t, enriched)
	assert.Equal(t, mnerr.CodeInternalFailure, mnerr.CodeOf(enriched))
	assert.Equal(t, "doc:d1", mnerr.FieldsOf(enriched)["cache_key"])
}

// ---------------------------------------------------------------------------
// CodeOf / HasCode
// ---------------------------------------------------------------------------

func TestCodeOfNilAndPlain(t *testing.T) {
	assert.Equal(t, mnerr.Code(""), mnerr.CodeOf(nil))
	assert.Equal(t, mnerr.Code(""), mnerr.CodeOf(stderrors.New("plain")))
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := mnerr.New(mnerr.CodeStoreDatabaseFailure, "db")
	outer := mnerr.Wrap(inner, mnerr.CodeInternalFailure, "handler")
	// oops.AsOops walks to the deepest oops error, so CodeOf returns the innermost code.
	assert.Equal(t, mnerr.CodeStoreDatabaseFailure, mnerr.CodeOf(outer))
}

func TestHasCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code mnerr.Code
		want bool
	}{
		{
			name: "matching code",
			err:  mnerr.New(mnerr.CodeStoreDocumentNotFound, "gone"),
			code: mnerr.CodeStoreDocumentNotFound,
			want: true,
		},
		{
			name: "non-matching code",
			err:  mnerr.New(mnerr.CodeStoreDocumentNotFound, "gone"),
			code: mnerr.CodeStoreDatabaseFailure,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: mnerr.CodeStoreDocumentNotFound,
			want: false,
		},
		{
			name: "plain stdlib error has no code",
			err:  stderrors.New("plain"),
			code: mnerr.CodeInternalFailure,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mnerr.HasCode(tt.err, tt.code))
		})
	}
}

// ---------------------------------------------------------------------------
// Classification helpers
// ---------------------------------------------------------------------------

func TestClassificationAndStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   mnerr.Code
		status int
		check  func(error) bool
	}{
		{name: "document not found", code: mnerr.CodeStoreDocumentNotFound, status: 404, check: mnerr.IsNotFound},
		{name: "edge not found", code: mnerr.CodeStoreEdgeNotFound, status: 404, check: mnerr.IsNotFound},
		{name: "provider not found", code: mnerr.CodeProviderNotFound, status: 404, check: mnerr.IsNotFound},
		{name: "secret not found", code: mnerr.CodeSecretNotFound, status: 404, check: mnerr.IsNotFound},
		{name: "invalid value", code: mnerr.CodeConfigValidateInvalidValue, status: 400, check: mnerr.IsInvalidInput},
		{name: "invalid format", code: mnerr.CodeConfigParseInvalidFormat, status: 400, check: mnerr.IsInvalidInput},
		{name: "invalid input", code: mnerr.CodeStoreInvalidInput, status: 400, check: mnerr.IsInvalidInput},
		{name: "provider timeout", code: mnerr.CodeProviderTimeout, status: 504, check: mnerr.IsTimeout},
		{name: "upstream failure", code: mnerr.CodeProviderUpstreamFailure, status: 502, check: mnerr.IsUpstreamFailure},
		{name: "internal", code: mnerr.CodeInternalFailure, status: 500, check: func(err error) bool { return !mnerr.IsNotFound(err) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mnerr.New(tt.code, "boom")
			assert.Equal(t, tt.status, mnerr.HTTPStatus(err))
			assert.True(t, tt.check(err))
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, mnerr.IsRecoverable(mnerr.New(mnerr.CodeProviderUpstreamFailure, "down")))
	assert.True(t, mnerr.IsRecoverable(mnerr.New(mnerr.CodeProviderTimeout, "slow")))
	assert.True(t, mnerr.IsRecoverable(mnerr.New(mnerr.CodeProviderAllUnavailable, "none")))
	assert.False(t, mnerr.IsRecoverable(mnerr.New(mnerr.CodeStoreInvalidInput, "bad")))
	assert.False(t, mnerr.IsRecoverable(nil))
}

func TestClassificationOnNilAndPlain(t *testing.T) {
	for _, err := range []error{nil, stderrors.New("plain")} {
		assert.False(t, mnerr.IsNotFound(err))
		assert.False(t, mnerr.IsInvalidInput(err))
		assert.False(t, mnerr.IsTimeout(err))
		assert.False(t, mnerr.IsUpstreamFailure(err))
	}
}

// ---------------------------------------------------------------------------
// HTTPStatus edge cases / Join / unwrapping
// ---------------------------------------------------------------------------

func TestHTTPStatusFallbacks(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, mnerr.HTTPStatus(nil))
	assert.Equal(t, http.StatusInternalServerError, mnerr.HTTPStatus(stderrors.New("oops")))
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	joined := mnerr.Join(a, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
	assert.Equal(t, mnerr.CodeInternalFailure, mnerr.CodeOf(joined))
}

func TestErrorIsWithWrappedChain(t *testing.T) {
	sentinel := stderrors.New("root cause")
	mid := fmt.Errorf("mid: %w", sentinel)
	outer := mnerr.Wrap(mid, mnerr.CodeInternalFailure, "handler")

	assert.ErrorIs(t, outer, sentinel)
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := mnerr.New(mnerr.CodeStoreDatabaseFailure, "oops",
		mnerr.Field("", "should-be-dropped"),
		mnerr.FieldProvider("kept"),
	)
	fields := mnerr.FieldsOf(err)
	assert.Equal(t, "kept", fields["provider"])
	assert.NotContains(t, fields, "")
}
