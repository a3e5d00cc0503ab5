// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMisuseErrorCode(t *testing.T) {
	err := misuseError("unknown source %q", "nope")
	var ce *cliError
	assert.True(t, asCliError(err, &ce))
	assert.Equal(t, 1, ce.code)
	assert.Contains(t, ce.Error(), "nope")
}

func TestInternalErrorCode(t *testing.T) {
	err := internalError(errors.New("boom"))
	var ce *cliError
	assert.True(t, asCliError(err, &ce))
	assert.Equal(t, 2, ce.code)
}

func TestAsCliErrorRejectsPlainError(t *testing.T) {
	var ce *cliError
	assert.False(t, asCliError(errors.New("plain"), &ce))
}
