package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/invoiceforge/internal/catalog"
	"github.com/roach88/invoiceforge/internal/draft"
	"github.com/roach88/invoiceforge/internal/importer"
	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/settings"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"number": "INV-001"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeNotFound, "invoice 7 not found", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "invoice 7 not found", resp.Error.Message)
}

func TestOutputFormatter_TextSuccessUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(message{text: "Deleted invoice 3.", data: map[string]int{"deleted": 3}})
	require.NoError(t, err)
	assert.Equal(t, "Deleted invoice 3.\n", buf.String())
}

func TestMessage_JSONUsesData(t *testing.T) {
	data, err := json.Marshal(message{text: "ignored", data: map[string]int{"deleted": 3}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted": 3}`, string(data))
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error(ErrCodeGeneric, "something broke", map[string]string{"hint": "x"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "something broke")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorListsViolations(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	violations := []importer.Violation{
		{Path: "currency", Message: "currency: invalid value", Line: 2},
		{Path: "lineItems", Message: "lineItems: empty list"},
	}
	require.NoError(t, formatter.Error(ErrCodeInvalidInvoice, "doc.json: invalid invoice", violations))
	assert.Contains(t, buf.String(), "line 2: currency: invalid value")
	assert.Contains(t, buf.String(), "lineItems: empty list")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Using database %s", "test.db")

			assert.Empty(t, out.String(), "diagnostics never go to stdout")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Using database test.db")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestFail_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"invoice not found", fmt.Errorf("load invoice 3: %w", draft.ErrNotFound), ErrCodeNotFound, ExitCommandError},
		{"service not found", fmt.Errorf("service 3: %w", catalog.ErrNotFound), ErrCodeNotFound, ExitCommandError},
		{"last line item", draft.ErrLastLineItem, ErrCodeInvalidInput, ExitCommandError},
		{"draft row", fmt.Errorf("delete invoice 1: %w", draft.ErrNotHistory), ErrCodeInvalidInput, ExitCommandError},
		{"bad settings", fmt.Errorf("%w: tax rate", settings.ErrInvalid), ErrCodeInvalidInput, ExitCommandError},
		{"bad flag", usagef("--unit: unknown unit"), ErrCodeInvalidInput, ExitCommandError},
		{"storage", &kvstore.OpenError{Path: "x.db", Err: kvstore.ErrNoBackend}, ErrCodeStorage, ExitCommandError},
		{"config", &configError{err: errors.New("bad yaml")}, ErrCodeConfig, ExitCommandError},
		{"render", &renderError{err: errors.New("bad image")}, ErrCodeRender, ExitFailure},
		{"invalid import", &importer.ValidationError{Name: "a.json", Violations: []importer.Violation{{Message: "x"}}}, ErrCodeInvalidInvoice, ExitFailure},
		{"other", errors.New("boom"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail(tt.err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestFail_ReportsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	first := formatter.Fail(errors.New("boom"))
	second := formatter.Fail(first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Error [")))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}
