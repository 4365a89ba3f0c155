package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rootschemas "github.com/jonathan/signal-agent/schemas"
)

func validateFile(t *testing.T, schemaPath, jsonPath string) error {
	t.Helper()
	v, err := LoadFile(schemaPath)
	require.NoError(t, err)
	doc, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	return v.Validate(doc)
}

func TestLoadFile_ValidJSON(t *testing.T) {
	err := validateFile(t, filepath.Join("testdata", "email_schema.json"), filepath.Join("testdata", "valid_email.json"))
	assert.NoError(t, err)
}

func TestLoadFile_InvalidJSON_MissingField(t *testing.T) {
	err := validateFile(t, filepath.Join("testdata", "email_schema.json"), filepath.Join("testdata", "missing_body.json"))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
	assert.Equal(t, "email_schema.json", validationErr.Schema)
}

func TestLoadFile_InvalidJSON_WrongType(t *testing.T) {
	err := validateFile(t, filepath.Join("testdata", "email_schema.json"), filepath.Join("testdata", "type_mismatch.json"))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "subject", validationErr.Errors[0].Field)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("testdata/nonexistent_schema.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	tmpDir := t.TempDir()
	broken := filepath.Join(tmpDir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"type": 12}`), 0644))

	_, err = LoadFile(broken)
	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
}

func TestValidator_MalformedJSON(t *testing.T) {
	v, err := LoadFile(filepath.Join("testdata", "email_schema.json"))
	require.NoError(t, err)
	assert.Equal(t, "email_schema.json", v.Name())
	assert.Error(t, v.Validate([]byte("{ invalid json }")))
}

func TestValidateBytes(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		doc     string
		wantErr bool
	}{
		{"scrape ok", rootschemas.ScrapeResult, `{"ok":true,"pages":{"/":"<html></html>"},"urls":{"/":"https://a.com/"}}`, false},
		{"scrape page not string", rootschemas.ScrapeResult, `{"ok":true,"pages":{"/":42}}`, true},
		{"scrape missing ok", rootschemas.ScrapeResult, `{"pages":{}}`, true},
		{"validate ok", rootschemas.ValidateResult, `{"ok":true,"signal_type":"hiring","confidence":0.5}`, false},
		{"validate null fields", rootschemas.ValidateResult, `{"ok":false,"signal_type":null,"evidence_url":null}`, false},
		{"validate bad signal", rootschemas.ValidateResult, `{"ok":true,"signal_type":"funding"}`, true},
		{"validate confidence range", rootschemas.ValidateResult, `{"ok":true,"confidence":3}`, true},
		{"email ok", rootschemas.EmailDraft, `{"subject":"Hi","body":"Body","call_to_action":null}`, false},
		{"email empty subject", rootschemas.EmailDraft, `{"subject":"","body":"Body"}`, true},
		{"tool call", rootschemas.ToolCall, `{"tool":"fetch","args":{"url":"https://a.com/"}}`, false},
		{"tool call missing tool", rootschemas.ToolCall, `{"args":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBytes(tt.schema, []byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBytes_UnknownSchema(t *testing.T) {
	err := ValidateBytes("missing.schema.json", []byte(`{}`))
	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.schema.json", loadErr.Path)
}

func TestCompiled_Cached(t *testing.T) {
	a, err := Compiled(rootschemas.EmailDraft)
	require.NoError(t, err)
	b, err := Compiled(rootschemas.EmailDraft)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestEmbedded(t *testing.T) {
	v, err := Embedded(rootschemas.ToolCall)
	require.NoError(t, err)
	assert.Equal(t, rootschemas.ToolCall, v.Name())
	assert.NoError(t, v.Validate([]byte(`{"tool":"fetch","args":{}}`)))

	_, err = Embedded("missing.schema.json")
	assert.Error(t, err)
}
