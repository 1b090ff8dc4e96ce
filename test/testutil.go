//go:build e2e

package test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPJSONStep represents a single HTTP JSON request step in a test
type HTTPJSONStep struct {
	Name           string
	Method         string
	URL            string
	Body           any
	ExpectedStatus int
	Validator      func(*testing.T, map[string]any) // Optional response validator
}

// ExecuteHTTPJSONStep executes a single step with client c, which carries
// the session cookie when it has a jar
func ExecuteHTTPJSONStep(t *testing.T, c *http.Client, step HTTPJSONStep, baseURL string) map[string]any {
	t.Helper()
	t.Logf("step: %s", step.Name)

	resp, err := httpJSON(c, step.Method, baseURL+step.URL, step.Body)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	assert.Equal(t, step.ExpectedStatus, resp.StatusCode, step.Name)

	var respData map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&respData))

	if step.Validator != nil {
		step.Validator(t, respData)
	}

	return respData
}

// ExecuteHTTPJSONSteps executes a sequence of HTTP JSON steps
func ExecuteHTTPJSONSteps(t *testing.T, c *http.Client, steps []HTTPJSONStep, baseURL string) []map[string]any {
	t.Helper()
	var results []map[string]any

	for _, step := range steps {
		results = append(results, ExecuteHTTPJSONStep(t, c, step, baseURL))
	}

	return results
}

// FieldsValidator checks that every named field is present and non-empty
func FieldsValidator(expectedFields ...string) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		for _, field := range expectedFields {
			value, exists := respData[field]
			require.True(t, exists, "Expected field %s to exist in response", field)
			require.NotEmpty(t, value, "Expected field %s to not be empty", field)
		}
	}
}

// CodeValidator checks the machine code of an error envelope
func CodeValidator(expectedCode string) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		assert.Equal(t, expectedCode, respData["code"])
		assert.NotEmpty(t, respData["message"])
	}
}

// MessageValidator validates that a response contains a specific message
func MessageValidator(expectedMessage string) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		message, exists := respData["message"]
		require.True(t, exists, "Expected message field to exist in response")
		assert.Equal(t, expectedMessage, message)
	}
}

// GetStringField safely extracts a string field, following a dotted parent
func GetStringField(t *testing.T, respData map[string]any, parent, field string) string {
	t.Helper()
	obj := respData
	if parent != "" {
		nested, ok := respData[parent].(map[string]any)
		require.True(t, ok, "Expected %s to be an object", parent)
		obj = nested
	}
	v, ok := obj[field].(string)
	require.True(t, ok, "Expected %s to be a string", field)
	require.NotEmpty(t, v)
	return v
}
