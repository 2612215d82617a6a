package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTenantID(t *testing.T) {
	assert.NoError(t, ValidateTenantID("acme"))
	assert.NoError(t, ValidateTenantID("acme_corp-01"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("acme corp"))
	assert.Error(t, ValidateTenantID("acme/../etc"))
}

func TestValidateRecordID(t *testing.T) {
	assert.NoError(t, ValidateRecordID("11111111-1111-1111-1111-111111111111"))
	assert.Error(t, ValidateRecordID(""))
	assert.Error(t, ValidateRecordID("not-a-uuid"))
}

func TestValidateSuggestionID(t *testing.T) {
	assert.NoError(t, ValidateSuggestionID("11111111-1111-1111-1111-111111111111-capa-01"))
	assert.NoError(t, ValidateSuggestionID("11111111-1111-1111-1111-111111111111-control_test-05"))
	assert.Error(t, ValidateSuggestionID(""))
	assert.Error(t, ValidateSuggestionID("garbage"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("hello\x00"))
	assert.Equal(t, "a b", SanitizeString("  a b  "))
	assert.Equal(t, "ab", SanitizeString("a\x01\x02b"))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 50, ValidateLimit(50))
	assert.Equal(t, 100, ValidateLimit(500))
}
