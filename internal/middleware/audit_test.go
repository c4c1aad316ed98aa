package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeMetaKeepsOnlyAllowListedFields(t *testing.T) {
	a := &Audit{}

	body := `{"amount":"50","fromAccount":1,"toAccount":2,"password":"hunter2","idempotencyKey":"k1"}`
	r := httptest.NewRequest("POST", "/transactions/transfer", strings.NewReader(body))

	meta := a.safeMeta(r)

	var parsed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(meta), &parsed))
	assert.Contains(t, parsed, "amount")
	assert.Contains(t, parsed, "fromAccount")
	assert.Contains(t, parsed, "toAccount")
	assert.NotContains(t, parsed, "password")
	assert.NotContains(t, parsed, "idempotencyKey")
}

func TestSafeMetaRestoresBody(t *testing.T) {
	a := &Audit{}

	body := `{"amount":"50"}`
	r := httptest.NewRequest("POST", "/transactions/transfer", strings.NewReader(body))

	a.safeMeta(r)

	restored, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte(body), restored))
}

func TestSafeMetaNonJSONBody(t *testing.T) {
	a := &Audit{}

	r := httptest.NewRequest("POST", "/transactions/transfer", strings.NewReader("not json"))
	assert.Equal(t, "{}", a.safeMeta(r))
}

func TestSafeMetaGetRequestSkipsBody(t *testing.T) {
	a := &Audit{}

	r := httptest.NewRequest("GET", "/transactions", nil)
	assert.Equal(t, "{}", a.safeMeta(r))
}

func TestHashTokenIsStable(t *testing.T) {
	first := HashToken("token-a")
	second := HashToken("token-a")
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, HashToken("token-b"))
	assert.Len(t, first, 64)
}
