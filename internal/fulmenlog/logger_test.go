package fulmenlog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturingLogger(t *testing.T, profile Profile) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	l, err := New(Config{
		Service: "test-service",
		Profile: profile,
		Sinks:   []Sink{NewExternalSink("buf", buf)},
	})
	require.NoError(t, err)
	return l, buf
}

func TestLogger_StructuredProfileRedactsByDefault(t *testing.T) {
	l, buf := newCapturingLogger(t, ProfileStructured)
	l.Info("login attempt", map[string]any{"username": "ada", "password": "hunter2"})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "[REDACTED]", decoded["password"])
	assert.Equal(t, "ada", decoded["username"])
	assert.Equal(t, "test-service", decoded["service"])
}

func TestLogger_EnterpriseProfileInjectsHostPidAndCorrelationID(t *testing.T) {
	l, buf := newCapturingLogger(t, ProfileEnterprise)
	defer l.Flush()
	l.Info("started", nil)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotEmpty(t, decoded["host"])
	assert.NotEmpty(t, decoded["pid"])
	assert.NotEmpty(t, decoded["correlation_id"])
}

func TestLogger_EnterpriseProfileKeepsExistingCorrelationID(t *testing.T) {
	l, buf := newCapturingLogger(t, ProfileEnterprise)
	defer l.Flush()
	ctx := WithCorrelationID(context.Background(), "existing-id")
	l.InfoContext(ctx, "started", nil)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "existing-id", decoded["correlation_id"])
}

func TestLogger_SimpleProfileDoesNotRedact(t *testing.T) {
	l, buf := newCapturingLogger(t, ProfileSimple)
	l.Info("login attempt", map[string]any{"password": "hunter2"})
	assert.True(t, strings.Contains(buf.String(), "hunter2"))
}

func TestLogger_Child_MergesFields(t *testing.T) {
	l, buf := newCapturingLogger(t, ProfileStructured)
	child := l.Child(map[string]any{"request_id": "r-1"})
	child.Info("handled", map[string]any{"status": 200})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "r-1", decoded["request_id"])
	assert.Equal(t, float64(200), decoded["status"])
}

func TestRedactor_DepthLimited(t *testing.T) {
	r := NewRedactor(DefaultRedactionConfig())

	var nest func(depth int) map[string]any
	nest = func(depth int) map[string]any {
		if depth == 0 {
			return map[string]any{"password": "leaf-secret"}
		}
		return map[string]any{"child": nest(depth - 1)}
	}

	deep := nest(maxRedactionDepth + 50)
	result := r.redactMap(deep, 0)
	assert.NotPanics(t, func() { _, _ = json.Marshal(result) })
}

func TestRedactor_FieldNameCaseInsensitive(t *testing.T) {
	r := NewRedactor(DefaultRedactionConfig())
	out := r.redactMap(map[string]any{"API_KEY": "abc123", "PASSWORD": "xyz"}, 0)
	assert.Equal(t, "[REDACTED]", out["API_KEY"])
	assert.Equal(t, "[REDACTED]", out["PASSWORD"])
}

func TestRedactor_OAuthFieldNames(t *testing.T) {
	r := NewRedactor(DefaultRedactionConfig())
	out := r.redactMap(map[string]any{
		"accessToken":   "a",
		"access_token":  "b",
		"refreshToken":  "c",
		"refresh_token": "d",
	}, 0)
	assert.Equal(t, "[REDACTED]", out["accessToken"])
	assert.Equal(t, "[REDACTED]", out["access_token"])
	assert.Equal(t, "[REDACTED]", out["refreshToken"])
	assert.Equal(t, "[REDACTED]", out["refresh_token"])
}

func TestRedactor_SkipsPatternScanPastLengthGuard(t *testing.T) {
	r := NewRedactor(DefaultRedactionConfig())
	long := strings.Repeat("x", maxRedactionScanLen) + "password: hunter2"
	out := r.redactMap(map[string]any{"message": long}, 0)
	assert.Equal(t, long, out["message"], "strings past the 10 KiB guard are left unscanned")

	short := "password: hunter2"
	outShort := r.redactMap(map[string]any{"message": short}, 0)
	assert.NotEqual(t, short, outShort["message"], "short strings still get pattern-scanned")
}

func TestPolicy_Enforce_Conjunction(t *testing.T) {
	p := &Policy{
		AllowedProfiles: []string{"STRUCTURED", "ENTERPRISE"},
		EnvironmentRules: []EnvironmentRule{
			{Environment: "production", AllowedProfiles: []string{"ENTERPRISE"}},
		},
	}

	require.NoError(t, p.Enforce(ProfileEnterprise, "production"))
	require.Error(t, p.Enforce(ProfileStructured, "production"))
	require.Error(t, p.Enforce(ProfileSimple, "staging"))
}

func TestNew_RejectsPolicyViolation(t *testing.T) {
	policy := &Policy{AllowedProfiles: []string{"ENTERPRISE"}}
	_, err := New(Config{Service: "svc", Profile: ProfileSimple, Policy: policy})
	require.Error(t, err)
}
