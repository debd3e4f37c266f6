package facade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kvvault/internal/crypto"
)

const testFixedKey = "NBmku5ZLhKGlclqxJBaHujx5PTptxrDzQugGx_ZJHc0="

func newTestSecrets(t *testing.T) *Secrets {
	t.Helper()
	eng := newTestEngine()
	_, err := eng.CreateStore(SecretsStoreName)
	require.NoError(t, err)

	rawKey, err := crypto.ParseKey(testFixedKey)
	require.NoError(t, err)
	cipher, err := crypto.NewCipher(rawKey)
	require.NoError(t, err)

	return NewSecrets(eng, cipher)
}

func TestSecretsRoundTripsThroughCipher(t *testing.T) {
	f := newTestSecrets(t)
	methods := f.Methods()

	ok, err := methods["add_confidential_key"](nil, map[string]interface{}{
		"key": "db_password", "value": "hunter2", "created_by": "ops",
	})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	// The stored token must not be the plaintext.
	rec, found := f.Engine.GetRecord(SecretsStoreName, "db_password")
	require.True(t, found)
	require.NotEqual(t, "hunter2", rec.Value)

	got, err := methods["get_confidential_key"](nil, map[string]interface{}{"key": "db_password"})
	require.NoError(t, err)
	out, ok := got.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "hunter2", out["value"])
	require.Equal(t, "ops", out["created_by"])
}

func TestSecretsEditPreservesTokenOpacity(t *testing.T) {
	f := newTestSecrets(t)
	methods := f.Methods()

	methods["add_confidential_key"](nil, map[string]interface{}{"key": "k", "value": "v1"})
	ok, err := methods["edit_confidential_key"](nil, map[string]interface{}{"key": "k", "value": "v2"})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	got, err := methods["get_confidential_key"](nil, map[string]interface{}{"key": "k"})
	require.NoError(t, err)
	out := got.(map[string]interface{})
	require.Equal(t, "v2", out["value"])
}

func TestSecretsDeleteConfidentialKey(t *testing.T) {
	f := newTestSecrets(t)
	methods := f.Methods()

	methods["add_confidential_key"](nil, map[string]interface{}{"key": "k", "value": "v1"})
	ok, err := methods["delete_confidential_key"](nil, map[string]interface{}{"key": "k"})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	_, err = methods["get_confidential_key"](nil, map[string]interface{}{"key": "k"})
	require.Error(t, err)
}
