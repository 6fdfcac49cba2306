package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 20)
		assert.True(t, ValidToken(token), "generated token %q should pass validation", token)
		assert.False(t, seen[token], "duplicate token %q", token)
		seen[token] = true
	}
}

func TestValidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid mixed", "aB3dE6gH9jK2mN5pQ8sT", true},
		{"too short", "aB3dE6gH9jK2mN5pQ8s", false},
		{"too long", "aB3dE6gH9jK2mN5pQ8sTx", false},
		{"empty", "", false},
		{"underscore", "aB3dE6gH9jK2mN5pQ8s_", false},
		{"hyphen", "aB3dE6gH9jK2mN5pQ8s-", false},
		{"non-ascii", "aB3dE6gH9jK2mN5pQ8sé", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidToken(tt.token))
		})
	}
}

func TestProviderGetOrCreate(t *testing.T) {
	p := NewProvider(NewMemStore())

	first, err := p.GetOrCreate()
	require.NoError(t, err)
	assert.True(t, ValidToken(first))

	// Same token on every subsequent call.
	second, err := p.GetOrCreate()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.True(t, p.Has())

	require.NoError(t, p.Clear())
	assert.False(t, p.Has())

	// A fresh token after clearing, not the old one.
	third, err := p.GetOrCreate()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestProviderNilStore(t *testing.T) {
	p := NewProvider(nil)

	token, err := p.GetOrCreate()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, p.Has())
	assert.NoError(t, p.Clear())
}

func TestFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	p1 := NewProvider(NewFileStore(path))
	token, err := p1.GetOrCreate()
	require.NoError(t, err)
	require.True(t, ValidToken(token))

	// A second provider over the same file sees the same token.
	p2 := NewProvider(NewFileStore(path))
	got, err := p2.GetOrCreate()
	require.NoError(t, err)
	assert.Equal(t, token, got)
}
