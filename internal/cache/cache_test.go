package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	a := Part{Name: "request", Content: []byte("target => A,\r\nto => x")}
	b := Part{Name: "source", Content: []byte("trait A {}")}

	fp := Fingerprint(a, b)
	assert.True(t, IsFingerprint(fp))
	assert.Equal(t, fp, Fingerprint(b, a), "order independent")
	assert.Equal(t, fp, Fingerprint(Part{Name: "request", Content: []byte("target => A,\nto => x")}, b), "line endings normalized")
	assert.NotEqual(t, fp, Fingerprint(a, Part{Name: "source", Content: []byte("trait B {}")}))
	assert.NotEqual(t, fp, Fingerprint(Part{Name: "request2", Content: a.Content}, b), "names are hashed")
}

func TestIsFingerprint(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{Fingerprint(), true},
		{"h1:abc", false},
		{"sha256:" + Fingerprint()[3:], false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsFingerprint(tt.input), tt.input)
	}
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify("out.rs", "h1:a", "h1:a"))
	err := Verify("out.rs", "h1:a", "h1:b")
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "fingerprint mismatch for out.rs: expected h1:a, got h1:b", err.Error())
}

func TestDiskCache(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "delegen"))
	require.NoError(t, err)

	fp := Fingerprint(Part{Name: "x", Content: []byte("y")})
	_, ok, err := c.Get(fp)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(&Entry{Fingerprint: fp, Interfaces: []string{"Shape"}, Output: []byte("impl Shape for W {}")}))
	entry, ok, err := c.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Shape"}, entry.Interfaces)
	assert.Equal(t, "impl Shape for W {}", string(entry.Output))
	assert.Equal(t, diskCacheSchemaVersion, entry.Schema)

	files, err := os.ReadDir(filepath.Join(c.Dir(), "expansions"))
	require.NoError(t, err)
	assert.Len(t, files, 1, "temporary files are removed")

	require.NoError(t, c.DropAll())
	_, ok, err = c.Get(fp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilDiskCache(t *testing.T) {
	var c *DiskCache
	assert.NoError(t, c.Put(&Entry{Fingerprint: "h1:x"}))
	_, ok, err := c.Get("h1:x")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.DropAll())
	assert.Equal(t, "", c.Dir())
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache/test")
	dir, err := DefaultDir("delegen")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/cache/test", "delegen"), dir)
}
