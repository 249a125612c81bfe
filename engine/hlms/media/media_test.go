package media

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSub_CaseInsensitiveSegments(t *testing.T) {
	data, err := Sub(FS, "Hlms/pbs/GLSL")
	require.NoError(t, err)
	_, err = fs.Stat(data, "VertexShader_vs.wgsl")
	assert.NoError(t, err)

	_, err = Sub(FS, "Hlms/Wind/Any")
	assert.NoError(t, err)

	_, err = Sub(FS, "Hlms/Unlit/Any")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestResolve_ReturnsExactCase(t *testing.T) {
	p, err := Resolve(FS, "hlms/pbs/glsl")
	require.NoError(t, err)
	assert.Equal(t, "Hlms/Pbs/GLSL", p)

	p, err = Resolve(FS, ".")
	require.NoError(t, err)
	assert.Equal(t, ".", p)
}
