package fusion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/fusion"
	"github.com/reoring/fusion/iwr"
)

func TestGetPath(t *testing.T) {
	s := sampleShape()
	s.Attrs = map[string]int{"a/b": 2, "K": 1}
	c, err := recShapeType.Wrap(s)
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"id", `"s1"`},
		{"/Origin/Y", `2`},
		{"tags/1", `"b"`},
		{"attrs/k", `1`},
		{"attrs/a~1b", `2`},
	}
	for _, tt := range tests {
		v, err := fusion.GetPath(c, tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, v.String(), tt.path)
	}

	for _, path := range []string{"", "/", "nope", "tags/2", "tags/x", "attrs/z", "id/more"} {
		_, err := fusion.GetPath(c, path)
		assert.ErrorIs(t, err, fusion.ErrConfig, path)
	}

	dot, err := recShapeType.Wrap(recShape{ID: "d", Name: "dot"})
	require.NoError(t, err)
	_, err = fusion.GetPath(dot, "tags/0")
	assert.ErrorIs(t, err, fusion.ErrNoSuchField, "null in the middle of a path")
}

func TestSetPath_CopiesFrozenChildren(t *testing.T) {
	c := recShapeType.Make()
	require.NoError(t, c.Set(0, "s1"))
	require.NoError(t, c.Set(1, "tri"))
	require.NoError(t, c.Set(3, recPoint{X: 1, Y: 2}))
	before := c.Get(3)
	require.NoError(t, c.DoneInit())

	require.NoError(t, fusion.SetPath(c, "origin/x", 5))
	x, err := fusion.GetPath(c, "origin/x")
	require.NoError(t, err)
	assert.Equal(t, "5", x.String())
	assert.Equal(t, `{"x":1,"y":2}`, before.String(), "the previous child is untouched")

	child, ok := fusion.As[fusion.Composite](c.Get(3))
	require.True(t, ok)
	assert.Equal(t, iwr.Read, child.State(), "the updated child is frozen again")

	assert.ErrorIs(t, fusion.SetPath(c, "id", "s2"), fusion.ErrLifecycle)
	assert.ErrorIs(t, fusion.SetPath(c, "origin/z", 1), fusion.ErrNoSuchField)
	assert.ErrorIs(t, fusion.SetPath(c, "tags/0", "x"), fusion.ErrNoSuchField)

	err = fusion.SetPath(c, "origin/x", "five")
	require.Error(t, err)
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	require.NoError(t, c.DoneWrite())
	assert.ErrorIs(t, fusion.SetPath(c, "origin/x", 6), fusion.ErrLifecycle)
}
