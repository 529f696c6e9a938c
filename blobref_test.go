package fusion_test

import (
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/fusion"
	"github.com/reoring/fusion/iwr"
)

func TestBlobRef_OfAndVerify(t *testing.T) {
	b := fusion.NewBlobFrom([]byte("hello"))
	ref, err := fusion.BlobRefOf(b)
	require.NoError(t, err)
	assert.Equal(t, iwr.Read, ref.State())
	assert.Equal(t, digest.FromString("hello"), ref.Digest())
	n, ok := ref.Size()
	require.True(t, ok)
	assert.EqualValues(t, 5, n)
	assert.True(t, ref.Verify(b))

	assert.False(t, ref.Verify(fusion.NewBlobFrom([]byte("hellO"))))
	assert.False(t, ref.Verify(fusion.NewBlobFrom([]byte("hello!"))))
}

func TestParseBlobRef(t *testing.T) {
	dg := digest.FromString("x")

	ref, err := fusion.ParseBlobRef(dg.String() + ".1")
	require.NoError(t, err)
	assert.Equal(t, dg.String()+".1", ref.String())

	bare, err := fusion.ParseBlobRef(dg.String())
	require.NoError(t, err)
	_, ok := bare.Size()
	assert.False(t, ok)
	assert.Equal(t, dg.String(), bare.String())
	assert.True(t, bare.Verify(fusion.NewBlobFrom([]byte("x"))), "unknown sizes only check the digest")

	_, err = fusion.ParseBlobRef(dg.String() + ".big")
	assert.ErrorIs(t, err, fusion.ErrCoercion)
	_, err = fusion.ParseBlobRef(dg.String() + ".-1")
	assert.ErrorIs(t, err, fusion.ErrValidation)
	_, err = fusion.ParseBlobRef("sha256:short")
	assert.ErrorIs(t, err, fusion.ErrValidation)
}

func TestBlobRef_IsAnObject(t *testing.T) {
	dg := digest.FromString("x")
	a, err := fusion.NewBlobRef(dg, 1)
	require.NoError(t, err)
	b, err := fusion.NewBlobRef(dg, -1)
	require.NoError(t, err)

	assert.False(t, a.Equal(b), "sizes differ")
	c, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, 0, c, "references order by digest")
	assert.Equal(t, a.Hash(), b.Hash())

	key, err := fusion.BlobRefType.MakeKey()
	require.NoError(t, err)
	require.NoError(t, key.(*fusion.BlobRef).UnmarshalText([]byte(dg.String()+".1")))
	require.NoError(t, key.DoneWrite())
	assert.True(t, key.Equal(a))
	assert.Equal(t, dg.String(), key.(*fusion.BlobRef).String(), "key-instances carry no size")

	cp, err := iwr.CloneForWrite[fusion.Composite](a)
	require.NoError(t, err)
	_, isRef := cp.(*fusion.BlobRef)
	assert.True(t, isRef, "clones keep the constructor wrapper")
	assert.ErrorIs(t, cp.Set(0, dg.String()), fusion.ErrLifecycle, "the digest is a readonly key")
}
