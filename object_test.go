package fusion_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/fusion"
	"github.com/reoring/fusion/iwr"
)

// person: id KEY, name [1,20], age [0,150] nullable, tags LIST.STRING.
var personType = func() *fusion.ObjectType {
	s := fusion.NewSchema("testPerson").
		FieldOf("id", "STRING").Key().
		FieldOf("name", "STRING", 1, 20).Default("anon").
		FieldOf("age", "INTEGER", 0, 150).Nullable().
		FieldOf("tags", "LIST.STRING").Nullable().
		MustBuild()
	t := fusion.NewObjectType(s)
	fusion.MustRegister(t)
	return t
}()

const (
	fID = iota
	fName
	fAge
	fTags
)

func newPerson(t *testing.T, id string) fusion.Composite {
	t.Helper()
	p := personType.Make()
	require.NoError(t, p.Set(fID, id))
	return p
}

func TestObject_MakeUsesDefaults(t *testing.T) {
	p := personType.Make()
	assert.Equal(t, iwr.Init, p.State())
	assert.True(t, p.Get(fID).IsNull())
	name, _ := p.Get(fName).Text()
	assert.Equal(t, "anon", name)
	assert.True(t, p.Get(fAge).IsNull())
	assert.Same(t, personType, p.Factory())
}

func TestObject_InitBypassesRangeButNotType(t *testing.T) {
	p := newPerson(t, "a")
	require.NoError(t, p.Set(fAge, 200), "INIT skips ranges")

	err := p.Set(fAge, "old")
	require.Error(t, err)
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	// The out-of-range value blocks every transition.
	err = p.DoneInit()
	require.Error(t, err)
	assert.ErrorIs(t, err, fusion.ErrValidation)
	assert.Equal(t, iwr.Init, p.State())
	iss, ok := fusion.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/age", iss[0].Path)
	assert.Equal(t, fusion.CodeTooBig, iss[0].Code)

	require.NoError(t, p.Set(fAge, 150))
	require.NoError(t, p.DoneInit())
}

func TestObject_WriteRules(t *testing.T) {
	p := newPerson(t, "a")
	require.NoError(t, p.DoneInit())
	require.Equal(t, iwr.Write, p.State())

	err := p.Set(fID, "b")
	assert.ErrorIs(t, err, fusion.ErrLifecycle, "readonly in WRITE")

	err = p.Set(fAge, 151)
	assert.ErrorIs(t, err, fusion.ErrValidation, "ranges apply in WRITE")
	assert.True(t, p.Get(fAge).IsNull(), "rejected assignments have no effect")

	err = p.Set(fName, nil)
	assert.ErrorIs(t, err, fusion.ErrValidation, "null into a non-nullable field")

	require.NoError(t, p.Set(fAge, 42))
	require.NoError(t, p.Set(fAge, nil))
	require.NoError(t, p.Set(fName, "Ada"))

	err = p.DoneInit()
	assert.ErrorIs(t, err, fusion.ErrLifecycle)
}

func TestObject_ReadIsTerminal(t *testing.T) {
	p := newPerson(t, "a")
	require.NoError(t, p.Set(fAge, 30))
	require.NoError(t, p.DoneWrite(), "INIT goes straight to READ")

	for i, x := range []any{"b", "Bob", 31, []string{"x"}} {
		err := p.Set(i, x)
		require.Error(t, err, "field %d", i)
		assert.ErrorIs(t, err, fusion.ErrLifecycle)
	}
	age, _ := p.Get(fAge).Int64()
	assert.EqualValues(t, 30, age)

	assert.ErrorIs(t, p.DoneWrite(), fusion.ErrLifecycle)
	assert.ErrorIs(t, p.DoneInit(), fusion.ErrLifecycle)
	assert.ErrorIs(t, p.Reset(), fusion.ErrLifecycle)
	assert.ErrorIs(t, p.ResetToNull(), fusion.ErrLifecycle)
}

func TestObject_MissingKeyBlocksFreeze(t *testing.T) {
	p := personType.Make()
	err := p.DoneWrite()
	require.Error(t, err)
	iss, ok := fusion.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, fusion.CodeRequired, iss[0].Code)
	assert.Equal(t, "/id", iss[0].Path)
}

func TestObject_AssigningFreezesChildren(t *testing.T) {
	p := newPerson(t, "a")
	tags := fusion.NewList(fusion.MustDomain(fusion.KindList, "STRING"))
	require.NoError(t, tags.Add("x"))
	require.NoError(t, p.Set(fTags, tags))
	assert.Equal(t, iwr.Read, tags.State())
	assert.ErrorIs(t, tags.Add("y"), fusion.ErrLifecycle)

	// A Go slice is copied into a frozen list.
	require.NoError(t, p.Set(fTags, []string{"a", "b"}))
	got, ok := fusion.As[*fusion.List](p.Get(fTags))
	require.True(t, ok)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, iwr.Read, got.State())
}

func TestObject_RejectedSetKeepsArgumentMutable(t *testing.T) {
	tags := fusion.NewList(fusion.MustDomain(fusion.KindList, "STRING"))
	require.NoError(t, tags.Add("x"))

	read := newPerson(t, "a")
	require.NoError(t, read.DoneWrite())
	assert.ErrorIs(t, read.Set(fTags, tags), fusion.ErrLifecycle)
	assert.Equal(t, iwr.Init, tags.State())

	key, err := personType.MakeKey()
	require.NoError(t, err)
	err = key.Set(fTags, tags)
	assert.ErrorIs(t, err, fusion.ErrLifecycle)
	assert.Equal(t, fusion.CodeKeyOnly, asError(t, err).Code)
	assert.Equal(t, iwr.Init, tags.State())

	sealed := fusion.NewObjectType(fusion.NewSchema("testSealedTags").
		FieldOf("tags", "LIST.STRING").Readonly().Nullable().
		MustBuild()).Make()
	require.NoError(t, sealed.DoneInit())
	err = sealed.Set(0, tags)
	assert.ErrorIs(t, err, fusion.ErrLifecycle)
	assert.Equal(t, fusion.CodeReadonly, asError(t, err).Code)
	assert.Equal(t, iwr.Init, tags.State())

	require.NoError(t, tags.Add("y"), "tags is still writable")
	p := newPerson(t, "b")
	require.NoError(t, p.Set(fTags, tags))
	assert.Equal(t, iwr.Read, tags.State())
}

func TestObject_ResetAndResetToNull(t *testing.T) {
	p := newPerson(t, "a")
	require.NoError(t, p.Set(fName, "Ada"))
	require.NoError(t, p.Set(fAge, 36))
	require.NoError(t, p.DoneInit())

	require.NoError(t, p.ResetToNull())
	assert.False(t, p.Get(fID).IsNull(), "readonly fields are kept in WRITE")
	assert.True(t, p.Get(fName).IsNull())
	assert.True(t, p.Get(fAge).IsNull())

	require.NoError(t, p.Reset())
	name, _ := p.Get(fName).Text()
	assert.Equal(t, "anon", name)
	require.NoError(t, p.DoneWrite())
}

func TestObject_FieldsByName(t *testing.T) {
	p := personType.New()
	require.NoError(t, p.SetField("ID", "a"))
	require.NoError(t, p.SetField("Name", "Ada"))
	v, err := p.GetField("NAME")
	require.NoError(t, err)
	text, _ := v.Text()
	assert.Equal(t, "Ada", text)

	_, err = p.GetField("nope")
	assert.ErrorIs(t, err, fusion.ErrNoSuchField)
	assert.ErrorIs(t, p.SetField("nope", 1), fusion.ErrNoSuchField)
	assert.ErrorIs(t, p.Set(99, 1), fusion.ErrNoSuchField)

	var names []string
	for name := range p.Fields() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"id", "name", "age", "tags"}, names)
}

func TestObject_KeyInstance(t *testing.T) {
	k, err := personType.MakeKey()
	require.NoError(t, err)
	assert.True(t, k.IsKeyInstance())
	require.NoError(t, k.Set(fID, "a"))
	require.NoError(t, k.DoneInit())

	err = k.Set(fName, "Ada")
	assert.ErrorIs(t, err, fusion.ErrLifecycle, "non-key fields are rejected even in WRITE")

	full := newPerson(t, "a")
	require.NoError(t, full.Set(fName, "Ada"))
	assert.True(t, k.Equal(full), "key-instances compare on keys")
	assert.True(t, full.Equal(k))
	assert.Equal(t, k.Hash(), full.Hash())

	var names []string
	for name := range k.Fields() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"id"}, names)

	require.NoError(t, k.DoneWrite())
	out, err := fusion.Marshal(fusion.MustOf(k))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a"}`, string(out))

	noKey := fusion.NewObjectType(fusion.NewSchema("testNoKey").FieldOf("x", "BOOL").MustBuild())
	_, err = noKey.MakeKey()
	assert.ErrorIs(t, err, fusion.ErrConfig)
}

func TestObject_EqualCompareHash(t *testing.T) {
	a := newPerson(t, "a")
	b := newPerson(t, "b")
	a2 := newPerson(t, "a")
	require.NoError(t, a2.Set(fAge, 5))

	assert.False(t, a.Equal(a2), "full instances compare every field")
	assert.Equal(t, a.Hash(), a2.Hash(), "hash uses the first key field")

	c, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
	c, err = a.Compare(a2)
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	noKey := fusion.NewObjectType(fusion.NewSchema("testNoKey2").FieldOf("name", "STRING").MustBuild())
	x := noKey.Make()
	_, err = x.Compare(noKey.Make())
	assert.ErrorIs(t, err, fusion.ErrCoercion, "comparison needs a key")
	assert.NotErrorIs(t, err, fusion.ErrConfig)

	// Different schemas compare on the fields they share.
	require.NoError(t, x.Set(0, "anon"))
	c, err = x.Compare(a)
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	other := fusion.NewObjectType(fusion.NewSchema("testDisjoint").FieldOf("zzz", "STRING").MustBuild())
	_, err = other.Make().Compare(a)
	assert.ErrorIs(t, err, fusion.ErrCoercion)
	assert.NotErrorIs(t, err, fusion.ErrConfig)
	assert.Equal(t, fusion.CodeNotComparable, asError(t, err).Code)
}

func TestObject_Clone(t *testing.T) {
	p := newPerson(t, "a")
	require.NoError(t, p.Set(fAge, 7))
	require.NoError(t, p.DoneWrite())

	same, err := iwr.CloneForRead(p)
	require.NoError(t, err)
	assert.Same(t, p, same, "READ cloned for READ is not copied")
	again, err := iwr.CloneForRead(same)
	require.NoError(t, err)
	assert.True(t, again.Equal(p))

	w, err := iwr.CloneForWrite(p)
	require.NoError(t, err)
	assert.Equal(t, iwr.Write, w.State())
	require.NoError(t, w.Set(fAge, 8))
	assert.ErrorIs(t, w.Set(fID, "z"), fusion.ErrLifecycle)
	age, _ := p.Get(fAge).Int64()
	assert.EqualValues(t, 7, age, "the original is untouched")

	i, err := iwr.CloneForInit(p)
	require.NoError(t, err)
	require.NoError(t, i.Set(fID, "z"), "INIT clones accept readonly fields")
	assert.True(t, i.Get(fAge).Equal(p.Get(fAge)))

	bad := newPerson(t, "b")
	require.NoError(t, bad.Set(fAge, 999))
	_, err = bad.Clone(iwr.Read)
	assert.ErrorIs(t, err, fusion.ErrValidation, "clones are validated on the way")
}

func TestObject_WithCheck(t *testing.T) {
	errAdult := errors.New("must be adult")
	s := fusion.NewSchema("testAdult").
		FieldOf("id", "STRING").Key().
		FieldOf("age", "INTEGER").
		MustBuild()
	typ := fusion.NewObjectType(s, fusion.WithCheck(func(v fusion.View) error {
		age, err := v.Field("age")
		if err != nil {
			return err
		}
		if n, _ := age.Int64(); n < 18 {
			return errAdult
		}
		return nil
	}))

	o := typ.Make()
	require.NoError(t, o.Set(0, "a"))
	require.NoError(t, o.Set(1, 10))
	assert.ErrorIs(t, o.DoneWrite(), errAdult)
	require.NoError(t, o.Set(1, 20))
	require.NoError(t, o.DoneWrite())
}

func TestObject_Derived(t *testing.T) {
	p := personType.New()
	require.NoError(t, p.Set(fID, "a"))
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}
	_, _ = p.Derived("k", compute)
	_, _ = p.Derived("k", compute)
	assert.Equal(t, 2, calls, "mutable objects recompute")

	require.NoError(t, p.DoneWrite())
	first, err := p.Derived("k", compute)
	require.NoError(t, err)
	second, err := p.Derived("k", compute)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, calls)
}

func TestRegistry(t *testing.T) {
	f, ok := fusion.Lookup("TESTPERSON")
	require.True(t, ok)
	assert.Same(t, personType, f)

	err := fusion.Register(fusion.NewObjectType(fusion.NewSchema("testPerson").FieldOf("x", "BOOL").MustBuild()))
	assert.ErrorIs(t, err, fusion.ErrConfig)

	assert.Contains(t, fusion.Registered(), "testPerson")
	assert.Contains(t, fusion.Registered(), "BlobRef")
}
