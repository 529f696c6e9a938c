package fusion_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/fusion"
)

func TestOf_InfersKinds(t *testing.T) {
	tests := []struct {
		in   any
		kind fusion.Kind
	}{
		{true, fusion.KindBool},
		{7, fusion.KindInteger},
		{int64(7), fusion.KindInteger},
		{big.NewInt(7), fusion.KindInteger},
		{1.5, fusion.KindDecimal},
		{decimal.RequireFromString("1.5"), fusion.KindDecimal},
		{"x", fusion.KindString},
		{civil.Date{Year: 2024, Month: 1, Day: 31}, fusion.KindDate},
		{civil.Time{Hour: 1}, fusion.KindTime},
		{time.Unix(0, 0), fusion.KindInstant},
		{time.Second, fusion.KindDuration},
		{[]byte{1}, fusion.KindBlob},
		{[]any{1, "a"}, fusion.KindList},
		{map[string]any{"a": 1}, fusion.KindMap},
		{uuid.Nil, fusion.KindString},
	}
	for _, tt := range tests {
		v, err := fusion.Of(tt.in)
		require.NoError(t, err, "%T", tt.in)
		assert.Equal(t, tt.kind, v.Kind(), "%T", tt.in)
	}
}

func TestOf_Null(t *testing.T) {
	v, err := fusion.Of(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	assert.Equal(t, fusion.KindAny, v.Kind())
	assert.True(t, v.Equal(fusion.Null))

	var p *fusion.List
	v, err = fusion.Of(p)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestFrom_IntegerNarrowingIsExact(t *testing.T) {
	byteD := fusion.MustDomain(fusion.KindInteger, "byte")

	_, err := fusion.From(300, byteD)
	require.Error(t, err)
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	v, err := fusion.From(100, byteD)
	require.NoError(t, err)
	p, ok := fusion.As[int8](v)
	require.True(t, ok)
	assert.EqualValues(t, 100, p)

	out, err := fusion.Marshal(v)
	require.NoError(t, err)
	back, err := fusion.Unmarshal(out, byteD)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))

	_, err = fusion.From(-129, byteD)
	assert.ErrorIs(t, err, fusion.ErrCoercion)
	_, err = fusion.From(uint64(math.MaxUint64), fusion.MustDomain(fusion.KindInteger, "long"))
	assert.ErrorIs(t, err, fusion.ErrCoercion)
}

func TestFrom_IntegerWidens(t *testing.T) {
	big := fusion.MustDomain(fusion.KindInteger, "big")
	long := fusion.MustDomain(fusion.KindInteger, "long")
	for _, x := range []any{int8(-3), int16(300), int32(70000), int64(1 << 40)} {
		v, err := fusion.From(x, big)
		require.NoError(t, err)
		b, ok := v.BigInt()
		require.True(t, ok)
		n, _ := v.Int64()
		assert.Equal(t, n, b.Int64())

		_, err = fusion.From(x, long)
		assert.NoError(t, err)
	}
	_, err := fusion.From(1.0, long)
	assert.ErrorIs(t, err, fusion.ErrCoercion, "decimals never narrow to integers")
}

func TestFrom_Decimal(t *testing.T) {
	dec := fusion.MustDomain(fusion.KindDecimal, "")
	v, err := fusion.From(0.1, dec)
	require.NoError(t, err)
	d, ok := v.Decimal()
	require.True(t, ok)
	assert.Equal(t, "0.1", d.String())

	v, err = fusion.From(int64(12), fusion.MustDomain(fusion.KindDecimal, "double"))
	require.NoError(t, err)
	f, ok := fusion.As[float64](v)
	require.True(t, ok)
	assert.Equal(t, 12.0, f)

	_, err = fusion.From(math.NaN(), fusion.MustDomain(fusion.KindDecimal, "double"))
	assert.ErrorIs(t, err, fusion.ErrCoercion)
	_, err = fusion.From(math.MaxFloat64, fusion.MustDomain(fusion.KindDecimal, "float"))
	assert.ErrorIs(t, err, fusion.ErrCoercion)
}

func TestFrom_DoubleOverflow(t *testing.T) {
	double := fusion.MustDomain(fusion.KindDecimal, "double")
	for _, in := range []string{"1e400", "-1e400", "1e60000"} {
		_, err := fusion.From(decimal.RequireFromString(in), double)
		assert.ErrorIs(t, err, fusion.ErrCoercion, in)
	}

	v, err := fusion.From(decimal.RequireFromString("1e-400"), double)
	require.NoError(t, err, "underflow rounds to zero")
	f, _ := fusion.As[float64](v)
	assert.Zero(t, f)

	v, err = fusion.From(decimal.RequireFromString("1e308"), double)
	require.NoError(t, err)
	f, _ = fusion.As[float64](v)
	assert.Equal(t, 1e308, f)
}

func TestFrom_Subtypes(t *testing.T) {
	uuidD := fusion.MustDomain(fusion.KindString, "uuid")
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	v, err := fusion.From(id.String(), uuidD)
	require.NoError(t, err)
	got, ok := fusion.As[uuid.UUID](v)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, err = fusion.From("not-a-uuid", uuidD)
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	// Subtype to base string is allowed, subtype to another subtype is not.
	s, err := fusion.From(v, fusion.MustDomain(fusion.KindString, ""))
	require.NoError(t, err)
	text, _ := s.Text()
	assert.Equal(t, id.String(), text)

	_, err = fusion.From(id, fusion.MustDomain(fusion.KindString, "semver"))
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	ver, err := fusion.From("1.2.3", fusion.MustDomain(fusion.KindString, "semver"))
	require.NoError(t, err)
	sv, ok := fusion.As[*semver.Version](ver)
	require.True(t, ok)
	assert.EqualValues(t, 2, sv.Minor())
}

func TestFrom_NocaseSubtype(t *testing.T) {
	d := fusion.MustDomain(fusion.KindString, "nocase")
	a := fusion.MustFrom("Hello", d)
	b := fusion.MustFrom("hELLO", d)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	text, _ := a.Text()
	assert.Equal(t, "Hello", text)
}

func TestFrom_Calendar(t *testing.T) {
	v, err := fusion.From("2024-02-29", fusion.MustDomain(fusion.KindDate, ""))
	require.NoError(t, err)
	d, ok := fusion.As[civil.Date](v)
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: 2, Day: 29}, d)

	_, err = fusion.From("2023-02-29", fusion.MustDomain(fusion.KindDate, ""))
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	v, err = fusion.From(time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600)), fusion.MustDomain(fusion.KindInstant, ""))
	require.NoError(t, err)
	text, _ := v.Text()
	assert.Equal(t, "2024-01-01T00:00:00Z", text)

	_, err = fusion.From(3, fusion.MustDomain(fusion.KindDuration, ""))
	assert.ErrorIs(t, err, fusion.ErrCoercion)
}

func TestFrom_FreezesMutablePayloads(t *testing.T) {
	l := fusion.NewList(nil)
	require.NoError(t, l.Add(1))
	_, err := fusion.Of(l)
	require.NoError(t, err)
	assert.Error(t, l.Add(2))
	assert.ErrorIs(t, l.Add(2), fusion.ErrLifecycle)
}

func TestValue_Compare(t *testing.T) {
	one, two := fusion.MustOf(1), fusion.MustOf(2)
	c, err := one.Compare(two)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = fusion.Null.Compare(one)
	require.NoError(t, err)
	assert.Equal(t, -1, c, "null sorts first")
	c, err = one.Compare(fusion.Null)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	_, err = one.Compare(fusion.MustOf("1"))
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	_, err = fusion.MustOf([]any{1}).Compare(fusion.MustOf([]any{1}))
	assert.Error(t, err, "lists are not ordered")
}

func TestValue_EqualAndHash(t *testing.T) {
	a := fusion.MustOf(decimal.RequireFromString("1.50"))
	b := fusion.MustOf(decimal.RequireFromString("1.5"))
	assert.True(t, a.Equal(b))

	short := fusion.MustFrom(5, fusion.MustDomain(fusion.KindInteger, "short"))
	assert.False(t, short.Equal(fusion.MustOf(5)), "representations differ")

	x := fusion.MustOf("abc")
	y := fusion.MustOf("abc")
	assert.Equal(t, x.Hash(), y.Hash())
	assert.Zero(t, fusion.Null.Hash())
}

func TestValue_SignedZeroHashesAsZero(t *testing.T) {
	for _, q := range []string{"double", "float"} {
		d := fusion.MustDomain(fusion.KindDecimal, q)
		pos := fusion.MustFrom(0.0, d)
		neg := fusion.MustFrom(math.Copysign(0, -1), d)
		assert.True(t, pos.Equal(neg), q)
		assert.Equal(t, pos.Hash(), neg.Hash(), q)
	}
}

func TestValue_HugeExponentsStayCompact(t *testing.T) {
	for _, in := range []string{"1e60000", "-2.5e-60000"} {
		v := fusion.MustOf(decimal.RequireFromString(in))
		assert.Less(t, len(v.String()), 32, in)
		assert.Equal(t, v.Hash(), fusion.MustOf(decimal.RequireFromString(in)).Hash(), in)
	}

	big1 := fusion.MustOf(decimal.RequireFromString("1e60000"))
	big2 := fusion.MustOf(decimal.RequireFromString("2e60000"))
	c, err := big1.Compare(big2)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
	c, err = big1.Compare(fusion.MustOf(decimal.RequireFromString("-2.5e-60000")))
	require.NoError(t, err)
	assert.Equal(t, 1, c)
	assert.False(t, big1.Equal(fusion.MustOf(decimal.RequireFromString("1e-60000"))))
	assert.True(t, big1.Equal(fusion.MustOf(decimal.RequireFromString("10e59999"))))
	assert.Equal(t, big1.Hash(), fusion.MustOf(decimal.RequireFromString("10e59999")).Hash())
}

func TestFrom_ValueOfAnotherKind(t *testing.T) {
	_, err := fusion.From(fusion.MustOf("abcd"), fusion.MustDomain(fusion.KindBlob, ""))
	assert.ErrorIs(t, err, fusion.ErrCoercion)
	_, err = fusion.From(fusion.MustOf(12), fusion.MustDomain(fusion.KindDecimal, ""))
	assert.ErrorIs(t, err, fusion.ErrCoercion)

	v, err := fusion.From(fusion.MustOf(12), fusion.MustDomain(fusion.KindInteger, "byte"))
	require.NoError(t, err, "same kind converts to the target representation")
	assert.Equal(t, int8(12), v.Payload())

	_, err = fusion.From(fusion.MustOf(300), fusion.MustDomain(fusion.KindInteger, "byte"))
	assert.ErrorIs(t, err, fusion.ErrCoercion)
}

func TestZero(t *testing.T) {
	tests := []struct {
		d    *fusion.Domain
		want string
	}{
		{fusion.MustDomain(fusion.KindBool, ""), `false`},
		{fusion.MustDomain(fusion.KindInteger, "big"), `0`},
		{fusion.MustDomain(fusion.KindString, ""), `""`},
		{fusion.MustDomain(fusion.KindString, "uuid"), `"00000000-0000-0000-0000-000000000000"`},
		{fusion.MustDomain(fusion.KindList, "INTEGER", 2, 5), `[0,0]`},
		{fusion.MustDomain(fusion.KindBlob, ""), `""`},
	}
	for _, tt := range tests {
		v, err := fusion.Zero(tt.d)
		require.NoError(t, err, tt.d.String())
		assert.Equal(t, tt.want, v.String(), tt.d.String())
	}

	v, err := fusion.Zero(fusion.MustDomain(fusion.KindString, "uri"))
	require.NoError(t, err)
	assert.True(t, v.IsNull(), "subtypes without a zero yield null")
}
