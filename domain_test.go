package fusion_test

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/fusion"
)

func TestNewDomain_RangeErrors(t *testing.T) {
	tests := []struct {
		name string
		kind fusion.Kind
		qual string
		rng  []any
	}{
		{"max below min", fusion.KindInteger, "", []any{10, 1}},
		{"negative length", fusion.KindString, "", []any{-1, 5}},
		{"zero max length", fusion.KindList, "", []any{0, 0}},
		{"item range on scalar", fusion.KindInteger, "", []any{1, 2, []any{1, 2}}},
		{"unranged kind", fusion.KindBool, "", []any{false, true}},
		{"bad bound type", fusion.KindDate, "", []any{"yesterday"}},
		{"unknown qualifier", fusion.KindInteger, "huge", nil},
		{"unknown subtype", fusion.KindString, "colour", nil},
		{"nested container", fusion.KindList, "MAP.STRING", nil},
		{"item range needs item type", fusion.KindList, "", []any{0, 2, []any{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fusion.NewDomain(tt.kind, tt.qual, tt.rng...)
			require.Error(t, err)
			assert.ErrorIs(t, err, fusion.ErrConfig)
		})
	}
}

func TestParseDomain(t *testing.T) {
	d, err := fusion.ParseDomain("LIST.STRING", "[0,5,[1,10]]")
	require.NoError(t, err)
	assert.Equal(t, fusion.KindList, d.Kind())
	assert.Equal(t, "STRING", d.Qualifier())
	lo, hi := d.Item().Bounds()
	assert.Equal(t, 1, lo)
	assert.Equal(t, 10, hi)

	d, err = fusion.ParseDomain("integer.LONG", "")
	require.NoError(t, err)
	assert.Equal(t, "INTEGER.long", d.TypeName())

	_, err = fusion.ParseDomain("NUMBER", "")
	assert.ErrorIs(t, err, fusion.ErrConfig)
	_, err = fusion.ParseDomain("INTEGER", "[1,")
	assert.ErrorIs(t, err, fusion.ErrConfig)
}

func TestDomain_ValidateModes(t *testing.T) {
	d := fusion.MustDomain(fusion.KindInteger, "", 1, 10)

	require.NoError(t, d.Validate(fusion.MustOf(5), nil))
	require.NoError(t, d.Validate(fusion.Null, nil), "null is a field concern")

	err := d.Validate(fusion.MustOf(11), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fusion.ErrValidation)
	iss, ok := fusion.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, fusion.CodeTooBig, iss[0].Code)

	var sink fusion.Issues
	require.NoError(t, d.Validate(fusion.MustOf(0), &sink))
	require.NoError(t, d.Validate(fusion.MustOf(20), &sink))
	require.NoError(t, d.Validate(fusion.MustOf("x"), &sink))
	require.Len(t, sink, 3)
	assert.Equal(t, fusion.CodeTooSmall, sink[0].Code)
	assert.Equal(t, fusion.CodeTooBig, sink[1].Code)
	assert.Equal(t, fusion.CodeInvalidType, sink[2].Code)
}

func TestDomain_LengthAndLexicalRanges(t *testing.T) {
	s := fusion.MustDomain(fusion.KindString, "", 2, 3)
	assert.NoError(t, s.Validate(fusion.MustOf("日本"), nil), "lengths count runes")
	assert.Error(t, s.Validate(fusion.MustOf("a"), nil))
	assert.Error(t, s.Validate(fusion.MustOf("abcd"), nil))

	dates := fusion.MustDomain(fusion.KindDate, "", "2024-01-01", civil.Date{Year: 2024, Month: 12, Day: 31})
	assert.NoError(t, dates.Validate(fusion.MustOf(civil.Date{Year: 2024, Month: 6, Day: 1}), nil))
	assert.Error(t, dates.Validate(fusion.MustOf(civil.Date{Year: 2025, Month: 1, Day: 1}), nil))

	open := fusion.MustDomain(fusion.KindInteger, "", nil, 0)
	assert.NoError(t, open.Validate(fusion.MustOf(-1000), nil))
	assert.Error(t, open.Validate(fusion.MustOf(1), nil))
}

func TestDomain_Equal(t *testing.T) {
	a := fusion.MustDomain(fusion.KindList, "INTEGER.short", 0, 4)
	b, err := fusion.ParseDomain("LIST.INTEGER.short", "[0,4]")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(fusion.MustDomain(fusion.KindList, "INTEGER.short")))
}
