package nocase

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_EqualAndHashIgnoreCase(t *testing.T) {
	a, b := New("Hello"), New("hELLO")
	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, "Hello", a.String())
	assert.False(t, a.Equal(New("world")))
}

func TestKey_SortOrder(t *testing.T) {
	keys := []Key{New("B"), New("a"), New("C")}
	slices.SortFunc(keys, Key.Compare)
	got := make([]string, len(keys))
	for i, k := range keys {
		got[i] = k.String()
	}
	assert.Equal(t, []string{"a", "B", "C"}, got)
}

func TestIdent(t *testing.T) {
	id, err := ParseIdent("Billing.Invoice.line_1")
	require.NoError(t, err)
	assert.Equal(t, 3, id.Count())
	assert.Equal(t, "Billing", id.Head().String())
	tail, ok := id.Tail()
	require.True(t, ok)
	assert.Equal(t, "Invoice.line_1", tail.String())

	other, err := ParseIdent("billing.invoice.LINE_1")
	require.NoError(t, err)
	assert.True(t, id.Equal(other))

	prefix, _ := ParseIdent("BILLING")
	assert.True(t, prefix.IsPrefixOf(id))
	notPrefix, _ := ParseIdent("Bill")
	assert.False(t, notPrefix.IsPrefixOf(id))

	_, err = ParseIdent("1abc")
	assert.Error(t, err)
	_, err = ParseIdent("a..b")
	assert.Error(t, err)
	_, err = ParseSimpleIdent("a.b")
	assert.Error(t, err)
	s, err := ParseSimpleIdent("ünïcode_9")
	require.NoError(t, err)
	_, ok = s.Ident().Tail()
	assert.False(t, ok)
}
