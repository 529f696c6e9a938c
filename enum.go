package fusion

import (
	"sync"

	"github.com/reoring/fusion/nocase"
)

// EnumType is a named, ordered set of symbols. ENUM domains name their enum
// type in the qualifier.
type EnumType struct {
	name    string
	symbols []string
	index   map[string]int
}

// Enum is a symbol of an EnumType. The zero Enum is invalid.
type Enum struct {
	t   *EnumType
	ord int
}

var (
	enumMu sync.RWMutex
	enums  = map[string]*EnumType{}
)

// NewEnumType builds an unregistered enum type. Symbols must be unique and
// non-empty.
func NewEnumType(name string, symbols ...string) (*EnumType, error) {
	if name == "" || len(symbols) == 0 {
		return nil, configErrorf("enum %q needs a name and at least one symbol", name)
	}
	t := &EnumType{name: name, symbols: append([]string(nil), symbols...), index: make(map[string]int, len(symbols))}
	for i, s := range symbols {
		if s == "" {
			return nil, configErrorf("enum %s: empty symbol at %d", name, i)
		}
		if _, dup := t.index[s]; dup {
			return nil, configErrorf("enum %s: duplicate symbol %s", name, s)
		}
		t.index[s] = i
	}
	return t, nil
}

// RegisterEnum builds and registers an enum type. Names are unique ignoring case.
func RegisterEnum(name string, symbols ...string) (*EnumType, error) {
	t, err := NewEnumType(name, symbols...)
	if err != nil {
		return nil, err
	}
	enumMu.Lock()
	defer enumMu.Unlock()
	key := nocase.Fold(name)
	if _, dup := enums[key]; dup {
		return nil, configError(CodeDuplicateName, map[string]any{"name": "ENUM." + name})
	}
	enums[key] = t
	logger().Debug("registered enum", "name", name, "symbols", len(symbols))
	return t, nil
}

// MustRegisterEnum is like RegisterEnum but panics on error.
func MustRegisterEnum(name string, symbols ...string) *EnumType {
	t, err := RegisterEnum(name, symbols...)
	if err != nil {
		panic(err)
	}
	return t
}

// LookupEnum finds a registered enum type.
func LookupEnum(name string) (*EnumType, bool) {
	enumMu.RLock()
	defer enumMu.RUnlock()
	t, ok := enums[nocase.Fold(name)]
	return t, ok
}

func (t *EnumType) Name() string { return t.name }

// Symbols returns a copy of the symbols in declaration order.
func (t *EnumType) Symbols() []string { return append([]string(nil), t.symbols...) }

// Len returns the number of symbols.
func (t *EnumType) Len() int { return len(t.symbols) }

// Of resolves a symbol by exact name.
func (t *EnumType) Of(symbol string) (Enum, error) {
	i, ok := t.index[symbol]
	if !ok {
		return Enum{}, newError(ErrCoercion, CodeInvalidEnum, map[string]any{"symbol": symbol, "enum": t.name}, nil)
	}
	return Enum{t: t, ord: i}, nil
}

// MustOf is like Of but panics on error.
func (t *EnumType) MustOf(symbol string) Enum {
	e, err := t.Of(symbol)
	if err != nil {
		panic(err)
	}
	return e
}

// At returns the symbol at ordinal i.
func (t *EnumType) At(i int) Enum {
	if i < 0 || i >= len(t.symbols) {
		panic("fusion: enum ordinal out of range")
	}
	return Enum{t: t, ord: i}
}

// Type returns the enum type, nil for the zero Enum.
func (e Enum) Type() *EnumType { return e.t }

// Ordinal is the declaration index of the symbol.
func (e Enum) Ordinal() int { return e.ord }

// Symbol is the symbolic name.
func (e Enum) Symbol() string {
	if e.t == nil {
		return ""
	}
	return e.t.symbols[e.ord]
}

func (e Enum) String() string { return e.Symbol() }
