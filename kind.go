package fusion

import (
	"fmt"
	"strings"
)

// Kind is the closed tag of a Value.
type Kind uint8

const (
	// KindAny tags the NULL value and marks unqualified domains.
	KindAny Kind = iota
	KindBool
	KindInteger
	KindDecimal
	KindString
	KindDate
	KindTime
	KindDateTime
	KindInstant
	KindDuration
	KindObject
	KindList
	KindMap
	KindEnum
	KindBlob
)

var kindNames = [...]string{
	KindAny:      "ANY",
	KindBool:     "BOOL",
	KindInteger:  "INTEGER",
	KindDecimal:  "DECIMAL",
	KindString:   "STRING",
	KindDate:     "DATE",
	KindTime:     "TIME",
	KindDateTime: "DATETIME",
	KindInstant:  "INSTANT",
	KindDuration: "DURATION",
	KindObject:   "OBJECT",
	KindList:     "LIST",
	KindMap:      "MAP",
	KindEnum:     "ENUM",
	KindBlob:     "BLOB",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind resolves a kind name, ignoring case.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), true
		}
	}
	return KindAny, false
}

// IsContainer reports LIST and MAP.
func (k Kind) IsContainer() bool { return k == KindList || k == KindMap }

// IsMutable reports kinds whose payload carries a lifecycle.
func (k Kind) IsMutable() bool {
	return k == KindObject || k == KindList || k == KindMap || k == KindBlob
}

// Qualifiers selecting alternate representations of INTEGER and DECIMAL.
// The empty qualifier selects the default: int32 for INTEGER and an
// arbitrary-precision decimal.Decimal for DECIMAL.
const (
	QualByte   = "byte"   // int8
	QualShort  = "short"  // int16
	QualLong   = "long"   // int64
	QualBig    = "big"    // *big.Int
	QualFloat  = "float"  // float32
	QualDouble = "double" // float64
)

// ParseQualifiedType splits "KIND.qualifier" at the first dot, so
// "LIST.OBJECT.Person" has the qualifier "OBJECT.Person".
func ParseQualifiedType(s string) (Kind, string, error) {
	name, qual, _ := strings.Cut(s, ".")
	k, ok := ParseKind(name)
	if !ok {
		return KindAny, "", configErrorf("unknown type %q", s)
	}
	return k, qual, nil
}

// QualifiedType renders kind and qualifier as "KIND" or "KIND.qualifier".
func QualifiedType(k Kind, qualifier string) string {
	if qualifier == "" {
		return k.String()
	}
	return k.String() + "." + qualifier
}
