package fusion

import (
	"time"

	"cloud.google.com/go/civil"
)

// Visitor receives a value through the method matching its kind. Integer,
// decimal and string payloads are passed in their representation (for
// example int8 for INTEGER.byte or uuid.UUID for STRING.uuid).
type Visitor interface {
	VisitNull() error
	VisitBool(b bool) error
	VisitInteger(n any) error
	VisitDecimal(d any) error
	VisitString(s any) error
	VisitDate(d civil.Date) error
	VisitTime(t civil.Time) error
	VisitDateTime(dt civil.DateTime) error
	VisitInstant(t time.Time) error
	VisitDuration(d time.Duration) error
	VisitObject(c Composite) error
	VisitList(l *List) error
	VisitMap(m *Map) error
	VisitEnum(e Enum) error
	VisitBlob(b *Blob) error
}

// Accept dispatches v to the visitor method of its kind.
func (v Value) Accept(vis Visitor) error {
	if v.IsNull() {
		return vis.VisitNull()
	}
	switch v.kind {
	case KindBool:
		return vis.VisitBool(v.v.(bool))
	case KindInteger:
		return vis.VisitInteger(v.v)
	case KindDecimal:
		return vis.VisitDecimal(v.v)
	case KindString:
		return vis.VisitString(v.v)
	case KindDate:
		return vis.VisitDate(v.v.(civil.Date))
	case KindTime:
		return vis.VisitTime(v.v.(civil.Time))
	case KindDateTime:
		return vis.VisitDateTime(v.v.(civil.DateTime))
	case KindInstant:
		return vis.VisitInstant(v.v.(time.Time))
	case KindDuration:
		return vis.VisitDuration(v.v.(time.Duration))
	case KindObject:
		return vis.VisitObject(v.v.(Composite))
	case KindList:
		return vis.VisitList(v.v.(*List))
	case KindMap:
		return vis.VisitMap(v.v.(*Map))
	case KindEnum:
		return vis.VisitEnum(v.v.(Enum))
	case KindBlob:
		return vis.VisitBlob(v.v.(*Blob))
	}
	return vis.VisitNull()
}
