package fusion

import (
	"strconv"
	"strings"

	"github.com/reoring/fusion/iwr"
)

// escapePointer escapes a JSON Pointer segment: '~' -> '~0', '/' -> '~1'.
func escapePointer(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func unescapePointer(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// splitPath splits "a/b/0" or "/a/b/0" into unescaped segments.
func splitPath(path string) ([]string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, configErrorf("empty path")
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = unescapePointer(p)
	}
	return parts, nil
}

// GetPath walks nested objects, lists and maps. Object fields and map keys
// match ignoring case; list segments are zero-based indices.
func GetPath(c Composite, path string) (Value, error) {
	parts, err := splitPath(path)
	if err != nil {
		return Null, err
	}
	cur := Value{kind: KindObject, v: c}
	for i, seg := range parts {
		next, err := step(cur, seg)
		if err != nil {
			return Null, err
		}
		if next.IsNull() && i < len(parts)-1 {
			return Null, noSuchField(path)
		}
		cur = next
	}
	return cur, nil
}

func step(cur Value, seg string) (Value, error) {
	switch p := cur.v.(type) {
	case Composite:
		f, err := p.Schema().Field(seg)
		if err != nil {
			return Null, err
		}
		return p.Get(f.index), nil
	case *List:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= p.Len() {
			return Null, noSuchField(seg)
		}
		return p.Get(i), nil
	case *Map:
		v, ok := p.Get(seg)
		if !ok {
			return Null, noSuchField(seg)
		}
		return v, nil
	}
	return Null, noSuchField(seg)
}

// SetPath assigns the value at path, a chain of object fields. Nested objects
// that are already READ are cloned into the state of c, updated and assigned
// back, so the assignment is copy-on-write all the way up.
func SetPath(c Composite, path string, x any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	return setPath(c, parts, x)
}

func setPath(c Composite, parts []string, x any) error {
	f, err := c.Schema().Field(parts[0])
	if err != nil {
		return err
	}
	if len(parts) == 1 {
		return c.Set(f.index, x)
	}
	child, ok := c.Get(f.index).v.(Composite)
	if !ok {
		return noSuchField(strings.Join(parts, "/"))
	}
	target := c.State()
	if target == iwr.Read {
		return lifecycleError(CodeNotWritable, nil)
	}
	if child.State() == iwr.Read {
		if child, err = child.Clone(target); err != nil {
			return inField(err, CodeInvalidValue, f.name)
		}
	}
	if err := setPath(child, parts[1:], x); err != nil {
		return inField(err, CodeInvalidValue, f.name)
	}
	return c.Set(f.index, child)
}
