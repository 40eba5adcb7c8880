// Package flatten turns nested values into dotted key/value pairs.
package flatten

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ohler55/ojg/alt"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Entry is a single leaf of a flattened value.
type Entry struct {
	Key   string
	Value any
}

func (e Entry) String() string {
	return fmt.Sprintf("%s=%v", e.Key, e.Value)
}

// Decompose converts v into maps, slices and scalars. Struct fields keep
// their Go names unless a json tag is present.
func Decompose(v any) any {
	return alt.Decompose(v, &alt.Options{OmitNil: true, UseTags: true, KeyExact: true})
}

// Flatten returns the leaves of v sorted by key. Array elements are
// written as key[n].
func Flatten(v any) []Entry {
	ret := []Entry{}
	jp.Walk(Decompose(v), func(path jp.Expr, value any) {
		key := Key(path)
		if key == "" {
			return
		}
		ret = append(ret, Entry{Key: key, Value: value})
	}, true)
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Key < ret[j].Key })
	return ret
}

// Key renders a path as dotted key.
func Key(path jp.Expr) string {
	var sb strings.Builder
	for _, f := range path {
		switch frag := f.(type) {
		case jp.Child:
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(string(frag))
		case jp.Nth:
			fmt.Fprintf(&sb, "[%d]", int(frag))
		}
	}
	return sb.String()
}

// JSON returns v as JSON with sorted keys.
func JSON(v any, indent int) string {
	return oj.JSON(Decompose(v), &oj.Options{Sort: true, Indent: indent})
}
