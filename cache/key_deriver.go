package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator joins the prefix, id, filter and options segments of a cache key.
const KeySeparator = "_"

// KeyDeriver maps a (prefix, id, filter, options) tuple to a cache key of the form
// prefix[_id][_filter][_options].
//
// Segments stay positional: options without a filter leave an empty filter slot
// (prefix__options), and string ids that are empty, contain the separator or look like
// JSON are written quoted, so no two tuples share a key.
//
// Filters and options are rendered as canonical JSON: object keys are sorted at every
// depth, so two filters holding the same fields produce the same key regardless of how
// they were assembled. Numbers are kept verbatim.
type KeyDeriver struct {
	// MaxSegmentLength, when positive, replaces any id, filter or options segment longer
	// than this many bytes with "h" followed by its xxhash64 in hex.
	MaxSegmentLength int
}

// DeriveKey derives a key with the zero-value KeyDeriver.
func DeriveKey(prefix string, id, filter, options any) string {
	return KeyDeriver{}.Derive(prefix, id, filter, options)
}

// Derive builds the cache key. Nil id, filter or options values are omitted.
// It never fails: values that cannot be marshalled fall back to their type name.
func (d KeyDeriver) Derive(prefix string, id, filter, options any) string {
	var b strings.Builder
	b.WriteString(prefix)

	if !isNil(id) {
		b.WriteString(KeySeparator)
		b.WriteString(d.shorten(formatID(id)))
	}
	hasFilter, hasOptions := !isNil(filter), !isNil(options)
	if hasFilter {
		b.WriteString(KeySeparator)
		b.WriteString(d.shorten(canonicalJSON(filter)))
	} else if hasOptions {
		b.WriteString(KeySeparator)
	}
	if hasOptions {
		b.WriteString(KeySeparator)
		b.WriteString(d.shorten(canonicalJSON(options)))
	}

	return b.String()
}

func (d KeyDeriver) shorten(segment string) string {
	if d.MaxSegmentLength <= 0 || len(segment) <= d.MaxSegmentLength {
		return segment
	}
	return fmt.Sprintf("h%016x", xxhash.Sum64String(segment))
}

// formatID renders scalar ids directly and composite ids as canonical JSON.
func formatID(id any) string {
	rv := reflect.ValueOf(id)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if s, ok := id.(fmt.Stringer); ok {
		return quoteID(s.String())
	}
	if rv.Kind() == reflect.String {
		return quoteID(rv.String())
	}
	if isBasicKind(rv.Kind()) {
		return fmt.Sprintf("%v", rv.Interface())
	}
	return canonicalJSON(id)
}

// quoteID keeps plain string ids verbatim and quotes the ones that could be read as
// another segment.
func quoteID(id string) string {
	if id != "" && !strings.Contains(id, KeySeparator) && !strings.ContainsAny(id[:1], `{["`) {
		return id
	}
	return strconv.Quote(id)
}

// canonicalJSON marshals v, then decodes and re-encodes it through generic maps so that
// object keys come out sorted.
func canonicalJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%T", v)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return string(raw)
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}
