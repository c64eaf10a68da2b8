// Package json provides small, allocation-light JSON helpers used to encode
// and decode the management endpoint's request/response documents without
// reflection.
package json

import (
	"errors"
	"strconv"
	"unsafe"

	jsp "github.com/buger/jsonparser"
)

var (
	ErrValue = errors.New("invalid value")
)

// String appends the quoted, escaped JSON string representation of s to dst.
func String(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

// Int appends the decimal representation of v to dst.
func Int(dst []byte, v int64) []byte {
	return strconv.AppendInt(dst, v, 10)
}

// Uint appends the decimal representation of v to dst.
func Uint(dst []byte, v uint64) []byte {
	return strconv.AppendUint(dst, v, 10)
}

// Strings appends a JSON array of quoted strings to dst.
func Strings(dst []byte, src []string) []byte {
	dst = append(dst, '[')
	for i, s := range src {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = String(dst, s)
	}
	return append(dst, ']')
}

// S returns a string backed by buf, without copying.
func S(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// Q strips surrounding double quotes from buf, if present.
func Q(buf []byte) []byte {
	if l := len(buf); l > 1 && buf[0] == '"' && buf[l-1] == '"' {
		return buf[1 : l-1]
	}
	return buf
}

// SQ returns a string from buf, unquoting it first if necessary.
func SQ(buf []byte) string {
	return S(Q(buf))
}

// ArrayEach calls cb for each element of the JSON array in src.
// If cb returns a non-nil error, iteration stops and that error is returned.
func ArrayEach(src []byte, cb func(val []byte) error) (reterr error) {
	defer func() {
		if r, ok := recover().(error); ok {
			reterr = r
		}
	}()

	jsp.ArrayEach(src, func(val []byte, _ jsp.ValueType, _ int, _ error) {
		if err := cb(val); err != nil {
			panic(err) // the only way to break out of ArrayEach
		}
	})

	return nil
}

// GetString returns the string value at the given key path in src.
func GetString(src []byte, keys ...string) (string, error) {
	return jsp.GetString(src, keys...)
}
