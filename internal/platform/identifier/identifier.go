package identifier

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// New creates a random identifier with a stable, human readable prefix.
func New(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Canonical renders any identifier representation a store can hand back
// into the string form used for ownership comparison. It is total: every
// input maps to a string, and nil maps to "".
func Canonical(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return canonicalString(v)
	case *string:
		if v == nil {
			return ""
		}
		return canonicalString(*v)
	case uuid.UUID:
		if v == uuid.Nil {
			return ""
		}
		return v.String()
	case []byte:
		if len(v) == 16 {
			if parsed, err := uuid.FromBytes(v); err == nil {
				return parsed.String()
			}
		}
		return canonicalString(string(v))
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return ""
		}
		return canonicalString(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return canonicalString(rv.String())
	case reflect.Ptr:
		if rv.IsNil() {
			return ""
		}
		return Canonical(rv.Elem().Interface())
	}
	return canonicalString(fmt.Sprint(value))
}

// Equal reports whether two identifiers refer to the same party. Empty
// identifiers never match, not even each other.
func Equal(a, b interface{}) bool {
	left := Canonical(a)
	if left == "" {
		return false
	}
	return left == Canonical(b)
}

// canonicalString folds every UUID spelling uuid.Parse accepts (plain,
// hex only, braced, urn:uuid:) into the lower-case hyphenated form.
func canonicalString(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := uuid.Parse(trimmed); err == nil {
		return parsed.String()
	}
	return trimmed
}
