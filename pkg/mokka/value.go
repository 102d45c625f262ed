package mokka

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a parameter value as read from the models database.
// The zero Value is NULL.
type Value struct {
	raw any
}

// NewValue wraps a raw column value. Byte slices become strings and
// driver.Valuer implementations are unwrapped, so equal database contents
// produce equal Values regardless of the driver that read them.
func NewValue(raw any) Value {
	return Value{raw: normalize(raw)}
}

// Null returns a NULL Value.
func Null() Value {
	return Value{}
}

// Text returns a Value holding s.
func Text(s string) Value {
	return Value{raw: s}
}

func normalize(raw any) any {
	for i := 0; i < 4; i++ {
		v, ok := raw.(driver.Valuer)
		if !ok {
			break
		}
		next, err := v.Value()
		if err != nil {
			return fmt.Sprint(raw)
		}
		raw = next
	}

	switch v := raw.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	}
	return raw
}

// Raw returns the normalized underlying value (nil for NULL).
func (v Value) Raw() any {
	return v.raw
}

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool {
	return v.raw == nil
}

// IsFalsy reports whether v counts as "no value" during resolution:
// NULL, empty text, numeric zero or false.
func (v Value) IsFalsy() bool {
	switch r := v.raw.(type) {
	case nil:
		return true
	case string:
		return r == ""
	case int64:
		return r == 0
	case uint64:
		return r == 0
	case uint:
		return r == 0
	case float64:
		return r == 0
	case float32:
		return r == 0
	case Decimal:
		return r.IsZero()
	case bool:
		return !r
	case time.Time:
		return false
	}
	return false
}

// Format renders v for the output file. NULL renders as nullMarker.
func (v Value) Format(nullMarker string) string {
	switch r := v.raw.(type) {
	case nil:
		return nullMarker
	case string:
		return r
	case int64:
		return strconv.FormatInt(r, 10)
	case uint64:
		return strconv.FormatUint(r, 10)
	case uint:
		return strconv.FormatUint(uint64(r), 10)
	case float64:
		return formatFloat(r, 64)
	case float32:
		return formatFloat(float64(r), 32)
	case Decimal:
		return r.String()
	case bool:
		if r {
			return "True"
		}
		return "False"
	case time.Time:
		if r.Nanosecond() != 0 {
			return r.Format("2006-01-02 15:04:05.000000")
		}
		return r.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v.raw)
}

// String renders v with DefaultNullMarker.
func (v Value) String() string {
	return v.Format(DefaultNullMarker)
}

// formatFloat prints the shortest representation that round-trips at the
// given bit size, using positional notation for magnitudes in [1e-4, 1e16)
// and always keeping a fractional part, e.g. 100.0, 0.25, 1e-05, 1.5e+16.
// FLOAT columns arrive as float32 and are formatted at 32 bits, so 0.1
// stays 0.1.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(f)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, bitSize)
	}

	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
