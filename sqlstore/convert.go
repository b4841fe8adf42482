package sqlstore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The two backends hand values back differently: PostgreSQL gives int64,
// bool and time.Time, while RQLite decodes everything from JSON into
// float64, string and 0/1 numbers. These converters accept both shapes so
// the repositories above never care which backend is underneath.

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprintf("%v", v)
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case []byte:
		return asInt(string(t))
	case string:
		var n int
		fmt.Sscanf(t, "%d", &n)
		return n
	}
	return 0
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t == "true" || t == "t" || t == "1"
	}
	return false
}

// asTime parses the RFC3339 strings the schema stores. PostgreSQL TEXT
// columns come back as string already; time.Time is handled for safety.
func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return ts
		}
	case []byte:
		return asTime(string(t))
	}
	return time.Time{}
}

// asDecimal parses the decimal strings the schema stores. An unparseable or
// missing value is zero, money never goes through floats.
func asDecimal(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d
		}
	case []byte:
		return asDecimal(string(t))
	case float64:
		return decimal.NewFromFloat(t)
	case int64:
		return decimal.NewFromInt(t)
	}
	return decimal.Zero
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
