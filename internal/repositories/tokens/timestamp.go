package tokens

import (
	"fmt"
	"strings"
	"time"
)

// Text forms the supported drivers produce for timestamps:
//   - modernc sqlite stores bound time.Time values as "2006-01-02 15:04:05.999999999-07:00"
//     and returns them as text when the column type is not DATETIME-like;
//   - sqlite CURRENT_TIMESTAMP and mysql DATETIME without parseTime=true
//     (a user supplied DSN) come back as "2006-01-02 15:04:05[.ffffff]";
//   - ISO 8601 with a 'T' separator, as written by sqlite's strftime.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// timestamp scans a timestamp column regardless of how the driver represents it.
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return fmt.Errorf("timestamp: unexpected NULL")
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}
