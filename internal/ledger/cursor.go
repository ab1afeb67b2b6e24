package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is a restartable position in an account's history. It points just
// past the last record returned: the next page contains records strictly
// older than (Timestamp, Seq). The zero Cursor starts from the newest record.
//
// Cursors survive round-trips through callers as opaque strings via Encode
// and DecodeCursor; timestamps travel as unix nanoseconds so no precision is
// lost.
type Cursor struct {
	Timestamp time.Time
	Seq       int64
}

// IsZero reports whether the cursor is the start-of-history position.
func (c Cursor) IsZero() bool {
	return c.Timestamp.IsZero() && c.Seq == 0
}

// Encode renders the cursor as an opaque string. The zero cursor encodes to
// the empty string.
func (c Cursor) Encode() string {
	if c.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d:%d", c.Timestamp.UTC().UnixNano(), c.Seq)
}

// DecodeCursor parses a string produced by Encode. An empty string decodes
// to the zero cursor. Returns a *ValidationError for malformed input.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	ts, seq, ok := strings.Cut(s, ":")
	if !ok {
		return Cursor{}, NewValidationError("cursor", fmt.Sprintf("malformed cursor %q", s))
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Cursor{}, NewValidationError("cursor", fmt.Sprintf("malformed cursor timestamp %q", ts))
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return Cursor{}, NewValidationError("cursor", fmt.Sprintf("malformed cursor seq %q", seq))
	}
	return Cursor{Timestamp: time.Unix(0, nanos).UTC(), Seq: n}, nil
}
