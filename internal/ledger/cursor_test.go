package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	c := Cursor{Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC), Seq: 42}

	decoded, err := DecodeCursor(c.Encode())
	require.NoError(t, err)

	assert.True(t, c.Timestamp.Equal(decoded.Timestamp), "timestamp must survive to the nanosecond")
	assert.Equal(t, c.Seq, decoded.Seq)
}

func TestCursor_ZeroEncodesEmpty(t *testing.T) {
	assert.Equal(t, "", Cursor{}.Encode())

	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDecodeCursor_Malformed(t *testing.T) {
	for _, s := range []string{"abc", "123", "x:1", "1:y", "1:2:3"} {
		_, err := DecodeCursor(s)
		assert.Error(t, err, "DecodeCursor(%q)", s)
		assert.True(t, IsValidation(err), "DecodeCursor(%q) should be a validation error", s)
	}
}

func TestKind(t *testing.T) {
	assert.True(t, KindDeposit.Valid())
	assert.False(t, Kind("refund").Valid())

	assert.True(t, KindTransferIn.Credits())
	assert.False(t, KindTransferOut.Credits())
}
