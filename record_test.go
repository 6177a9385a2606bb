package rosbag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderFieldsParsesMultipleEntries(t *testing.T) {
	raw := packFields(
		headerField("op", []byte{byte(OpConnection)}),
		headerField("conn", u32le(7)),
		headerField("topic", []byte("/imu")),
	)
	fields, err := headerFields(raw)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(OpConnection)}, fields["op"])
	require.Equal(t, u32le(7), fields["conn"])
	require.Equal(t, []byte("/imu"), fields["topic"])
}

func TestHeaderFieldsRejectsTruncatedLength(t *testing.T) {
	_, err := headerFields([]byte{0x01, 0x00})
	require.Error(t, err)
	require.ErrorIs(t, err, &InvalidHeaderError{})
}

func TestHeaderFieldsRejectsMissingEquals(t *testing.T) {
	entry := append(u32le(3), []byte("abc")...)
	_, err := headerFields(entry)
	require.Error(t, err)
}

func TestRequiredUint32AndUint64(t *testing.T) {
	fields := map[string][]byte{
		"a": u32le(42),
		"b": u64le(1 << 40),
	}
	v32, err := requiredUint32(fields, "Test", "a")
	require.NoError(t, err)
	require.Equal(t, uint32(42), v32)

	v64, err := requiredUint64(fields, "Test", "b")
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), v64)

	_, err = requiredUint32(fields, "Test", "missing")
	require.Error(t, err)

	_, err = requiredUint32(fields, "Test", "b")
	require.Error(t, err, "wrong-length field must be rejected")
}

func TestRequiredTimeCombinesSecondsAndNanos(t *testing.T) {
	fields := map[string][]byte{"time": timeField(10, 500)}
	ns, err := requiredTime(fields, "Test", "time")
	require.NoError(t, err)
	require.Equal(t, uint64(10_000_000_500), ns)
}

func TestReadRecordAtAndIterateRecords(t *testing.T) {
	header := packRecord(packFields(opField(OpBagHeader), headerField("index_pos", u64le(0))), nil)
	connA := connectionRecord(0, "/a", "std_msgs/Bool", "abc123", "bool data\n")
	connB := connectionRecord(1, "/b", "std_msgs/Bool", "abc123", "bool data\n")
	data := append(append(append([]byte{}, header...), connA...), connB...)
	blob := &memBlob{data: data}

	ctx := context.Background()
	rec, next, err := readRecordAt(ctx, blob, 0)
	require.NoError(t, err)
	require.Equal(t, OpBagHeader, rec.Op)
	require.Equal(t, int64(len(header)), next)

	var ops []Op
	err = iterateRecords(ctx, blob, 0, func(r RawRecord) error {
		ops = append(ops, r.Op)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []Op{OpBagHeader, OpConnection, OpConnection}, ops)
}

func TestOpString(t *testing.T) {
	require.Equal(t, "Connection", OpConnection.String())
	require.Contains(t, Op(0xAA).String(), "0xaa")
}
