package rosbag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionFromFieldsParsesInnerHeader(t *testing.T) {
	ctx := context.Background()
	rec := connectionRecord(3, "/scan", "sensor_msgs/LaserScan", "deadbeef", "float32 range\n")
	blob := &memBlob{data: rec}

	raw, _, err := readRecordAt(ctx, blob, 0)
	require.NoError(t, err)
	data, err := blob.ReadRange(ctx, raw.DataPos, raw.DataLen)
	require.NoError(t, err)

	conn, err := connectionFromFields(raw.Fields, data)
	require.NoError(t, err)
	require.Equal(t, uint32(3), conn.ConnID)
	require.Equal(t, "/scan", conn.Topic)
	require.Equal(t, "sensor_msgs/LaserScan", conn.Type)
	require.Equal(t, "deadbeef", conn.MD5Sum)
	require.Equal(t, "float32 range\n", string(conn.MessageDefinition))
	require.Equal(t, "/test_node", conn.CallerID)
	require.False(t, conn.Latching)
}

func TestConnectionNamespace(t *testing.T) {
	c := &Connection{Type: "sensor_msgs/LaserScan"}
	require.Equal(t, "sensor_msgs", c.Namespace())

	bare := &Connection{Type: "Header"}
	require.Equal(t, "Header", bare.Namespace())
}

func TestConnectionFromFieldsMissingTypeErrors(t *testing.T) {
	fields := map[string][]byte{
		"conn":  u32le(0),
		"topic": []byte("/x"),
	}
	inner := packFields(headerField("md5sum", []byte("x")))
	_, err := connectionFromFields(fields, inner)
	require.Error(t, err)
}
