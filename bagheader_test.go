package rosbag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadBagHeaderHappyPath(t *testing.T) {
	blob := &memBlob{data: buildSyntheticBag("none", []bagFixture{
		{
			connID:  0,
			topic:   "/a",
			msgType: "std_msgs/Bool",
			md5:     "8b94c1b53db61fb6aed406028ad6332a",
			msgDef:  "bool data\n",
			messages: []fixtureMessage{
				{sec: 1, nsec: 0, payload: []byte{0x01}},
			},
		},
	})}

	bh, next, err := readBagHeader(context.Background(), blob)
	require.NoError(t, err)
	require.Equal(t, uint32(1), bh.ConnCount)
	require.Equal(t, uint32(1), bh.ChunkCount)
	require.Greater(t, bh.IndexPos, int64(0))
	require.Greater(t, next, int64(len(magicV2)))
}

func TestReadBagHeaderRejectsWrongVersion(t *testing.T) {
	blob := &memBlob{data: []byte("#ROSBAG V1.2\n" + "garbage")}
	_, _, err := readBagHeader(context.Background(), blob)
	require.Error(t, err)
	var verErr *InvalidVersionError
	require.ErrorAs(t, err, &verErr)
	require.Equal(t, "#ROSBAG V1.2\n", verErr.Found)
}

func TestReadBagHeaderRejectsShortFile(t *testing.T) {
	blob := &memBlob{data: []byte("short")}
	_, _, err := readBagHeader(context.Background(), blob)
	require.Error(t, err)
}
