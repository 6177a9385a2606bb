package rosbag

import (
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/balbok0/rustbag/internal/slicemap"
	"github.com/balbok0/rustbag/ros1msg"
)

// Message is one decoded MessageData record from a chunk.
type Message struct {
	ConnID uint32
	Topic  string
	TimeNs uint64
	Value  *ros1msg.MsgValue
}

// decodeChunk reads the Chunk record at chunkPos, decompresses it, and
// decodes every MessageData record inside whose connection is in
// wantConn (all connections, if wantConn is nil) and whose timestamp
// falls in [startNs, endNs]. Decompression dispatch is grounded on
// foxglove-mcap/go/ros/bag2mcap.go's processBag compression switch.
func decodeChunk(
	ctx context.Context,
	r ByteRangeReader,
	chunkPos int64,
	wantConn map[uint32]bool,
	startNs, endNs uint64,
	schemas map[uint32]*ros1msg.MsgType,
	connections []*Connection,
) ([]Message, error) {
	rec, _, err := readRecordAt(ctx, r, chunkPos)
	if err != nil {
		return nil, err
	}
	if rec.Op != OpChunk {
		return nil, &InvalidRecordError{Reason: fmt.Sprintf("record at chunk_pos %d is not a Chunk", chunkPos)}
	}

	compression, err := requiredField(rec.Fields, "Chunk", "compression")
	if err != nil {
		return nil, err
	}
	size, err := requiredUint32(rec.Fields, "Chunk", "size")
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadRange(ctx, rec.DataPos, rec.DataLen)
	if err != nil {
		return nil, err
	}

	decompressed, err := decompressChunk(string(compression), raw)
	if err != nil {
		return nil, err
	}
	if uint32(len(decompressed)) != size {
		return nil, &InvalidRecordError{Reason: fmt.Sprintf("chunk at %d decompressed to %d bytes, header declares size %d", chunkPos, len(decompressed), size)}
	}

	var messages []Message
	err = iterateInnerRecords(decompressed, func(op Op, fields map[string][]byte, data []byte) error {
		if op != OpMessageData {
			// Connection records are repeated verbatim inside each chunk
			// that uses them; the tail index already has every connection,
			// so there's nothing new to learn here.
			return nil
		}

		connID, err := requiredUint32(fields, "MessageData", "conn")
		if err != nil {
			return err
		}
		if wantConn != nil && !wantConn[connID] {
			return nil
		}
		timeNs, err := requiredTime(fields, "MessageData", "time")
		if err != nil {
			return err
		}
		if timeNs < startNs || timeNs > endNs {
			return nil
		}

		schema, ok := schemas[connID]
		if !ok {
			return &InvalidRecordError{Reason: fmt.Sprintf("message on unknown connection %d", connID)}
		}
		_, value, err := schema.TryParse(data)
		if err != nil {
			return &InvalidDataError{Reason: err.Error()}
		}

		conn := slicemap.GetAt(connections, connID)
		topic := ""
		if conn != nil {
			topic = conn.Topic
		}
		messages = append(messages, Message{ConnID: connID, Topic: topic, TimeNs: timeNs, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func decompressChunk(compression string, raw []byte) ([]byte, error) {
	switch compression {
	case "none":
		return raw, nil
	case "lz4":
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, &BackendError{Op: "lz4-decompress", Err: err}
		}
		return out, nil
	case "bz2":
		out, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, &BackendError{Op: "bz2-decompress", Err: err}
		}
		return out, nil
	default:
		return nil, &InvalidHeaderError{Record: "Chunk", Reason: "unsupported compression " + compression}
	}
}
