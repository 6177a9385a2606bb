package rosbag

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// memBlob is an in-memory ByteRangeReader used to build synthetic bags
// without touching the filesystem, grounded on foxglove-mcap's test
// convention of exercising readers against byte slices assembled by hand
// rather than fixture files on disk.
type memBlob struct {
	data []byte
}

func (m *memBlob) Len() int64 { return int64(len(m.data)) }

func (m *memBlob) ReadRange(_ context.Context, pos int64, n int64) ([]byte, error) {
	if pos < 0 || n < 0 || pos+n > int64(len(m.data)) {
		return nil, ErrOutOfBounds
	}
	return m.data[pos : pos+n], nil
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func timeField(sec, nsec uint32) []byte {
	return append(u32le(sec), u32le(nsec)...)
}

func headerField(name string, value []byte) []byte {
	entry := append([]byte(name+"="), value...)
	return append(u32le(uint32(len(entry))), entry...)
}

func packFields(fields ...[]byte) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// packRecord assembles one [header][data] frame: a u32 header length, the
// header bytes, a u32 data length, then the data bytes.
func packRecord(header []byte, data []byte) []byte {
	out := append([]byte{}, u32le(uint32(len(header)))...)
	out = append(out, header...)
	out = append(out, u32le(uint32(len(data)))...)
	out = append(out, data...)
	return out
}

func opField(op Op) []byte {
	return headerField("op", []byte{byte(op)})
}

func bagHeaderRecord(indexPos int64, connCount, chunkCount uint32) []byte {
	header := packFields(
		opField(OpBagHeader),
		headerField("index_pos", u64le(uint64(indexPos))),
		headerField("conn_count", u32le(connCount)),
		headerField("chunk_count", u32le(chunkCount)),
	)
	return packRecord(header, nil)
}

func connectionRecord(connID uint32, topic, msgType, md5, msgDef string) []byte {
	header := packFields(
		opField(OpConnection),
		headerField("conn", u32le(connID)),
		headerField("topic", []byte(topic)),
	)
	inner := packFields(
		headerField("topic", []byte(topic)),
		headerField("type", []byte(msgType)),
		headerField("md5sum", []byte(md5)),
		headerField("message_definition", []byte(msgDef)),
		headerField("callerid", []byte("/test_node")),
		headerField("latching", []byte("0")),
	)
	return packRecord(header, inner)
}

func messageDataRecord(connID uint32, sec, nsec uint32, payload []byte) []byte {
	header := packFields(
		opField(OpMessageData),
		headerField("conn", u32le(connID)),
		headerField("time", timeField(sec, nsec)),
	)
	return packRecord(header, payload)
}

// chunkRecord packs innerRecords and, for "lz4", compresses them with a
// real encoder so decodeChunk exercises actual lz4 decompression rather
// than a stub. There is no bzip2 encoder in the standard library (only a
// reader), so "bz2" fixtures are not exercised here.
func chunkRecord(compression string, innerRecords ...[]byte) []byte {
	var inner []byte
	for _, r := range innerRecords {
		inner = append(inner, r...)
	}
	uncompressedSize := uint32(len(inner))

	raw := inner
	if compression == "lz4" {
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(inner); err != nil {
			panic(err)
		}
		if err := w.Close(); err != nil {
			panic(err)
		}
		raw = buf.Bytes()
	}

	header := packFields(
		opField(OpChunk),
		headerField("compression", []byte(compression)),
		headerField("size", u32le(uncompressedSize)),
	)
	return packRecord(header, raw)
}

func chunkInfoRecord(chunkPos int64, startSec, startNsec, endSec, endNsec uint32, counts map[uint32]uint32) []byte {
	header := packFields(
		opField(OpChunkInfo),
		headerField("ver", u32le(1)),
		headerField("chunk_pos", u32le(uint32(chunkPos))),
		headerField("start_time", timeField(startSec, startNsec)),
		headerField("end_time", timeField(endSec, endNsec)),
		headerField("count", u32le(uint32(len(counts)))),
	)
	var data []byte
	for connID, count := range counts {
		data = append(data, u32le(connID)...)
		data = append(data, u32le(count)...)
	}
	return packRecord(header, data)
}

// bagFixture describes one connection's worth of messages for
// buildSyntheticBag.
type bagFixture struct {
	connID  uint32
	topic   string
	msgType string
	md5     string
	msgDef  string
	// messages is a list of (sec, nsec, payload) tuples, assumed already
	// sorted by time within this connection.
	messages []fixtureMessage
}

type fixtureMessage struct {
	sec, nsec uint32
	payload   []byte
}

// buildSyntheticBag assembles a minimal but wire-accurate bag with one
// chunk per fixture (in fixture order), a Connection record per fixture,
// and a ChunkInfo covering each chunk's actual message time span.
//
// The BagHeader's index_pos field is fixed-width regardless of its value,
// so the header is written once with a placeholder and patched in place
// once the true tail offset is known, rather than reassembled.
func buildSyntheticBag(compression string, fixtures []bagFixture) []byte {
	type chunkSpan struct {
		pos            int64
		startS, startN uint32
		endS, endN     uint32
		counts         map[uint32]uint32
	}

	body := append([]byte{}, []byte(magicV2)...)
	bagHeaderOff := len(body)
	body = append(body, bagHeaderRecord(0, uint32(len(fixtures)), uint32(len(fixtures)))...)

	var chunkInfos []chunkSpan
	for _, f := range fixtures {
		var inner [][]byte
		inner = append(inner, connectionRecord(f.connID, f.topic, f.msgType, f.md5, f.msgDef))
		startS, startN := f.messages[0].sec, f.messages[0].nsec
		endS, endN := f.messages[len(f.messages)-1].sec, f.messages[len(f.messages)-1].nsec
		for _, m := range f.messages {
			inner = append(inner, messageDataRecord(f.connID, m.sec, m.nsec, m.payload))
		}
		chunkPos := int64(len(body))
		body = append(body, chunkRecord(compression, inner...)...)
		chunkInfos = append(chunkInfos, chunkSpan{chunkPos, startS, startN, endS, endN, map[uint32]uint32{f.connID: uint32(len(f.messages))}})
	}

	indexPos := int64(len(body))
	for _, f := range fixtures {
		body = append(body, connectionRecord(f.connID, f.topic, f.msgType, f.md5, f.msgDef)...)
	}
	for _, ci := range chunkInfos {
		body = append(body, chunkInfoRecord(ci.pos, ci.startS, ci.startN, ci.endS, ci.endN, ci.counts)...)
	}

	patched := bagHeaderRecord(indexPos, uint32(len(fixtures)), uint32(len(fixtures)))
	copy(body[bagHeaderOff:bagHeaderOff+len(patched)], patched)
	return body
}
