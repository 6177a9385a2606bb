package rosbag

import (
	"bytes"
	"context"
	"fmt"
)

// Op identifies a bag record's kind, per spec.md §3/§6.
type Op byte

const (
	OpBagHeader   Op = 0x03
	OpChunk       Op = 0x05
	OpConnection  Op = 0x07
	OpMessageData Op = 0x02
	OpIndexData   Op = 0x04
	OpChunkInfo   Op = 0x06
)

func (o Op) String() string {
	switch o {
	case OpBagHeader:
		return "BagHeader"
	case OpChunk:
		return "Chunk"
	case OpConnection:
		return "Connection"
	case OpMessageData:
		return "MessageData"
	case OpIndexData:
		return "IndexData"
	case OpChunkInfo:
		return "ChunkInfo"
	default:
		return fmt.Sprintf("Op(0x%02x)", byte(o))
	}
}

// headerFields parses a record's header block -- a sequence of
// u32-length-prefixed "key=value" entries -- into a lookup map, grounded on
// foxglove-mcap/go/ros/bag2mcap.go's headerToMap/extractHeaderValue.
func headerFields(header []byte) (map[string][]byte, error) {
	fields := make(map[string][]byte)
	offset := 0
	for offset < len(header) {
		if len(header)-offset < 4 {
			return nil, &InvalidHeaderError{Reason: "truncated field length"}
		}
		fieldLen := int(leUint32(header[offset : offset+4]))
		offset += 4
		if fieldLen < 0 || offset+fieldLen > len(header) {
			return nil, &InvalidHeaderError{Reason: "field length out of range"}
		}
		field := header[offset : offset+fieldLen]
		sep := bytes.IndexByte(field, '=')
		if sep < 0 {
			return nil, &InvalidHeaderError{Reason: "missing '=' in header field"}
		}
		fields[string(field[:sep])] = field[sep+1:]
		offset += fieldLen
	}
	return fields, nil
}

func requiredField(fields map[string][]byte, record, name string) ([]byte, error) {
	v, ok := fields[name]
	if !ok {
		return nil, &InvalidHeaderError{Record: record, Reason: fmt.Sprintf("missing required field %q", name)}
	}
	return v, nil
}

func requiredUint32(fields map[string][]byte, record, name string) (uint32, error) {
	v, err := requiredField(fields, record, name)
	if err != nil {
		return 0, err
	}
	if len(v) != 4 {
		return 0, &InvalidHeaderError{Record: record, Reason: fmt.Sprintf("field %q has wrong length %d", name, len(v))}
	}
	return leUint32(v), nil
}

func requiredUint64(fields map[string][]byte, record, name string) (uint64, error) {
	v, err := requiredField(fields, record, name)
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, &InvalidHeaderError{Record: record, Reason: fmt.Sprintf("field %q has wrong length %d", name, len(v))}
	}
	return leUint64(v), nil
}

// requiredTime reads an 8-byte ROS time header field (two little-endian
// u32s: seconds then nanoseconds) and returns it as combined nanoseconds.
func requiredTime(fields map[string][]byte, record, name string) (uint64, error) {
	v, err := requiredField(fields, record, name)
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, &InvalidHeaderError{Record: record, Reason: fmt.Sprintf("field %q has wrong length %d", name, len(v))}
	}
	return rosTimeToNanos(leUint32(v[0:4]), leUint32(v[4:8])), nil
}

// RawRecord is a parsed [header][data] frame: the decoded header fields,
// the record's kind, and the absolute file position of its data block (so
// the data itself can be fetched lazily -- per spec.md §4.2).
type RawRecord struct {
	Op      Op
	Fields  map[string][]byte
	DataPos int64
	DataLen int64
}

// readRecordAt reads one [header][data] frame starting at pos and returns
// it along with the absolute position just past its data block.
func readRecordAt(ctx context.Context, r ByteRangeReader, pos int64) (RawRecord, int64, error) {
	header, err := ReadLengthPrefixed(ctx, r, pos)
	if err != nil {
		return RawRecord{}, 0, err
	}
	headerEnd := pos + 4 + int64(len(header))
	dataLen, err := ReadUint32LE(ctx, r, headerEnd)
	if err != nil {
		return RawRecord{}, 0, err
	}
	dataPos := headerEnd + 4

	fields, err := headerFields(header)
	if err != nil {
		return RawRecord{}, 0, err
	}
	opBytes, err := requiredField(fields, "record", "op")
	if err != nil {
		return RawRecord{}, 0, err
	}
	if len(opBytes) != 1 {
		return RawRecord{}, 0, &InvalidHeaderError{Reason: "op field must be one byte"}
	}

	rec := RawRecord{
		Op:      Op(opBytes[0]),
		Fields:  fields,
		DataPos: dataPos,
		DataLen: int64(dataLen),
	}
	return rec, dataPos + int64(dataLen), nil
}

// iterateRecords walks sequential [header][data] frames starting at pos
// until the blob is exhausted, invoking cb for each. cb returning a
// non-nil error stops iteration and is returned to the caller.
func iterateRecords(ctx context.Context, r ByteRangeReader, pos int64, cb func(RawRecord) error) error {
	end := r.Len()
	for pos < end {
		rec, next, err := readRecordAt(ctx, r, pos)
		if err != nil {
			return err
		}
		if err := cb(rec); err != nil {
			return err
		}
		pos = next
	}
	return nil
}

// iterateInnerRecords walks [header][data] frames packed in an in-memory
// buffer (a decompressed chunk's contents), per spec.md §4.6 step 3.
func iterateInnerRecords(buf []byte, cb func(op Op, fields map[string][]byte, data []byte) error) error {
	offset := 0
	for offset < len(buf) {
		if len(buf)-offset < 4 {
			return &InvalidRecordError{Reason: "truncated header length in chunk"}
		}
		headerLen := int(leUint32(buf[offset : offset+4]))
		offset += 4
		if headerLen < 0 || offset+headerLen > len(buf) {
			return &InvalidRecordError{Reason: "header length out of range in chunk"}
		}
		header := buf[offset : offset+headerLen]
		offset += headerLen

		if len(buf)-offset < 4 {
			return &InvalidRecordError{Reason: "truncated data length in chunk"}
		}
		dataLen := int(leUint32(buf[offset : offset+4]))
		offset += 4
		if dataLen < 0 || offset+dataLen > len(buf) {
			return &InvalidRecordError{Reason: "data length out of range in chunk"}
		}
		data := buf[offset : offset+dataLen]
		offset += dataLen

		fields, err := headerFields(header)
		if err != nil {
			return err
		}
		opBytes, err := requiredField(fields, "record", "op")
		if err != nil {
			return err
		}
		if err := cb(Op(opBytes[0]), fields, data); err != nil {
			return err
		}
	}
	return nil
}
