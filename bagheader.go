package rosbag

import "context"

// magicV2 is the version string that must begin every supported bag.
const magicV2 = "#ROSBAG V2.0\n"

// BagHeader is the decoded first record of a bag: a pointer to the tail
// index section plus the counts it should contain, per spec.md §6.
type BagHeader struct {
	IndexPos   int64
	ConnCount  uint32
	ChunkCount uint32
}

func checkMagic(ctx context.Context, r ByteRangeReader) error {
	b, err := r.ReadRange(ctx, 0, int64(len(magicV2)))
	if err != nil {
		return err
	}
	if string(b) != magicV2 {
		return &InvalidVersionError{Found: string(b)}
	}
	return nil
}

// readBagHeader reads the magic and the BagHeader record starting right
// after it.
func readBagHeader(ctx context.Context, r ByteRangeReader) (*BagHeader, int64, error) {
	if err := checkMagic(ctx, r); err != nil {
		return nil, 0, err
	}
	rec, next, err := readRecordAt(ctx, r, int64(len(magicV2)))
	if err != nil {
		return nil, 0, err
	}
	if rec.Op != OpBagHeader {
		return nil, 0, &InvalidRecordError{Reason: "first record is not a BagHeader"}
	}

	indexPos, err := requiredUint64(rec.Fields, "BagHeader", "index_pos")
	if err != nil {
		return nil, 0, err
	}
	connCount, err := requiredUint32(rec.Fields, "BagHeader", "conn_count")
	if err != nil {
		return nil, 0, err
	}
	chunkCount, err := requiredUint32(rec.Fields, "BagHeader", "chunk_count")
	if err != nil {
		return nil, 0, err
	}

	return &BagHeader{
		IndexPos:   int64(indexPos),
		ConnCount:  connCount,
		ChunkCount: chunkCount,
	}, next, nil
}
