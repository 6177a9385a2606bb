package rosbag

import (
	"context"
	"fmt"

	"github.com/edaniels/golog"
)

// Options configures a BagReader, built up via the With* functions passed
// to Open/OpenHTTP/OpenReaderAt.
type Options struct {
	Logger golog.Logger
}

// Option mutates a BagReader's Options at construction time.
type Option func(*Options) error

// WithLogger overrides the reader's structured logger. The default is a
// golog.NewDevelopmentLogger instance, mirroring the injectable-logger
// convention used throughout viamrobotics-rdk.
func WithLogger(logger golog.Logger) Option {
	return func(o *Options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.Logger = logger
		return nil
	}
}

func resolveOptions(opts []Option) (*Options, error) {
	o := &Options{Logger: golog.NewDevelopmentLogger("rosbag")}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// BagReader is a random-access reader over a single ROSBag v2.0 file. It
// holds the bag's tail index in memory but never loads message chunks
// until they're requested.
type BagReader struct {
	blob      ByteRangeReader
	closer    func() error
	logger    golog.Logger
	bagHeader *BagHeader
	meta      *MetaIndex
}

// Open opens the bag at path on the local filesystem.
func Open(ctx context.Context, path string, opts ...Option) (*BagReader, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	blob, err := NewFileBlob(path)
	if err != nil {
		return nil, err
	}
	r, err := newBagReader(ctx, blob, blob.Close, o)
	if err != nil {
		blob.Close()
		return nil, err
	}
	return r, nil
}

// OpenReaderAt opens a bag backed by an already-open io.ReaderAt of known
// size (e.g. a storage SDK's object handle). The caller remains
// responsible for closing the io.ReaderAt wrapped by blob.
func OpenReaderAt(ctx context.Context, blob *ReaderAtBlob, opts ...Option) (*BagReader, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return newBagReader(ctx, blob, nil, o)
}

// OpenHTTP opens a bag served over HTTP(S) Range requests, e.g. a
// presigned object storage URL.
func OpenHTTP(ctx context.Context, url string, headers map[string]string, opts ...Option) (*BagReader, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	blob, err := NewHTTPRangeBlob(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	return newBagReader(ctx, blob, nil, o)
}

func newBagReader(ctx context.Context, blob ByteRangeReader, closer func() error, o *Options) (*BagReader, error) {
	bagHeader, _, err := readBagHeader(ctx, blob)
	if err != nil {
		return nil, err
	}
	o.Logger.Debugw("read bag header", "index_pos", bagHeader.IndexPos, "conn_count", bagHeader.ConnCount, "chunk_count", bagHeader.ChunkCount)

	meta, err := buildMetaIndex(ctx, blob, bagHeader)
	if err != nil {
		return nil, err
	}

	return &BagReader{
		blob:      blob,
		closer:    closer,
		logger:    o.Logger,
		bagHeader: bagHeader,
		meta:      meta,
	}, nil
}

// Close releases the underlying storage handle, if this BagReader owns
// one.
func (b *BagReader) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Topics returns every topic present in the bag.
func (b *BagReader) Topics() []string { return b.meta.Topics() }

// ConnectionsByTopic returns every connection publishing on topic.
func (b *BagReader) ConnectionsByTopic(topic string) []*Connection {
	return b.meta.ConnectionsByTopic(topic)
}

// Connections returns every connection in the bag, keyed by connection id.
func (b *BagReader) Connections() map[uint32]*Connection {
	return b.meta.Connections()
}

// NumMessages returns the total number of messages in the bag.
func (b *BagReader) NumMessages() uint64 { return b.meta.NumMessages() }

// StartTime returns the timestamp of the bag's earliest message, in
// nanoseconds.
func (b *BagReader) StartTime() uint64 { return b.meta.StartTime() }

// EndTime returns the timestamp of the bag's latest message, in
// nanoseconds.
func (b *BagReader) EndTime() uint64 { return b.meta.EndTime() }

// ReadMessages returns every message on one of topics (all topics, if
// empty) whose timestamp falls within
// [StartTime()+startOffset*1e9, EndTime()+endOffset*1e9]. A zero offset
// leaves the corresponding boundary at the bag's actual start/end.
//
// The subtle point here is that endOffset is added to EndTime, not
// StartTime: a caller wanting to drop the last N seconds of the bag passes
// endOffset = -N, not an offset measured from the start.
func (b *BagReader) ReadMessages(ctx context.Context, topics []string, startOffset, endOffset int64) ([]Message, error) {
	start := addOffsetNanos(b.meta.StartTime(), startOffset)
	end := addOffsetNanos(b.meta.EndTime(), endOffset)

	schemas, err := b.meta.Schemas(ctx)
	if err != nil {
		return nil, err
	}

	var wantConn map[uint32]bool
	if len(topics) > 0 {
		wantConn = make(map[uint32]bool)
		for _, topic := range topics {
			conns := b.meta.ConnectionsByTopic(topic)
			if len(conns) == 0 {
				b.logger.Warnw("topic filter references unknown topic, skipping", "topic", topic)
				continue
			}
			for _, conn := range conns {
				wantConn[conn.ConnID] = true
			}
		}
	}

	chunks := b.meta.FilterChunks(topics, start, end)
	b.logger.Debugw("reading messages", "topics", topics, "start_ns", start, "end_ns", end, "chunks", len(chunks))

	var out []Message
	for _, ci := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgs, err := decodeChunk(ctx, b.blob, ci.ChunkPos, wantConn, start, end, schemas, b.meta.connections)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

// addOffsetNanos adds offsetSec seconds (as nanoseconds) to baseNs,
// clamping at zero rather than wrapping if the result would be negative.
func addOffsetNanos(baseNs uint64, offsetSec int64) uint64 {
	delta := offsetSec * 1_000_000_000
	if delta < 0 && uint64(-delta) > baseNs {
		return 0
	}
	return uint64(int64(baseNs) + delta)
}
