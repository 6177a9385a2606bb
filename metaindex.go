package rosbag

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/balbok0/rustbag/internal/slicemap"
	"github.com/balbok0/rustbag/ros1msg"
)

// MetaIndex is the parsed tail index of a bag: every connection, every
// chunk's time span and per-connection message counts, and the lazily
// compiled schema for each connection. Building it requires reading only
// the tail section (from the BagHeader's index_pos to EOF), never the
// message chunks themselves, which is what makes random-access reads
// possible without a full linear scan.
type MetaIndex struct {
	bagHeader *BagHeader

	// connections is a slicemap keyed by connection id: ids are small and
	// densely assigned by the recorder, so a slice indexed by id beats a
	// map here.
	connections        []*Connection
	topicToConnections map[string][]*Connection
	chunkInfos         []ChunkInfo

	startTimeNs uint64
	endTimeNs   uint64
	numMessages uint64

	schemaOnce   sync.Once
	schemaByConn map[uint32]*ros1msg.MsgType
	schemaErr    error
}

// buildMetaIndex reads the tail index section of a bag and assembles a
// MetaIndex, grounded on the Connection/ChunkInfo join and start/end time
// tracking in rosbags_lib's Meta::try_new_from_bytes.
func buildMetaIndex(ctx context.Context, r ByteRangeReader, bagHeader *BagHeader) (*MetaIndex, error) {
	m := &MetaIndex{
		bagHeader:          bagHeader,
		topicToConnections: make(map[string][]*Connection),
		chunkInfos:         make([]ChunkInfo, 0, bagHeader.ChunkCount),
	}

	first := true
	err := iterateRecords(ctx, r, bagHeader.IndexPos, func(rec RawRecord) error {
		data, err := r.ReadRange(ctx, rec.DataPos, rec.DataLen)
		if err != nil {
			return err
		}
		switch rec.Op {
		case OpConnection:
			conn, err := connectionFromFields(rec.Fields, data)
			if err != nil {
				return err
			}
			m.connections = slicemap.SetAt(m.connections, conn.ConnID, conn)
			m.topicToConnections[conn.Topic] = append(m.topicToConnections[conn.Topic], conn)
		case OpChunkInfo:
			ci, err := chunkInfoFromRecord(rec, data)
			if err != nil {
				return err
			}
			m.chunkInfos = append(m.chunkInfos, ci)
			if first || ci.StartTimeNs < m.startTimeNs {
				m.startTimeNs = ci.StartTimeNs
			}
			if first || ci.EndTimeNs > m.endTimeNs {
				m.endTimeNs = ci.EndTimeNs
			}
			first = false
			for _, count := range ci.MessageCount {
				m.numMessages += uint64(count)
			}
		default:
			return &InvalidRecordError{Reason: fmt.Sprintf("unexpected record %s in index section", rec.Op)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(m.chunkInfos, func(i, j int) bool {
		return m.chunkInfos[i].StartTimeNs < m.chunkInfos[j].StartTimeNs
	})

	return m, nil
}

func chunkInfoFromRecord(rec RawRecord, data []byte) (ChunkInfo, error) {
	chunkPos, err := requiredUint32(rec.Fields, "ChunkInfo", "chunk_pos")
	if err != nil {
		return ChunkInfo{}, err
	}
	startTime, err := requiredTime(rec.Fields, "ChunkInfo", "start_time")
	if err != nil {
		return ChunkInfo{}, err
	}
	endTime, err := requiredTime(rec.Fields, "ChunkInfo", "end_time")
	if err != nil {
		return ChunkInfo{}, err
	}
	count, err := requiredUint32(rec.Fields, "ChunkInfo", "count")
	if err != nil {
		return ChunkInfo{}, err
	}

	// The data block is a flat array of (conn uint32, count uint32) pairs,
	// one per connection present in the chunk -- unlike record headers,
	// these are raw fixed-width fields, not length-prefixed key=value text.
	if len(data) != int(count)*8 {
		return ChunkInfo{}, &InvalidRecordError{Reason: fmt.Sprintf("ChunkInfo data length %d does not match count %d", len(data), count)}
	}
	counts := make(map[uint32]uint32, count)
	for i := 0; i < int(count); i++ {
		off := i * 8
		connID := leUint32(data[off : off+4])
		msgCount := leUint32(data[off+4 : off+8])
		counts[connID] = msgCount
	}

	return ChunkInfo{
		ChunkPos:     int64(chunkPos),
		StartTimeNs:  startTime,
		EndTimeNs:    endTime,
		MessageCount: counts,
	}, nil
}

// Topics returns every topic referenced by any connection in the bag.
func (m *MetaIndex) Topics() []string {
	topics := make([]string, 0, len(m.topicToConnections))
	for t := range m.topicToConnections {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// ConnectionsByTopic returns every connection publishing on topic.
func (m *MetaIndex) ConnectionsByTopic(topic string) []*Connection {
	return m.topicToConnections[topic]
}

// Connection returns the connection with the given id.
func (m *MetaIndex) Connection(connID uint32) (*Connection, bool) {
	c := slicemap.GetAt(m.connections, connID)
	return c, c != nil
}

// Connections returns every connection in the bag, keyed by connection id.
func (m *MetaIndex) Connections() map[uint32]*Connection {
	return slicemap.ToMap(m.connections)
}

// StartTime returns the earliest message timestamp in the bag, in
// nanoseconds.
func (m *MetaIndex) StartTime() uint64 { return m.startTimeNs }

// EndTime returns the latest message timestamp in the bag, in nanoseconds.
func (m *MetaIndex) EndTime() uint64 { return m.endTimeNs }

// NumMessages returns the total number of messages across every chunk.
func (m *MetaIndex) NumMessages() uint64 { return m.numMessages }

// Schemas lazily compiles every connection's message definition into a
// ros1msg.MsgType, ascending by connection id so that a type compiled for
// an earlier connection is available in the shared cache for a later
// connection that depends on it, per the ascending-conn-id compile order
// used by rosbags_lib's Meta::borrow_connection_to_id_message. The whole
// batch is computed once, matching that method's OnceCell<HashMap<..>>
// shape rather than memoizing per connection independently.
func (m *MetaIndex) Schemas(ctx context.Context) (map[uint32]*ros1msg.MsgType, error) {
	m.schemaOnce.Do(func() {
		cache := ros1msg.Cache{}
		out := make(map[uint32]*ros1msg.MsgType, len(m.connections))
		for id, conn := range m.connections {
			if conn == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				m.schemaErr = err
				return
			}
			msg, err := ros1msg.ParseMessageDefinition(cache, conn.Namespace(), conn.MessageDefinition)
			if err != nil {
				m.schemaErr = fmt.Errorf("connection %d (%s): %w", id, conn.Topic, err)
				return
			}
			out[uint32(id)] = msg
		}
		m.schemaByConn = out
	})
	return m.schemaByConn, m.schemaErr
}

// FilterChunks returns the chunks that could contain a message on one of
// topics (all topics, if empty) with a timestamp in [startNs, endNs],
// sorted by start time. A chunk is excluded only if its time span cannot
// overlap the window, or none of its connections match the topic filter;
// per-message filtering still happens during chunk decode.
func (m *MetaIndex) FilterChunks(topics []string, startNs, endNs uint64) []ChunkInfo {
	var connIDs map[uint32]bool
	if len(topics) > 0 {
		connIDs = make(map[uint32]bool)
		topicSet := make(map[string]bool, len(topics))
		for _, t := range topics {
			topicSet[t] = true
		}
		for id, conn := range m.connections {
			if conn != nil && topicSet[conn.Topic] {
				connIDs[uint32(id)] = true
			}
		}
	}

	var out []ChunkInfo
	for _, ci := range m.chunkInfos {
		if startNs > ci.EndTimeNs || endNs < ci.StartTimeNs {
			continue
		}
		if connIDs != nil {
			matched := false
			for id := range ci.MessageCount {
				if connIDs[id] {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, ci)
	}
	return out
}
