package rosbag

import "fmt"

// Connection is one bag "topic instance": the pairing of a connection ID to
// the topic name, message type name, and full message definition text used
// to publish on it. Multiple connections may share the same topic (e.g. a
// topic re-subscribed across chunks with a different latching mode).
type Connection struct {
	ConnID            uint32
	Topic             string
	Type              string
	MD5Sum            string
	MessageDefinition []byte
	CallerID          string
	Latching          bool
}

// connectionFromFields builds a Connection from a Connection record's
// decoded header fields and its data block, per spec.md §6's Connection
// record layout. conn_id/topic live in the header; type/md5sum/
// message_definition/callerid/latching live in the inner "connection
// header" packed into the data block using the same field grammar.
func connectionFromFields(fields map[string][]byte, data []byte) (*Connection, error) {
	connID, err := requiredUint32(fields, "Connection", "conn")
	if err != nil {
		return nil, err
	}
	topicBytes, err := requiredField(fields, "Connection", "topic")
	if err != nil {
		return nil, err
	}

	inner, err := headerFields(data)
	if err != nil {
		return nil, fmt.Errorf("connection %d inner header: %w", connID, err)
	}

	typeBytes, err := requiredField(inner, "Connection", "type")
	if err != nil {
		return nil, err
	}
	md5Bytes, err := requiredField(inner, "Connection", "md5sum")
	if err != nil {
		return nil, err
	}
	defBytes, err := requiredField(inner, "Connection", "message_definition")
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		ConnID:            connID,
		Topic:             string(topicBytes),
		Type:              string(typeBytes),
		MD5Sum:            string(md5Bytes),
		MessageDefinition: defBytes,
	}
	if cid, ok := inner["callerid"]; ok {
		conn.CallerID = string(cid)
	}
	if latching, ok := inner["latching"]; ok {
		conn.Latching = len(latching) > 0 && latching[0] == '1'
	}
	return conn, nil
}

// Namespace returns the package portion of the connection's message type,
// e.g. "sensor_msgs" for "sensor_msgs/Image".
func (c *Connection) Namespace() string {
	for i := len(c.Type) - 1; i >= 0; i-- {
		if c.Type[i] == '/' {
			return c.Type[:i]
		}
	}
	return c.Type
}

// ChunkInfo describes the time span and per-connection message counts of
// one Chunk record, taken from the bag's tail index.
type ChunkInfo struct {
	ChunkPos     int64
	StartTimeNs  uint64
	EndTimeNs    uint64
	MessageCount map[uint32]uint32
}
