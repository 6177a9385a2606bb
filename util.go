package rosbag

import "encoding/binary"

func leUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func leUint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

// rosTimeToNanos combines a pair of little-endian u32 (seconds,
// nanoseconds) ROS time fields into a single u64 nanosecond timestamp, per
// spec.md §3's time/duration encoding.
func rosTimeToNanos(sec, nsec uint32) uint64 {
	return uint64(sec)*1_000_000_000 + uint64(nsec)
}
