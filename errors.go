package rosbag

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no useful structured detail
// beyond their message, mirroring the plain-var half of the teacher's
// two-tier error style (foxglove-mcap/go/mcap/errors.go).
var (
	// ErrOutOfBounds is returned by a ByteRangeReader when a requested
	// range extends past the end of the blob.
	ErrOutOfBounds = errors.New("rosbag: read out of bounds")

	// ErrUnknownType names the unresolvable-type error kind. No function in
	// this package returns it: the ros1msg schema compiler reports an
	// unknown field or array element type with its own sentinel, so
	// errors.Is(err, ErrUnknownType) is false for those errors.
	ErrUnknownType = errors.New("rosbag: unknown message type")

	// ErrInvalidType names the malformed-type-specifier error kind. No
	// function in this package returns it: the ros1msg schema compiler
	// reports a malformed array specifier as *ros1msg.InvalidDefinitionError.
	ErrInvalidType = errors.New("rosbag: invalid type specifier")

	// ErrStreamClosed is returned by ParallelMessageStream.Next once every
	// batch has been delivered and no worker failed. After Close or
	// cancellation of the stream's context, Next may instead return the
	// context's error.
	ErrStreamClosed = errors.New("rosbag: message stream closed")
)

// InvalidVersionError indicates the leading magic bytes of a bag did not
// match the supported "#ROSBAG V2.0\n" version string.
type InvalidVersionError struct {
	Found string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("rosbag: invalid bag version, found %q", e.Found)
}

func (e *InvalidVersionError) Is(target error) bool {
	_, ok := target.(*InvalidVersionError)
	return ok
}

// InvalidHeaderError indicates a record header was missing a required
// field, had a field of the wrong length, or carried an unrecognized enum
// value for a field that only accepts a fixed set of values.
type InvalidHeaderError struct {
	Record string
	Reason string
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("rosbag: invalid %s header: %s", e.Record, e.Reason)
}

func (e *InvalidHeaderError) Is(target error) bool {
	_, ok := target.(*InvalidHeaderError)
	return ok
}

// InvalidRecordError indicates a record appeared in a context that
// disallows it, or its payload shape violated the record's contract.
type InvalidRecordError struct {
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("rosbag: invalid record: %s", e.Reason)
}

func (e *InvalidRecordError) Is(target error) bool {
	_, ok := target.(*InvalidRecordError)
	return ok
}

// InvalidDataError indicates a payload failed to decode against its
// schema, e.g. a string length that runs past the end of the buffer.
type InvalidDataError struct {
	Reason string
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("rosbag: invalid data: %s", e.Reason)
}

func (e *InvalidDataError) Is(target error) bool {
	_, ok := target.(*InvalidDataError)
	return ok
}

// BackendError wraps an error returned by a ByteRangeReader backend (disk
// I/O, HTTP transport, etc).
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("rosbag: backend error during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
