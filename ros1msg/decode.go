package ros1msg

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// DecodeError reports a failure to decode a value against its schema.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ros1msg: decode error: %s", e.Reason)
}

// TryParse decodes a single value of type p from the front of b, returning
// the number of bytes consumed. Bool is true only for the exact byte 0x01;
// any other value, including 0x02, decodes to false. This mirrors the wire
// format's actual behavior rather than treating any nonzero byte as true.
func (p PrimitiveDataType) TryParse(b []byte) (int, FieldValue, error) {
	switch p {
	case Bool:
		if len(b) < 1 {
			return 0, nil, &DecodeError{Reason: "bool: buffer too short"}
		}
		return 1, BoolValue(b[0] == 0x01), nil
	case I8:
		if len(b) < 1 {
			return 0, nil, &DecodeError{Reason: "int8: buffer too short"}
		}
		return 1, I8Value(int8(b[0])), nil
	case I16:
		if len(b) < 2 {
			return 0, nil, &DecodeError{Reason: "int16: buffer too short"}
		}
		return 2, I16Value(int16(binary.LittleEndian.Uint16(b))), nil
	case I32:
		if len(b) < 4 {
			return 0, nil, &DecodeError{Reason: "int32: buffer too short"}
		}
		return 4, I32Value(int32(binary.LittleEndian.Uint32(b))), nil
	case I64:
		if len(b) < 8 {
			return 0, nil, &DecodeError{Reason: "int64: buffer too short"}
		}
		return 8, I64Value(int64(binary.LittleEndian.Uint64(b))), nil
	case U8:
		if len(b) < 1 {
			return 0, nil, &DecodeError{Reason: "uint8: buffer too short"}
		}
		return 1, U8Value(b[0]), nil
	case U16:
		if len(b) < 2 {
			return 0, nil, &DecodeError{Reason: "uint16: buffer too short"}
		}
		return 2, U16Value(binary.LittleEndian.Uint16(b)), nil
	case U32:
		if len(b) < 4 {
			return 0, nil, &DecodeError{Reason: "uint32: buffer too short"}
		}
		return 4, U32Value(binary.LittleEndian.Uint32(b)), nil
	case U64:
		if len(b) < 8 {
			return 0, nil, &DecodeError{Reason: "uint64: buffer too short"}
		}
		return 8, U64Value(binary.LittleEndian.Uint64(b)), nil
	case F32:
		if len(b) < 4 {
			return 0, nil, &DecodeError{Reason: "float32: buffer too short"}
		}
		return 4, F32Value(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case F64:
		if len(b) < 8 {
			return 0, nil, &DecodeError{Reason: "float64: buffer too short"}
		}
		return 8, F64Value(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case String:
		n, s, err := parseString(b)
		if err != nil {
			return 0, nil, err
		}
		return n, StringValue(s), nil
	case Time:
		if len(b) < 8 {
			return 0, nil, &DecodeError{Reason: "time: buffer too short"}
		}
		return 8, TimeValue(rosTimeNanos(b)), nil
	case Duration:
		if len(b) < 8 {
			return 0, nil, &DecodeError{Reason: "duration: buffer too short"}
		}
		return 8, DurationValue(rosTimeNanos(b)), nil
	default:
		return 0, nil, &DecodeError{Reason: fmt.Sprintf("unknown primitive type %v", p)}
	}
}

func rosTimeNanos(b []byte) uint64 {
	sec := uint64(binary.LittleEndian.Uint32(b[0:4]))
	nsec := uint64(binary.LittleEndian.Uint32(b[4:8]))
	return sec*1_000_000_000 + nsec
}

// parseString decodes a u32-length-prefixed, utf8-lossy string field. It
// errors if the declared length runs past the end of the buffer.
func parseString(b []byte) (int, string, error) {
	if len(b) < 4 {
		return 0, "", &DecodeError{Reason: "string: buffer too short for length prefix"}
	}
	n := int(binary.LittleEndian.Uint32(b))
	if n > len(b)-4 {
		return 0, "", &DecodeError{Reason: "string: declared length exceeds buffer"}
	}
	return 4 + n, toValidUTF8(b[4 : 4+n]), nil
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return string([]rune(string(b)))
}

// TryParse decodes a single value of type d from the front of b.
func (d DataType) TryParse(b []byte) (int, FieldValue, error) {
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive.TryParse(b)
	case KindPrimitiveVector:
		if len(b) < 4 {
			return 0, nil, &DecodeError{Reason: "vector: buffer too short for count prefix"}
		}
		count := int(binary.LittleEndian.Uint32(b))
		n, v, err := parsePrimitiveArray(b[4:], count, d.Primitive)
		if err != nil {
			return 0, nil, err
		}
		return 4 + n, v, nil
	case KindPrimitiveArray:
		return parsePrimitiveArray(b, d.ArrayLen, d.Primitive)
	case KindComplex:
		return d.Complex.TryParse(b)
	case KindComplexVector:
		if len(b) < 4 {
			return 0, nil, &DecodeError{Reason: "vector: buffer too short for count prefix"}
		}
		count := int(binary.LittleEndian.Uint32(b))
		n, v, err := parseComplexArray(b[4:], count, d.Complex)
		if err != nil {
			return 0, nil, err
		}
		return 4 + n, v, nil
	case KindComplexArray:
		return parseComplexArray(b, d.ArrayLen, d.Complex)
	default:
		return 0, nil, &DecodeError{Reason: "unknown data type kind"}
	}
}

// parsePrimitiveArray decodes n consecutive values of elem from b. Time and
// Duration share the same two-u32 layout; only the returned FieldValue
// variant (TimeArrayValue vs DurationArrayValue) distinguishes them.
func parsePrimitiveArray(b []byte, n int, elem PrimitiveDataType) (int, FieldValue, error) {
	switch elem {
	case Bool:
		if len(b) < n {
			return 0, nil, &DecodeError{Reason: "bool array: buffer too short"}
		}
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			out[i] = b[i] == 0x01
		}
		return n, BoolArrayValue(out), nil
	case I8:
		if len(b) < n {
			return 0, nil, &DecodeError{Reason: "int8 array: buffer too short"}
		}
		out := make([]int8, n)
		for i := 0; i < n; i++ {
			out[i] = int8(b[i])
		}
		return n, I8ArrayValue(out), nil
	case I16:
		need := 2 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "int16 array: buffer too short"}
		}
		out := make([]int16, n)
		for i := 0; i < n; i++ {
			out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
		}
		return need, I16ArrayValue(out), nil
	case I32:
		need := 4 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "int32 array: buffer too short"}
		}
		out := make([]int32, n)
		for i := 0; i < n; i++ {
			out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return need, I32ArrayValue(out), nil
	case I64:
		need := 8 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "int64 array: buffer too short"}
		}
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = int64(binary.LittleEndian.Uint64(b[8*i:]))
		}
		return need, I64ArrayValue(out), nil
	case U8:
		if len(b) < n {
			return 0, nil, &DecodeError{Reason: "uint8 array: buffer too short"}
		}
		out := make([]byte, n)
		copy(out, b[:n])
		return n, U8ArrayValue(out), nil
	case U16:
		need := 2 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "uint16 array: buffer too short"}
		}
		out := make([]uint16, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint16(b[2*i:])
		}
		return need, U16ArrayValue(out), nil
	case U32:
		need := 4 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "uint32 array: buffer too short"}
		}
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint32(b[4*i:])
		}
		return need, U32ArrayValue(out), nil
	case U64:
		need := 8 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "uint64 array: buffer too short"}
		}
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint64(b[8*i:])
		}
		return need, U64ArrayValue(out), nil
	case F32:
		need := 4 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "float32 array: buffer too short"}
		}
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return need, F32ArrayValue(out), nil
	case F64:
		need := 8 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "float64 array: buffer too short"}
		}
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
		}
		return need, F64ArrayValue(out), nil
	case String:
		out := make([]string, n)
		pos := 0
		for i := 0; i < n; i++ {
			consumed, s, err := parseString(b[pos:])
			if err != nil {
				return 0, nil, err
			}
			out[i] = s
			pos += consumed
		}
		return pos, StringArrayValue(out), nil
	case Time:
		need := 8 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "time array: buffer too short"}
		}
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = rosTimeNanos(b[8*i:])
		}
		return need, TimeArrayValue(out), nil
	case Duration:
		need := 8 * n
		if len(b) < need {
			return 0, nil, &DecodeError{Reason: "duration array: buffer too short"}
		}
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = rosTimeNanos(b[8*i:])
		}
		return need, DurationArrayValue(out), nil
	default:
		return 0, nil, &DecodeError{Reason: "unknown primitive element type"}
	}
}

func parseComplexArray(b []byte, n int, msg *MsgType) (int, FieldValue, error) {
	out := make([]*MsgValue, n)
	pos := 0
	for i := 0; i < n; i++ {
		consumed, v, err := msg.TryParse(b[pos:])
		if err != nil {
			return 0, nil, err
		}
		out[i] = v
		pos += consumed
	}
	return pos, MsgArrayValue(out), nil
}

// TryParse decodes an instance of m from the front of b, consuming each
// field in declaration order.
func (m *MsgType) TryParse(b []byte) (int, *MsgValue, error) {
	values := make([]FieldValue, len(m.Fields))
	pos := 0
	for i, f := range m.Fields {
		consumed, v, err := f.Type.TryParse(b[pos:])
		if err != nil {
			return 0, nil, fmt.Errorf("field %s.%s: %w", m.Name, f.Name, err)
		}
		values[i] = v
		pos += consumed
	}
	return pos, &MsgValue{Type: m, values: values}, nil
}
