// Package ros1msg compiles ROS1 .msg text definitions into a typed schema
// graph and decodes little-endian serialized message bytes against it.
package ros1msg

import (
	"fmt"
	"sync"
)

// PrimitiveDataType is one of the fixed ROS1 primitive field types. byte
// and char are accepted as aliases of int8 and uint8 respectively and never
// appear as a distinct value here.
type PrimitiveDataType int

const (
	Bool PrimitiveDataType = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	String
	Time
	Duration
)

func (p PrimitiveDataType) String() string {
	switch p {
	case Bool:
		return "bool"
	case I8:
		return "int8"
	case I16:
		return "int16"
	case I32:
		return "int32"
	case I64:
		return "int64"
	case U8:
		return "uint8"
	case U16:
		return "uint16"
	case U32:
		return "uint32"
	case U64:
		return "uint64"
	case F32:
		return "float32"
	case F64:
		return "float64"
	case String:
		return "string"
	case Time:
		return "time"
	case Duration:
		return "duration"
	default:
		return fmt.Sprintf("PrimitiveDataType(%d)", int(p))
	}
}

// ParsePrimitiveType resolves a .msg primitive type token, including the
// byte/char aliases, or reports that it is not a primitive.
func ParsePrimitiveType(s string) (PrimitiveDataType, bool) {
	switch s {
	case "bool":
		return Bool, true
	case "int8", "byte":
		return I8, true
	case "int16":
		return I16, true
	case "int32":
		return I32, true
	case "int64":
		return I64, true
	case "uint8", "char":
		return U8, true
	case "uint16":
		return U16, true
	case "uint32":
		return U32, true
	case "uint64":
		return U64, true
	case "float32":
		return F32, true
	case "float64":
		return F64, true
	case "string":
		return String, true
	case "time":
		return Time, true
	case "duration":
		return Duration, true
	default:
		return 0, false
	}
}

// KnownSize returns the fixed wire size of p in bytes, or (0, false) for
// string, which is variable-length.
func (p PrimitiveDataType) KnownSize() (int, bool) {
	switch p {
	case Bool, I8, U8:
		return 1, true
	case I16, U16:
		return 2, true
	case I32, U32, F32:
		return 4, true
	case I64, U64, F64, Time, Duration:
		return 8, true
	case String:
		return 0, false
	default:
		return 0, false
	}
}

// DataTypeKind discriminates DataType's closed variant set, mirroring the
// six shapes a ROS1 field type can take: a bare primitive or complex type,
// a length-prefixed vector of either, or a fixed-size array of either.
type DataTypeKind int

const (
	KindPrimitive DataTypeKind = iota
	KindPrimitiveVector
	KindPrimitiveArray
	KindComplex
	KindComplexVector
	KindComplexArray
)

// DataType is a resolved field type. Exactly one of Primitive or Complex is
// meaningful, selected by Kind; ArrayLen is meaningful only for the two
// *Array kinds.
type DataType struct {
	Kind      DataTypeKind
	Primitive PrimitiveDataType
	Complex   *MsgType
	ArrayLen  int
}

// KnownSize returns the fixed wire size of the type, or (0, false) if it is
// variable-length (a vector of anything, or containing a string anywhere).
func (d DataType) KnownSize() (int, bool) {
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive.KnownSize()
	case KindPrimitiveVector, KindComplexVector:
		return 0, false
	case KindPrimitiveArray:
		elem, ok := d.Primitive.KnownSize()
		if !ok {
			return 0, false
		}
		return elem * d.ArrayLen, true
	case KindComplex:
		return d.Complex.KnownSize()
	case KindComplexArray:
		elem, ok := d.Complex.KnownSize()
		if !ok {
			return 0, false
		}
		return elem * d.ArrayLen, true
	default:
		return 0, false
	}
}

// Field is a named, typed member of a message definition.
type Field struct {
	Name string
	Type DataType
}

// ConstField is a named literal declared inside a message definition. The
// value is kept as the raw text from the .msg source; callers that need a
// typed constant can parse Value against Type themselves.
type ConstField struct {
	Type  PrimitiveDataType
	Name  string
	Value string
}

// MsgType is a compiled message schema: an ordered field list (wire layout
// follows declaration order, so this is a slice rather than a map) plus any
// declared constants.
type MsgType struct {
	Namespace string
	Name      string
	Fields    []Field
	Constants []ConstField

	fieldIndex map[string]int
	constIndex map[string]int

	sizeOnce  sync.Once
	size      int
	sizeKnown bool
}

// FieldByName returns the field with the given name, if present.
func (m *MsgType) FieldByName(name string) (Field, bool) {
	i, ok := m.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return m.Fields[i], true
}

// ConstByName returns the constant with the given name, if present.
func (m *MsgType) ConstByName(name string) (ConstField, bool) {
	i, ok := m.constIndex[name]
	if !ok {
		return ConstField{}, false
	}
	return m.Constants[i], true
}

// KnownSize returns the fixed wire size of the message, or (0, false) if
// any field is variable-length. Computed once and memoized, per the
// teacher's lazy-and-cached sizing convention.
func (m *MsgType) KnownSize() (int, bool) {
	m.sizeOnce.Do(func() {
		total := 0
		for _, f := range m.Fields {
			sz, ok := f.Type.KnownSize()
			if !ok {
				return
			}
			total += sz
		}
		m.size, m.sizeKnown = total, true
	})
	return m.size, m.sizeKnown
}
