package ros1msg

// FieldValue is a decoded field value. It is a closed set: BoolValue
// through DurationArrayValue, plus *MsgValue and MsgArrayValue, are the
// only implementations.
type FieldValue interface {
	isFieldValue()
}

type (
	BoolValue     bool
	I8Value       int8
	I16Value      int16
	I32Value      int32
	I64Value      int64
	U8Value       uint8
	U16Value      uint16
	U32Value      uint32
	U64Value      uint64
	F32Value      float32
	F64Value      float64
	StringValue   string
	TimeValue     uint64
	DurationValue uint64

	BoolArrayValue     []bool
	I8ArrayValue       []int8
	I16ArrayValue      []int16
	I32ArrayValue      []int32
	I64ArrayValue      []int64
	U8ArrayValue       []uint8
	U16ArrayValue      []uint16
	U32ArrayValue      []uint32
	U64ArrayValue      []uint64
	F32ArrayValue      []float32
	F64ArrayValue      []float64
	StringArrayValue   []string
	TimeArrayValue     []uint64
	DurationArrayValue []uint64

	MsgArrayValue []*MsgValue
)

func (BoolValue) isFieldValue()     {}
func (I8Value) isFieldValue()       {}
func (I16Value) isFieldValue()      {}
func (I32Value) isFieldValue()      {}
func (I64Value) isFieldValue()      {}
func (U8Value) isFieldValue()       {}
func (U16Value) isFieldValue()      {}
func (U32Value) isFieldValue()      {}
func (U64Value) isFieldValue()      {}
func (F32Value) isFieldValue()      {}
func (F64Value) isFieldValue()      {}
func (StringValue) isFieldValue()   {}
func (TimeValue) isFieldValue()     {}
func (DurationValue) isFieldValue() {}

func (BoolArrayValue) isFieldValue()     {}
func (I8ArrayValue) isFieldValue()       {}
func (I16ArrayValue) isFieldValue()      {}
func (I32ArrayValue) isFieldValue()      {}
func (I64ArrayValue) isFieldValue()      {}
func (U8ArrayValue) isFieldValue()       {}
func (U16ArrayValue) isFieldValue()      {}
func (U32ArrayValue) isFieldValue()      {}
func (U64ArrayValue) isFieldValue()      {}
func (F32ArrayValue) isFieldValue()      {}
func (F64ArrayValue) isFieldValue()      {}
func (StringArrayValue) isFieldValue()   {}
func (TimeArrayValue) isFieldValue()     {}
func (DurationArrayValue) isFieldValue() {}

func (MsgArrayValue) isFieldValue() {}

// MsgValue is a decoded instance of a complex (nested-message) field. Its
// values slice is positional, parallel to Type.Fields.
type MsgValue struct {
	Type   *MsgType
	values []FieldValue
}

func (*MsgValue) isFieldValue() {}

// Field returns the decoded value of the named field.
func (v *MsgValue) Field(name string) (FieldValue, bool) {
	i, ok := v.Type.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return v.values[i], true
}

// Values returns the decoded values in declaration order, positional with
// Fields.
func (v *MsgValue) Values() []FieldValue {
	return v.values
}

// Fields returns the field names in declaration order, not map iteration
// order, so callers rendering a MsgValue to JSON or a debug string get
// stable, repeatable output.
func (v *MsgValue) Fields() []string {
	names := make([]string, len(v.Type.Fields))
	for i, f := range v.Type.Fields {
		names[i] = f.Name
	}
	return names
}
