package ros1msg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMessageDefinitionSimple(t *testing.T) {
	cache := Cache{}
	def := "int32 a\nstring b\nfloat64[3] c\n"
	msg, err := ParseMessageDefinition(cache, "pkg", []byte(def))
	require.NoError(t, err)
	require.Len(t, msg.Fields, 3)
	require.Equal(t, "a", msg.Fields[0].Name)
	require.Equal(t, "b", msg.Fields[1].Name)
	require.Equal(t, "c", msg.Fields[2].Name)
	require.Equal(t, KindPrimitiveArray, msg.Fields[2].Type.Kind)
	require.Equal(t, 3, msg.Fields[2].Type.ArrayLen)
}

func TestParseMessageDefinitionPreservesDeclarationOrder(t *testing.T) {
	cache := Cache{}
	def := "float64 z\nfloat64 y\nfloat64 x\n"
	msg, err := ParseMessageDefinition(cache, "pkg", []byte(def))
	require.NoError(t, err)
	require.Equal(t, []string{"z", "y", "x"}, fieldNames(msg))
}

func fieldNames(m *MsgType) []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

func TestParseMessageDefinitionWithDependencies(t *testing.T) {
	def := "geometry_msgs/Point position\nstring name\n" +
		"================================================================================\n" +
		"MSG: geometry_msgs/Point\n" +
		"float64 x\n" +
		"float64 y\n" +
		"float64 z\n"

	cache := Cache{}
	msg, err := ParseMessageDefinition(cache, "geometry_msgs", []byte(def))
	require.NoError(t, err)
	require.Len(t, msg.Fields, 2)

	posField, ok := msg.FieldByName("position")
	require.True(t, ok)
	require.Equal(t, KindComplex, posField.Type.Kind)
	require.Equal(t, []string{"x", "y", "z"}, fieldNames(posField.Type.Complex))

	// The dependency is now in the shared cache under its qualified name.
	_, ok = cache["geometry_msgs/Point"]
	require.True(t, ok)
}

func TestParseMessageDefinitionHeaderFallback(t *testing.T) {
	def := "Header header\nstring data\n" +
		"================================================================================\n" +
		"MSG: std_msgs/Header\n" +
		"uint32 seq\n" +
		"time stamp\n" +
		"string frame_id\n"

	cache := Cache{}
	msg, err := ParseMessageDefinition(cache, "sensor_msgs", []byte(def))
	require.NoError(t, err)

	headerField, ok := msg.FieldByName("header")
	require.True(t, ok)
	require.Equal(t, KindComplex, headerField.Type.Kind)
	require.Equal(t, []string{"seq", "stamp", "frame_id"}, fieldNames(headerField.Type.Complex))
}

func TestParseMessageDefinitionReverseResolutionOrder(t *testing.T) {
	// sensor_msgs/Image depends on std_msgs/Header and sensor_msgs/ColorSpace;
	// both sub-definitions must be compiled before the top-level definition,
	// which appears first in the text but is processed last.
	def := "std_msgs/Header header\nColorSpace space\n" +
		"================================================================================\n" +
		"MSG: std_msgs/Header\n" +
		"uint32 seq\n" +
		"================================================================================\n" +
		"MSG: sensor_msgs/ColorSpace\n" +
		"uint8 value\n"

	cache := Cache{}
	msg, err := ParseMessageDefinition(cache, "sensor_msgs", []byte(def))
	require.NoError(t, err)
	require.Len(t, msg.Fields, 2)

	spaceField, ok := msg.FieldByName("space")
	require.True(t, ok)
	require.Equal(t, KindComplex, spaceField.Type.Kind)
	require.Equal(t, []string{"value"}, fieldNames(spaceField.Type.Complex))
}

func TestParseMessageDefinitionConstants(t *testing.T) {
	def := "uint8 FOO=1\nuint8 value\n"
	cache := Cache{}
	msg, err := ParseMessageDefinition(cache, "pkg", []byte(def))
	require.NoError(t, err)
	require.Len(t, msg.Fields, 1)
	require.Len(t, msg.Constants, 1)

	cf, ok := msg.ConstByName("FOO")
	require.True(t, ok)
	require.Equal(t, U8, cf.Type)
	require.Equal(t, "1", cf.Value)
}

func TestDataTypeFromStringErrors(t *testing.T) {
	cache := Cache{}
	cases := []string{
		"foal32",
		"foal32[]",
		"ant8[10",
		"uint8[oops",
		"uint8[",
		"uint8[]]",
		"uint8[20]]",
		"uint8[1000000000000000000000000000]",
	}
	for _, c := range cases {
		_, err := dataTypeFromString(cache, c, "geometry_msgs")
		require.Errorf(t, err, "expected error for %q", c)
	}
}

func TestDataTypeFromStringHappyPath(t *testing.T) {
	cache := Cache{
		"geometry_msgs/Point": {Name: "Point"},
	}

	dt, err := dataTypeFromString(cache, "float32", "geometry_msgs")
	require.NoError(t, err)
	require.Equal(t, DataType{Kind: KindPrimitive, Primitive: F32}, dt)

	dt, err = dataTypeFromString(cache, "Point", "geometry_msgs")
	require.NoError(t, err)
	require.Equal(t, KindComplex, dt.Kind)
	require.Equal(t, "Point", dt.Complex.Name)

	dt, err = dataTypeFromString(cache, "float32[]", "geometry_msgs")
	require.NoError(t, err)
	require.Equal(t, DataType{Kind: KindPrimitiveVector, Primitive: F32}, dt)

	dt, err = dataTypeFromString(cache, "float32[4]", "geometry_msgs")
	require.NoError(t, err)
	require.Equal(t, DataType{Kind: KindPrimitiveArray, Primitive: F32, ArrayLen: 4}, dt)
}
