package ros1msg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// fieldLineRegex matches "type name" field declarations. Field names are
// restricted to an alphabetic character followed by alphanumerics and
// underscores, per http://wiki.ros.org/msg#Fields.
var fieldLineRegex = regexp.MustCompile(`^(\S+)\s+([a-zA-Z][a-zA-Z0-9_]*)$`)

// msgSplitRegex splits a concatenated message definition text on the
// "====" separator lines used to join a connection's dependent types.
var msgSplitRegex = regexp.MustCompile(`(?m)^=+$`)

// Cache holds compiled message types keyed by "namespace/Name", shared
// across ParseMessageDefinition calls so a type compiled for one
// connection is reused by every other connection that references it.
type Cache map[string]*MsgType

// ParseMessageDefinition compiles a connection's full message definition
// text -- the primary type followed by zero or more "MSG: ns/Name"
// delimited dependent type definitions -- into a MsgType, caching every
// named sub-type it compiles along the way.
//
// Sub-definitions are compiled in reverse textual order, so that a type
// referenced by an earlier definition is already resolved by the time that
// definition is processed.
func ParseMessageDefinition(cache Cache, namespace string, data []byte) (*MsgType, error) {
	sections := msgSplitRegex.Split(string(data), -1)
	parsed := make([]parsedSection, len(sections))
	for i, s := range sections {
		parsed[i] = parseSection(s, namespace)
	}

	var top *MsgType
	for i := len(parsed) - 1; i >= 0; i-- {
		sec := parsed[i]
		if sec.name != "" {
			if existing, ok := cache[sec.name]; ok {
				if i == 0 {
					top = existing
				}
				continue
			}
		}
		msg, err := compileMsgType(cache, sec.namespace, sec.lines)
		if err != nil {
			label := sec.name
			if label == "" {
				label = "<top-level>"
			}
			return nil, fmt.Errorf("compiling %s: %w", label, err)
		}
		msg.Namespace = sec.namespace
		if sec.name != "" {
			if slash := strings.LastIndexByte(sec.name, '/'); slash >= 0 {
				msg.Name = sec.name[slash+1:]
			} else {
				msg.Name = sec.name
			}
			cache[sec.name] = msg
		}
		if i == 0 {
			top = msg
		}
	}
	if top == nil {
		return nil, &InvalidDefinitionError{Reason: "message definition has no top-level section"}
	}
	return top, nil
}

// InvalidDefinitionError indicates a .msg definition text could not be
// parsed or resolved.
type InvalidDefinitionError struct {
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("ros1msg: invalid message definition: %s", e.Reason)
}

type parsedSection struct {
	name      string // "" for the anonymous top-level section
	namespace string
	lines     []string
}

// parseSection strips comments and blank lines from a section's text and
// pulls off its leading "MSG: ns/Name" header, if present.
func parseSection(raw string, fallbackNamespace string) parsedSection {
	var clean []string
	for _, line := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		if idx := strings.IndexByte(t, '#'); idx >= 0 {
			t = strings.TrimRight(t[:idx], " \t")
		}
		clean = append(clean, t)
	}

	name := ""
	namespace := fallbackNamespace
	if len(clean) > 0 && strings.HasPrefix(clean[0], "MSG: ") {
		fields := strings.Fields(clean[0])
		name = fields[len(fields)-1]
		if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
			namespace = name[:slash]
		}
		clean = clean[1:]
	}
	return parsedSection{name: name, namespace: namespace, lines: clean}
}

func compileMsgType(cache Cache, namespace string, lines []string) (*MsgType, error) {
	msg := &MsgType{
		fieldIndex: map[string]int{},
		constIndex: map[string]int{},
	}
	for _, line := range lines {
		if strings.Contains(line, "=") {
			cf, err := parseConstLine(line)
			if err != nil {
				return nil, err
			}
			msg.constIndex[cf.Name] = len(msg.Constants)
			msg.Constants = append(msg.Constants, cf)
			continue
		}

		fieldType, fieldName, err := parseFieldLine(line)
		if err != nil {
			return nil, err
		}
		dt, err := dataTypeFromString(cache, fieldType, namespace)
		if err != nil {
			return nil, fmt.Errorf("field %s %s: %w", fieldType, fieldName, err)
		}
		msg.fieldIndex[fieldName] = len(msg.Fields)
		msg.Fields = append(msg.Fields, Field{Name: fieldName, Type: dt})
	}
	return msg, nil
}

// parseConstLine splits a "type name = value" constant declaration. Only
// constant lines contain '=', so callers try this branch first.
func parseConstLine(line string) (ConstField, error) {
	eq := strings.SplitN(line, "=", 2)
	if len(eq) != 2 {
		return ConstField{}, &InvalidDefinitionError{Reason: "malformed const line: " + line}
	}
	typeName := strings.SplitN(strings.TrimRight(eq[0], " \t"), " ", 2)
	if len(typeName) != 2 {
		return ConstField{}, &InvalidDefinitionError{Reason: "malformed const line: " + line}
	}
	constType := strings.TrimSpace(typeName[0])
	constName := strings.TrimSpace(typeName[1])
	constVal := strings.TrimSpace(eq[1])

	prim, ok := ParsePrimitiveType(constType)
	if !ok {
		return ConstField{}, &InvalidDefinitionError{Reason: "unknown constant type: " + constType}
	}
	return ConstField{Type: prim, Name: constName, Value: constVal}, nil
}

func parseFieldLine(line string) (fieldType string, fieldName string, err error) {
	m := fieldLineRegex.FindStringSubmatch(line)
	if m == nil {
		return "", "", &InvalidDefinitionError{Reason: "malformed field line: " + line}
	}
	return m[1], m[2], nil
}

// dataTypeFromString resolves a .msg type token -- a primitive name, an
// array/vector of one, a bare complex type name, or a namespace-qualified
// complex type name -- against the primitive set and the shared compile
// cache.
func dataTypeFromString(cache Cache, typeStr, namespace string) (DataType, error) {
	if lb := strings.IndexByte(typeStr, '['); lb >= 0 {
		elemTypeStr := typeStr[:lb]
		rem := typeStr[lb+1:]
		rb := strings.IndexByte(rem, ']')
		if rb < 0 {
			return DataType{}, &InvalidDefinitionError{Reason: "mismatched brackets in " + typeStr}
		}
		inner := rem[:rb]
		outer := rem[rb+1:]
		if outer != "" {
			return DataType{}, &InvalidDefinitionError{Reason: "trailing characters after array in " + typeStr}
		}

		var elemPrim PrimitiveDataType
		var elemComplex *MsgType
		isComplex := false
		if p, ok := ParsePrimitiveType(elemTypeStr); ok {
			elemPrim = p
		} else if m, ok := lookupMsgType(cache, elemTypeStr, namespace); ok {
			elemComplex = m
			isComplex = true
		} else {
			return DataType{}, fmt.Errorf("%s: %w", elemTypeStr, errUnknownType)
		}

		if inner == "" {
			if isComplex {
				return DataType{Kind: KindComplexVector, Complex: elemComplex}, nil
			}
			return DataType{Kind: KindPrimitiveVector, Primitive: elemPrim}, nil
		}
		n, err := strconv.ParseUint(inner, 10, 32)
		if err != nil {
			return DataType{}, &InvalidDefinitionError{Reason: "invalid array length " + inner}
		}
		if isComplex {
			return DataType{Kind: KindComplexArray, Complex: elemComplex, ArrayLen: int(n)}, nil
		}
		return DataType{Kind: KindPrimitiveArray, Primitive: elemPrim, ArrayLen: int(n)}, nil
	}

	if p, ok := ParsePrimitiveType(typeStr); ok {
		return DataType{Kind: KindPrimitive, Primitive: p}, nil
	}
	if m, ok := lookupMsgType(cache, typeStr, namespace); ok {
		return DataType{Kind: KindComplex, Complex: m}, nil
	}
	return DataType{}, fmt.Errorf("%s: %w", typeStr, errUnknownType)
}

// lookupMsgType resolves a complex type name against the cache using the
// three-way fallback: an exact (possibly already-qualified) name, the name
// qualified by the current namespace, then the name qualified by
// std_msgs -- which also makes the bare name "Header" resolve to
// std_msgs/Header from any namespace.
func lookupMsgType(cache Cache, typeStr, namespace string) (*MsgType, bool) {
	if m, ok := cache[typeStr]; ok {
		return m, true
	}
	if m, ok := cache[namespace+"/"+typeStr]; ok {
		return m, true
	}
	if m, ok := cache["std_msgs/"+typeStr]; ok {
		return m, true
	}
	return nil, false
}
