package delta

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/goccy/go-json"
)

// TypeDescriptor is a type as written in a Delta schemaString. It is one of
// PrimitiveDescriptor, DecimalDescriptor, StructDescriptor, ArrayDescriptor
// or MapDescriptor.
type TypeDescriptor interface {
	isTypeDescriptor()
}

type PrimitiveDescriptor struct {
	Name string
}

type DecimalDescriptor struct {
	Precision int
	Scale     int
}

type StructDescriptor struct {
	Fields []StructField
}

type StructField struct {
	Name     string
	Type     TypeDescriptor
	Nullable bool
	Metadata map[string]any
}

type ArrayDescriptor struct {
	Element      TypeDescriptor
	ContainsNull bool
}

// MapDescriptor keys are never nullable.
type MapDescriptor struct {
	Key               TypeDescriptor
	Value             TypeDescriptor
	ValueContainsNull bool
}

func (PrimitiveDescriptor) isTypeDescriptor() {}
func (DecimalDescriptor) isTypeDescriptor()   {}
func (StructDescriptor) isTypeDescriptor()    {}
func (ArrayDescriptor) isTypeDescriptor()     {}
func (MapDescriptor) isTypeDescriptor()       {}

// PhysicalName returns the column-mapping physical name when present.
func (f StructField) PhysicalName() (string, error) {
	raw, found := f.Metadata[constants.ColumnMappingPhysicalName]
	if !found {
		return f.Name, nil
	}
	name, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: metadata [%s] of column [%s] is not a string: %v",
			ErrInvalidArgument, constants.ColumnMappingPhysicalName, f.Name, raw)
	}
	return name, nil
}

var decimalPattern = regexp.MustCompile(`^decimal\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)

type rawField struct {
	Name     string          `json:"name"`
	Type     json.RawMessage `json:"type"`
	Nullable *bool           `json:"nullable"`
	Required *bool           `json:"required"`
	Metadata map[string]any  `json:"metadata"`
}

type rawComplexType struct {
	Type              string          `json:"type"`
	Fields            []rawField      `json:"fields"`
	ElementType       json.RawMessage `json:"elementType"`
	KeyType           json.RawMessage `json:"keyType"`
	ValueType         json.RawMessage `json:"valueType"`
	ContainsNull      *bool           `json:"containsNull"`
	ValueContainsNull *bool           `json:"valueContainsNull"`
}

// ParseSchemaString parses the schemaString of a metaData action, which must
// describe a struct.
func ParseSchemaString(schemaString string) (StructDescriptor, error) {
	descriptor, err := parseTypeDescriptor(json.RawMessage(schemaString))
	if err != nil {
		return StructDescriptor{}, err
	}
	root, ok := descriptor.(StructDescriptor)
	if !ok {
		return StructDescriptor{}, fmt.Errorf("%w: schemaString does not describe a struct", ErrInvalidArgument)
	}
	return root, nil
}

// ParseTypeDescriptor parses a JSON type value: either a primitive name
// string or a complex type object.
func ParseTypeDescriptor(data []byte) (TypeDescriptor, error) {
	return parseTypeDescriptor(json.RawMessage(data))
}

func parseTypeDescriptor(raw json.RawMessage) (TypeDescriptor, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidArgument)
	}

	switch trimmed[0] {
	case '"':
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return nil, fmt.Errorf("%w: failed to decode type name: %s", ErrMalformedData, err)
		}
		return parsePrimitiveName(name)
	case '{':
		var complexType rawComplexType
		if err := json.Unmarshal(trimmed, &complexType); err != nil {
			return nil, fmt.Errorf("%w: failed to decode complex type: %s", ErrMalformedData, err)
		}
		return parseComplexType(complexType)
	default:
		return nil, fmt.Errorf("%w: unexpected 'type' field: %s", ErrInvalidArgument, string(trimmed))
	}
}

func parsePrimitiveName(name string) (TypeDescriptor, error) {
	if !strings.HasPrefix(name, "decimal(") || !strings.HasSuffix(name, ")") {
		return PrimitiveDescriptor{Name: name}, nil
	}

	match := decimalPattern.FindStringSubmatch(name)
	if match == nil {
		return nil, fmt.Errorf("%w: malformed decimal type: %s", ErrUnsupported, name)
	}
	precision, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed decimal precision in %s: %s", ErrUnsupported, name, err)
	}
	scale, err := strconv.Atoi(match[2])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed decimal scale in %s: %s", ErrUnsupported, name, err)
	}
	return DecimalDescriptor{Precision: precision, Scale: scale}, nil
}

func parseComplexType(raw rawComplexType) (TypeDescriptor, error) {
	switch raw.Type {
	case "struct":
		fields := make([]StructField, 0, len(raw.Fields))
		for _, f := range raw.Fields {
			field, err := parseField(f)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		return StructDescriptor{Fields: fields}, nil

	case "array":
		if raw.ContainsNull == nil {
			return nil, fmt.Errorf("%w: array type is missing 'containsNull'", ErrInvalidArgument)
		}
		element, err := parseTypeDescriptor(raw.ElementType)
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return ArrayDescriptor{Element: element, ContainsNull: *raw.ContainsNull}, nil

	case "map":
		valueContainsNull := raw.ValueContainsNull
		if valueContainsNull == nil {
			valueContainsNull = raw.ContainsNull
		}
		if valueContainsNull == nil {
			return nil, fmt.Errorf("%w: map type is missing 'valueContainsNull'", ErrInvalidArgument)
		}
		key, err := parseTypeDescriptor(raw.KeyType)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		value, err := parseTypeDescriptor(raw.ValueType)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		return MapDescriptor{Key: key, Value: value, ValueContainsNull: *valueContainsNull}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported delta lake type: %s", ErrUnsupported, raw.Type)
	}
}

// parseField reads the field nullability from 'nullable'. Older writers
// emitted 'required' on nested fields instead, which is read inverted.
func parseField(raw rawField) (StructField, error) {
	if raw.Name == "" {
		return StructField{}, fmt.Errorf("%w: struct field is missing 'name'", ErrInvalidArgument)
	}

	var nullable bool
	switch {
	case raw.Nullable != nil:
		nullable = *raw.Nullable
	case raw.Required != nil:
		nullable = !*raw.Required
	default:
		return StructField{}, fmt.Errorf("%w: field [%s] is missing 'nullable'", ErrInvalidArgument, raw.Name)
	}

	fieldType, err := parseTypeDescriptor(raw.Type)
	if err != nil {
		return StructField{}, fmt.Errorf("field [%s]: %w", raw.Name, err)
	}

	return StructField{
		Name:     raw.Name,
		Type:     fieldType,
		Nullable: nullable,
		Metadata: raw.Metadata,
	}, nil
}
