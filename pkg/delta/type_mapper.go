package delta

import (
	"fmt"

	"github.com/datazip-inc/deltalake/types"
)

// TimestampPrecision is the fractional digit count of a mapped timestamp.
const TimestampPrecision = 6

// MapType converts a Delta type descriptor into the internal type system.
// Primitives and decimals are wrapped in Nullable when nullable is set.
// Structs, arrays and maps carry nullability on their children only.
func MapType(descriptor TypeDescriptor, nullable bool) (*types.DataType, error) {
	switch d := descriptor.(type) {
	case PrimitiveDescriptor:
		dataType, err := primitiveType(d.Name)
		if err != nil {
			return nil, err
		}
		return wrapNullable(dataType, nullable), nil

	case DecimalDescriptor:
		dataType, err := types.Decimal(d.Precision, d.Scale)
		if err != nil {
			return nil, fmt.Errorf("%w: decimal(%d,%d): %s", ErrUnsupported, d.Precision, d.Scale, err)
		}
		return wrapNullable(dataType, nullable), nil

	case StructDescriptor:
		fields := make([]types.NameAndType, 0, len(d.Fields))
		for _, field := range d.Fields {
			fieldType, err := MapType(field.Type, field.Nullable)
			if err != nil {
				return nil, fmt.Errorf("struct field [%s]: %w", field.Name, err)
			}
			fields = append(fields, types.NameAndType{Name: field.Name, Type: fieldType})
		}
		return types.Tuple(fields...), nil

	case ArrayDescriptor:
		element, err := MapType(d.Element, d.ContainsNull)
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return types.Array(element), nil

	case MapDescriptor:
		key, err := MapType(d.Key, false)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		value, err := MapType(d.Value, d.ValueContainsNull)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		return types.Map(key, value), nil

	default:
		return nil, fmt.Errorf("%w: unknown type descriptor %T", ErrUnsupported, descriptor)
	}
}

// SchemaFromStruct maps the top-level fields of a schemaString into an
// ordered column list keyed by physical name.
func SchemaFromStruct(root StructDescriptor) (types.Schema, error) {
	schema := make(types.Schema, 0, len(root.Fields))
	for _, field := range root.Fields {
		name, err := field.PhysicalName()
		if err != nil {
			return nil, err
		}
		dataType, err := MapType(field.Type, field.Nullable)
		if err != nil {
			return nil, fmt.Errorf("column [%s]: %w", field.Name, err)
		}
		schema = append(schema, types.NameAndType{Name: name, Type: dataType})
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedData, err)
	}
	return schema, nil
}

func primitiveType(name string) (*types.DataType, error) {
	switch name {
	case "string", "binary":
		return types.String, nil
	case "long":
		return types.Int64, nil
	case "integer":
		return types.Int32, nil
	case "short":
		return types.Int16, nil
	case "byte":
		return types.Int8, nil
	case "float":
		return types.Float32, nil
	case "double":
		return types.Float64, nil
	case "boolean":
		return types.Bool, nil
	case "date":
		return types.Date32, nil
	case "timestamp":
		return types.DateTime64(TimestampPrecision, ""), nil
	default:
		return nil, fmt.Errorf("%w: unsupported delta lake type: %s", ErrUnsupported, name)
	}
}

func wrapNullable(dataType *types.DataType, nullable bool) *types.DataType {
	if nullable {
		return types.Nullable(dataType)
	}
	return dataType
}
