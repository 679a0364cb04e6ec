package types

import (
	"fmt"
	"strings"
)

// NameAndType is a single named column.
type NameAndType struct {
	Name string    `json:"name"`
	Type *DataType `json:"type"`
}

func (n NameAndType) String() string {
	return fmt.Sprintf("%s %s", n.Name, n.Type)
}

func (n NameAndType) Equal(other NameAndType) bool {
	return n.Name == other.Name && n.Type.Equal(other.Type)
}

// Schema is an ordered column list.
type Schema []NameAndType

// Lookup finds a column by name.
func (s Schema) Lookup(name string) (NameAndType, bool) {
	for _, column := range s {
		if column.Name == name {
			return column, true
		}
	}
	return NameAndType{}, false
}

// Equal compares names, types and order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Validate rejects duplicate column names.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, column := range s {
		if _, found := seen[column.Name]; found {
			return fmt.Errorf("duplicate column name [%s]", column.Name)
		}
		seen[column.Name] = struct{}{}
	}
	return nil
}

func (s Schema) String() string {
	parts := make([]string, 0, len(s))
	for _, column := range s {
		parts = append(parts, column.String())
	}
	return strings.Join(parts, ", ")
}
