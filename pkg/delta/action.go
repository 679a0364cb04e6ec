package delta

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Action is one record of a commit file: AddAction, RemoveAction,
// MetaDataAction or IgnoredAction.
type Action interface {
	isAction()
}

// AddAction registers a data file. A nil entry in PartitionValues is a null
// partition value.
type AddAction struct {
	Path            string
	PartitionValues map[string]*string
}

// PartitionColumns returns the partition value keys in sorted order.
func (a AddAction) PartitionColumns() []string {
	names := make([]string, 0, len(a.PartitionValues))
	for name := range a.PartitionValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type RemoveAction struct {
	Path string
}

type MetaDataAction struct {
	Schema           StructDescriptor
	PartitionColumns []string
}

// IgnoredAction stands for commitInfo, protocol, txn and any unknown tag.
type IgnoredAction struct {
	Tag string
}

func (AddAction) isAction()      {}
func (RemoveAction) isAction()   {}
func (MetaDataAction) isAction() {}
func (IgnoredAction) isAction()  {}

type rawAdd struct {
	Path            string             `json:"path"`
	PartitionValues map[string]*string `json:"partitionValues"`
}

type rawRemove struct {
	Path string `json:"path"`
}

type rawMetaData struct {
	SchemaString     *string  `json:"schemaString"`
	PartitionColumns []string `json:"partitionColumns"`
}

// ParseAction decodes a single JSON object of a commit file and dispatches it
// on its top-level key.
func ParseAction(data []byte) (Action, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("%w: failed to decode action: %s", ErrMalformedData, err)
	}

	if raw, found := object["add"]; found {
		var add rawAdd
		if err := json.Unmarshal(raw, &add); err != nil {
			return nil, fmt.Errorf("%w: failed to decode add action: %s", ErrInvalidArgument, err)
		}
		if add.Path == "" {
			return nil, fmt.Errorf("%w: add action is missing 'path'", ErrInvalidArgument)
		}
		return AddAction{Path: add.Path, PartitionValues: add.PartitionValues}, nil
	}

	if raw, found := object["remove"]; found {
		var remove rawRemove
		if err := json.Unmarshal(raw, &remove); err != nil {
			return nil, fmt.Errorf("%w: failed to decode remove action: %s", ErrInvalidArgument, err)
		}
		if remove.Path == "" {
			return nil, fmt.Errorf("%w: remove action is missing 'path'", ErrInvalidArgument)
		}
		return RemoveAction{Path: remove.Path}, nil
	}

	if raw, found := object["metaData"]; found {
		var metaData rawMetaData
		if err := json.Unmarshal(raw, &metaData); err != nil {
			return nil, fmt.Errorf("%w: failed to decode metaData action: %s", ErrInvalidArgument, err)
		}
		if metaData.SchemaString == nil {
			return nil, fmt.Errorf("%w: metaData action is missing 'schemaString'", ErrInvalidArgument)
		}
		schema, err := ParseSchemaString(*metaData.SchemaString)
		if err != nil {
			return nil, fmt.Errorf("metaData schemaString: %w", err)
		}
		return MetaDataAction{Schema: schema, PartitionColumns: metaData.PartitionColumns}, nil
	}

	tags := make([]string, 0, len(object))
	for tag := range object {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	if len(tags) == 0 {
		return IgnoredAction{}, nil
	}
	return IgnoredAction{Tag: tags[0]}, nil
}
