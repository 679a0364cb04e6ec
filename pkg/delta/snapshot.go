package delta

import (
	"github.com/datazip-inc/deltalake/types"
	"github.com/goccy/go-json"
)

// Snapshot is the state of a table after replaying its log. It is immutable;
// accessors hand out copies.
type Snapshot struct {
	schema               types.Schema
	dataFiles            []string
	partitionColumns     map[string][]PartitionValue
	partitionColumnNames []string
	version              int64
	checkpointVersion    int64
}

// Schema returns the columns in the order the first metaData action declared
// them.
func (s *Snapshot) Schema() types.Schema {
	return append(types.Schema(nil), s.schema...)
}

// DataFiles returns the live data file paths in lexicographic order.
func (s *Snapshot) DataFiles() []string {
	return append([]string(nil), s.dataFiles...)
}

// PartitionColumns returns the decoded partition values per data file basename.
func (s *Snapshot) PartitionColumns() map[string][]PartitionValue {
	result := make(map[string][]PartitionValue, len(s.partitionColumns))
	for filename, values := range s.partitionColumns {
		result[filename] = append([]PartitionValue(nil), values...)
	}
	return result
}

// PartitionValues returns the partition values of one data file basename.
func (s *Snapshot) PartitionValues(filename string) ([]PartitionValue, bool) {
	values, found := s.partitionColumns[filename]
	if !found {
		return nil, false
	}
	return append([]PartitionValue(nil), values...), true
}

// PartitionColumnNames returns the partitionColumns of the last metaData action.
func (s *Snapshot) PartitionColumnNames() []string {
	return append([]string(nil), s.partitionColumnNames...)
}

// Version is the last applied log version, or -1 for a table with an empty log.
func (s *Snapshot) Version() int64 {
	return s.version
}

// CheckpointVersion is 0 when replay did not start from a checkpoint.
func (s *Snapshot) CheckpointVersion() int64 {
	return s.checkpointVersion
}

type snapshotJSON struct {
	Version              int64                       `json:"version"`
	CheckpointVersion    int64                       `json:"checkpoint_version"`
	Schema               types.Schema                `json:"schema"`
	PartitionColumnNames []string                    `json:"partition_column_names"`
	DataFiles            []string                    `json:"data_files"`
	PartitionColumns     map[string][]PartitionValue `json:"partition_columns"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Version:              s.version,
		CheckpointVersion:    s.checkpointVersion,
		Schema:               s.schema,
		PartitionColumnNames: s.partitionColumnNames,
		DataFiles:            s.dataFiles,
		PartitionColumns:     s.partitionColumns,
	})
}
