package delta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/storage"
	"github.com/datazip-inc/deltalake/types"
	"github.com/datazip-inc/deltalake/utils"
	"github.com/datazip-inc/deltalake/utils/logger"
	"github.com/rs/zerolog"
)

// replayState accumulates the effect of every processed log file. It is owned
// by a single Load call and turned into a Snapshot once replay finishes.
type replayState struct {
	tableRoot string
	log       zerolog.Logger

	files                map[string]struct{}
	schema               types.Schema
	partitionColumns     map[string][]PartitionValue
	partitionColumnNames []string
	version              int64
}

func newReplayState(tableRoot string, log zerolog.Logger) *replayState {
	return &replayState{
		tableRoot:        tableRoot,
		log:              log,
		files:            make(map[string]struct{}),
		partitionColumns: make(map[string][]PartitionValue),
		version:          -1,
	}
}

// Load replays the transaction log of the table at tableRoot and returns its
// current state. decoder may be nil for tables without a checkpoint.
func Load(ctx context.Context, store storage.ObjectStore, decoder CheckpointDecoder, tableRoot string) (*Snapshot, error) {
	loadID := utils.ULID()
	log := logger.With("load_id", loadID).With().Str("table", tableRoot).Logger()

	checkpointVersion, seed, err := NewCheckpointReader(store, decoder, tableRoot, log).Resolve(ctx)
	if err != nil {
		return nil, err
	}

	state := newReplayState(tableRoot, log)
	state.files = seed

	if checkpointVersion > 0 {
		state.version = checkpointVersion
		if err := state.replayFrom(ctx, store, checkpointVersion+1); err != nil {
			return nil, err
		}
	} else {
		if err := state.replayListed(ctx, store); err != nil {
			return nil, err
		}
	}

	snapshot := state.snapshot(checkpointVersion)
	log.Info().
		Int64("version", snapshot.Version()).
		Int("data_files", len(snapshot.dataFiles)).
		Int("partitioned_files", len(snapshot.partitionColumns)).
		Msgf("Loaded delta lake table with schema: %s", snapshot.schema)
	return snapshot, nil
}

// replayFrom processes consecutive versions starting at first until the next
// commit file does not exist.
func (s *replayState) replayFrom(ctx context.Context, store storage.ObjectStore, first int64) error {
	for version := first; ; version++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		commitPath := CommitPath(s.tableRoot, version)
		exists, err := store.Exists(ctx, commitPath)
		if err != nil {
			return fmt.Errorf("failed to check commit file %s: %w", commitPath, err)
		}
		if !exists {
			s.log.Debug().Msgf("No commit file for version %d, replay stops", version)
			return nil
		}

		if err := s.processFile(ctx, store, commitPath); err != nil {
			return err
		}
		s.version = version
	}
}

// replayListed processes every commit file of the log directory in name order.
func (s *replayState) replayListed(ctx context.Context, store storage.ObjectStore) error {
	commitPaths, err := store.List(ctx, LogDirectory(s.tableRoot), constants.CommitFileSuffix)
	if err != nil {
		return fmt.Errorf("failed to list commit files of %s: %w", s.tableRoot, err)
	}

	for _, commitPath := range commitPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processFile(ctx, store, commitPath); err != nil {
			return err
		}
		if version, ok := CommitVersion(commitPath); ok {
			s.version = version
		}
	}
	return nil
}

func (s *replayState) processFile(ctx context.Context, store storage.ObjectStore, commitPath string) error {
	s.log.Debug().Msgf("Reading file: %s", commitPath)

	reader, err := store.Open(ctx, commitPath)
	if err != nil {
		return fmt.Errorf("failed to open commit file %s: %w", commitPath, err)
	}
	defer reader.Close()

	actions := NewActionReader(reader)
	for {
		action, err := actions.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("commit file %s: %w", commitPath, err)
		}
		if err := s.apply(action); err != nil {
			return fmt.Errorf("commit file %s: %w", commitPath, err)
		}
	}
}

func (s *replayState) apply(action Action) error {
	switch action := action.(type) {
	case AddAction:
		return s.applyAdd(action)
	case RemoveAction:
		resolved, err := ResolvePath(s.tableRoot, action.Path)
		if err != nil {
			return err
		}
		s.log.Debug().Msgf("Removing %s", action.Path)
		delete(s.files, resolved)
		return nil
	case MetaDataAction:
		return s.applyMetaData(action)
	case IgnoredAction:
		return nil
	default:
		return fmt.Errorf("%w: unexpected action %T", ErrInvalidArgument, action)
	}
}

func (s *replayState) applyAdd(add AddAction) error {
	resolved, err := ResolvePath(s.tableRoot, add.Path)
	if err != nil {
		return err
	}
	s.log.Debug().Msgf("Adding %s", add.Path)
	s.files[resolved] = struct{}{}

	filename := path.Base(resolved)
	if _, found := s.partitionColumns[filename]; found || len(add.PartitionValues) == 0 {
		return nil
	}

	values := make([]PartitionValue, 0, len(add.PartitionValues))
	for _, name := range add.PartitionColumns() {
		column, found := s.schema.Lookup(name)
		if !found {
			return fmt.Errorf("%w: cannot find partition column %s of file %s in schema [%s]",
				ErrInconsistentLog, name, add.Path, s.schema)
		}

		value, err := decodePartitionEntry(add.PartitionValues[name], column)
		if err != nil {
			return fmt.Errorf("partition column %s of file %s: %w", name, add.Path, err)
		}
		s.log.Debug().Msgf("Partition value for %s in %s: %v", name, filename, value)
		values = append(values, PartitionValue{Column: column, Value: value})
	}
	s.partitionColumns[filename] = values
	return nil
}

// decodePartitionEntry maps null, and empty text for non-string nullable
// columns, to a nil value.
func decodePartitionEntry(raw *string, column types.NameAndType) (any, error) {
	nullable := column.Type.IsNullable()
	if raw == nil {
		if !nullable {
			return nil, fmt.Errorf("%w: null value for non-nullable column of type %s", ErrInconsistentLog, column.Type)
		}
		return nil, nil
	}

	kind := column.Type.Unwrap().Kind
	if *raw == "" && nullable && kind != types.KindString && kind != types.KindFixedString {
		return nil, nil
	}
	return DecodePartitionValue(*raw, column.Type)
}

func (s *replayState) applyMetaData(metaData MetaDataAction) error {
	schema, err := SchemaFromStruct(metaData.Schema)
	if err != nil {
		return err
	}
	if metaData.PartitionColumns != nil {
		s.partitionColumnNames = metaData.PartitionColumns
	}

	if len(s.schema) == 0 {
		for _, column := range schema {
			s.log.Debug().Msgf("Found column: %s, type: %s", column.Name, column.Type)
		}
		s.schema = schema
		return nil
	}
	if !s.schema.Equal(schema) {
		return fmt.Errorf("%w: reading schema with different schema is not allowed, current schema: [%s], new schema: [%s]",
			ErrUnsupported, s.schema, schema)
	}
	return nil
}

func (s *replayState) snapshot(checkpointVersion int64) *Snapshot {
	dataFiles := utils.SortedKeys(s.files)

	partitionColumnNames := make([]string, len(s.partitionColumnNames))
	copy(partitionColumnNames, s.partitionColumnNames)

	return &Snapshot{
		schema:               s.schema,
		dataFiles:            dataFiles,
		partitionColumns:     s.partitionColumns,
		partitionColumnNames: partitionColumnNames,
		version:              s.version,
		checkpointVersion:    checkpointVersion,
	}
}
