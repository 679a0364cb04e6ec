package delta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/storage"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// CheckpointColumns holds the row-aligned path sub-fields of the add and
// remove columns of a checkpoint. Rows where the parent struct is null carry
// an empty path.
type CheckpointColumns struct {
	NumRows     int64
	AddPaths    []string
	RemovePaths []string
}

// CheckpointDecoder decodes the given struct columns of a checkpoint file.
// Columns must be read as nullable even when the file schema says otherwise.
type CheckpointDecoder interface {
	DecodeCheckpoint(ctx context.Context, source io.ReaderAt, size int64, columns []string) (*CheckpointColumns, error)
}

// lastCheckpoint is the content of _delta_log/_last_checkpoint. Only version
// and parts are consulted.
type lastCheckpoint struct {
	Version       *int64 `json:"version"`
	Size          int64  `json:"size"`
	Parts         *int   `json:"parts,omitempty"`
	SizeInBytes   int64  `json:"sizeInBytes"`
	NumOfAddFiles int64  `json:"numOfAddFiles"`
}

// CheckpointReader resolves the latest checkpoint of a table into a version
// and the set of files live at that version.
type CheckpointReader struct {
	store     storage.ObjectStore
	decoder   CheckpointDecoder
	tableRoot string
	log       zerolog.Logger
}

// NewCheckpointReader logs through log, which carries the fields of the load
// it serves.
func NewCheckpointReader(store storage.ObjectStore, decoder CheckpointDecoder, tableRoot string, log zerolog.Logger) *CheckpointReader {
	return &CheckpointReader{
		store:     store,
		decoder:   decoder,
		tableRoot: tableRoot,
		log:       log,
	}
}

// Resolve returns version 0 and an empty set when the table has no checkpoint.
func (c *CheckpointReader) Resolve(ctx context.Context) (int64, map[string]struct{}, error) {
	files := make(map[string]struct{})

	version, err := c.readLastCheckpoint(ctx)
	if err != nil || version == 0 {
		return 0, files, err
	}

	checkpointPath := CheckpointPath(c.tableRoot, version)
	exists, err := c.store.Exists(ctx, checkpointPath)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to check checkpoint %s: %w", checkpointPath, err)
	}
	if !exists {
		return 0, nil, c.missingCheckpointError(ctx, version, checkpointPath)
	}

	if c.decoder == nil {
		return 0, nil, fmt.Errorf("%w: no checkpoint decoder configured to read %s", ErrInvalidArgument, checkpointPath)
	}

	c.log.Info().Msgf("Using checkpoint file: %s", checkpointPath)

	source, err := c.store.OpenReaderAt(ctx, checkpointPath)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open checkpoint %s: %w", checkpointPath, err)
	}
	defer source.Close()

	columns, err := c.decoder.DecodeCheckpoint(ctx, source, source.Size(),
		[]string{constants.CheckpointAddColumn, constants.CheckpointRemoveColumn})
	if err != nil {
		if errors.Is(err, ErrMalformedData) || errors.Is(err, ErrUnsupported) {
			return 0, nil, fmt.Errorf("checkpoint %s: %w", checkpointPath, err)
		}
		return 0, nil, fmt.Errorf("%w: failed to decode checkpoint %s: %s", ErrMalformedData, checkpointPath, err)
	}
	if columns == nil ||
		int64(len(columns.AddPaths)) != columns.NumRows ||
		int64(len(columns.RemovePaths)) != columns.NumRows {
		return 0, nil, fmt.Errorf("%w: unexpected column shape in checkpoint %s", ErrMalformedData, checkpointPath)
	}

	// remove entries of a checkpoint never intersect its add entries
	for _, filePath := range columns.AddPaths {
		if filePath == "" {
			continue
		}
		resolved, err := ResolvePath(c.tableRoot, filePath)
		if err != nil {
			return 0, nil, fmt.Errorf("checkpoint %s: %w", checkpointPath, err)
		}
		if _, found := files[resolved]; found {
			return 0, nil, fmt.Errorf("%w: file already exists %s in checkpoint %s", ErrMalformedData, filePath, checkpointPath)
		}
		c.log.Debug().Msgf("Adding %s", filePath)
		files[resolved] = struct{}{}
	}

	return version, files, nil
}

func (c *CheckpointReader) readLastCheckpoint(ctx context.Context) (int64, error) {
	pointerPath := path.Join(LogDirectory(c.tableRoot), constants.LastCheckpointFile)
	exists, err := c.store.Exists(ctx, pointerPath)
	if err != nil {
		return 0, fmt.Errorf("failed to check %s: %w", pointerPath, err)
	}
	if !exists {
		return 0, nil
	}

	reader, err := c.store.Open(ctx, pointerPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", pointerPath, err)
	}
	defer reader.Close()

	raw, err := NewObjectReader(reader).Next()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %s contains no JSON object", ErrMalformedData, pointerPath)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", pointerPath, err)
	}

	var pointer lastCheckpoint
	if err := json.Unmarshal(raw, &pointer); err != nil {
		return 0, fmt.Errorf("%w: failed to decode %s: %s", ErrMalformedData, pointerPath, err)
	}
	if pointer.Version == nil || *pointer.Version < 0 {
		return 0, fmt.Errorf("%w: %s has no valid 'version'", ErrMalformedData, pointerPath)
	}
	if pointer.Parts != nil && *pointer.Parts > 1 {
		return 0, fmt.Errorf("%w: multi-part checkpoint at version %d (%d parts)", ErrUnsupported, *pointer.Version, *pointer.Parts)
	}

	c.log.Debug().Msgf("Last checkpoint file version: %d", *pointer.Version)
	return *pointer.Version, nil
}

func (c *CheckpointReader) missingCheckpointError(ctx context.Context, version int64, checkpointPath string) error {
	fragments, err := c.store.List(ctx, LogDirectory(c.tableRoot), ".parquet")
	if err != nil {
		return fmt.Errorf("failed to list checkpoint fragments for version %d: %w", version, err)
	}

	prefix := path.Join(LogDirectory(c.tableRoot), PaddedVersion(version)+constants.CheckpointPartInfix)
	for _, fragment := range fragments {
		if strings.HasPrefix(fragment, prefix) {
			return fmt.Errorf("%w: multi-part checkpoint at version %d (found %s)", ErrUnsupported, version, fragment)
		}
	}
	return fmt.Errorf("%w: checkpoint %s referenced by %s does not exist", ErrMalformedData, checkpointPath, constants.LastCheckpointFile)
}
