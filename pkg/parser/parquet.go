package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/pkg/delta"
	"github.com/datazip-inc/deltalake/utils/logger"
	pq "github.com/parquet-go/parquet-go"
)

// ParquetCheckpointDecoder reads the path sub-field of the add and remove
// struct columns of a Delta checkpoint. Only the projected leaf columns are
// read, so the rest of the checkpoint never leaves storage when the source
// supports range reads.
type ParquetCheckpointDecoder struct{}

var _ delta.CheckpointDecoder = (*ParquetCheckpointDecoder)(nil)

func NewParquetCheckpointDecoder() *ParquetCheckpointDecoder {
	return &ParquetCheckpointDecoder{}
}

// DecodeCheckpoint decodes a checkpoint of known size. Only the add and
// remove columns are supported.
func (d *ParquetCheckpointDecoder) DecodeCheckpoint(ctx context.Context, source io.ReaderAt, size int64, columns []string) (*delta.CheckpointColumns, error) {
	pqFile, err := pq.OpenFile(source, size)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open parquet file: %s", delta.ErrMalformedData, err)
	}

	result := &delta.CheckpointColumns{NumRows: pqFile.NumRows()}
	for _, column := range columns {
		paths, err := readPathColumn(ctx, pqFile, column)
		if err != nil {
			return nil, err
		}
		if int64(len(paths)) != result.NumRows {
			return nil, fmt.Errorf("%w: column %s.%s has %d values for %d rows",
				delta.ErrMalformedData, column, constants.CheckpointPathField, len(paths), result.NumRows)
		}

		switch column {
		case constants.CheckpointAddColumn:
			result.AddPaths = paths
		case constants.CheckpointRemoveColumn:
			result.RemovePaths = paths
		default:
			return nil, fmt.Errorf("%w: checkpoint column %s", delta.ErrUnsupported, column)
		}
	}

	logger.Debugf("Decoded %d checkpoint rows from %d row groups", result.NumRows, len(pqFile.RowGroups()))
	return result, nil
}

// readPathColumn returns one entry per row of the <column>.path leaf. Rows
// where the struct or the path is null yield an empty string, whatever
// nullability the embedded schema declares.
func readPathColumn(ctx context.Context, pqFile *pq.File, column string) ([]string, error) {
	leaf, found := pqFile.Schema().Lookup(column, constants.CheckpointPathField)
	if !found {
		return nil, fmt.Errorf("%w: checkpoint has no %s.%s column",
			delta.ErrMalformedData, column, constants.CheckpointPathField)
	}
	if leaf.MaxRepetitionLevel > 0 {
		return nil, fmt.Errorf("%w: checkpoint column %s.%s is repeated",
			delta.ErrMalformedData, column, constants.CheckpointPathField)
	}

	paths := make([]string, 0, pqFile.NumRows())
	for rgIdx, rowGroup := range pqFile.RowGroups() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pages := rowGroup.ColumnChunks()[leaf.ColumnIndex].Pages()
		for {
			page, err := pages.ReadPage()
			if err == io.EOF {
				break
			}
			if err != nil {
				pages.Close()
				return nil, fmt.Errorf("%w: failed to read page of %s in row group %d: %s",
					delta.ErrMalformedData, column, rgIdx, err)
			}

			pageValues := make([]pq.Value, page.NumValues())
			n, err := page.Values().ReadValues(pageValues)
			if err != nil && err != io.EOF {
				pages.Close()
				return nil, fmt.Errorf("%w: failed to read page values of %s in row group %d: %s",
					delta.ErrMalformedData, column, rgIdx, err)
			}

			for _, value := range pageValues[:n] {
				if value.IsNull() {
					paths = append(paths, "")
					continue
				}
				paths = append(paths, string(value.ByteArray()))
			}
		}
		pages.Close()
	}

	return paths, nil
}
