package delta

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointReader_Resolve(t *testing.T) {
	t.Run("no checkpoint", func(t *testing.T) {
		table := newTestTable(t)
		decoder := newFakeDecoder("part-0.parquet")

		version, files, err := NewCheckpointReader(table.store, decoder, table.root, zerolog.Nop()).Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), version)
		assert.Empty(t, files)
		assert.Equal(t, 0, decoder.calls)
	})

	t.Run("single file checkpoint", func(t *testing.T) {
		table := newTestTable(t)
		table.checkpoint(10)
		decoder := newFakeDecoder("part-0.parquet", "", "year%3D2024/part-1.parquet", "s3://bucket/external/part-2.parquet")

		version, files, err := NewCheckpointReader(table.store, decoder, table.root, zerolog.Nop()).Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(10), version)
		assert.Equal(t, map[string]struct{}{
			table.file("part-0.parquet"):           {},
			table.file("year=2024/part-1.parquet"): {},
			"s3://bucket/external/part-2.parquet":  {},
		}, files)
		assert.Equal(t, 1, decoder.calls)
		assert.Equal(t, []string{"add", "remove"}, decoder.columnsRequested)
	})

	t.Run("checkpoint version zero", func(t *testing.T) {
		table := newTestTable(t)
		table.checkpoint(0)
		decoder := newFakeDecoder("part-0.parquet")

		version, files, err := NewCheckpointReader(table.store, decoder, table.root, zerolog.Nop()).Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), version)
		assert.Empty(t, files)
		assert.Equal(t, 0, decoder.calls)
	})
}

func TestCheckpointReader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(table *testTable)
		decoder  CheckpointDecoder
		expected error
	}{
		{
			name:     "duplicate path",
			setup:    func(table *testTable) { table.checkpoint(3) },
			decoder:  newFakeDecoder("part-0.parquet", "part-1.parquet", "part-0.parquet"),
			expected: ErrMalformedData,
		},
		{
			name: "multi-part pointer",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", `{"version":3,"size":10,"parts":2}`)
			},
			decoder:  newFakeDecoder(),
			expected: ErrUnsupported,
		},
		{
			name: "multi-part fragments",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", `{"version":3,"size":10}`)
				table.write("00000000000000000003.checkpoint.0000000001.0000000002.parquet", "PAR1")
				table.write("00000000000000000003.checkpoint.0000000002.0000000002.parquet", "PAR1")
			},
			decoder:  newFakeDecoder(),
			expected: ErrUnsupported,
		},
		{
			name: "missing checkpoint file",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", `{"version":3,"size":10}`)
			},
			decoder:  newFakeDecoder(),
			expected: ErrMalformedData,
		},
		{
			name: "empty pointer",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", "")
			},
			decoder:  newFakeDecoder(),
			expected: ErrMalformedData,
		},
		{
			name: "pointer without version",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", `{"size":10}`)
			},
			decoder:  newFakeDecoder(),
			expected: ErrMalformedData,
		},
		{
			name: "pointer with negative version",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", `{"version":-4}`)
			},
			decoder:  newFakeDecoder(),
			expected: ErrMalformedData,
		},
		{
			name: "pointer with string version",
			setup: func(table *testTable) {
				table.write("_last_checkpoint", `{"version":"4"}`)
			},
			decoder:  newFakeDecoder(),
			expected: ErrMalformedData,
		},
		{
			name:     "decoder failure",
			setup:    func(table *testTable) { table.checkpoint(3) },
			decoder:  &fakeDecoder{err: errors.New("bad footer")},
			expected: ErrMalformedData,
		},
		{
			name:  "column shape mismatch",
			setup: func(table *testTable) { table.checkpoint(3) },
			decoder: &fakeDecoder{columns: &CheckpointColumns{
				NumRows:     2,
				AddPaths:    []string{"part-0.parquet"},
				RemovePaths: []string{"", ""},
			}},
			expected: ErrMalformedData,
		},
		{
			name:     "no decoder",
			setup:    func(table *testTable) { table.checkpoint(3) },
			decoder:  nil,
			expected: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTestTable(t)
			tt.setup(table)

			_, _, err := NewCheckpointReader(table.store, tt.decoder, table.root, zerolog.Nop()).Resolve(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCheckpointReader_LogsCarryLoadFields(t *testing.T) {
	table := newTestTable(t)
	table.checkpoint(4)
	decoder := newFakeDecoder("part-0.parquet", "part-1.parquet")

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel).With().Str("load_id", "load-1").Logger()

	_, _, err := NewCheckpointReader(table.store, decoder, table.root, log).Resolve(context.Background())
	require.NoError(t, err)

	var messages []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		assert.Equal(t, "load-1", line["load_id"], scanner.Text())
		messages = append(messages, line["message"].(string))
	}
	assert.Contains(t, messages, "Using checkpoint file: "+CheckpointPath(table.root, 4))
	assert.Contains(t, messages, "Last checkpoint file version: 4")
}
