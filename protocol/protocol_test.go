package protocol

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/storage"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCommit = `{"protocol":{"minReaderVersion":1,"minWriterVersion":2}}
{"metaData":{"id":"1","schemaString":"{\"type\":\"struct\",\"fields\":[{\"name\":\"id\",\"type\":\"long\",\"nullable\":true,\"metadata\":{}}]}","partitionColumns":[]}}
{"add":{"path":"part-0.parquet","partitionValues":{},"size":1,"dataChange":true}}
`

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		expected    constants.StorageType
	}{
		{
			name:     "defaults to local storage",
			config:   Config{TablePath: "/data/events"},
			expected: constants.LocalStorage,
		},
		{
			name:     "storage type is case insensitive",
			config:   Config{TablePath: "/data/events", Storage: "MEMORY"},
			expected: constants.MemoryStorage,
		},
		{
			name:        "missing table path",
			config:      Config{Storage: constants.LocalStorage},
			expectError: true,
		},
		{
			name:        "unknown storage",
			config:      Config{TablePath: "/data/events", Storage: "hdfs"},
			expectError: true,
		},
		{
			name:        "s3 without s3 config",
			config:      Config{TablePath: "events", Storage: constants.S3Storage},
			expectError: true,
		},
		{
			name: "s3 without bucket",
			config: Config{TablePath: "events", Storage: constants.S3Storage, S3: &storage.S3Config{
				Region: "us-east-1",
			}},
			expectError: true,
		},
		{
			name: "s3 with partial credentials",
			config: Config{TablePath: "events", Storage: constants.S3Storage, S3: &storage.S3Config{
				BucketName:  "lake",
				Region:      "us-east-1",
				AccessKeyID: "key",
			}},
			expectError: true,
		},
		{
			name: "valid s3",
			config: Config{TablePath: "/events/", Storage: constants.S3Storage, S3: &storage.S3Config{
				BucketName: "lake",
				Region:     "us-east-1",
			}},
			expected: constants.S3Storage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tt.config.Storage)
		})
	}
}

func TestConfigValidate_S3Defaults(t *testing.T) {
	config := Config{TablePath: "/events/", Storage: constants.S3Storage, S3: &storage.S3Config{
		BucketName: "lake",
		Endpoint:   "http://localhost:9000",
		PathPrefix: "/warehouse/",
	}}
	require.NoError(t, config.Validate())

	assert.Equal(t, "events", config.TablePath)
	assert.Equal(t, "warehouse", config.S3.PathPrefix)
	assert.Equal(t, constants.DefaultRetryCount, config.S3.RetryCount)
	require.NotNil(t, config.S3.StreamingEnabled)
	assert.True(t, *config.S3.StreamingEnabled)
}

func TestInspect(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, afero.WriteFile(store.Fs(), "/lake/events/_delta_log/00000000000000000000.json", []byte(sampleCommit), 0o644))

	snapshot, err := inspect(context.Background(), store, "/lake/events")
	require.NoError(t, err)
	assert.Equal(t, []string{"/lake/events/part-0.parquet"}, snapshot.DataFiles())

	_, err = inspect(context.Background(), store, "/lake/missing")
	assert.Error(t, err)
}

func writeLocalTable(t *testing.T) string {
	t.Helper()
	tableDir := t.TempDir()
	logDir := filepath.Join(tableDir, "_delta_log")
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "00000000000000000000.json"), []byte(sampleCommit), 0o644))
	return tableDir
}

func resetFlags(t *testing.T) {
	t.Helper()
	configPath, tablePath, logLevel, noSave, timeout = "", "", "", false, -1
	t.Cleanup(func() {
		configPath, tablePath, logLevel, noSave, timeout = "", "", "", false, -1
	})
}

func TestInspectCommand(t *testing.T) {
	resetFlags(t)
	tableDir := writeLocalTable(t)

	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{"table_path":"`+tableDir+`","storage":"local"}`), 0o644))

	var buf bytes.Buffer
	output = &buf
	defer func() { output = os.Stdout }()

	root := CreateRootCommand()
	root.SetArgs([]string{"inspect", "--config", configFile, "--no-save"})
	require.NoError(t, root.Execute())

	var printed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	assert.Equal(t, []any{filepath.Join(tableDir, "part-0.parquet")}, printed["data_files"])
	assert.Equal(t, float64(0), printed["version"])
}

func TestInspectCommand_StdoutCarriesOnlyJSON(t *testing.T) {
	resetFlags(t)
	tableDir := writeLocalTable(t)

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = writer
	output = writer
	defer func() {
		os.Stdout = stdout
		output = stdout
	}()

	captured := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(reader)
		captured <- data
	}()

	root := CreateRootCommand()
	root.SetArgs([]string{"inspect", "--table", tableDir, "--no-save", "--log-level", "debug"})
	execErr := root.Execute()
	require.NoError(t, writer.Close())
	data := <-captured
	require.NoError(t, execErr)

	var printed map[string]any
	require.NoError(t, json.Unmarshal(data, &printed), string(data))
	assert.Equal(t, []any{filepath.Join(tableDir, "part-0.parquet")}, printed["data_files"])
}
