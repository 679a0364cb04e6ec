package delta

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"testing"

	"github.com/datazip-inc/deltalake/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testTableRoot = "/warehouse/events"

// testTable writes a Delta log into an in-memory filesystem.
type testTable struct {
	t     *testing.T
	store *storage.FileStore
	root  string
}

func newTestTable(t *testing.T) *testTable {
	t.Helper()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Fs().MkdirAll(LogDirectory(testTableRoot), 0o755))
	return &testTable{t: t, store: store, root: testTableRoot}
}

func (tt *testTable) write(name, content string) {
	tt.t.Helper()
	require.NoError(tt.t, afero.WriteFile(tt.store.Fs(), path.Join(LogDirectory(tt.root), name), []byte(content), 0o644))
}

func (tt *testTable) commit(version int64, actions ...string) {
	tt.t.Helper()
	tt.write(PaddedVersion(version)+".json", strings.Join(actions, "\n")+"\n")
}

func (tt *testTable) checkpoint(version int64) {
	tt.t.Helper()
	tt.write("_last_checkpoint", fmt.Sprintf(`{"version":%d,"size":3}`, version))
	tt.write(PaddedVersion(version)+".checkpoint.parquet", "PAR1")
}

func (tt *testTable) load(decoder CheckpointDecoder) (*Snapshot, error) {
	return Load(context.Background(), tt.store, decoder, tt.root)
}

func (tt *testTable) file(name string) string {
	return path.Join(tt.root, name)
}

func addAction(filePath string) string {
	return fmt.Sprintf(`{"add":{"path":%q,"partitionValues":{},"size":1,"modificationTime":1,"dataChange":true}}`, filePath)
}

func partitionedAddAction(filePath, partitionValues string) string {
	return fmt.Sprintf(`{"add":{"path":%q,"partitionValues":%s,"size":1,"modificationTime":1,"dataChange":true}}`, filePath, partitionValues)
}

func removeAction(filePath string) string {
	return fmt.Sprintf(`{"remove":{"path":%q,"deletionTimestamp":1,"dataChange":true}}`, filePath)
}

func metaDataAction(partitionColumns string, fields ...string) string {
	schemaString := fmt.Sprintf(`{"type":"struct","fields":[%s]}`, strings.Join(fields, ","))
	return fmt.Sprintf(`{"metaData":{"id":"6f0c","format":{"provider":"parquet","options":{}},"schemaString":%q,"partitionColumns":%s,"configuration":{}}}`,
		schemaString, partitionColumns)
}

func field(name, dataType string, nullable bool) string {
	return fmt.Sprintf(`{"name":%q,"type":%s,"nullable":%t,"metadata":{}}`, name, dataType, nullable)
}

const (
	protocolAction   = `{"protocol":{"minReaderVersion":1,"minWriterVersion":2}}`
	commitInfoAction = `{"commitInfo":{"timestamp":1690000000000,"operation":"WRITE","operationParameters":{"mode":"Append"}}}`
)

// fakeDecoder serves fixed checkpoint columns.
type fakeDecoder struct {
	columns          *CheckpointColumns
	err              error
	calls            int
	columnsRequested []string
}

func newFakeDecoder(addPaths ...string) *fakeDecoder {
	removePaths := make([]string, len(addPaths))
	return &fakeDecoder{columns: &CheckpointColumns{
		NumRows:     int64(len(addPaths)),
		AddPaths:    addPaths,
		RemovePaths: removePaths,
	}}
}

func (f *fakeDecoder) DecodeCheckpoint(_ context.Context, source io.ReaderAt, size int64, columns []string) (*CheckpointColumns, error) {
	f.calls++
	f.columnsRequested = columns
	if size <= 0 {
		return nil, fmt.Errorf("empty checkpoint")
	}
	buf := make([]byte, 4)
	if _, err := source.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return f.columns, f.err
}
