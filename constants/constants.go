package constants

import (
	"time"
)

const (
	DefaultRetryCount  = 3
	DefaultLoadTimeout = 5 * time.Minute
	DefaultRetrySleep  = 500 * time.Millisecond
	ConfigFolder       = "CONFIG_FOLDER"
	LogLevel           = "LOG_LEVEL"

	// DeltaLogDirectory holds commits and checkpoints relative to the table root.
	DeltaLogDirectory = "_delta_log"
	// CommitFileSuffix is appended to the zero-padded version of every commit file.
	CommitFileSuffix = ".json"
	// CheckpointFileSuffix is appended to the zero-padded version of a single-file checkpoint.
	CheckpointFileSuffix = ".checkpoint.parquet"
	// CheckpointPartInfix prefixes the part numbers of a multi-part checkpoint fragment.
	CheckpointPartInfix = ".checkpoint."
	LastCheckpointFile  = "_last_checkpoint"
	// VersionPadding is the width every version number is zero-padded to in file names.
	VersionPadding = 20

	ColumnMappingPhysicalName = "delta.columnMapping.physicalName"
	CheckpointAddColumn       = "add"
	CheckpointRemoveColumn    = "remove"
	CheckpointPathField       = "path"
)

type StorageType string

const (
	LocalStorage  StorageType = "local"
	MemoryStorage StorageType = "memory"
	S3Storage     StorageType = "s3"
)

var StorageTypes = []StorageType{LocalStorage, MemoryStorage, S3Storage}
