package delta

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/datazip-inc/deltalake/constants"
)

// PaddedVersion renders a version the way log file names carry it.
func PaddedVersion(version int64) string {
	return fmt.Sprintf("%0*d", constants.VersionPadding, version)
}

func LogDirectory(tableRoot string) string {
	return path.Join(tableRoot, constants.DeltaLogDirectory)
}

func CommitPath(tableRoot string, version int64) string {
	return path.Join(LogDirectory(tableRoot), PaddedVersion(version)+constants.CommitFileSuffix)
}

func CheckpointPath(tableRoot string, version int64) string {
	return path.Join(LogDirectory(tableRoot), PaddedVersion(version)+constants.CheckpointFileSuffix)
}

// CommitVersion extracts the version from a commit file path. ok is false for
// names that are not a zero-padded version followed by the commit suffix.
func CommitVersion(commitPath string) (int64, bool) {
	name := strings.TrimSuffix(path.Base(commitPath), constants.CommitFileSuffix)
	if len(name) != constants.VersionPadding {
		return 0, false
	}
	version, err := strconv.ParseInt(name, 10, 64)
	if err != nil || version < 0 {
		return 0, false
	}
	return version, true
}

// ResolvePath turns the path of an add or remove action into a location under
// the table root. Paths are percent-encoded URIs; absolute URIs are kept as is.
func ResolvePath(tableRoot, actionPath string) (string, error) {
	if strings.Contains(actionPath, "://") {
		return actionPath, nil
	}
	unescaped, err := url.PathUnescape(actionPath)
	if err != nil {
		return "", fmt.Errorf("%w: invalid file path %q: %s", ErrMalformedData, actionPath, err)
	}
	return path.Join(tableRoot, unescaped), nil
}
