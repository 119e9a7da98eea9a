package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Job owns one composition working directory. Inputs, intermediates, and the
// final artifact all live under a uuid-named directory so concurrent jobs for
// the same video never collide. The directory is retained on failure for
// inspection and cleaned asynchronously after success.
type Job struct {
	VideoID int64
	Dir     string
}

// NewJob creates a fresh working directory under the staging root.
func NewJob(stagingDir string, videoID int64) (*Job, error) {
	dir := filepath.Join(stagingDir, fmt.Sprintf("compose-%d-%s", videoID, uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create compose workdir: %w", err)
	}
	return &Job{VideoID: videoID, Dir: dir}, nil
}

// Path returns an absolute path inside the job directory.
func (j *Job) Path(name string) string {
	return filepath.Join(j.Dir, name)
}

// Remove deletes the working directory. Used by the cleanup scheduler.
func (j *Job) Remove() error {
	if j == nil || j.Dir == "" {
		return nil
	}
	return os.RemoveAll(j.Dir)
}
