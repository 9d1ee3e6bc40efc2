package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const stageName = "workspace"

// ErrLocked reports that another process holds the job lock.
var ErrLocked = errors.New("job already running in this output directory")

// Workspace is the directory tree of one job.
type Workspace struct {
	root   string
	jobID  string
	lock   *flock.Flock
	logger *slog.Logger
}

// Open lays out the job directories under root and acquires the job lock.
// Callers must Close the workspace to release it.
func Open(root, jobID string, logger *slog.Logger) (*Workspace, error) {
	root = strings.TrimSpace(root)
	jobID = strings.TrimSpace(jobID)
	if root == "" || jobID == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, stageName, "open", "output directory and job id are required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Workspace{root: root, jobID: jobID, logger: logger}
	for _, dir := range []string{w.AudioDir(), w.VideoDir(), w.FinalDir(), w.SubtitlesDir(), w.ScratchDir(), w.LogDir(), filepath.Dir(w.LockPath())} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, stageName, "open", "create "+dir, err)
		}
	}

	w.lock = flock.New(w.LockPath())
	ok, err := w.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "lock", "acquire "+w.LockPath(), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrResourceUnavailable, stageName, "lock", jobID, ErrLocked)
	}
	return w, nil
}

// Root returns the output directory.
func (w *Workspace) Root() string { return w.root }

// JobID returns the job the workspace belongs to.
func (w *Workspace) JobID() string { return w.jobID }

func (w *Workspace) AudioDir() string     { return filepath.Join(w.root, "audio") }
func (w *Workspace) VideoDir() string     { return filepath.Join(w.root, "video") }
func (w *Workspace) FinalDir() string     { return filepath.Join(w.root, "video", "final") }
func (w *Workspace) SubtitlesDir() string { return filepath.Join(w.root, "subtitles") }

// LogDir holds per-job log files.
func (w *Workspace) LogDir() string { return filepath.Join(w.root, "logs") }

// LogPath is the job's own log file.
func (w *Workspace) LogPath() string { return filepath.Join(w.LogDir(), w.jobID+".log") }

// ScratchDir holds intermediate files that never survive the job.
func (w *Workspace) ScratchDir() string { return filepath.Join(w.root, ".temp", w.jobID) }

// LockPath is the advisory lock file for the job.
func (w *Workspace) LockPath() string { return filepath.Join(w.root, ".locks", w.jobID+".lock") }

// NarrationPath is where the speech engine writes audio.
func (w *Workspace) NarrationPath() string {
	return filepath.Join(w.AudioDir(), w.jobID+"_narration.mp3")
}

// CaptionPath is where the speech engine writes its caption track.
func (w *Workspace) CaptionPath() string {
	return filepath.Join(w.SubtitlesDir(), w.jobID+"_captions.srt")
}

// SubtitlePath is the rendered ASS document.
func (w *Workspace) SubtitlePath() string {
	return filepath.Join(w.SubtitlesDir(), w.jobID+".ass")
}

// SubtitledVideoPath is the background with subtitles burned in.
func (w *Workspace) SubtitledVideoPath() string {
	return filepath.Join(w.ScratchDir(), "subtitled.mp4")
}

// FinalPath is the published output.
func (w *Workspace) FinalPath() string {
	return filepath.Join(w.FinalDir(), w.jobID+"-final.mp4")
}

// Scratch joins name onto the scratch directory.
func (w *Workspace) Scratch(name string) string {
	return filepath.Join(w.ScratchDir(), name)
}

// Publish moves a finished render into the final path. The move is a rename
// when both sides share a filesystem, so readers never see a partial file.
func (w *Workspace) Publish(src string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "publish", "rendered output missing", err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, stageName, "publish", "rendered output is empty", nil)
	}
	dst := w.FinalPath()
	if err := fileutil.MoveFile(src, dst); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "publish", "move into "+dst, err)
	}
	return dst, nil
}

// Cleanup removes the scratch directory.
func (w *Workspace) Cleanup() error {
	dir := w.ScratchDir()
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(w.logger, "failed to remove job scratch", "scratch_cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return fmt.Errorf("remove scratch %s: %w", dir, err)
	}
	// .temp is shared across jobs; drop it only when this was the last one.
	_ = os.Remove(filepath.Dir(dir))
	return nil
}

// Close releases the job lock. The lock file itself stays so a concurrent
// opener never races a delete.
func (w *Workspace) Close() error {
	if w.lock == nil {
		return nil
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release job lock", logging.String("path", w.LockPath()), logging.Error(err))
		return err
	}
	return nil
}
