// SPDX-License-Identifier: MPL-2.0

// Package watch provides file-watching with debounced callbacks.
//
// It monitors a project tree for changes matching glob patterns and invokes
// a callback once per quiet period with the full set of changed paths. The
// run and serve commands use it to re-provision and restart the inventory
// server when sources, manifests, or data files change. Virtual environment
// directories are excluded by default so package installs triggered by a
// restart do not feed back into the watcher.
package watch

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the onChange callback after the
// last filesystem event. Rapid successive events (e.g. an editor writing
// then renaming a temp file, or pip touching a manifest twice) coalesce into
// a single callback.
const defaultDebounce = 500 * time.Millisecond

// defaultPatterns selects the files whose changes warrant restarting the
// inventory server: Python sources, the root-level dependency manifests,
// and the CSV data files. Manifest patterns are deliberately root-only;
// nested requirements files are pulled in via -r from the root one.
var defaultPatterns = []string{
	"**/*.py",
	"requirements.txt",
	"pyproject.toml",
	"**/*.csv",
}

// defaultIgnores lists path patterns always excluded from watching. These
// cover VCS metadata, virtual environments, Python bytecode and tooling
// caches, editor swap files, and OS metadata files that generate
// high-frequency noise. Directories appear both bare and with a trailing
// globstar so the initial walk skips them entirely instead of registering
// thousands of site-packages directories.
var defaultIgnores = []string{
	"**/.git", "**/.git/**",
	"**/venv", "**/venv/**",
	"**/.venv", "**/.venv/**",
	"**/__pycache__", "**/__pycache__/**",
	"**/*.pyc",
	"**/.pytest_cache", "**/.pytest_cache/**",
	"**/*.egg-info", "**/*.egg-info/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// Watcher monitors filesystem paths and fires a debounced callback when
// matching files change. Run must be called exactly once; calling it a
// second time returns an error.
type Watcher struct {
	fsw         *fsnotify.Watcher
	patterns    []string
	ignores     []string
	onChange    func(ctx context.Context, changed []string) error
	clearScreen bool
	stdout      io.Writer
	stderr      io.Writer
	debounce    time.Duration
	baseDir     string
	started     atomic.Bool
}

// DefaultPatterns returns a copy of the built-in watch patterns.
func DefaultPatterns() []string {
	return slices.Clone(defaultPatterns)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// EnvDirIgnores returns ignore patterns excluding the environment directory
// at envDir, given relative to the watch base. The defaults already cover
// "venv" and ".venv"; configurations with a custom env_dir pass it here so
// installs into that directory never trigger a restart. Empty and "."
// values yield nil rather than patterns that would ignore the whole tree.
func EnvDirIgnores(envDir string) []string {
	dir := strings.TrimSuffix(filepath.ToSlash(envDir), "/")
	if dir == "" || dir == "." {
		return nil
	}
	return []string{dir, dir + "/**"}
}

// New creates a Watcher from the given Config. It validates the config,
// resolves BaseDir to an absolute path, initialises the underlying fsnotify
// watcher, and registers all non-ignored directories under BaseDir.
func New(cfg Config) (*Watcher, error) {
	// Invalid globs fail at construction time rather than silently failing
	// to match at runtime.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	w := &Watcher{
		fsw:         fsw,
		patterns:    slices.Clone(cfg.Patterns),
		ignores:     slices.Concat(defaultIgnores, cfg.Ignore),
		onChange:    cfg.OnChange,
		clearScreen: cfg.ClearScreen,
		stdout:      stdout,
		stderr:      stderr,
		debounce:    debounce,
		baseDir:     absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			fmt.Fprintf(stderr, "watch: close after init failure: %v\n", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates any fatal watcher errors. Run must be called
// exactly once; a second call returns an error immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire drains the pending set and invokes the OnChange callback.
	// It may be scheduled by time.AfterFunc after the context is cancelled,
	// so check ctx.Err() as a best-effort guard. A narrow TOCTOU window
	// remains between the check and the callback; the callback receives ctx
	// and should check it for cancellation-sensitive work. The atomic
	// skip-if-busy guard prevents concurrent invocations when a restart
	// takes longer than the debounce period.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			fmt.Fprintf(w.stderr, "watch: previous run still in progress, deferring changes\n")
			// Schedule a retry so pending events are not permanently lost.
			// Without this, if no further filesystem events arrive, the
			// accumulated pending set would be silently discarded.
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Collect(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.clearScreen {
			// ANSI escape: clear screen and move cursor to top-left.
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		if w.onChange != nil {
			if err := w.onChange(ctx, changed); err != nil {
				fmt.Fprintf(w.stderr, "watch: callback error: %v\n", err)
			}
		}
	}

	// Ensure the timer channel is drained on exit. The timer is accessed
	// under mu because it is written by the event loop under the same lock.
	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil && !localTimer.Stop() {
			select {
			case <-localTimer.C:
			default:
			}
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}

			if w.isIgnored(rel) {
				continue
			}

			// Auto-add newly created directories so recursive watches
			// extend to directories created after startup. This must not
			// depend on the watch patterns: a new "data" directory has to
			// be registered even though the directory itself matches none.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if !w.matchesPatterns(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			// Resource exhaustion (inotify limit, file descriptor limits)
			// means the watcher is fundamentally broken.
			// isFatalFsnotifyError is platform-specific (watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

// addDirectories walks BaseDir and adds every non-ignored directory to the
// fsnotify watcher. All directories are registered regardless of watch
// patterns; pattern filtering is applied when events arrive.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// A missing or unreadable base directory is a hard error:
			// continuing would mean watching nothing while claiming to
			// watch the project.
			if path == w.baseDir {
				return walkDirErr
			}
			// Below the root, skip directories we cannot access rather
			// than aborting the entire walk. Permission errors on
			// individual dirs are common (e.g. .git/objects/pack) and
			// should not prevent watching. Log to stderr so users know
			// which paths are not being watched.
			fmt.Fprintf(w.stderr, "watch: skipping inaccessible path %q: %v\n", path, walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}

		// Skip ignored directories entirely to avoid descending into them.
		// Registering a virtual environment would burn through the inotify
		// watch budget on site-packages alone.
		if rel != "." && w.isIgnored(rel) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher if it is a directory and is
// not ignored. This enables automatic monitoring of directories created
// after the initial walk.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return
	}

	if w.isIgnored(rel) {
		return
	}

	if addErr := w.fsw.Add(path); addErr != nil {
		fmt.Fprintf(w.stderr, "watch: add new directory %q: %v\n", path, addErr)
	}
}

// isIgnored reports whether the given path (relative to BaseDir) matches
// any ignore pattern.
func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns reports whether the given path (relative to BaseDir)
// matches at least one of the configured watch patterns. When no patterns
// are configured, all paths match.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.patterns) == 0 {
		return true
	}
	return matchAny(w.patterns, rel)
}

// matchAny reports whether rel matches any of the glob patterns. Paths are
// normalised to forward slashes for consistent matching.
func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}
