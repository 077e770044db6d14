package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/singleflight"

	"github.com/cc-hooks/cchr/internal/worker"
)

const (
	// SessionsDir holds one JSONL file per session.
	SessionsDir = "sessions"

	// LockFile mediates the opportunistic retention sweep (§4.9).
	LockFile = ".cleanup.lock"

	// RetentionMaxAge is the age past which a session log file is deleted
	// outright, regardless of the total-size budget.
	RetentionMaxAge = 7 * 24 * time.Hour

	// RotateAge is the age past which a still-retained file is gzip-rotated
	// in place to shrink its footprint against RetentionMaxBytes.
	RotateAge = 24 * time.Hour

	// RetentionMaxBytes is the total-size budget enforced by deleting the
	// oldest remaining files once exceeded.
	RetentionMaxBytes = 500 * 1024 * 1024

	// LockStaleAge is how old an existing lock file must be before a
	// contending invocation is allowed to remove and replace it.
	LockStaleAge = 60 * time.Minute
)

// Logger appends SessionLogEntry records and runs the opportunistic
// retention sweep over the same directory tree.
type Logger struct {
	// BaseDir is normally <home>/.claude/logs/cc-hooks.
	BaseDir string

	sf singleflight.Group
}

// NewLogger returns a Logger rooted at baseDir.
func NewLogger(baseDir string) *Logger {
	return &Logger{BaseDir: baseDir}
}

func (l *Logger) sessionsDir() string {
	return filepath.Join(l.BaseDir, SessionsDir)
}

func (l *Logger) lockPath() string {
	return filepath.Join(l.BaseDir, LockFile)
}

func (l *Logger) sessionPath(sessionID string) string {
	return filepath.Join(l.sessionsDir(), fmt.Sprintf("session-%s.jsonl", sessionID))
}

// Append writes one record to the session's log file, creating the
// directory tree as needed. It never returns an error: every failure mode is
// swallowed, because a logging failure must never fail the hook run (§4.9).
func (l *Logger) Append(entry SessionLogEntry) {
	defer func() {
		_ = recover()
	}()
	_ = l.append(entry)
}

// append does the real work and reports why it gave up, via the sentinels in
// errors.go, so callers that do care (tests, a future --debug trace) can
// errors.Is against a stable cause instead of Append's silence.
func (l *Logger) append(entry SessionLogEntry) error {
	if entry.SessionID == "" {
		return ErrSessionIDRequired
	}

	path := l.sessionPath(entry.SessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Retain runs the opportunistic retention sweep described in §4.9.
// Concurrent calls within this process are coalesced via singleflight;
// losing the cross-invocation lock race, or finding a lock still within
// LockStaleAge, is normal and results in a silent skip.
func (l *Logger) Retain(ctx context.Context) {
	_, _, _ = l.sf.Do("retention", func() (interface{}, error) {
		release, ok := l.acquireLock()
		if !ok {
			return nil, nil
		}
		defer release()
		l.sweep(ctx)
		return nil, nil
	})
}

// acquireLock implements the create-exclusive / stale-steal protocol of
// §4.9. A single stale-lock retry is attempted; anything else about the lock
// file (permission errors, a fresh lock, a lost race) causes a silent skip.
func (l *Logger) acquireLock() (release func(), ok bool) {
	path := l.lockPath()
	if err := os.MkdirAll(l.BaseDir, 0700); err != nil {
		return nil, false
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(path) }, true
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, false
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, false
		}
		if time.Since(info.ModTime()) < LockStaleAge {
			return nil, false
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, false
		}
		// Stale lock removed; loop once more to retry acquisition.
	}
	return nil, false
}

type fileStat struct {
	path  string
	size  int64
	mtime time.Time
}

// sweep performs the actual age/size-based cleanup while the lock is held.
// All per-file errors are swallowed (§4.9: "all errors are swallowed").
func (l *Logger) sweep(ctx context.Context) {
	entries, err := os.ReadDir(l.sessionsDir())
	if err != nil {
		return
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(l.sessionsDir(), e.Name()))
	}
	if len(paths) == 0 {
		return
	}

	pool := worker.NewPool[fileStat](0)
	results := pool.Process(paths, func(path string) (fileStat, error) {
		info, err := os.Stat(path)
		if err != nil {
			return fileStat{}, err
		}
		return fileStat{path: path, size: info.Size(), mtime: info.ModTime()}, nil
	})

	stats := make([]fileStat, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		stats = append(stats, r.Value)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].mtime.Before(stats[j].mtime) })

	now := time.Now()
	kept := make([]fileStat, 0, len(stats))
	for _, st := range stats {
		if ctx.Err() != nil {
			return
		}

		age := now.Sub(st.mtime)
		if age > RetentionMaxAge {
			_ = os.Remove(st.path)
			continue
		}
		if age > RotateAge && !strings.HasSuffix(st.path, ".gz") {
			if newPath, newSize, err := rotateGzip(st.path); err == nil {
				st.path = newPath
				st.size = newSize
			}
		}
		kept = append(kept, st)
	}

	var total int64
	for _, st := range kept {
		total += st.size
	}

	for i := 0; total > RetentionMaxBytes && i < len(kept); i++ {
		if ctx.Err() != nil {
			return
		}
		if err := os.Remove(kept[i].path); err == nil {
			total -= kept[i].size
		}
	}
}

// rotateGzip compresses path in place to path+".gz" via a temp-file-and-
// rename sequence, matching the atomic-write discipline used elsewhere in
// this package, and removes the original on success.
func rotateGzip(path string) (newPath string, size int64, err error) {
	src, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = src.Close() }()
	srcInfo, err := src.Stat()
	if err != nil {
		return "", 0, err
	}

	dstPath := path + ".gz"
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rotate-")
	if err != nil {
		return "", 0, err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	gw := gzip.NewWriter(tmp)
	if _, err := io.Copy(gw, src); err != nil {
		_ = gw.Close()
		_ = tmp.Close()
		return "", 0, err
	}
	if err := gw.Close(); err != nil {
		_ = tmp.Close()
		return "", 0, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return "", 0, err
	}
	success = true
	// Keep the original mtime so the rotated file still ages from its last write.
	_ = os.Chtimes(dstPath, srcInfo.ModTime(), srcInfo.ModTime())

	_ = os.Remove(path)

	info, statErr := os.Stat(dstPath)
	if statErr != nil {
		return dstPath, 0, nil
	}
	return dstPath, info.Size(), nil
}
