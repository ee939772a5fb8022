// Package syncer implements the sync driver of §4.9: it ties
// together fsentry (enumeration), pathcrypt (path ciphertext + minimum
// mkdir set), pipeline (per-file compress+encrypt), scratch (atomic
// commit) and kdf (master/content key derivation) into the one
// end-to-end operation the CLI exposes as the "sync" subcommand — and,
// in restore.go, its inverse.
//
// Grounded on the request/reporter split and Close()-style teardown of
// an operation-context pattern, and on an errgroup-based per-file
// worker pool for concurrency (the Sync function below).
package syncer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"csync/internal/errors"
	"csync/internal/fsentry"
	"csync/internal/kdf"
	"csync/internal/log"
	"csync/internal/pathcrypt"
	"csync/internal/pipeline"
	"csync/internal/scratch"
	"csync/internal/util"
)

// ProgressReporter reports sync/restore progress to a caller, re-scoped
// from bytes-of-one-volume to files-and-bytes-of-an-entire-tree.
type ProgressReporter interface {
	SetStatus(text string)
	SetProgress(fraction float32, info string)
	Update()
	IsCancelled() bool
}

// DefaultConcurrency is used when Request.Concurrency is <= 0.
const DefaultConcurrency = 8

// Request carries everything Sync needs to mirror SourceRoot into
// DestRoot under Password.
type Request struct {
	SourceRoot  string
	DestRoot    string
	Password    []byte
	Concurrency int
	Reporter    ProgressReporter
}

// FileFailure records a single per-file pipeline failure. Per §7 these
// are non-fatal: the offending file is skipped and the sync continues
// with the rest of the tree.
type FileFailure struct {
	RelPath string
	Err     error
}

// Result summarizes one Sync or Restore invocation.
type Result struct {
	FilesSynced int
	DirsCreated int
	BytesTotal  int64 // sum of bytes written to destination files: ciphertext for Sync, plaintext for Restore
	Skipped     []fsentry.Skipped
	Failures    []FileFailure
}

// Sync mirrors req.SourceRoot into req.DestRoot, encrypting every file
// and directory name along the way, per §4.9:
//  1. validate preconditions (fatal)
//  2. derive the master key
//  3. enumerate the source tree
//  4. build the path-ciphertext maps
//  5. create the minimum mkdir set (happens-before barrier)
//  6. stream each file through compress+encrypt into a scratch file,
//     then atomically commit it to its destination path
func Sync(ctx context.Context, req Request) (Result, error) {
	var result Result

	if err := validatePreconditions(req.SourceRoot, req.DestRoot); err != nil {
		return result, err
	}

	masterKeyMat := deriveMasterKey(req.Password)
	defer masterKeyMat.Close()
	masterKey := masterKeyMat.Bytes()

	setStatus(req.Reporter, "enumerating source tree")
	entries, skipped, err := fsentry.Walk(req.SourceRoot)
	if err != nil {
		return result, errors.NewEnumerationError(req.SourceRoot, err)
	}
	result.Skipped = skipped

	pcEntries := make([]pathcrypt.Entry, len(entries))
	for i, e := range entries {
		pcEntries[i] = pathcrypt.Entry{RelPath: e.RelPath, Kind: pathcryptKind(e.Kind)}
	}

	rootName := filepath.Base(filepath.Clean(req.SourceRoot))

	setStatus(req.Reporter, "deriving path ciphertext")
	maps, pcSkipped := pathcrypt.Build(masterKey, rootName, pcEntries)
	for _, s := range pcSkipped {
		log.Warn("skipping path", log.String("path", s.RelPath), log.Err(s.Err))
		result.Skipped = append(result.Skipped, fsentry.Skipped{RelPath: s.RelPath, Reason: s.Err.Error()})
	}

	dirRelPaths := make([]string, 0, len(entries))
	byRelPath := make(map[string]fsentry.Entry, len(entries))
	for _, e := range entries {
		byRelPath[e.RelPath] = e
		if e.Kind == fsentry.Dir {
			if _, ok := maps.Path[e.RelPath]; ok {
				dirRelPaths = append(dirRelPaths, e.RelPath)
			}
		}
	}

	setStatus(req.Reporter, "creating directories")
	mkdirSet := pathcrypt.MinimumMkdirSet(dirRelPaths)
	for _, rel := range mkdirSet {
		dest := filepath.Join(req.DestRoot, maps.Path[rel])
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return result, errors.NewFileError("mkdir", dest, err)
		}
		result.DirsCreated++
	}

	scratchDir, err := scratch.New()
	if err != nil {
		return result, err
	}
	defer scratchDir.Close()

	fileRelPaths := make([]string, 0, len(entries))
	var totalBytes int64
	for _, e := range entries {
		if e.Kind == fsentry.File {
			if _, ok := maps.Path[e.RelPath]; ok {
				fileRelPaths = append(fileRelPaths, e.RelPath)
				totalBytes += e.Size
			}
		}
	}

	setStatus(req.Reporter, "syncing files")
	var mu sync.Mutex
	var done int
	var doneBytes int64
	start := time.Now()

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	total := len(fileRelPaths)
	for _, rel := range fileRelPaths {
		rel := rel
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if req.Reporter != nil && req.Reporter.IsCancelled() {
				return nil
			}

			entry := byRelPath[rel]
			destPath := filepath.Join(req.DestRoot, maps.Path[rel])

			written, ferr := syncOneFile(scratchDir, masterKey, entry, destPath)
			if ferr != nil {
				mu.Lock()
				result.Failures = append(result.Failures, FileFailure{RelPath: rel, Err: ferr})
				mu.Unlock()
				log.Error("file sync failed", log.String("path", rel), log.Err(ferr))
				return nil
			}

			mu.Lock()
			done++
			result.FilesSynced++
			doneBytes += written
			result.BytesTotal += written
			n := done
			nBytes := doneBytes
			mu.Unlock()

			if req.Reporter != nil {
				fraction, speed, eta := util.Statify(nBytes, max(totalBytes, 1), start)
				req.Reporter.SetProgress(fraction, fmt.Sprintf("%d/%d files, %.2f MiB/s, ETA %s", n, total, speed, eta))
				req.Reporter.Update()
			}
			return nil
		})
	}

	// Per-file errors never abort the group (caught inside the worker
	// above) and every worker returns nil, so g.Wait never reports an
	// error; cancellation is detected through ctx just below.
	if err := g.Wait(); err != nil {
		return result, errors.Wrap(err, "sync")
	}
	if ctx.Err() != nil {
		return result, errors.ErrCancelled
	}

	setStatus(req.Reporter, "sync complete")
	return result, nil
}

func syncOneFile(scratchDir *scratch.Dir, masterKey []byte, entry fsentry.Entry, destPath string) (int64, error) {
	src, err := os.Open(entry.AbsPath)
	if err != nil {
		return 0, errors.NewFileError("open", entry.AbsPath, err)
	}
	defer src.Close()

	contentKeyMat := deriveContentKey(masterKey, entry.RelPath)
	defer contentKeyMat.Close()

	encoded, err := pipeline.FileEncodePipeline(src, contentKeyMat.Bytes())
	if err != nil {
		return 0, errors.NewFileError("build pipeline", entry.RelPath, err)
	}

	scratchFile, scratchPath, err := scratchDir.Create(entry.RelPath)
	if err != nil {
		return 0, errors.NewFileError("scratch create", entry.RelPath, err)
	}

	written, err := drain(encoded, scratchFile)
	if err != nil {
		scratchFile.Close()
		scratch.Abandon(scratchPath)
		return 0, errors.NewFileError("encode", entry.RelPath, err)
	}
	if err := scratchFile.Close(); err != nil {
		scratch.Abandon(scratchPath)
		return 0, errors.NewFileError("close scratch", entry.RelPath, err)
	}

	if err := scratch.Commit(scratchPath, destPath); err != nil {
		return 0, errors.NewFileError("commit", entry.RelPath, err)
	}
	return written, nil
}

// drain copies src into dst using the shared 4 KiB buffer pool — the
// chunk size §4.9 names explicitly for the scratch-file write
// loop.
func drain(src io.Reader, dst io.Writer) (int64, error) {
	buf := util.GetSmallBuffer()
	defer util.PutSmallBuffer(buf)

	// Hide dst's ReaderFrom (e.g. *os.File) so CopyBuffer uses buf.
	return io.CopyBuffer(struct{ io.Writer }{dst}, src, buf)
}

// deriveContentKey implements SPEC_FULL.md Open Questions decision #5:
// K_F = derive(K, relpath_of(F), iters=1), giving every file in the
// tree a distinct content key via the same mechanism pathcrypt uses
// for basenames, but salted by the file's own relative path. The
// returned KeyMaterial must be closed once that file's pipeline is
// done with it, per §3's credential lifecycle.
func deriveContentKey(masterKey []byte, relPath string) *kdf.KeyMaterial {
	credential := kdf.Derive(masterKey, []byte(relPath), 1)
	return kdf.NewKeyMaterial(kdf.Key(credential))
}

// deriveMasterKey returns the sync-wide master key as a KeyMaterial the
// caller must Close when the sync or restore completes, per §3's
// "Credential: created at sync start, destroyed at sync end."
func deriveMasterKey(password []byte) *kdf.KeyMaterial {
	credential := kdf.Derive(password, nil, 0)
	return kdf.NewKeyMaterial(kdf.Key(credential))
}

func pathcryptKind(k fsentry.Kind) pathcrypt.Kind {
	if k == fsentry.File {
		return pathcrypt.File
	}
	return pathcrypt.Dir
}

func validatePreconditions(sourceRoot, destRoot string) error {
	srcInfo, err := os.Stat(sourceRoot)
	if err != nil {
		return errors.Wrap(errors.ErrSourceNotFound, sourceRoot)
	}
	if !srcInfo.IsDir() {
		return errors.NewValidationError("source", "must be a directory")
	}

	destInfo, err := os.Stat(destRoot)
	if err != nil {
		return errors.Wrap(errors.ErrDestMissing, destRoot)
	}
	if !destInfo.IsDir() {
		return errors.Wrap(errors.ErrDestNotDir, destRoot)
	}
	return nil
}

func setStatus(r ProgressReporter, status string) {
	if r == nil {
		return
	}
	r.SetStatus(status)
	r.Update()
}
