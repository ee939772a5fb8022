package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"csync/internal/errors"
	"csync/internal/log"
	"csync/internal/pathcrypt"
	"csync/internal/pipeline"
)

// RestoreRequest carries everything Restore needs to invert a prior
// Sync: SourceRoot is the encrypted tree, DestRoot the plaintext
// directory to reconstruct it into.
type RestoreRequest struct {
	SourceRoot string
	DestRoot   string
	Password   []byte
	Reporter   ProgressReporter
}

// Restore is the exact inverse of Sync (SPEC_FULL.md's supplemented
// restore direction, grounded on original_source/src/crypt_syncer.rs's
// decrypt_path/decrypt_content pair). Because each directory level's
// key is derived from its PARENT's plaintext relative path, not its
// ciphertext name on disk, the tree must be walked top-down: the root's
// children decode under the master key, and each directory's own
// decoded plaintext relpath becomes the salt for its children's key.
//
// Per §4.8's root edge case, req.SourceRoot's only entry is C(R), the
// sync root materialized under the master key itself (mirroring Sync's
// own root-materialization step); Restore must unwrap that one level
// before descending into the tree it wraps.
func Restore(ctx context.Context, req RestoreRequest) (Result, error) {
	var result Result

	if err := validatePreconditions(req.SourceRoot, req.DestRoot); err != nil {
		return result, err
	}

	masterKeyMat := deriveMasterKey(req.Password)
	defer masterKeyMat.Close()
	masterKey := masterKeyMat.Bytes()

	rootDir, err := locateRoot(req.SourceRoot, masterKey)
	if err != nil {
		return result, err
	}

	setStatus(req.Reporter, "restoring")
	if err := restoreDir(ctx, masterKey, rootDir, req.DestRoot, "", &result, req.Reporter); err != nil {
		return result, err
	}

	setStatus(req.Reporter, "restore complete")
	return result, nil
}

// locateRoot finds and decodes the single C(R) entry directly beneath
// srcRoot, keyed by the master key per §4.8, and returns its absolute
// path — the directory restoreDir must descend into as the plaintext
// root (relPath "").
func locateRoot(srcRoot string, masterKey []byte) (string, error) {
	children, err := os.ReadDir(srcRoot)
	if err != nil {
		return "", errors.NewEnumerationError(srcRoot, err)
	}
	if len(children) != 1 {
		return "", fmt.Errorf("pathcrypt: expected exactly one root entry under %s, found %d", srcRoot, len(children))
	}

	child := children[0]
	_, isFile, err := pathcrypt.DecodeSegment(child.Name(), masterKey)
	if err != nil {
		return "", fmt.Errorf("pathcrypt: undecodable root entry %s: %w", child.Name(), err)
	}
	if isFile {
		return "", fmt.Errorf("pathcrypt: root entry %s decoded as a file, not a directory", child.Name())
	}

	return filepath.Join(srcRoot, child.Name()), nil
}

func restoreDir(ctx context.Context, masterKey []byte, srcDir, destDir, plainRelPath string, result *Result, reporter ProgressReporter) error {
	if ctx.Err() != nil {
		return errors.ErrCancelled
	}

	key := pathcrypt.DeriveSegmentKey(masterKey, plainRelPath)

	children, err := os.ReadDir(srcDir)
	if err != nil {
		return errors.NewEnumerationError(srcDir, err)
	}

	for _, child := range children {
		basename, isFile, err := pathcrypt.DecodeSegment(child.Name(), key)
		if err != nil {
			result.Failures = append(result.Failures, FileFailure{RelPath: filepath.Join(plainRelPath, child.Name()), Err: err})
			log.Warn("skipping undecodable entry", log.String("path", child.Name()), log.Err(err))
			continue
		}

		childPlainRel := basename
		if plainRelPath != "" {
			childPlainRel = plainRelPath + "/" + basename
		}
		childSrcPath := filepath.Join(srcDir, child.Name())
		childDestPath := filepath.Join(destDir, basename)

		if isFile {
			written, err := restoreOneFile(masterKey, childSrcPath, childDestPath, childPlainRel)
			if err != nil {
				result.Failures = append(result.Failures, FileFailure{RelPath: childPlainRel, Err: err})
				log.Error("file restore failed", log.String("path", childPlainRel), log.Err(err))
				continue
			}
			result.FilesSynced++
			result.BytesTotal += written
			if reporter != nil {
				reporter.SetProgress(0, childPlainRel)
				reporter.Update()
			}
			continue
		}

		if err := os.MkdirAll(childDestPath, 0o755); err != nil {
			result.Failures = append(result.Failures, FileFailure{RelPath: childPlainRel, Err: err})
			continue
		}
		result.DirsCreated++

		if err := restoreDir(ctx, masterKey, childSrcPath, childDestPath, childPlainRel, result, reporter); err != nil {
			return err
		}
	}

	return nil
}

func restoreOneFile(masterKey []byte, srcPath, destPath, plainRelPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, errors.NewFileError("open", srcPath, err)
	}
	defer src.Close()

	contentKeyMat := deriveContentKey(masterKey, plainRelPath)
	defer contentKeyMat.Close()

	decoded, err := pipeline.FileDecodePipeline(src, contentKeyMat.Bytes())
	if err != nil {
		return 0, errors.NewFileError("build pipeline", plainRelPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".csync-restore-*")
	if err != nil {
		return 0, errors.NewFileError("create temp", destPath, err)
	}
	tmpPath := tmp.Name()

	written, err := drain(decoded, tmp)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, errors.NewFileError("decode", plainRelPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, errors.NewFileError("close temp", destPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, errors.NewFileError("rename", destPath, err)
	}
	return written, nil
}
