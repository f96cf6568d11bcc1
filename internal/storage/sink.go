package storage

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rsnk/politecrawl/internal/metadata"
	"github.com/rsnk/politecrawl/pkg/failure"
	"github.com/rsnk/politecrawl/pkg/fileutil"
	"github.com/rsnk/politecrawl/pkg/hashutil"
)

/*
Responsibilities
- Persist a page's extracted visible_text, one file per URL-hash
- Ensure deterministic filenames
- Overwrite-safe reruns

This is not part of the core per spec §1 ("content archiving beyond
the discovery index" is a Non-goal) and never blocks worker progress:
a write failure is recorded through the metadata sink and returned to
the caller, but the worker treats it the same as "no output dir
configured" and proceeds to mark the URL complete regardless.
*/

type Sink interface {
	Write(outputDir, sourceURL, urlHash string, content []byte, hashAlgo hashutil.HashAlgo) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(metadataSink metadata.MetadataSink) LocalSink {
	return LocalSink{metadataSink: metadataSink}
}

// Write persists content (a page's extracted visible_text) under
// outputDir/<urlHash>.txt and reports the result through the metadata
// sink.
func (s *LocalSink) Write(
	outputDir, sourceURL, urlHash string,
	content []byte,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, urlHash, content, hashAlgo)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceURL),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactText,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrURL, sourceURL),
			metadata.NewAttr(metadata.AttrField, writeResult.URLHash()),
			metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir, urlHash string,
	content []byte,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	contentHash, err := hashutil.HashBytes(content, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
			Path:      "",
		}
	}

	if err := fileutil.EnsureDir(outputDir); err != nil {
		var fileErr *fileutil.FileError
		if errors.As(err, &fileErr) {
			cause := ErrCauseWriteFailure
			retryable := false
			if fileErr.Cause == fileutil.ErrCausePathError {
				cause = ErrCausePathError
				retryable = true
			}
			return WriteResult{}, &StorageError{
				Message:   err.Error(),
				Retryable: retryable,
				Cause:     cause,
				Path:      outputDir,
			}
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      outputDir,
		}
	}

	fullPath := filepath.Join(outputDir, urlHash+".txt")

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(urlHash, fullPath, contentHash), nil
}
