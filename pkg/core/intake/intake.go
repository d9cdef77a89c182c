// Package intake accepts file uploads for a case: size and extension budgets,
// ZIP flattening, content-hash dedup, document persistence and job enqueue.
package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"loanintel/pkg/core/ledger"
	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// ValidationError is a caller mistake: surfaced as 4xx, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a caller-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Options are the intake budgets.
type Options struct {
	MaxFileBytes      int64
	MaxUploadBytes    int64
	AllowedExtensions []string
	MaxAttempts       int
}

// File is one incoming upload entry.
type File struct {
	Name string
	Data []byte
}

// UploadResult summarizes one upload request.
type UploadResult struct {
	Accepted   []*models.Document `json:"accepted"`
	Duplicates []string           `json:"duplicates,omitempty"`
	Ignored    []string           `json:"ignored,omitempty"`
}

// Service persists accepted documents and enqueues their processing jobs.
type Service struct {
	cases     *store.CaseRepo
	docs      *store.DocumentRepo
	jobs      *store.JobRepo
	checklist *ledger.Service
	files     storage.Storage
	opts      Options
}

// NewService creates the intake service.
func NewService(files storage.Storage, opts Options) *Service {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 15 << 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 60 << 20
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".zip", ".csv", ".xlsx"}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 2
	}
	return &Service{
		cases:     store.NewCaseRepo(),
		docs:      store.NewDocumentRepo(),
		jobs:      store.NewJobRepo(),
		checklist: ledger.NewService(files),
		files:     files,
		opts:      opts,
	}
}

func (s *Service) extensionAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.opts.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (s *Service) validateFile(f File) error {
	if f.Name == "" {
		return validationf("file with empty name rejected")
	}
	if !s.extensionAllowed(f.Name) {
		return validationf("unsupported extension for %s", f.Name)
	}
	if int64(len(f.Data)) > s.opts.MaxFileBytes {
		return validationf("%s exceeds the per-file limit of %d bytes", f.Name, s.opts.MaxFileBytes)
	}
	if len(f.Data) == 0 {
		return validationf("%s is empty", f.Name)
	}
	return nil
}

// Upload accepts a batch of files for the case. ZIP archives are flattened
// before validation; duplicates within the case are skipped silently.
func (s *Service) Upload(ctx context.Context, c *models.Case, incoming []File) (*UploadResult, error) {
	var total int64
	for _, f := range incoming {
		total += int64(len(f.Data))
	}
	if total > s.opts.MaxUploadBytes {
		return nil, validationf("upload exceeds the aggregate limit of %d bytes", s.opts.MaxUploadBytes)
	}

	result := &UploadResult{}
	var accepted []File
	for _, f := range incoming {
		if strings.EqualFold(filepath.Ext(f.Name), ".zip") {
			entries, ignored, err := expandArchive(f)
			if err != nil {
				return nil, err
			}
			result.Ignored = append(result.Ignored, ignored...)
			for _, entry := range entries {
				if err := s.validateFile(entry); err != nil {
					return nil, err
				}
				accepted = append(accepted, entry)
			}
			continue
		}
		if err := s.validateFile(f); err != nil {
			return nil, err
		}
		accepted = append(accepted, f)
	}
	if len(accepted) == 0 {
		return nil, validationf("upload contains no usable files")
	}

	for _, f := range accepted {
		hash := sha256.Sum256(f.Data)
		doc := &models.Document{
			CaseID:     c.ID,
			Filename:   f.Name,
			SizeBytes:  int64(len(f.Data)),
			MimeType:   mimeFor(f.Name),
			FileHash:   hex.EncodeToString(hash[:]),
		}
		doc.StorageKey = storageKey(c.CaseID, doc.FileHash, f.Name)

		// Blob first: a dangling blob is harmless, a document row pointing at
		// nothing is not.
		if err := s.files.Put(doc.StorageKey, f.Data); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", f.Name, err)
		}
		if err := s.docs.Insert(ctx, doc); err != nil {
			if errors.Is(err, store.ErrConflict) {
				result.Duplicates = append(result.Duplicates, f.Name)
				continue
			}
			if delErr := s.files.Delete(doc.StorageKey); delErr != nil {
				fmt.Printf("[intake] WARNING: failed to remove %s after insert error: %v\n",
					doc.StorageKey, delErr)
			}
			return nil, err
		}
		if _, err := s.jobs.Enqueue(ctx, c.ID, doc.ID, s.opts.MaxAttempts); err != nil {
			return nil, err
		}
		result.Accepted = append(result.Accepted, doc)
	}

	if len(result.Accepted) > 0 {
		if err := s.cases.UpdateStatus(ctx, c.ID, models.CaseProcessing); err != nil {
			return nil, err
		}
		if err := s.checklist.RecomputeCompleteness(ctx, c.ID); err != nil {
			return nil, err
		}
	}

	fmt.Printf("[intake] Case %s: %d accepted, %d duplicates, %d ignored\n",
		c.CaseID, len(result.Accepted), len(result.Duplicates), len(result.Ignored))
	return result, nil
}

// storageKey prefixes the filename with the content hash so two same-named
// uploads with different bytes never share a blob. Re-uploads of identical
// bytes land on the same key, which the dedup path skips anyway.
func storageKey(caseID, fileHash, name string) string {
	return caseID + "/" + fileHash[:8] + "-" + name
}

func mimeFor(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
