// Package forms stores uploaded signed assignment forms on disk and records
// them in the database.
package forms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/imaging"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/store"
)

// DefaultMaxBytes is the default upload limit.
const DefaultMaxBytes = 10 << 20

const mimePDF = "application/pdf"

// Store keeps form files in a directory.
type Store struct {
	dir      string
	maxBytes int64
	db       *sql.DB
	now      func() time.Time
}

// NewStore creates dir if needed.
func NewStore(db *sql.DB, dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating forms directory: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, db: db, now: time.Now}, nil
}

// MaxBytes returns the upload limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and stores an upload. PDFs are kept as sent; JPEG and PNG
// scans are normalised to JPEG.
func (s *Store) Save(ctx context.Context, r io.Reader, uploadedBy *int64) (*model.Form, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperr.New(apperr.CodeValidation, fmt.Sprintf("form exceeds %d bytes", s.maxBytes)).
			WithDetails([]apperr.FieldError{{Field: "file", Message: "too large"}})
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "form is empty").
			WithDetails([]apperr.FieldError{{Field: "file", Message: "is required"}})
	}

	detected := mimetype.Detect(data)
	var ext, mime string
	switch {
	case detected.Is(mimePDF):
		ext, mime = ".pdf", mimePDF
	case imaging.Supported(detected.String()):
		data, err = imaging.Normalize(data)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeValidation, err, "form image could not be read").
				WithDetails([]apperr.FieldError{{Field: "file", Message: err.Error()}})
		}
		ext, mime = ".jpg", imaging.MIME
	default:
		return nil, apperr.New(apperr.CodeValidation, "unsupported form type").
			WithDetails([]apperr.FieldError{{Field: "file", Message: "must be PDF, JPEG or PNG, got " + detected.String()}})
	}

	form := &model.Form{
		Name:       uuid.NewString() + ext,
		Mime:       mime,
		Size:       int64(len(data)),
		UploadedBy: uploadedBy,
		UploadedAt: s.now().UTC(),
	}
	if err := s.write(form.Name, data); err != nil {
		return nil, err
	}
	if err := store.CreateForm(ctx, s.db, *form); err != nil {
		os.Remove(s.path(form.Name))
		return nil, err
	}
	return form, nil
}

// write stores data atomically under name.
func (s *Store) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing form file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing form file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("storing form file: %w", err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Open returns a stored form and its record. The caller closes the file.
func (s *Store) Open(ctx context.Context, name string) (*os.File, *model.Form, error) {
	if _, ok := model.FormName(model.FormRefPrefix + name); !ok {
		return nil, nil, apperr.New(apperr.CodeNotFound, "form not found")
	}
	form, err := store.GetForm(ctx, s.db, name)
	if err != nil {
		return nil, nil, err
	}
	if form == nil {
		return nil, nil, apperr.New(apperr.CodeNotFound, "form not found")
	}
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, apperr.New(apperr.CodeNotFound, "form not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening form: %w", err)
	}
	return f, form, nil
}

// Exists reports whether ref points at a stored form. Pass the transaction
// that will store the reference so a concurrent purge cannot remove the form
// in between.
func (s *Store) Exists(ctx context.Context, q store.Querier, ref string) (bool, error) {
	name, ok := model.FormName(ref)
	if !ok {
		return false, nil
	}
	form, err := store.GetForm(ctx, q, name)
	if err != nil {
		return false, err
	}
	return form != nil, nil
}

// PurgeOrphans deletes forms older than maxAge that no assignment
// references. It returns how many were removed.
func (s *Store) PurgeOrphans(ctx context.Context, maxAge time.Duration) (int, error) {
	names, err := store.ListOrphanForms(ctx, s.db, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	var errs error
	removed := 0
	for _, name := range names {
		// The record goes first and only while still unreferenced, so an
		// approval committed since the listing keeps its form.
		deleted, err := store.DeleteOrphanForm(ctx, s.db, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !deleted {
			continue
		}
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, fmt.Errorf("removing form %s: %w", name, err))
			continue
		}
		removed++
	}
	return removed, errs
}
