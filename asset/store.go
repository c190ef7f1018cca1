package asset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var removeFile = os.Remove

// Entity is anything that owns a single image asset.
type Entity interface {
	AssetID() int
	ImagePath() string
	SetImagePath(path string)
}

type Options struct {
	Logger   zerolog.Logger
	DirMode  os.FileMode
	FileMode os.FileMode
}

type Option func(*Options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func WithFileMode(mode os.FileMode) Option {
	return func(o *Options) {
		o.FileMode = mode
	}
}

func WithDirMode(mode os.FileMode) Option {
	return func(o *Options) {
		o.DirMode = mode
	}
}

// Store keeps at most one image file per entity id inside a flat root
// directory. It does no locking: callers must serialise operations on the
// same id.
type Store struct {
	root     string
	fileMode os.FileMode
	log      zerolog.Logger
}

// New creates root (and its parents) when missing. A Store cannot work
// without its root, so callers usually treat the error as fatal.
func New(root string, opts ...Option) (*Store, error) {
	o := Options{
		Logger:   log.Logger,
		DirMode:  0755,
		FileMode: 0644,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, o.DirMode); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", abs, err)
	}

	return &Store{
		root:     abs,
		fileMode: o.FileMode,
		log:      o.Logger.With().Str("component", "asset_store").Logger(),
	}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Save copies the entity's current image into the store and points the
// entity at the stored copy. An existing file with the same destination name
// is overwritten; the entity is left untouched on any failure.
func (s *Store) Save(e Entity) (err error) {
	defer func() { recordOperation("save", err) }()
	return s.save(e)
}

func (s *Store) save(e Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrInvalidInput)
	}
	source := e.ImagePath()
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("%w: blank image path", ErrInvalidInput)
	}

	dst, err := ResolveDestination(s.root, e.AssetID(), source)
	if err != nil {
		return err
	}

	fi, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %q is not a regular file", ErrCopyFailed, source)
	}

	n, err := s.copyFile(source, dst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	s.log.Debug().
		Int("id", e.AssetID()).
		Str("source", source).
		Str("stored_file", dst).
		Int64("written_size", n).
		Msg("image stored")

	e.SetImagePath(dst)
	return nil
}

// copyFile writes source into a hidden temp file next to dst and renames it
// into place, so dst never holds a partial copy.
func (s *Store) copyFile(source, dst string) (int64, error) {
	in, err := os.Open(source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp := filepath.Join(s.root, ".upload-"+uuid.New().String())
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, s.fileMode)
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp)

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return n, err
	}
	return n, nil
}

// Update saves the entity's current image and then deletes the asset that
// was stored for the same id before, if it had a different name. Failing to
// delete the old asset is logged but does not fail the update.
func (s *Store) Update(e Entity) (err error) {
	defer func() { recordOperation("update", err) }()

	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrInvalidInput)
	}

	old, found := s.Find(e.AssetID())
	if err := s.save(e); err != nil {
		return err
	}
	if !found || old == e.ImagePath() {
		return nil
	}

	if err := removeFile(old); err != nil && !errors.Is(err, os.ErrNotExist) {
		recordCleanupFailure()
		s.log.Warn().Err(err).
			Int("id", e.AssetID()).
			Str("stale_file", old).
			Msg("failed to remove previous image during update")
		return nil
	}
	s.log.Debug().Int("id", e.AssetID()).Str("stale_file", old).Msg("previous image removed")
	return nil
}

// Remove deletes the asset stored for id. Removing an id without an asset
// is not an error.
func (s *Store) Remove(id int) (err error) {
	defer func() { recordOperation("remove", err) }()

	path, found := s.Find(id)
	if !found {
		return nil
	}
	if err := removeFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	s.log.Debug().Int("id", id).Str("stored_file", path).Msg("image removed")
	return nil
}
