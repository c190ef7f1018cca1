package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/imrenagi/go-product-images/asset"
	"github.com/imrenagi/go-product-images/mirror"
	"github.com/imrenagi/go-product-images/product"
	"github.com/rs/zerolog"
)

const (
	FileNameHeader  = "X-Api-File-Name"
	FormFileField   = "file"
	defaultMaxSize  = int64(10 << 20)
	multipartMemory = int64(5 << 20)
)

var errMissingFileName = errors.New("missing file name")

// ImageStore is the part of asset.Store the handlers depend on.
type ImageStore interface {
	Find(id int) (string, bool)
	Update(e asset.Entity) error
	Remove(id int) error
}

type Options struct {
	MaxSize int64
	TempDir string
	Mirror  mirror.Mirror
}

type Option func(*Options)

func WithMaxSize(size int64) Option {
	return func(o *Options) {
		o.MaxSize = size
	}
}

// WithTempDir sets where uploads are spooled before being stored.
func WithTempDir(dir string) Option {
	return func(o *Options) {
		o.TempDir = dir
	}
}

func WithMirror(m mirror.Mirror) Option {
	return func(o *Options) {
		o.Mirror = m
	}
}

func NewController(products product.Repository, images ImageStore, opts ...Option) Controller {
	o := Options{
		MaxSize: defaultMaxSize,
		Mirror:  mirror.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return Controller{
		products: products,
		images:   images,
		mirror:   o.Mirror,
		locks:    product.NewKeyedMutex(),
		maxSize:  o.MaxSize,
		tempDir:  o.TempDir,
	}
}

type Controller struct {
	products product.Repository
	images   ImageStore
	mirror   mirror.Mirror
	locks    *product.KeyedMutex
	maxSize  int64
	tempDir  string
}

func (c *Controller) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var p product.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			log.Debug().Err(err).Msg("invalid product payload")
			writeError(w, http.StatusBadRequest, errors.New("invalid product payload"))
			return
		}
		if p.ID <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("product id must be positive"))
			return
		}
		// images are only attached through the image endpoints
		p.Image = ""

		unlock := c.locks.Lock(p.ID)
		defer unlock()

		if _, exists := c.products.Find(p.ID); exists {
			writeError(w, http.StatusConflict, fmt.Errorf("product %d already exists", p.ID))
			return
		}
		c.products.Save(p)

		log.Info().Int("product_id", p.ID).Msg("product created")
		w.Header().Add("Location", fmt.Sprintf("/api/v1/products/%d", p.ID))
		writeJSON(w, http.StatusCreated, p)
	}
}

func (c *Controller) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.products.List())
	}
}

func (c *Controller) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := c.findProduct(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// FormUpload stores the multipart "file" field as the product image.
func (c *Controller) FormUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())
		log.Debug().Str("content_type", r.Header.Get("Content-Type")).Msg("Request Content Type")

		r.Body = http.MaxBytesReader(w, r.Body, c.maxSize)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			log.Error().Err(err).Msg("Error Parsing the Form")
			writeUploadError(w, err, http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, handler, err := r.FormFile(FormFileField)
		if err != nil {
			log.Error().Err(err).Msg("Error Retrieving the File")
			writeError(w, http.StatusBadRequest, errors.New("error retrieving the file"))
			return
		}
		defer file.Close()

		c.storeImage(w, r, handler.Filename, file)
	}
}

// BinaryUpload stores the raw request body as the product image, named by
// the X-Api-File-Name header.
func (c *Controller) BinaryUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxSize)
		defer r.Body.Close()

		zerolog.Ctx(r.Context()).Debug().
			Str("content_type", r.Header.Get("Content-Type")).
			Str("content_length", r.Header.Get("Content-Length")).
			Str("file_name", r.Header.Get(FileNameHeader)).
			Msg("received binary data")

		c.storeImage(w, r, r.Header.Get(FileNameHeader), r.Body)
	}
}

func (c *Controller) storeImage(w http.ResponseWriter, r *http.Request, filename string, body io.Reader) {
	log := zerolog.Ctx(r.Context())

	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	unlock := c.locks.Lock(id)
	defer unlock()

	p, ok := c.products.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("product %d not found", id))
		return
	}

	spooled, cleanup, err := c.spool(body, filename)
	if err != nil {
		log.Error().Err(err).Msg("Error Copying the File")
		writeUploadError(w, err, http.StatusInternalServerError)
		return
	}
	defer cleanup()

	previous, hadPrevious := c.images.Find(id)

	p.Image = spooled
	if err := c.images.Update(&p); err != nil {
		log.Warn().Err(err).
			Int("product_id", id).
			Str("result", asset.Outcome(err)).
			Msg("failed to store product image")
		writeError(w, assetStatus(err), err)
		return
	}
	c.products.Save(p)

	stored := filepath.Base(p.Image)
	if err := c.mirror.Upload(r.Context(), stored, p.Image); err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("failed to mirror product image")
	}
	if hadPrevious && filepath.Base(previous) != stored {
		if err := c.mirror.Delete(r.Context(), filepath.Base(previous)); err != nil {
			log.Error().Err(err).Int("product_id", id).Msg("failed to delete previous mirrored product image")
		}
	}

	log.Info().
		Int("product_id", id).
		Str("file_name", filename).
		Str("stored_file", p.Image).
		Msg("File Uploaded")
	writeJSON(w, http.StatusOK, p)
}

// spool writes body to a fresh temp directory under the base name of
// filename, so the stored asset keeps the client's file name.
func (c *Controller) spool(body io.Reader, filename string) (string, func(), error) {
	name := filepath.Base(filename)
	if filename == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", nil, errMissingFileName
	}

	dir, err := os.MkdirTemp(c.tempDir, "product-image-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if err := copyAndClose(f, body); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// copyAndClose reports a failed Close, since a buffered write may only
// surface there.
func copyAndClose(dst io.WriteCloser, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (c *Controller) GetImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := c.findProduct(w, r)
		if !ok {
			return
		}
		path, found := c.images.Find(p.ID)
		if !found {
			writeError(w, http.StatusNotFound, fmt.Errorf("product %d has no image", p.ID))
			return
		}
		http.ServeFile(w, r, path)
	}
}

func (c *Controller) DeleteImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		id, err := productID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		unlock := c.locks.Lock(id)
		defer unlock()

		p, ok := c.products.Find(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("product %d not found", id))
			return
		}

		stored, found := c.images.Find(id)
		if err := c.images.Remove(id); err != nil {
			log.Error().Err(err).Int("product_id", id).Msg("failed to remove product image")
			writeError(w, assetStatus(err), err)
			return
		}
		p.Image = ""
		c.products.Save(p)

		if found {
			if err := c.mirror.Delete(r.Context(), filepath.Base(stored)); err != nil {
				log.Error().Err(err).Int("product_id", id).Msg("failed to delete mirrored product image")
			}
		}

		log.Info().Int("product_id", id).Bool("had_image", found).Msg("product image removed")
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteProduct removes the product together with its stored image.
func (c *Controller) DeleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		id, err := productID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		unlock := c.locks.Lock(id)
		defer unlock()

		if _, ok := c.products.Find(id); !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("product %d not found", id))
			return
		}

		stored, found := c.images.Find(id)
		if err := c.images.Remove(id); err != nil {
			log.Error().Err(err).Int("product_id", id).Msg("failed to remove product image")
			writeError(w, assetStatus(err), err)
			return
		}
		c.products.Delete(id)

		if found {
			if err := c.mirror.Delete(r.Context(), filepath.Base(stored)); err != nil {
				log.Error().Err(err).Int("product_id", id).Msg("failed to delete mirrored product image")
			}
		}

		log.Info().Int("product_id", id).Msg("product deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *Controller) findProduct(w http.ResponseWriter, r *http.Request) (product.Product, bool) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return product.Product{}, false
	}
	p, ok := c.products.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("product %d not found", id))
		return product.Product{}, false
	}
	return p, true
}

func productID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["product_id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func assetStatus(err error) int {
	switch {
	case errors.Is(err, asset.ErrInvalidInput),
		errors.Is(err, asset.ErrMalformedName),
		errors.Is(err, asset.ErrSourceMissing):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeUploadError(w http.ResponseWriter, err error, fallback int) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("image exceeds the maximum upload size"))
	case errors.Is(err, errMissingFileName):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, fallback, errors.New("error reading the upload"))
	}
}

type cError struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, cError{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}
