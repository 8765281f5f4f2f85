package images

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/imagehub/backend/internal/auth"
	"github.com/imagehub/backend/internal/models"
	"github.com/imagehub/backend/internal/response"
)

const (
	msgInternal = "Something went wrong"

	// FormField is the multipart field carrying the image file.
	FormField = "image"

	multipartMemory = 8 << 20
)

// Catalog defines the interface for image record persistence. GetByID and
// Delete return models.ErrNotFound for unknown ids.
type Catalog interface {
	Insert(ctx context.Context, img *models.Image) error
	List(ctx context.Context) ([]models.Image, error)
	GetByID(ctx context.Context, id string) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}

// MediaStore defines the interface for the remote media host.
type MediaStore interface {
	Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (models.StoredObject, error)
	Remove(ctx context.Context, publicID string) error
}

// Ledger records references left behind by partially failed operations.
type Ledger interface {
	AddObject(ctx context.Context, publicID string) error
	AddImage(ctx context.Context, imageID string) error
}

// Handler holds image HTTP handlers.
type Handler struct {
	catalog   Catalog
	media     MediaStore
	ledger    Ledger
	maxUpload int64
	log       logrus.FieldLogger
}

func NewHandler(catalog Catalog, media MediaStore, ledger Ledger, maxUpload int64, log logrus.FieldLogger) *Handler {
	return &Handler{catalog: catalog, media: media, ledger: ledger, maxUpload: maxUpload, log: log}
}

// Upload stores the multipart image with the media store and records it in
// the catalog as owned by the caller.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Access denied. No token provided. Please login to continue")
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Fail(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		h.log.WithError(err).Warn("upload: parse multipart form")
		response.Fail(w, http.StatusBadRequest, "No image found")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile(FormField)
	if err != nil {
		response.Fail(w, http.StatusBadRequest, "No image found")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := h.media.Upload(r.Context(), header.Filename, file, header.Size, contentType)
	if err != nil {
		h.internal(w, err, "upload: media store", logrus.Fields{"user_id": caller.UserID})
		return
	}

	img := &models.Image{URL: obj.URL, PublicID: obj.PublicID, UploadedBy: caller.UserID}
	if err := h.catalog.Insert(r.Context(), img); err != nil {
		h.discardObject(r.Context(), obj.PublicID)
		h.internal(w, err, "upload: insert image", logrus.Fields{"user_id": caller.UserID, "public_id": obj.PublicID})
		return
	}

	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Image uploaded successfully",
		Image:   img,
	})
}

// List returns every image in the catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.catalog.List(r.Context())
	if err != nil {
		h.internal(w, err, "list: catalog", nil)
		return
	}
	if images == nil {
		images = []models.Image{}
	}
	response.JSON(w, http.StatusOK, response.Envelope{Success: true, Data: images})
}

// Delete removes an image owned by the caller, remote object first and
// catalog record second.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Access denied. No token provided. Please login to continue")
		return
	}

	id := chi.URLParam(r, "id")
	fields := logrus.Fields{"user_id": caller.UserID, "image_id": id}

	img, err := h.catalog.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		response.Fail(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		h.internal(w, err, "delete: get image", fields)
		return
	}

	if !img.OwnedBy(caller.UserID) {
		response.Fail(w, http.StatusForbidden, "Not authorised to delete this image")
		return
	}

	// the catalog record stays until the remote object is confirmed gone
	if err := h.media.Remove(r.Context(), img.PublicID); err != nil {
		h.internal(w, err, "delete: media store", fields)
		return
	}

	if err := h.catalog.Delete(r.Context(), img.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		h.recordImage(r.Context(), img.ID)
		h.internal(w, err, "delete: catalog", fields)
		return
	}

	response.OK(w, http.StatusOK, "Image is deleted successfully")
}

// discardObject removes an uploaded object that never made it into the
// catalog, falling back to the ledger when the removal fails.
func (h *Handler) discardObject(ctx context.Context, publicID string) {
	err := h.media.Remove(ctx, publicID)
	if err == nil {
		return
	}
	log := h.log.WithError(err).WithField("public_id", publicID)
	if h.ledger == nil {
		log.Error("upload: orphaned media object")
		return
	}
	if lerr := h.ledger.AddObject(ctx, publicID); lerr != nil {
		log.WithField("ledger_error", lerr.Error()).Error("upload: orphaned media object not recorded")
		return
	}
	log.Warn("upload: orphaned media object recorded")
}

func (h *Handler) recordImage(ctx context.Context, imageID string) {
	log := h.log.WithField("image_id", imageID)
	if h.ledger == nil {
		log.Error("delete: orphaned catalog record")
		return
	}
	if err := h.ledger.AddImage(ctx, imageID); err != nil {
		log.WithError(err).Error("delete: orphaned catalog record not recorded")
		return
	}
	log.Warn("delete: orphaned catalog record recorded")
}

func (h *Handler) internal(w http.ResponseWriter, err error, msg string, fields logrus.Fields) {
	h.log.WithError(err).WithFields(fields).Error(msg)
	response.Fail(w, http.StatusInternalServerError, msgInternal)
}
