package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radif/mediastore/internal/middleware"
	"github.com/radif/mediastore/internal/provider"
	"github.com/radif/mediastore/internal/response"
)

const (
	maxMemory    = 32 << 20
	defaultLimit = 20
	maxLimit     = 100
)

// Handler holds HTTP handlers for media file endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new media Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Routes returns the file routes. Write routes are wrapped with requireAuth
// when it is not nil.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Group(func(r chi.Router) {
		if requireAuth != nil {
			r.Use(requireAuth)
		}
		r.Post("/", h.Upload)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

// Upload godoc
//
//	@Summary		Upload a file
//	@Description	Stores the file in the configured bucket and returns its record with the public URL.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	response.Envelope{data=File}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file in form data")
		return
	}
	defer file.Close()

	f, err := h.svc.Upload(r.Context(), Upload{
		Name:   header.Filename,
		Mime:   header.Header.Get("Content-Type"),
		Size:   header.Size,
		Reader: file,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("file uploaded",
		zap.String("id", f.ID),
		zap.String("key", f.StorageKey),
		zap.String("subject", middleware.Subject(r.Context())),
	)
	response.Created(w, f)
}

// List godoc
//
//	@Summary		List files
//	@Description	Returns file records, newest first.
//	@Tags			files
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (max 100)"
//	@Param			offset	query		int	false	"Records to skip"
//	@Success		200		{object}	response.Envelope{data=[]File}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/files [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit < 1 {
		response.BadRequest(w, "invalid limit")
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		response.BadRequest(w, "invalid offset")
		return
	}

	files, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, files)
}

// Get godoc
//
//	@Summary	Get a file
//	@Tags		files
//	@Produce	json
//	@Param		id	path		string	true	"File ID"
//	@Success	200	{object}	response.Envelope{data=File}
//	@Failure	404	{object}	response.Envelope
//	@Failure	500	{object}	response.Envelope
//	@Router		/files/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, f)
}

// Delete godoc
//
//	@Summary		Delete a file
//	@Description	Removes the stored object and its record.
//	@Tags			files
//	@Security		BearerAuth
//	@Param			id	path	string	true	"File ID"
//	@Success		204
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/files/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("file deleted",
		zap.String("id", id),
		zap.String("subject", middleware.Subject(r.Context())),
	)
	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var svcErr *provider.Error
	switch {
	case h.svc.IsNotFound(err):
		response.NotFound(w, "file not found")
	case errors.Is(err, provider.ErrSizeLimitExceeded):
		response.PayloadTooLarge(w, err.Error())
	case errors.As(err, &svcErr):
		response.BadGateway(w, svcErr.Message)
	default:
		h.log.Error("media request failed", zap.Error(err))
		response.InternalError(w)
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
