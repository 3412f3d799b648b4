// Package upload реализует HTTP-обработчик загрузки KYC-документа.
// Содержимое файла принимается строкой base64 в теле запроса.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	documentsrv "github.com/owenwebDe/forex-crm-backend/internal/services/document"
)

// Request — структура входных данных загрузки документа.
type Request struct {
	Type     string `json:"document_type" validate:"required,oneof=id passport utility_bill bank_statement"`
	FileName string `json:"file_name" validate:"required,max=255"`
	MimeType string `json:"mime_type" validate:"required"`
	FileData string `json:"file_data" validate:"required,base64"`
}

// Handler обрабатывает запросы загрузки документов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики загрузки документов.
type Service interface {
	Upload(ctx context.Context, userUID string, d models.Document) (*models.Document, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Загрузка KYC-документа
// @Tags Documents
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Документ в base64"
// @Success 200 {object} map[string]any "Сохраненный документ"
// @Failure 400 {object} response.ErrorResponse "Некорректный файл"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /documents/upload [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.upload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("could not validate credentials"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	doc, err := h.service.Upload(r.Context(), user.UID, models.Document{
		Type:     req.Type,
		FileName: req.FileName,
		MimeType: req.MimeType,
		FileData: req.FileData,
	})
	if err != nil {
		switch {
		case errors.Is(err, documentsrv.ErrBadFileData):
			log.Error("invalid file data", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("file data is not valid base64"))
		case errors.Is(err, documentsrv.ErrFileTooLarge):
			log.Error("file too large", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("file exceeds size limit"))
		default:
			log.Error("failed to upload document", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not upload document"))
		}
		return
	}

	log.Info("document uploaded", slog.String("document_id", doc.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"document": doc,
	}))
}
