package handler

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/driftchat/realtime/internal/audit"
	"github.com/driftchat/realtime/internal/config"
	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/pkg/log"
	"github.com/driftchat/realtime/pkg/response"
	"github.com/driftchat/realtime/pkg/storage"
)

// Media types accepted for upload. The MIME type is sniffed from the content,
// not trusted from the client.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/mpeg":      true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/webm":      true,
}

// UploadHandler stores media binaries and hands back the stable URL plus
// metadata the send_media_message event expects.
type UploadHandler struct {
	store storage.Storage
	cfg   config.UploadConfig
}

func NewUploadHandler(store storage.Storage, cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{store: store, cfg: cfg}
}

// RegisterRoutes mounts the authenticated upload endpoint.
func (h *UploadHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.POST("/api/upload/media", auth, h.uploadMedia)
}

type uploadResponse struct {
	FileURL          string `json:"fileUrl"`
	OriginalFileName string `json:"originalFileName"`
	FileName         string `json:"fileName"`
	FileSize         int64  `json:"fileSize"`
	MimeType         string `json:"mimeType"`
	Type             string `json:"type"`
}

func (h *UploadHandler) uploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file uploaded")
		return
	}
	if h.cfg.MaxFileSize > 0 && fileHeader.Size > h.cfg.MaxFileSize {
		response.BadRequest(c, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to open uploaded file")
		response.InternalError(c, "failed to read upload")
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to sniff upload mime type")
		response.InternalError(c, "failed to read upload")
		return
	}
	if !allowedMimeTypes[mtype.String()] {
		response.BadRequest(c, "only image and video files are allowed")
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to rewind upload")
		response.InternalError(c, "failed to read upload")
		return
	}

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = mtype.Extension()
	}
	key := uuid.New().String() + ext

	if err := h.store.Write(c.Request.Context(), key, file, fileHeader.Size, mtype.String()); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to store upload")
		response.InternalError(c, "failed to store upload")
		return
	}

	mediaType := domain.MessageTypeVideo
	if strings.HasPrefix(mtype.String(), "image/") {
		mediaType = domain.MessageTypeImage
		if mtype.String() == "image/gif" {
			mediaType = domain.MessageTypeGIF
		}
	}

	audit.LogWithDetail(c.Request.Context(), audit.ActionUpload, currentUser(c), key, "media uploaded")
	response.Success(c, uploadResponse{
		FileURL:          h.store.URL(key),
		OriginalFileName: fileHeader.Filename,
		FileName:         key,
		FileSize:         fileHeader.Size,
		MimeType:         mtype.String(),
		Type:             mediaType,
	})
}
