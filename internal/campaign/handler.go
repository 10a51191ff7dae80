package campaign

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"campaign-backend/internal/shared/server/middleware"
	"campaign-backend/internal/shared/server/respond"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

// Handler wires HTTP handlers to the campaign service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
	MaxUploadFiles int
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64, maxUploadFiles int) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	if maxUploadFiles <= 0 {
		maxUploadFiles = 10
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes, MaxUploadFiles: maxUploadFiles}
}

// RegisterRoutes attaches campaign routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat/message", h.chatMessage)
	rg.POST("/chat/analyze", h.analyze)
	rg.POST("/chat/generate", h.generate)
	rg.GET("/templates/status", h.templateStatus)
	rg.POST("/templates/initialize", h.initializeTemplates)
	rg.GET("/output/:file", middleware.AllowAnyOrigin(), h.output)
	rg.GET("/download/:filename", h.download)
	rg.GET("/campaigns", h.listRuns)
	rg.GET("/campaigns/:id", h.getRun)
}

type chatBody struct {
	Message     string                  `json:"message"`
	ProductInfo *suggestion.ProductInfo `json:"productInfo"`
	Images      []string                `json:"images"`
}

type productBody struct {
	ProductInfo *suggestion.ProductInfo `json:"productInfo"`
	Profile     string                  `json:"profile"`
}

func (h *Handler) chatMessage(c *gin.Context) {
	var (
		req ChatRequest
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req, err = h.bindMultipart(c)
	} else {
		var body chatBody
		if bindErr := c.ShouldBindJSON(&body); bindErr != nil {
			err = fmt.Errorf("%w: invalid request body", ErrInvalidInput)
		}
		req = ChatRequest{Message: body.Message, Product: body.ProductInfo, Images: body.Images}
	}
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": "), err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Message is required", nil)
		return
	}

	resp := h.Svc.Chat(c.Request.Context(), req)
	respond.Result(c, http.StatusOK, resp.Succeeded(), resp, "Chat processed successfully")
}

// bindMultipart reads the message, an optional productInfo JSON field and
// up to MaxUploadFiles images, which become data URIs.
func (h *Handler) bindMultipart(c *gin.Context) (ChatRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes*int64(h.MaxUploadFiles)+(1<<20))
	form, err := c.MultipartForm()
	if err != nil {
		return ChatRequest{}, fmt.Errorf("%w: invalid multipart body", ErrInvalidInput)
	}

	req := ChatRequest{Message: c.PostForm("message")}
	if raw := strings.TrimSpace(c.PostForm("productInfo")); raw != "" {
		var p suggestion.ProductInfo
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return ChatRequest{}, fmt.Errorf("%w: productInfo must be a JSON object", ErrInvalidInput)
		}
		req.Product = &p
	}

	files := form.File["images"]
	if len(files) == 0 {
		files = form.File["images[]"]
	}
	if len(files) > h.MaxUploadFiles {
		return ChatRequest{}, fmt.Errorf("%w: at most %d images are allowed", ErrInvalidInput, h.MaxUploadFiles)
	}
	for _, fh := range files {
		if fh.Size > h.MaxUploadBytes {
			return ChatRequest{}, fmt.Errorf("%w: %s exceeds the size limit", ErrInvalidInput, fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			return ChatRequest{}, fmt.Errorf("%w: unreadable image %s", ErrInvalidInput, fh.Filename)
		}
		data, err := io.ReadAll(io.LimitReader(f, h.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			return ChatRequest{}, fmt.Errorf("%w: unreadable image %s", ErrInvalidInput, fh.Filename)
		}
		mime := http.DetectContentType(data)
		if _, ok := allowedImageTypes[mime]; !ok {
			return ChatRequest{}, fmt.Errorf("%w: only PNG, JPEG and WEBP images are allowed", ErrInvalidInput)
		}
		req.Images = append(req.Images, "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(data))
	}
	return req, nil
}

func (h *Handler) analyze(c *gin.Context) {
	var body productBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ProductInfo == nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Product information is required", nil)
		return
	}

	b := h.Svc.Analyze(c.Request.Context(), *body.ProductInfo)
	respond.OK(c, b, fmt.Sprintf("Product classified as %s profile with %d%% confidence", b.Tier, b.Confidence))
}

func (h *Handler) generate(c *gin.Context) {
	var body productBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ProductInfo == nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Product information is required", nil)
		return
	}

	var forced *tier.Tier
	if body.Profile != "" {
		t, err := parseProfile(body.Profile)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Profile must be one of: baixo, medio, alto", nil)
			return
		}
		forced = &t
	}

	gen := h.Svc.Generate(c.Request.Context(), *body.ProductInfo, forced)
	ok := gen.Succeeded()
	if gen.RunID != "" {
		c.Set("campaignId", gen.RunID)
	}
	respond.Result(c, http.StatusOK, ok > 0, gen, fmt.Sprintf("Generated %d/%d images successfully", ok, len(gen.Results)))
}

// parseProfile accepts only the wire values.
func parseProfile(raw string) (tier.Tier, error) {
	for _, t := range tier.All {
		if raw == t.String() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", tier.ErrInvalid, raw)
}

func (h *Handler) templateStatus(c *gin.Context) {
	st := h.Svc.TemplateStatus()
	respond.OK(c, st, fmt.Sprintf("%d templates available, %d missing", st.Available, st.Missing))
}

func (h *Handler) initializeTemplates(c *gin.Context) {
	if err := h.Svc.InitializeTemplates(); err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Failed to initialize templates", err)
		return
	}
	respond.OK(c, nil, "Template system initialized successfully")
}

func (h *Handler) output(c *gin.Context) {
	h.serveImage(c, c.Param("file"), false)
}

func (h *Handler) download(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	h.serveImage(c, c.Param("filename"), true)
}

func (h *Handler) serveImage(c *gin.Context, file string, attachment bool) {
	rc, err := h.Svc.OpenOutput(c.Request.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "File not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Failed to read file", err)
		}
		return
	}
	defer rc.Close()

	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	}
	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("campaign.output_copy_failed", map[string]any{"file": file, "error": err})
	}
}

func (h *Handler) listRuns(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	runs, err := h.Svc.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list campaigns", err)
		return
	}
	respond.OK(c, runs, "")
}

func (h *Handler) getRun(c *gin.Context) {
	id := c.Param("id")
	c.Set("campaignId", id)
	run, err := h.Svc.GetRun(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "campaign not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch campaign", err)
		}
		return
	}
	respond.OK(c, run, "")
}
