package recipe

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"souschef/internal/api/handlers"
	"souschef/internal/core/extraction"
	"souschef/internal/core/image"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExtractRequest 從 URL 擷取食譜
type ExtractRequest struct {
	URL          string `json:"url" binding:"required,notblank,max=2048"`
	Instructions string `json:"instructions" binding:"max=2000"`
}

// ExtractTextRequest 從文字擷取食譜
type ExtractTextRequest struct {
	Text         string `json:"text" binding:"required,notblank"`
	Instructions string `json:"instructions" binding:"max=2000"`
}

// ExtractHandler 食譜擷取處理程序
type ExtractHandler struct {
	extractor *extraction.Extractor
}

// NewExtractHandler 創建擷取處理程序
func NewExtractHandler(extractor *extraction.Extractor) *ExtractHandler {
	return &ExtractHandler{extractor: extractor}
}

// HandleExtract 從 URL（食譜網站、一般網頁或 Instagram）擷取
func (h *ExtractHandler) HandleExtract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}

	common.LogInfo("開始處理 URL 擷取請求",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("url", req.URL),
	)

	h.run(c, extraction.Source{
		URL:          req.URL,
		Instructions: req.Instructions,
	})
}

// HandleExtractText 從貼上的文字擷取
func (h *ExtractHandler) HandleExtractText(c *gin.Context) {
	var req ExtractTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}

	h.run(c, extraction.Source{
		Kind:         extraction.KindText,
		Text:         req.Text,
		Instructions: req.Instructions,
	})
}

// HandleExtractImages 從多張圖片擷取，依上傳順序處理
func (h *ExtractHandler) HandleExtractImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		handlers.Fail(c, multipartError(err, "images", "No images provided"))
		return
	}

	files := form.File["images"]
	uploads := make([]image.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			handlers.Fail(c, err)
			return
		}
		uploads = append(uploads, image.Upload{Filename: fh.Filename, Data: data})
	}

	common.LogInfo("開始處理圖片擷取請求",
		zap.String("request_id", handlers.RequestID(c)),
		zap.Int("images", len(uploads)),
	)

	h.run(c, extraction.Source{
		Kind:         extraction.KindImages,
		Images:       uploads,
		Instructions: firstValue(form, "instructions"),
	})
}

// HandleExtractPDF 從 PDF 擷取
func (h *ExtractHandler) HandleExtractPDF(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		handlers.Fail(c, multipartError(err, "file", "No PDF file provided"))
		return
	}
	data, err := readFile(fh)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	common.LogInfo("開始處理 PDF 擷取請求",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("filename", fh.Filename),
		zap.Int64("size", fh.Size),
	)

	h.run(c, extraction.Source{
		Kind:         extraction.KindPDF,
		PDF:          &extraction.File{Filename: fh.Filename, Data: data},
		Instructions: c.PostForm("instructions"),
	})
}

// HandleSupportedDomains 列出已知的食譜網站
func (h *ExtractHandler) HandleSupportedDomains(c *gin.Context) {
	handlers.Success(c, http.StatusOK, common.MsgOK, gin.H{
		"domains": extraction.SupportedDomains(),
	})
}

func (h *ExtractHandler) run(c *gin.Context, src extraction.Source) {
	result, err := h.extractor.Extract(c.Request.Context(), handlers.Owner(c), src)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusCreated, common.MsgRecipeExtracted, result)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// multipartError 缺少檔案時返回驗證錯誤，超過大小時返回 413
func multipartError(err error, field, message string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.ErrPayloadTooLarge.Wrap(err)
	}
	return common.NewValidationError(field, message)
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
