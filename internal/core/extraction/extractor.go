package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"souschef/internal/core/ai/cache"
	"souschef/internal/core/image"
	"souschef/internal/core/recipe"
	"souschef/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	minTextLength = 20
	maxPDFBytes   = 20 * 1024 * 1024
)

// File 上傳的檔案
type File struct {
	Filename string
	Data     []byte
}

// Source 擷取來源，依 Kind 使用對應欄位
type Source struct {
	Kind         Kind
	URL          string
	Text         string
	Images       []image.Upload
	PDF          *File
	Instructions string
}

// Result 擷取並保存後的結果
type Result struct {
	Recipe     *recipe.Recipe `json:"recipe"`
	SourceKind Kind           `json:"source_kind"`
	Strategy   string         `json:"strategy,omitempty"`
	CacheHit   bool           `json:"cache_hit"`
}

// ImageStore 保存上傳圖片並返回公開 URL
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Metrics 擷取指標
type Metrics interface {
	ExtractionObserved(kind, outcome string, duration time.Duration)
}

// Deps 擷取器依賴
type Deps struct {
	Fetcher     PageFetcher
	Scraper     PostScraper
	Structurer  *Structurer
	Images      *image.Service
	OCR         OCREngine
	Rasterizer  PageRasterizer
	Storage     ImageStore
	Cache       cache.Store // nil 表示不快取
	Recipes     *recipe.Service
	Metrics     Metrics
	MaxPDFBytes int64
}

// Extractor 依來源類型選擇擷取策略，結構化後保存食譜
type Extractor struct {
	fetcher     PageFetcher
	scraper     PostScraper
	structurer  *Structurer
	images      *image.Service
	ocr         OCREngine
	rasterizer  PageRasterizer
	storage     ImageStore
	cache       cache.Store
	recipes     *recipe.Service
	metrics     Metrics
	maxPDFBytes int64
}

// draft 擷取出但尚未保存的食譜
type draft struct {
	recipe   *recipe.Recipe
	strategy string
	cacheHit bool
}

// NewExtractor 創建擷取器
func NewExtractor(d Deps) *Extractor {
	if d.MaxPDFBytes <= 0 {
		d.MaxPDFBytes = maxPDFBytes
	}
	return &Extractor{
		fetcher:     d.Fetcher,
		scraper:     d.Scraper,
		structurer:  d.Structurer,
		images:      d.Images,
		ocr:         d.OCR,
		rasterizer:  d.Rasterizer,
		storage:     d.Storage,
		cache:       d.Cache,
		recipes:     d.Recipes,
		metrics:     d.Metrics,
		maxPDFBytes: d.MaxPDFBytes,
	}
}

// Extract 擷取並保存到呼叫者的範圍
//
// 驗證錯誤原樣返回；抓取、OCR 與 AI 失敗統一包裝為 ErrExtractionFailed。
func (e *Extractor) Extract(ctx context.Context, ownerID *string, src Source) (*Result, error) {
	start := time.Now()

	kind, d, err := e.dispatch(ctx, src)
	if err != nil {
		e.observe(kind, "error", start)
		if common.IsValidationError(err) || errors.Is(err, common.ErrInvalidURL) ||
			errors.Is(err, common.ErrQueueFull) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		common.LogError("擷取食譜失敗",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, common.ErrExtractionFailed.Wrap(err)
	}

	saved, err := e.recipes.Create(ctx, ownerID, d.recipe)
	if err != nil {
		e.observe(kind, "error", start)
		return nil, err
	}

	e.observe(kind, "success", start)
	common.LogInfo("食譜擷取完成",
		zap.String("kind", string(kind)),
		zap.String("strategy", d.strategy),
		zap.Bool("cache_hit", d.cacheHit),
		zap.String("recipe_id", saved.ID),
		zap.Duration("duration", time.Since(start)),
	)
	return &Result{
		Recipe:     saved,
		SourceKind: kind,
		Strategy:   d.strategy,
		CacheHit:   d.cacheHit,
	}, nil
}

func (e *Extractor) dispatch(ctx context.Context, src Source) (Kind, *draft, error) {
	switch src.Kind {
	case KindImages:
		d, err := e.fromImages(ctx, src)
		return KindImages, d, err
	case KindPDF:
		d, err := e.fromPDF(ctx, src)
		return KindPDF, d, err
	case KindText:
		d, err := e.fromText(ctx, src)
		return KindText, d, err
	}

	kind, u, err := ClassifyURL(src.URL)
	if err != nil {
		return KindWebPage, nil, err
	}

	key := extractKey(u.String(), src.Instructions)
	if d := e.cached(ctx, key); d != nil {
		return kind, d, nil
	}

	var d *draft
	if kind == KindInstagram {
		d, err = e.fromInstagram(ctx, u.String(), src.Instructions)
	} else {
		d, err = e.fromWeb(ctx, u, src.Instructions)
	}
	if err != nil {
		return kind, nil, err
	}
	e.remember(ctx, key, d.recipe)
	return kind, d, nil
}

func (e *Extractor) fromWeb(ctx context.Context, u *url.URL, instructions string) (*draft, error) {
	body, err := e.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	text, strategy, imageURL, err := ParsePage(body, u)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("no recipe content found on the webpage")
	}
	common.LogDebug("網頁內容已擷取",
		zap.String("strategy", string(strategy)),
		zap.Int("chars", len(text)),
	)

	r, err := e.structurer.Structure(ctx, text, instructions, false)
	if err != nil {
		return nil, err
	}
	r.SourceURL = u.String()
	r.ImageURL = imageURL
	return &draft{recipe: r, strategy: string(strategy)}, nil
}

func (e *Extractor) fromInstagram(ctx context.Context, postURL, instructions string) (*draft, error) {
	post, err := e.scraper.Scrape(ctx, postURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(post.Caption) == "" {
		return nil, fmt.Errorf("instagram post has no caption")
	}

	r, err := e.structurer.Structure(ctx, post.Caption, instructions, false)
	if err != nil {
		return nil, err
	}
	if post.OwnerUsername != "" {
		r.SourceURL = fmt.Sprintf("Instagram: @%s - %s", post.OwnerUsername, postURL)
	} else {
		r.SourceURL = "Instagram: " + postURL
	}
	r.ImageURL = post.ImageURL()
	return &draft{recipe: r, strategy: "apify"}, nil
}

func (e *Extractor) fromImages(ctx context.Context, src Source) (*draft, error) {
	if err := e.images.ValidateBatch(src.Images); err != nil {
		return nil, err
	}

	n := len(src.Images)
	texts := make([]string, 0, n)
	for i, img := range src.Images {
		prepared, err := e.images.PrepareForOCR(img.Data)
		if err != nil {
			if errors.Is(err, common.ErrInvalidImageFormat) {
				return nil, common.NewValidationError("images", fmt.Sprintf("Unreadable image: %s", img.Filename))
			}
			return nil, err
		}
		text, err := e.ocr.Recognize(ctx, prepared)
		if err != nil {
			return nil, fmt.Errorf("ocr image %d: %w", i+1, err)
		}
		if text != "" {
			texts = append(texts, fmt.Sprintf("--- Image %d of %d ---\n%s", i+1, n, text))
		}
	}
	if len(texts) == 0 {
		return nil, common.NewValidationError("images", "No readable text found in the provided image(s)")
	}

	r, err := e.structurer.Structure(ctx, strings.Join(texts, "\n\n"), src.Instructions, n > 1)
	if err != nil {
		return nil, err
	}

	first := src.Images[0]
	name := common.GenerateUUID() + strings.ToLower(filepath.Ext(first.Filename))
	if stored, err := e.storage.Save(ctx, name, image.ContentType(first.Filename), first.Data); err != nil {
		common.LogWarn("保存上傳圖片失敗", zap.Error(err))
	} else {
		r.ImageURL = &stored
	}

	if n == 1 {
		r.SourceURL = "Image upload: " + first.Filename
	} else {
		r.SourceURL = fmt.Sprintf("Multiple image upload: %d images", n)
	}
	return &draft{recipe: r, strategy: "ocr"}, nil
}

func (e *Extractor) fromPDF(ctx context.Context, src Source) (*draft, error) {
	f := src.PDF
	if f == nil || len(f.Data) == 0 {
		return nil, common.NewValidationError("file", "No PDF file provided")
	}
	if !strings.EqualFold(filepath.Ext(f.Filename), ".pdf") {
		return nil, common.NewValidationError("file", "File must be a PDF")
	}
	if int64(len(f.Data)) > e.maxPDFBytes {
		return nil, common.NewValidationError("file", fmt.Sprintf("PDF exceeds maximum size of %d MB", e.maxPDFBytes/(1024*1024)))
	}

	text, method, err := e.pdfText(ctx, f.Data)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, common.NewValidationError("file", "No readable text found in PDF")
	}

	r, err := e.structurer.Structure(ctx, text, src.Instructions, false)
	if err != nil {
		return nil, err
	}
	r.SourceURL = "PDF: " + f.Filename
	return &draft{recipe: r, strategy: method}, nil
}

func (e *Extractor) fromText(ctx context.Context, src Source) (*draft, error) {
	text := strings.TrimSpace(src.Text)
	if len([]rune(text)) < minTextLength {
		return nil, common.NewValidationError("text", fmt.Sprintf("Text must be at least %d characters", minTextLength))
	}

	r, err := e.structurer.Structure(ctx, text, src.Instructions, false)
	if err != nil {
		return nil, err
	}
	r.SourceURL = "Text input"
	return &draft{recipe: r, strategy: "text"}, nil
}

// extractKey 同一網址搭配不同的額外指示分開快取
func extractKey(pageURL, instructions string) string {
	return cache.Key("extract", pageURL, strings.TrimSpace(instructions))
}

// cached 讀取先前擷取過的 URL
func (e *Extractor) cached(ctx context.Context, key string) *draft {
	if e.cache == nil {
		return nil
	}
	val, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var r recipe.Recipe
	if err := common.ParseJSON(val, &r); err != nil {
		common.LogWarn("擷取快取內容無效", zap.Error(err))
		return nil
	}
	return &draft{recipe: &r, strategy: "cache", cacheHit: true}
}

func (e *Extractor) remember(ctx context.Context, key string, r *recipe.Recipe) {
	if e.cache == nil {
		return
	}
	val, err := common.ToJSON(r)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, val); err != nil {
		common.LogWarn("寫入擷取快取失敗", zap.Error(err))
	}
}

func (e *Extractor) observe(kind Kind, outcome string, start time.Time) {
	if e.metrics != nil {
		e.metrics.ExtractionObserved(string(kind), outcome, time.Since(start))
	}
}
