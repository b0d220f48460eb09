// Package content materializes a material reference into text. Materials are
// heterogeneous (scanned PDFs, plain text, misnamed files), so the reader is
// best-effort: a PDF that cannot be parsed degrades to a raw decode, and
// invalid UTF-8 degrades to replacement runes instead of failing the
// broader quiz-building workflow.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"quizard-tools/internal/cache"
	"quizard-tools/internal/domain"
	"quizard-tools/internal/storageurl"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Outcome tags how the returned text was produced, so callers can tell
// degraded output from a clean extraction.
type Outcome string

const (
	// OutcomeExtracted means structured PDF text extraction succeeded.
	OutcomeExtracted Outcome = "extracted"
	// OutcomeText means the payload decoded as valid UTF-8.
	OutcomeText Outcome = "text"
	// OutcomeSanitized means invalid UTF-8 was re-decoded with
	// replacement runes.
	OutcomeSanitized Outcome = "sanitized"
)

// Result is the materialized form of one content reference.
type Result struct {
	Text    string  `json:"text"`
	Outcome Outcome `json:"outcome"`
}

// ObjectStore is the port through which object-storage payloads are fetched.
type ObjectStore interface {
	FetchObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// Reader resolves a content reference and turns the payload into text.
type Reader struct {
	store    ObjectStore
	client   *http.Client
	cache    domain.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewReader creates a Reader. cache may be nil, in which case materialized
// text is not cached. The client must carry a bounded timeout; generic URL
// fetches have no other cancellation point.
func NewReader(store ObjectStore, client *http.Client, cacheAdapter domain.Cache, cacheTTL time.Duration, log *zap.Logger) *Reader {
	return &Reader{
		store:    store,
		client:   client,
		cache:    cacheAdapter,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// Read materializes the content behind fileURL. Object-storage references
// are fetched through the store; anything else is fetched with a plain GET.
// Only the fetch itself can fail; every decoding problem degrades to a
// tagged Result instead of an error.
func (r *Reader) Read(ctx context.Context, fileURL string) (Result, error) {
	if cached, ok := r.cacheGet(ctx, fileURL); ok {
		return cached, nil
	}

	loc := storageurl.Resolve(fileURL)

	var (
		data        []byte
		contentType string
		err         error
	)
	if !loc.IsZero() {
		data, err = r.store.FetchObject(ctx, loc.Bucket, loc.Object)
		if err != nil {
			return Result{}, domain.NewContentUnreadableError(fileURL, err)
		}
	} else {
		data, contentType, err = r.fetchHTTP(ctx, fileURL)
		if err != nil {
			return Result{}, err
		}
	}

	result := materialize(data, fileURL, contentType)
	r.cacheSet(ctx, fileURL, result)
	return result, nil
}

func (r *Reader) fetchHTTP(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", domain.NewContentUnreadableError(fileURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", domain.NewContentUnreadableError(fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", domain.NewContentUnreadableError(fileURL,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", domain.NewContentUnreadableError(fileURL, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// materialize decides PDF-ness and produces the tagged text result.
func materialize(data []byte, fileURL, contentType string) Result {
	if isPDF(data, fileURL, contentType) {
		if text, err := extractPDFText(data); err == nil && text != "" {
			return Result{Text: text, Outcome: OutcomeExtracted}
		}
		// Extraction failures fall through to the raw decode.
	}

	if utf8.Valid(data) {
		return Result{Text: string(data), Outcome: OutcomeText}
	}
	return Result{Text: strings.ToValidUTF8(string(data), string(utf8.RuneError)), Outcome: OutcomeSanitized}
}

// isPDF is true when the payload carries the %PDF signature, the URL ends
// in .pdf, or (HTTP path only) the response announced application/pdf.
func isPDF(data []byte, fileURL, contentType string) bool {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return true
	}
	if strings.HasSuffix(strings.ToLower(fileURL), ".pdf") {
		return true
	}
	return contentType != "" && strings.HasPrefix(strings.ToLower(contentType), "application/pdf")
}

// extractPDFText extracts per-page text in page order, joined with a blank
// line. The pdf package can panic on malformed documents; that is treated
// the same as any other extraction failure.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("pdf extraction panicked: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			pageText = ""
		}
		pages = append(pages, pageText)
	}

	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}

func (r *Reader) cacheGet(ctx context.Context, fileURL string) (Result, bool) {
	if r.cache == nil {
		return Result{}, false
	}
	raw, err := r.cache.Get(ctx, cache.MaterialContentKey(fileURL))
	if err != nil {
		if err != domain.ErrCacheMiss {
			r.logger.Warn("content cache lookup failed", zap.Error(err))
		}
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		r.logger.Warn("discarding undecodable content cache entry", zap.Error(err))
		return Result{}, false
	}
	return result, true
}

func (r *Reader) cacheSet(ctx context.Context, fileURL string, result Result) {
	if r.cache == nil {
		return
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cache.MaterialContentKey(fileURL), string(encoded), r.cacheTTL); err != nil {
		// The cache is advisory; a write failure never blocks materialization.
		r.logger.Warn("content cache write failed", zap.Error(err))
	}
}
