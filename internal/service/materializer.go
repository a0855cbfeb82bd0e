package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"jurisync/internal/domain/entity"
	"jurisync/internal/infrastructure/aws/storage"
	"jurisync/internal/utils"
)

const (
	DefaultDocumentBatch = 10

	// Partners answer expired document links with a tiny HTML page carrying
	// this marker instead of a proper 404.
	expirySentinel = "documento expirado ou indisponivel"

	sentinelMaxBytes = 2048
)

type DocumentRepository interface {
	FindUnmaterialized(limit int) ([]*entity.ProcessDocument, error)
	FindByID(id int64) (*entity.Process, error)
	SaveDocument(doc *entity.ProcessDocument) error
}

// MaterializeResult aggregates one materialization batch. A single document
// failing or turning out expired never aborts the rest of the batch.
type MaterializeResult struct {
	Stored  int      `json:"stored"`
	Expired int      `json:"expired"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// DocumentMaterializer copies externally hosted, possibly expiring documents
// into durable storage. Materialization is monotonic: a storage path, once
// set, is never cleared again.
type DocumentMaterializer struct {
	Repo       DocumentRepository
	Store      storage.DocumentStore
	httpClient *http.Client
}

func NewDocumentMaterializer(repo DocumentRepository, store storage.DocumentStore, timeout time.Duration) *DocumentMaterializer {
	return &DocumentMaterializer{
		Repo:       repo,
		Store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Run picks up to batch unmaterialized documents and processes each in turn.
func (m *DocumentMaterializer) Run(ctx context.Context, batch int) (*MaterializeResult, error) {
	if batch <= 0 {
		batch = DefaultDocumentBatch
	}

	docs, err := m.Repo.FindUnmaterialized(batch)
	if err != nil {
		return nil, err
	}

	result := &MaterializeResult{}
	for _, doc := range docs {
		if err := m.materialize(ctx, doc); err != nil {
			if isExpiredErr(err) {
				result.Expired++
			} else {
				result.Failed++
			}
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("document %d: %v", doc.ID, err))
			}
			continue
		}
		result.Stored++
	}
	return result, nil
}

type expiredError struct{ url string }

func (e *expiredError) Error() string {
	return "partner link expired: " + e.url
}

func isExpiredErr(err error) bool {
	_, ok := err.(*expiredError)
	return ok
}

func (m *DocumentMaterializer) materialize(ctx context.Context, doc *entity.ProcessDocument) error {
	process, err := m.Repo.FindByID(doc.ProcessID)
	if err != nil {
		return err
	}
	if process == nil {
		return fmt.Errorf("document %d references missing process %d", doc.ID, doc.ProcessID)
	}

	data, contentType, err := m.fetch(ctx, doc.DocumentoURL)
	if err != nil {
		return err
	}

	ext := deriveExtension(doc.Name, doc.DocumentoURL, contentType)
	key := fmt.Sprintf("%d/%d%s", process.PartnerCode, doc.PartnerCode, ext)

	publicURL, err := m.Store.UploadDocument(ctx, key, data)
	if err != nil {
		return err
	}

	doc.StoragePath = key
	doc.DocumentoURL = publicURL
	doc.TamanhoBytes = int64(len(data))
	doc.UpdatedAt = utils.NowUTC()
	if err := m.Repo.SaveDocument(doc); err != nil {
		// The object is uploaded but the row was not updated; the next pass
		// re-uploads under the same deterministic key, so nothing is lost.
		log.Errorf("failed to persist storage path for document %d: %v", doc.ID, err)
		return err
	}
	return nil
}

func (m *DocumentMaterializer) fetch(ctx context.Context, docURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("document fetch failed with status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if isExpirySentinel(data, contentType) {
		return nil, "", &expiredError{url: docURL}
	}
	return data, contentType, nil
}

// isExpirySentinel detects the partner's "link expired" page: a short HTML
// body containing the known marker.
func isExpirySentinel(data []byte, contentType string) bool {
	if len(data) > sentinelMaxBytes {
		return false
	}
	if !strings.Contains(contentType, "html") {
		return false
	}
	return strings.Contains(normalize(string(data)), expirySentinel)
}

// normalize lower-cases and strips the accents partners use inconsistently.
func normalize(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(
		"á", "a", "ã", "a", "â", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u", "ç", "c",
	)
	return replacer.Replace(s)
}

// deriveExtension resolves a file extension through the fallback chain:
// declared filename, URL path, URL query parameter, content type, generic
// binary.
func deriveExtension(name, docURL, contentType string) string {
	if ext := path.Ext(name); ext != "" {
		return ext
	}

	if parsed, err := url.Parse(docURL); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" {
			return ext
		}
		for _, param := range []string{"ext", "extensao", "filename", "nomeArquivo"} {
			if v := parsed.Query().Get(param); v != "" {
				if ext := path.Ext(v); ext != "" {
					return ext
				}
				// Bare values like "pdf" appear too.
				if !strings.Contains(v, ".") && len(v) <= 5 {
					return "." + v
				}
			}
		}
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := knownMimeExtensions[mediaType]; ok {
			return ext
		}
	}
	return ".bin"
}

// knownMimeExtensions avoids mime.ExtensionsByType, whose answers vary by
// platform mime database.
var knownMimeExtensions = map[string]string{
	"application/pdf":  ".pdf",
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"image/tiff":       ".tiff",
	"text/html":        ".html",
	"text/plain":       ".txt",
	"application/zip":  ".zip",
	"application/xml":  ".xml",
	"application/json": ".json",
}
