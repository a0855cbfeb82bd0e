package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jurisync/internal/domain/entity"
)

type fakeDocumentRepo struct {
	processes map[int64]*entity.Process
	docs      []*entity.ProcessDocument
	saved     []*entity.ProcessDocument
}

func (f *fakeDocumentRepo) FindUnmaterialized(limit int) ([]*entity.ProcessDocument, error) {
	if len(f.docs) > limit {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeDocumentRepo) FindByID(id int64) (*entity.Process, error) {
	return f.processes[id], nil
}

func (f *fakeDocumentRepo) SaveDocument(doc *entity.ProcessDocument) error {
	f.saved = append(f.saved, doc)
	return nil
}

type fakeStore struct {
	uploads map[string][]byte
}

func (f *fakeStore) UploadDocument(_ context.Context, key string, data []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = data
	return "https://bucket.s3.sa-east-1.amazonaws.com/" + key, nil
}

func TestMaterializerStoresDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	repo := &fakeDocumentRepo{
		processes: map[int64]*entity.Process{
			10: {ID: 10, PartnerCode: 555},
		},
		docs: []*entity.ProcessDocument{
			{ID: 1, ProcessID: 10, PartnerCode: 77, Name: "peticao.pdf", DocumentoURL: srv.URL + "/doc"},
		},
	}
	store := &fakeStore{}
	m := NewDocumentMaterializer(repo, store, 5*time.Second)

	result, err := m.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stored)
	assert.Zero(t, result.Expired)
	assert.Zero(t, result.Failed)

	require.Len(t, repo.saved, 1)
	doc := repo.saved[0]
	assert.Equal(t, "555/77.pdf", doc.StoragePath)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), doc.TamanhoBytes)
	assert.Contains(t, doc.DocumentoURL, "555/77.pdf")
	assert.Contains(t, store.uploads, "555/77.pdf")
	assert.True(t, doc.Available())
}

func TestMaterializerDetectsExpiredLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Documento expirado ou indisponível</body></html>"))
	}))
	defer srv.Close()

	repo := &fakeDocumentRepo{
		processes: map[int64]*entity.Process{10: {ID: 10, PartnerCode: 555}},
		docs: []*entity.ProcessDocument{
			{ID: 1, ProcessID: 10, PartnerCode: 77, DocumentoURL: srv.URL + "/doc"},
		},
	}
	store := &fakeStore{}
	m := NewDocumentMaterializer(repo, store, 5*time.Second)

	result, err := m.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Expired)
	assert.Zero(t, result.Stored)
	// Nothing uploaded, nothing saved: the document stays eligible for retry.
	assert.Empty(t, store.uploads)
	assert.Empty(t, repo.saved)
}

// A large HTML body containing the marker is real content, not the sentinel.
func TestExpirySentinelSizeBound(t *testing.T) {
	small := []byte("<html>documento EXPIRADO ou indisponível</html>")
	assert.True(t, isExpirySentinel(small, "text/html"))

	big := append(small, make([]byte, sentinelMaxBytes)...)
	assert.False(t, isExpirySentinel(big, "text/html"))

	assert.False(t, isExpirySentinel(small, "application/pdf"))
}

func TestMaterializerBatchIsolation(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	repo := &fakeDocumentRepo{
		processes: map[int64]*entity.Process{10: {ID: 10, PartnerCode: 1}},
		docs: []*entity.ProcessDocument{
			{ID: 1, ProcessID: 10, PartnerCode: 1, DocumentoURL: srv.URL + "/bad"},
			{ID: 2, ProcessID: 10, PartnerCode: 2, DocumentoURL: srv.URL + "/good"},
		},
	}
	m := NewDocumentMaterializer(repo, &fakeStore{}, 5*time.Second)

	result, err := m.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "document 1")
}

func TestDeriveExtension(t *testing.T) {
	cases := []struct {
		name        string
		fileName    string
		url         string
		contentType string
		want        string
	}{
		{"from file name", "inicial.pdf", "https://x.test/d?id=1", "", ".pdf"},
		{"from url path", "", "https://x.test/files/doc.tiff", "", ".tiff"},
		{"from query file name", "", "https://x.test/d?nomeArquivo=laudo.png", "", ".png"},
		{"from bare query extension", "", "https://x.test/d?extensao=pdf", "", ".pdf"},
		{"from content type", "", "https://x.test/d?id=1", "application/pdf; charset=binary", ".pdf"},
		{"binary fallback", "", "https://x.test/d?id=1", "application/octet-stream", ".bin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveExtension(tc.fileName, tc.url, tc.contentType))
		})
	}
}
