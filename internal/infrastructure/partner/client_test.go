package partner

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jurisync/internal/domain/entity"
)

func testPartnerService(baseURL string) *entity.PartnerService {
	return &entity.PartnerService{
		ID:             1,
		ServiceType:    entity.ServiceProcesses,
		BaseURL:        baseURL,
		RelationalName: "acme_advocacia",
		StaticToken:    "static-secret",
		Active:         true,
	}
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/AutenticaAPI", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "acme_advocacia", req["nomeRelacional"])
		assert.Equal(t, "static-secret", req["token"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"session-token"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	session, err := client.Authenticate(context.Background(), testPartnerService(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, "session-token", session.Token)
	assert.Zero(t, session.ExpiresAt, "opaque token has no readable expiry")
}

func TestAuthenticateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Authenticate(context.Background(), testPartnerService(srv.URL))

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":""}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Authenticate(context.Background(), testPartnerService(srv.URL))

	require.Error(t, err)
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestFetchProcessesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/BuscaProcessos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "acme_advocacia", q.Get("nomeRelacional"))
		assert.Equal(t, "session-token", q.Get("token"))
		assert.Equal(t, "500", q.Get("quantidade"))
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"codigo": 42, "numeroProcesso": "0000001-11.2020.1.01.0001", "status": 2,
			 "documentos": [{"codigo": 7, "nome": "inicial.pdf", "urlDocumento": "https://files.test/7", "tamanho": 1024}]}
		]`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	session := &Session{Service: testPartnerService(srv.URL), Token: "session-token"}

	records, err := client.FetchProcesses(context.Background(), session, 500)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, int64(42), rec.Codigo)
	assert.Equal(t, "0000001-11.2020.1.01.0001", rec.NumeroProcesso)
	require.Len(t, rec.Documentos, 1)
	assert.Equal(t, "inicial.pdf", rec.Documentos[0].Nome)
}

func TestConfirmReceipt(t *testing.T) {
	var (
		gotPath    string
		gotConfirm string
		gotCodes   []int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotConfirm = r.URL.Query().Get("confirmar")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotCodes)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	session := &Session{Service: testPartnerService(srv.URL), Token: "session-token"}

	err := client.ConfirmReceipt(context.Background(), session, entity.ServiceDistributions, []int64{1, 2, 3}, true)
	require.NoError(t, err)
	assert.Equal(t, "/confirmaRecebimentoDistribuicoes", gotPath)
	assert.Equal(t, "true", gotConfirm)
	assert.Equal(t, []int64{1, 2, 3}, gotCodes)

	err = client.ConfirmReceipt(context.Background(), session, entity.ServiceProcesses, []int64{9}, false)
	require.NoError(t, err)
	assert.Equal(t, "/confirmaRecebimentoProcessos", gotPath)
	assert.Equal(t, "false", gotConfirm)
}

func TestConfirmReceiptUnknownDomain(t *testing.T) {
	client := NewClient(5 * time.Second)
	session := &Session{Service: testPartnerService("http://unused.test"), Token: "t"}

	err := client.ConfirmReceipt(context.Background(), session, entity.ServiceTerms, []int64{1}, true)
	assert.Error(t, err)
}

// Older SOAP gateways answer XML; the decoder must follow the content type.
func TestDecodeXMLResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<resposta><token>xml-session</token></resposta>`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	session, err := client.Authenticate(context.Background(), testPartnerService(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "xml-session", session.Token)
}

func TestAPIErrorTruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		for i := 0; i < 100; i++ {
			_, _ = w.Write([]byte("0123456789"))
		}
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Authenticate(context.Background(), testPartnerService(srv.URL))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Less(t, len(apiErr.Error()), 400)
}

func TestParsePartnerDate(t *testing.T) {
	assert.Equal(t, int64(0), parsePartnerDate(""))
	assert.Equal(t, int64(0), parsePartnerDate("31/12/2020"))
	assert.NotZero(t, parsePartnerDate("2020-12-31"))
	assert.NotZero(t, parsePartnerDate("2020-12-31T15:04:05Z"))
}

func TestTermEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	session := &Session{Service: testPartnerService(srv.URL), Token: "t"}
	ctx := context.Background()

	require.NoError(t, client.RegisterTerm(ctx, session, "Fulano de Tal", entity.TermName))
	require.NoError(t, client.DeactivateTerm(ctx, session, "Fulano de Tal", entity.TermName))
	require.NoError(t, client.RegisterTerm(ctx, session, "Escritório X", entity.TermEscritorio))
	require.NoError(t, client.DeleteTerm(ctx, session, "Escritório X", entity.TermEscritorio))

	assert.Equal(t, []string{
		"/CadastrarNome",
		"/DesativarNome",
		"/CadastrarEscritorio",
		"/ExcluirEscritorio",
	}, paths)
}
