package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"jurisync/internal/domain/entity"
)

var (
	// ErrUnauthorized means the partner rejected our credentials (401).
	// It aborts the whole pass for that service and is not retried.
	ErrUnauthorized = errors.New("partner rejected credentials")
)

// APIError carries the HTTP status and raw body of a failed partner call
// so the sync log has something useful to record.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("partner call failed with status %d: %s", e.StatusCode, truncate(e.Body, 300))
}

// Session is the result of one /AutenticaAPI exchange. Tokens are short-lived
// and never cached across orchestration runs; every run authenticates again.
type Session struct {
	Service   *entity.PartnerService
	Token     string
	ExpiresAt int64 // epoch millis from the token's exp claim, 0 if opaque
}

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

type authRequest struct {
	NomeRelacional string `json:"nomeRelacional"`
	Token          string `json:"token"`
}

type authResponse struct {
	Token string `json:"token" xml:"token"`
}

// Authenticate exchanges the service's relational name and static token for a
// bearer token valid for the duration of the current pass.
func (c *Client) Authenticate(ctx context.Context, svc *entity.PartnerService) (*Session, error) {
	var resp authResponse
	err := c.post(ctx, svc.BaseURL+"/AutenticaAPI", nil, &authRequest{
		NomeRelacional: svc.RelationalName,
		Token:          svc.StaticToken,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Body: "authentication returned an empty token"}
	}

	return &Session{
		Service:   svc,
		Token:     resp.Token,
		ExpiresAt: tokenExpiry(resp.Token),
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature. Partners
// sign their own tokens; we only track the expiry for bookkeeping.
func tokenExpiry(token string) int64 {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.UnixMilli()
}

// FetchProcesses pulls the next batch of process records. The partner keeps
// re-delivering every record until it is confirmed.
func (c *Client) FetchProcesses(ctx context.Context, s *Session, limit int) ([]*ProcessRecord, error) {
	var records []*ProcessRecord
	err := c.get(ctx, s, "/BuscaProcessos", pullQuery(s, limit), &records)
	return records, err
}

func (c *Client) FetchDistributions(ctx context.Context, s *Session, limit int) ([]*DistributionRecord, error) {
	var records []*DistributionRecord
	err := c.get(ctx, s, "/BuscaDistribuicoes", pullQuery(s, limit), &records)
	return records, err
}

func (c *Client) FetchPublications(ctx context.Context, s *Session, limit int) ([]*PublicationRecord, error) {
	var records []*PublicationRecord
	err := c.get(ctx, s, "/BuscaPublicacoes", pullQuery(s, limit), &records)
	return records, err
}

// RegisterProcess submits a process number for partner-side validation. The
// caller must have checked the CNJ format already; the partner answers with
// its own status code and message.
func (c *Client) RegisterProcess(ctx context.Context, s *Session, number string) (*RegistrationRecord, error) {
	var record RegistrationRecord
	err := c.post(ctx, s.Service.BaseURL+"/CadastraProcesso", s, map[string]string{
		"numeroProcesso": number,
	}, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ConfirmReceipt acknowledges (confirmar=true) or reverts (confirmar=false)
// a list of partner-assigned codes for one domain. A revert causes the codes
// to be re-offered on the next pull.
func (c *Client) ConfirmReceipt(ctx context.Context, s *Session, domain entity.ServiceType, codes []int64, confirmar bool) error {
	suffix, err := confirmSuffix(domain)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("nomeRelacional", s.Service.RelationalName)
	q.Set("token", s.Token)
	q.Set("confirmar", strconv.FormatBool(confirmar))

	endpoint := fmt.Sprintf("%s/confirmaRecebimento%s?%s", s.Service.BaseURL, suffix, q.Encode())
	return c.post(ctx, endpoint, s, codes, nil)
}

func confirmSuffix(domain entity.ServiceType) (string, error) {
	switch domain {
	case entity.ServiceProcesses:
		return "Processos", nil
	case entity.ServiceDistributions:
		return "Distribuicoes", nil
	case entity.ServicePublications:
		return "Publicacoes", nil
	default:
		return "", fmt.Errorf("domain %q has no confirmation endpoint", domain)
	}
}

/*
 * Term management. All calls carry the session bearer token.
 */

type termRequest struct {
	Nome string `json:"nome"`
}

func (c *Client) RegisterTerm(ctx context.Context, s *Session, term string, kind entity.TermKind) error {
	return c.post(ctx, s.Service.BaseURL+termEndpoint("Cadastrar", kind), s, &termRequest{Nome: term}, nil)
}

func (c *Client) ActivateTerm(ctx context.Context, s *Session, term string, kind entity.TermKind) error {
	return c.post(ctx, s.Service.BaseURL+termEndpoint("Ativar", kind), s, &termRequest{Nome: term}, nil)
}

func (c *Client) DeactivateTerm(ctx context.Context, s *Session, term string, kind entity.TermKind) error {
	return c.post(ctx, s.Service.BaseURL+termEndpoint("Desativar", kind), s, &termRequest{Nome: term}, nil)
}

func (c *Client) DeleteTerm(ctx context.Context, s *Session, term string, kind entity.TermKind) error {
	return c.post(ctx, s.Service.BaseURL+termEndpoint("Excluir", kind), s, &termRequest{Nome: term}, nil)
}

func termEndpoint(action string, kind entity.TermKind) string {
	if kind == entity.TermEscritorio {
		return "/" + action + "Escritorio"
	}
	return "/" + action + "Nome"
}

// FetchCoverages lists the courts and diaries the partner service covers.
func (c *Client) FetchCoverages(ctx context.Context, s *Session) ([]*CoverageRecord, error) {
	var records []*CoverageRecord
	err := c.get(ctx, s, "/BuscaAbrangencias", url.Values{}, &records)
	return records, err
}

/*
 * Transport plumbing
 */

func pullQuery(s *Session, limit int) url.Values {
	q := url.Values{}
	q.Set("nomeRelacional", s.Service.RelationalName)
	q.Set("token", s.Token)
	q.Set("quantidade", strconv.Itoa(limit))
	return q
}

func (c *Client) get(ctx context.Context, s *Session, path string, query url.Values, out any) error {
	endpoint := s.Service.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	return c.do(req, out)
}

// post issues an authenticated POST. A nil session means the call carries no
// bearer header (only /AutenticaAPI does that).
func (c *Client) post(ctx context.Context, endpoint string, s *Session, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	return decodeBody(resp.Header.Get("Content-Type"), body, out)
}

// decodeBody picks the decoder from the response content type. Partners answer
// in JSON most of the time but some of the older SOAP gateways still emit XML.
func decodeBody(contentType string, body []byte, out any) error {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case strings.Contains(mediaType, "json"):
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("malformed JSON response: %w", err)
		}
	case strings.Contains(mediaType, "xml"):
		if err := xml.Unmarshal(body, out); err != nil {
			return fmt.Errorf("malformed XML response: %w", err)
		}
	default:
		// Last resort: most partners forget the header and send JSON anyway.
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unsupported response content type %q", contentType)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
