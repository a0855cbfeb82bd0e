package partner

import (
	"encoding/json"
	"time"

	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
)

// Raw partner payloads. Everything crossing this boundary is converted into
// a typed entity before persistence; handlers and services never see these.

type ProcessRecord struct {
	Codigo         int64              `json:"codigo" xml:"codigo"`
	NumeroProcesso string             `json:"numeroProcesso" xml:"numeroProcesso"`
	Status         int                `json:"status" xml:"status"`
	Mensagem       string             `json:"mensagem" xml:"mensagem"`
	Documentos     []*DocumentoRecord `json:"documentos" xml:"documentos>documento"`

	// Sub-resources kept verbatim in the raw snapshot; the data API exposes
	// them through the include parameter without interpreting them.
	Movimentos json.RawMessage `json:"movimentos,omitempty" xml:"-"`
	Partes     json.RawMessage `json:"partes,omitempty" xml:"-"`
	Capa       json.RawMessage `json:"capa,omitempty" xml:"-"`
}

type DocumentoRecord struct {
	Codigo       int64  `json:"codigo" xml:"codigo"`
	Nome         string `json:"nome" xml:"nome"`
	URLDocumento string `json:"urlDocumento" xml:"urlDocumento"`
	Tamanho      int64  `json:"tamanho" xml:"tamanho"`
}

// RegistrationRecord is the partner's answer to a CadastraProcesso call.
type RegistrationRecord struct {
	Codigo   int64  `json:"codigo" xml:"codigo"`
	Status   int    `json:"status" xml:"status"`
	Mensagem string `json:"mensagem" xml:"mensagem"`
}

type DistributionRecord struct {
	Codigo           int64  `json:"codigo" xml:"codigo"`
	NumeroProcesso   string `json:"numeroProcesso" xml:"numeroProcesso"`
	Vara             string `json:"vara" xml:"vara"`
	DataDistribuicao string `json:"dataDistribuicao" xml:"dataDistribuicao"`
}

type PublicationRecord struct {
	Codigo          int64  `json:"codigo" xml:"codigo"`
	NumeroProcesso  string `json:"numeroProcesso" xml:"numeroProcesso"`
	Diario          string `json:"diario" xml:"diario"`
	DataPublicacao  string `json:"dataPublicacao" xml:"dataPublicacao"`
	TermoEncontrado string `json:"termoEncontrado" xml:"termoEncontrado"`
	Conteudo        string `json:"conteudo" xml:"conteudo"`
}

type CoverageRecord struct {
	Codigo int64  `json:"codigo" xml:"codigo"`
	Nome   string `json:"nome" xml:"nome"`
	Tipo   string `json:"tipo" xml:"tipo"`
	UF     string `json:"uf" xml:"uf"`
}

func (r *ProcessRecord) ToDomain(serviceID int64) *entity.Process {
	now := utils.NowUTC()
	raw, _ := json.Marshal(r)

	p := &entity.Process{
		Number:            r.NumeroProcesso,
		PartnerCode:       r.Codigo,
		PartnerServiceID:  serviceID,
		StatusCode:        entity.ProcessStatus(r.Status),
		StatusDescription: r.Mensagem,
		RawData:           raw,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for _, d := range r.Documentos {
		p.Documents = append(p.Documents, &entity.ProcessDocument{
			PartnerCode:  d.Codigo,
			Name:         d.Nome,
			DocumentoURL: d.URLDocumento,
			TamanhoBytes: d.Tamanho,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return p
}

func (r *DistributionRecord) ToDomain(serviceID int64) *entity.Distribution {
	now := utils.NowUTC()
	raw, _ := json.Marshal(r)

	return &entity.Distribution{
		PartnerCode:      r.Codigo,
		PartnerServiceID: serviceID,
		ProcessNumber:    r.NumeroProcesso,
		Court:            r.Vara,
		DistributedAt:    parsePartnerDate(r.DataDistribuicao),
		RawData:          raw,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (r *PublicationRecord) ToDomain(serviceID int64) *entity.Publication {
	now := utils.NowUTC()
	raw, _ := json.Marshal(r)

	return &entity.Publication{
		PartnerCode:      r.Codigo,
		PartnerServiceID: serviceID,
		ProcessNumber:    r.NumeroProcesso,
		Diary:            r.Diario,
		PublishedAt:      parsePartnerDate(r.DataPublicacao),
		MatchedTerm:      r.TermoEncontrado,
		Content:          r.Conteudo,
		RawData:          raw,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// parsePartnerDate accepts the two formats seen in the wild. An unparseable
// date becomes 0 rather than failing the whole record.
func parsePartnerDate(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().UnixMilli()
		}
	}
	return 0
}
