package leilao

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CarroStatus is the availability state of a vehicle.
type CarroStatus string

const (
	CarroApto          CarroStatus = "APTO"
	CarroVinculado     CarroStatus = "VINCULADO"
	CarroIndisponivel  CarroStatus = "INDISPONIVEL"
	CarroArrematado    CarroStatus = "ARREMATADO"
	CarroNaoArrematado CarroStatus = "NAO_ARREMATADO"
)

// LoteStatus is the state of a lot inside an auction.
type LoteStatus string

const (
	LoteApto          LoteStatus = "APTO"
	LoteVinculado     LoteStatus = "VINCULADO"
	LoteArrematado    LoteStatus = "ARREMATADO"
	LoteNaoArrematado LoteStatus = "NAO_ARREMATADO"
)

// LeilaoStatus is the lifecycle state of an auction.
type LeilaoStatus string

const (
	StatusRascunho   LeilaoStatus = "RASCUNHO"
	StatusPublicado  LeilaoStatus = "PUBLICADO"
	StatusFinalizado LeilaoStatus = "FINALIZADO"
)

// Entidade names the kind of record an audit event refers to.
type Entidade string

const (
	EntidadeLeilao Entidade = "leilao"
	EntidadeCarro  Entidade = "carro"
	EntidadeLote   Entidade = "lote"
)

// TipoPrestacao is the document kind of an accountability report.
type TipoPrestacao string

const (
	TipoPDF      TipoPrestacao = "pdf"
	TipoPlanilha TipoPrestacao = "planilha"
)

// JSONStringSlice is a []string stored as a JSON text column.
type JSONStringSlice []string

// Scan implements the sql.Scanner interface for JSONStringSlice.
func (s *JSONStringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for JSONStringSlice: %T", value)
	}
	return json.Unmarshal(raw, s)
}

// Value implements the driver.Valuer interface for JSONStringSlice.
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(value any, dst any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for JSON column: %T", value)
	}
	return json.Unmarshal(raw, dst)
}

func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Carro is a seized or forfeited vehicle tracked independently of any auction.
type Carro struct {
	ID           string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Placa        string          `gorm:"column:placa;uniqueIndex;not null" json:"placa"`
	Chassi       string          `gorm:"column:chassi" json:"chassi"`
	Ano          int             `gorm:"column:ano" json:"ano"`
	Cor          string          `gorm:"column:cor" json:"cor"`
	Tipo         string          `gorm:"column:tipo" json:"tipo"`
	Marca        string          `gorm:"column:marca" json:"marca"`
	Modelo       string          `gorm:"column:modelo" json:"modelo"`
	Status       CarroStatus     `gorm:"column:status;index;not null" json:"status"`
	Fotos        JSONStringSlice `gorm:"column:fotos;type:text" json:"fotos"`
	ValorInicial decimal.Decimal `gorm:"column:valor_inicial;type:decimal(14,2)" json:"valorInicial"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Carro) TableName() string { return "carros" }

// Leiloeiro is an auctioneer designated to record lot results.
type Leiloeiro struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Nome      string    `gorm:"column:nome;not null" json:"nome"`
	Email     string    `gorm:"column:email" json:"email"`
	Ativo     bool      `gorm:"column:ativo" json:"ativo"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Leiloeiro) TableName() string { return "leiloeiros" }

// Resultado is the outcome recorded for a lot.
type Resultado struct {
	Status        LoteStatus      `json:"status"`
	Arrematante   string          `json:"arrematante,omitempty"`
	Documento     string          `json:"documento,omitempty"`
	ValorArremate decimal.Decimal `json:"valorArremate"`
	Observacao    string          `json:"observacao,omitempty"`
}

// Scan implements the sql.Scanner interface for Resultado.
func (r *Resultado) Scan(value any) error {
	return scanJSON(value, r)
}

// Value implements the driver.Valuer interface for Resultado.
func (r Resultado) Value() (driver.Value, error) {
	return valueJSON(r)
}

// Lote is one vehicle entered into one auction.
type Lote struct {
	ID           string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	LeilaoID     string          `gorm:"column:leilao_id;uniqueIndex:idx_lote_numero,priority:1;not null" json:"leilaoId"`
	Numero       int             `gorm:"column:numero;uniqueIndex:idx_lote_numero,priority:2;not null" json:"numero"`
	CarroID      string          `gorm:"column:carro_id;index;not null" json:"carroId"`
	ValorInicial decimal.Decimal `gorm:"column:valor_inicial;type:decimal(14,2)" json:"valorInicial"`
	Status       LoteStatus      `gorm:"column:status;not null" json:"status"`
	Resultado    *Resultado      `gorm:"column:resultado;type:text" json:"resultado,omitempty"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Lote) TableName() string { return "lotes" }

// Publicacao is the public notice of an auction.
type Publicacao struct {
	Data  time.Time `json:"data"`
	Local string    `json:"local"`
	Anexo string    `json:"anexo,omitempty"`
}

// Scan implements the sql.Scanner interface for Publicacao.
func (p *Publicacao) Scan(value any) error {
	return scanJSON(value, p)
}

// Value implements the driver.Valuer interface for Publicacao.
func (p Publicacao) Value() (driver.Value, error) {
	return valueJSON(p)
}

// Leilao is the auction aggregate. Lotes are owned exclusively by it.
type Leilao struct {
	ID          string       `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Titulo      string       `gorm:"column:titulo;not null" json:"titulo"`
	Codigo      string       `gorm:"column:codigo;uniqueIndex;not null" json:"codigo"`
	Data        time.Time    `gorm:"column:data" json:"data"`
	Status      LeilaoStatus `gorm:"column:status;index;not null" json:"status"`
	LeiloeiroID string       `gorm:"column:leiloeiro_id;index" json:"leiloeiroId"`
	Observacoes string       `gorm:"column:observacoes;type:text" json:"observacoes,omitempty"`
	Publicacao  *Publicacao  `gorm:"column:publicacao;type:text" json:"publicacao,omitempty"`
	Lotes       []Lote       `gorm:"foreignKey:LeilaoID" json:"lotes"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	// ResultadosCompletos is filled from Lotes on every read and never persisted.
	ResultadosCompletos bool `gorm:"-" json:"resultadosCompletos"`
}

// TableName returns the GORM table name.
func (Leilao) TableName() string { return "leiloes" }

// AuditEvent is an immutable entry of the audit trail.
type AuditEvent struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Data        time.Time `gorm:"column:data;index;not null" json:"data"`
	Usuario     string    `gorm:"column:usuario;not null" json:"usuario"`
	UsuarioRole string    `gorm:"column:usuario_role;index;not null" json:"usuarioRole"`
	Acao        string    `gorm:"column:acao;not null" json:"acao"`
	Entidade    Entidade  `gorm:"column:entidade;index;not null" json:"entidade"`
	EntidadeID  string    `gorm:"column:entidade_id;index" json:"entidadeId"`
	Detalhes    string    `gorm:"column:detalhes;type:text" json:"detalhes"`
}

// TableName returns the GORM table name.
func (AuditEvent) TableName() string { return "audit_events" }

// PrestacaoContas is the metadata record of a generated accountability report.
type PrestacaoContas struct {
	ID          string        `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	LeilaoID    string        `gorm:"column:leilao_id;uniqueIndex:idx_prestacao_versao,priority:1;not null" json:"leilaoId"`
	Tipo        TipoPrestacao `gorm:"column:tipo;uniqueIndex:idx_prestacao_versao,priority:2;not null" json:"tipo"`
	Versao      int           `gorm:"column:versao;uniqueIndex:idx_prestacao_versao,priority:3;not null" json:"versao"`
	DataGeracao time.Time     `gorm:"column:data_geracao;not null" json:"dataGeracao"`
	Usuario     string        `gorm:"column:usuario;not null" json:"usuario"`
	Documento   string        `gorm:"column:documento" json:"documento,omitempty"`
}

// TableName returns the GORM table name.
func (PrestacaoContas) TableName() string { return "prestacoes_contas" }

// Actor identifies who performs a mutation; it is copied into audit events.
type Actor struct {
	Usuario string
	Role    string
}

// SystemActor is used when no request identity is available.
var SystemActor = Actor{Usuario: "system", Role: "system"}
