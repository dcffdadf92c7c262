package plantao

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNaoEncontrado indica relatório inexistente.
	ErrNaoEncontrado = errors.New("relatório não encontrado")
	// ErrEstadoInvalido indica retificação sobre relatório não finalizado.
	ErrEstadoInvalido = errors.New("apenas relatórios finalizados podem ser retificados")
	// ErrValidacao indica campos obrigatórios ausentes.
	ErrValidacao = errors.New("preencha a unidade policial e os horários de entrada")
)

const (
	StatusRascunho   = "rascunho"
	StatusFinalizado = "finalizado"
	StatusRetificado = "retificado"

	EscalaNormal         = "Normal"
	EscalaExtraordinaria = "Extraordinaria"

	TipoIPFlagrante = "IP-FLAGRANTE"
	TipoIPPortaria  = "IP-PORTARIA"
	TipoTCO         = "TCO"
	TipoAIBOC       = "AI/BOC"
)

// Plantao é o relatório de um período de serviço. O protocolo é atribuído na
// primeira gravação e nunca muda, mesmo através de retificações.
type Plantao struct {
	ID                   int64     `json:"id"`
	Protocolo            *string   `json:"protocolo,omitempty"`
	MatriculaResponsavel string    `json:"matricula_responsavel"`
	NomeResponsavel      string    `json:"nome_responsavel"`
	Delegacia            string    `json:"delegacia"`
	DataEntrada          string    `json:"data_entrada"`
	HoraEntrada          string    `json:"hora_entrada"`
	DataSaida            *string   `json:"data_saida,omitempty"`
	HoraSaida            *string   `json:"hora_saida,omitempty"`
	Status               string    `json:"status"`
	Observacoes          *string   `json:"observacoes,omitempty"`
	QBO                  int       `json:"q_bo"`
	QGuias               int       `json:"q_guias"`
	QApreensoes          int       `json:"q_apreensoes"`
	QPresos              int       `json:"q_presos"`
	QMedidas             int       `json:"q_medidas"`
	QOutros              int       `json:"q_outros"`
	RetificacaoDe        *int64    `json:"retificacao_de,omitempty"`
	CriadoEm             time.Time `json:"criado_em"`
	AtualizadoEm         time.Time `json:"atualizado_em"`
}

// Membro é um integrante da equipe do plantão.
type Membro struct {
	ID               int64   `json:"id,omitempty"`
	PlantaoID        int64   `json:"plantao_id,omitempty"`
	NomeServidor     string  `json:"nome_servidor"`
	Matricula        *string `json:"matricula,omitempty"`
	Cargo            *string `json:"cargo,omitempty"`
	Classe           *string `json:"classe,omitempty"`
	Escala           string  `json:"escala"`
	DataEntrada      string  `json:"data_entrada"`
	HoraEntrada      string  `json:"hora_entrada"`
	DataSaida        *string `json:"data_saida,omitempty"`
	HoraSaida        *string `json:"hora_saida,omitempty"`
	HorasTrabalhadas float64 `json:"horas_trabalhadas"`
}

// Procedimento é um registro qualitativo de ocorrência do plantão.
// Vítimas e suspeitos são persistidos como arrays JSON.
type Procedimento struct {
	ID            int64    `json:"id,omitempty"`
	PlantaoID     int64    `json:"plantao_id,omitempty"`
	Tipo          string   `json:"tipo"`
	Numero        *string  `json:"numero,omitempty"`
	Natureza      string   `json:"natureza"`
	Envolvidos    *string  `json:"envolvidos,omitempty"`
	Resumo        *string  `json:"resumo,omitempty"`
	VitimasJSON   string   `json:"-"`
	SuspeitosJSON string   `json:"-"`
	Vitimas       []string `json:"vitimas"`
	Suspeitos     []string `json:"suspeitos"`
}

// FormatProtocolo monta o protocolo imutável do relatório.
func FormatProtocolo(id int64) string {
	return fmt.Sprintf("FT-%06d", id)
}

func decodeNomes(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var nomes []string
	if err := json.Unmarshal([]byte(raw), &nomes); err != nil || nomes == nil {
		return []string{}
	}
	return nomes
}

// HorasEntre calcula as horas trabalhadas entre entrada e saída.
// Devolve 0 quando algum dos instantes está ausente ou mal formado.
func HorasEntre(dataEntrada, horaEntrada, dataSaida, horaSaida string) float64 {
	const layout = "2006-01-02 15:04"
	inicio, err := time.Parse(layout, dataEntrada+" "+horaEntrada)
	if err != nil {
		return 0
	}
	fim, err := time.Parse(layout, dataSaida+" "+horaSaida)
	if err != nil {
		return 0
	}
	horas := fim.Sub(inicio).Hours()
	if horas < 0 {
		return 0
	}
	return horas
}
