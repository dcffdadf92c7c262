package repo

import "time"

const (
	// Status possíveis de um token de acesso.
	TokenPendente = "pendente"
	TokenUsado    = "usado"
	TokenExpirado = "expirado"
)

// Servidor representa um policial cadastrado, chaveado pela matrícula.
// Dados de referência: este núcleo nunca cria ou altera servidores.
type Servidor struct {
	Matricula string  `json:"matricula"`
	Nome      string  `json:"nome"`
	Email     string  `json:"email"`
	Cargo     *string `json:"cargo,omitempty"`
	Classe    *string `json:"classe,omitempty"`
	Lotacao   *string `json:"lotacao,omitempty"`
	Ativo     bool    `json:"ativo"`
}

// TokenAcesso é o código de uso único enviado por email no login.
type TokenAcesso struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Expiracao time.Time `json:"expiracao"`
	Status    string    `json:"status"`
}

// Sessao guarda a identidade resolvida a cada requisição autenticada.
type Sessao struct {
	SessionID string    `json:"session_id"`
	Matricula string    `json:"matricula"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	Lotacao   *string   `json:"lotacao,omitempty"`
	Cargo     *string   `json:"cargo,omitempty"`
	CriadoEm  time.Time `json:"criado_em"`
	ExpiraEm  time.Time `json:"expira_em"`
}

// Usuario é o recorte da sessão injetado no contexto das requisições.
type Usuario struct {
	Matricula string  `json:"matricula"`
	Nome      string  `json:"nome"`
	Email     string  `json:"email"`
	Lotacao   *string `json:"lotacao,omitempty"`
	Cargo     *string `json:"cargo,omitempty"`
}

// Delegacia é uma unidade policial disponível para seleção no formulário.
type Delegacia struct {
	Nome string `json:"nome"`
}
