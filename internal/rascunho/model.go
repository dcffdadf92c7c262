package rascunho

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNaoEncontrado indica rascunho inexistente ou expirado.
	ErrNaoEncontrado = errors.New("rascunho não encontrado ou expirado")
	// ErrCodigoInvalido indica código fora do formato R-XXXXXX.
	ErrCodigoInvalido = errors.New("código inválido")
)

const (
	StatusAtivo      = "ativo"
	StatusFinalizado = "finalizado"
)

// Rascunho guarda o estado de um formulário em andamento, resumível pelo
// código curto. O payload é um blob JSON opaco devolvido tal como gravado.
type Rascunho struct {
	ID        int64     `json:"id"`
	Codigo    string    `json:"codigo"`
	Matricula string    `json:"matricula"`
	DadosJSON string    `json:"dados_json"`
	Status    string    `json:"status"`
	CriadoEm  time.Time `json:"criado_em"`
	ExpiraEm  time.Time `json:"expira_em"`
}

// FormatCodigo monta o código de resumo do rascunho.
func FormatCodigo(id int64) string {
	return fmt.Sprintf("R-%06d", id)
}
