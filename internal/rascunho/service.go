package rascunho

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Store isola a persistência do serviço de rascunhos.
type Store interface {
	Inserir(ctx context.Context, matricula, dadosJSON string, expiraEm time.Time) (string, error)
	BuscarAtivo(ctx context.Context, codigo string, now time.Time) (string, error)
	MarcarFinalizado(ctx context.Context, codigo string) error
}

// Service contém as regras do armazenamento de rascunhos.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// Salvar persiste o snapshot do formulário e devolve o código de resumo.
func (s *Service) Salvar(ctx context.Context, matricula string, dados json.RawMessage) (string, error) {
	if len(dados) == 0 {
		dados = json.RawMessage("{}")
	}
	return s.store.Inserir(ctx, matricula, string(dados), s.now().Add(s.ttl))
}

// Carregar devolve o payload do rascunho tal como foi gravado, para que o
// chamador repopule o formulário.
func (s *Service) Carregar(ctx context.Context, codigo string) (json.RawMessage, error) {
	codigo = strings.ToUpper(strings.TrimSpace(codigo))
	if !strings.HasPrefix(codigo, "R-") {
		return nil, ErrCodigoInvalido
	}

	dados, err := s.store.BuscarAtivo(ctx, codigo, s.now())
	if err != nil {
		return nil, err
	}
	return json.RawMessage(dados), nil
}

// Finalizar marca o rascunho como consumido. Código desconhecido é ignorado.
func (s *Service) Finalizar(ctx context.Context, codigo string) error {
	codigo = strings.ToUpper(strings.TrimSpace(codigo))
	if !strings.HasPrefix(codigo, "R-") {
		return ErrCodigoInvalido
	}
	return s.store.MarcarFinalizado(ctx, codigo)
}
