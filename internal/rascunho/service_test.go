package rascunho

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type memStore struct {
	rascunhos map[string]Rascunho
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{rascunhos: make(map[string]Rascunho)}
}

func (m *memStore) Inserir(ctx context.Context, matricula, dadosJSON string, expiraEm time.Time) (string, error) {
	m.nextID++
	codigo := FormatCodigo(m.nextID)
	m.rascunhos[codigo] = Rascunho{
		ID: m.nextID, Codigo: codigo, Matricula: matricula,
		DadosJSON: dadosJSON, Status: StatusAtivo,
		CriadoEm: time.Now(), ExpiraEm: expiraEm,
	}
	return codigo, nil
}

func (m *memStore) BuscarAtivo(ctx context.Context, codigo string, now time.Time) (string, error) {
	r, ok := m.rascunhos[codigo]
	if !ok || r.Status != StatusAtivo || !r.ExpiraEm.After(now) {
		return "", ErrNaoEncontrado
	}
	return r.DadosJSON, nil
}

func (m *memStore) MarcarFinalizado(ctx context.Context, codigo string) error {
	if r, ok := m.rascunhos[codigo]; ok {
		r.Status = StatusFinalizado
		m.rascunhos[codigo] = r
	}
	return nil
}

func TestSalvarGeraCodigoFormatado(t *testing.T) {
	svc := NewService(newMemStore(), 36*time.Hour)

	codigo, err := svc.Salvar(context.Background(), "123456", json.RawMessage(`{"delegacia":"CENTRAL"}`))
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if codigo != "R-000001" {
		t.Fatalf("código incorreto: %q", codigo)
	}
}

func TestCarregarDevolvePayloadVerbatim(t *testing.T) {
	svc := NewService(newMemStore(), 36*time.Hour)

	payload := `{"delegacia":"CENTRAL","equipe_0_nome":"FULANO"}`
	codigo, err := svc.Salvar(context.Background(), "123456", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	dados, err := svc.Carregar(context.Background(), codigo)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if string(dados) != payload {
		t.Fatalf("payload alterado: %q", string(dados))
	}
}

func TestCarregarCodigoForaDoFormato(t *testing.T) {
	svc := NewService(newMemStore(), 36*time.Hour)

	if _, err := svc.Carregar(context.Background(), "X-000001"); !errors.Is(err, ErrCodigoInvalido) {
		t.Fatalf("esperado ErrCodigoInvalido, veio %v", err)
	}
}

func TestCarregarNormalizaCodigo(t *testing.T) {
	svc := NewService(newMemStore(), 36*time.Hour)

	codigo, _ := svc.Salvar(context.Background(), "123456", json.RawMessage(`{}`))

	if _, err := svc.Carregar(context.Background(), "  r-000001 "); err != nil {
		t.Fatalf("código em caixa baixa com espaços deve resolver (%s): %v", codigo, err)
	}
}

func TestCarregarExpirado(t *testing.T) {
	svc := NewService(newMemStore(), 36*time.Hour)

	codigo, _ := svc.Salvar(context.Background(), "123456", json.RawMessage(`{}`))

	// A expiração é aplicada na leitura, sem limpeza em segundo plano.
	svc.now = func() time.Time { return time.Now().Add(37 * time.Hour) }

	if _, err := svc.Carregar(context.Background(), codigo); !errors.Is(err, ErrNaoEncontrado) {
		t.Fatalf("rascunho expirado deve falhar, veio %v", err)
	}
}

func TestFinalizarConsomeRascunho(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 36*time.Hour)

	codigo, _ := svc.Salvar(context.Background(), "123456", json.RawMessage(`{}`))

	if err := svc.Finalizar(context.Background(), codigo); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if _, err := svc.Carregar(context.Background(), codigo); !errors.Is(err, ErrNaoEncontrado) {
		t.Fatalf("rascunho finalizado não deve mais carregar, veio %v", err)
	}
}
