package plantao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dpisul/plantoes/internal/repo"
)

const (
	AcaoRascunho  = "rascunho"
	AcaoFinalizar = "finalizar"

	dashboardCacheKey = "plantao:dashboard"
	dashboardCacheTTL = 30 * time.Second
)

// PlantaoRepository isola o acesso a dados do ciclo de vida do plantão.
type PlantaoRepository interface {
	CriarCompleto(ctx context.Context, p Plantao, equipe []Membro, procedimentos []Procedimento) (int64, string, error)
	Retificar(ctx context.Context, id int64, p Plantao, equipe []Membro, procedimentos []Procedimento) (string, error)
	GetPlantao(ctx context.Context, id int64) (Plantao, error)
	ListEquipe(ctx context.Context, plantaoID int64) ([]Membro, error)
	ListEquipeExtra(ctx context.Context, plantaoID int64) ([]Membro, error)
	ListProcedimentos(ctx context.Context, plantaoID int64) ([]Procedimento, error)
	GetDashboard(ctx context.Context) (Dashboard, error)
}

// ReferenciaRepository fornece os dados de apoio do formulário.
type ReferenciaRepository interface {
	ListDelegaciasAtivas(ctx context.Context) ([]repo.Delegacia, error)
	ListServidoresAtivos(ctx context.Context) ([]repo.Servidor, error)
}

// Service contém as regras do ciclo de vida do plantão.
type Service struct {
	repo  PlantaoRepository
	ref   ReferenciaRepository
	cache *redis.Client
}

func NewService(r PlantaoRepository, ref ReferenciaRepository, cache *redis.Client) *Service {
	return &Service{repo: r, ref: ref, cache: cache}
}

// SalvarResultado é o retorno de um salvamento de plantão.
type SalvarResultado struct {
	ID         int64  `json:"id"`
	Protocolo  string `json:"protocolo"`
	Finalizado bool   `json:"finalizado"`
}

// Salvar grava o plantão como rascunho ou finalizado, conforme a ação.
// Pai e filhos são persistidos em lote atômico; o protocolo é derivado do id.
func (s *Service) Salvar(ctx context.Context, usuario *repo.Usuario, form *Form, acao string) (SalvarResultado, error) {
	status := StatusRascunho
	if acao == AcaoFinalizar {
		status = StatusFinalizado
	}

	p := plantaoFromForm(usuario, form)
	p.Status = status

	id, protocolo, err := s.repo.CriarCompleto(ctx, p, form.Equipe, form.Procedimentos)
	if err != nil {
		return SalvarResultado{}, err
	}

	s.invalidateDashboard(ctx)

	return SalvarResultado{ID: id, Protocolo: protocolo, Finalizado: status == StatusFinalizado}, nil
}

// Retificar emenda um relatório finalizado no lugar: mesma linha, mesmo id,
// mesmo protocolo, filhos substituídos por completo. Retificações concorrentes
// sobre o mesmo id não são serializadas entre si; cada uma é atômica e a
// última gravação prevalece.
func (s *Service) Retificar(ctx context.Context, usuario *repo.Usuario, id int64, form *Form) (string, error) {
	atual, err := s.repo.GetPlantao(ctx, id)
	if err != nil {
		return "", err
	}
	if atual.Status != StatusFinalizado && atual.Status != StatusRetificado {
		return "", ErrEstadoInvalido
	}

	p := plantaoFromForm(usuario, form)
	protocolo, err := s.repo.Retificar(ctx, id, p, form.Equipe, form.Procedimentos)
	if err != nil {
		return "", err
	}

	s.invalidateDashboard(ctx)

	return protocolo, nil
}

// Detalhes reúne o relatório com equipe e procedimentos.
type Detalhes struct {
	Plantao       Plantao        `json:"plantao"`
	Equipe        []Membro       `json:"equipe"`
	Procedimentos []Procedimento `json:"procedimentos"`
}

// Imprimir carrega o relatório completo para a visão de impressão.
func (s *Service) Imprimir(ctx context.Context, id int64) (Detalhes, error) {
	return s.detalhes(ctx, id)
}

// CarregarRetificacao carrega o relatório para o formulário de retificação,
// exigindo que ele já esteja finalizado.
func (s *Service) CarregarRetificacao(ctx context.Context, id int64) (Detalhes, error) {
	det, err := s.detalhes(ctx, id)
	if err != nil {
		return Detalhes{}, err
	}
	if det.Plantao.Status != StatusFinalizado && det.Plantao.Status != StatusRetificado {
		return Detalhes{}, ErrEstadoInvalido
	}
	return det, nil
}

func (s *Service) detalhes(ctx context.Context, id int64) (Detalhes, error) {
	p, err := s.repo.GetPlantao(ctx, id)
	if err != nil {
		return Detalhes{}, err
	}

	equipe, err := s.repo.ListEquipe(ctx, id)
	if err != nil {
		return Detalhes{}, err
	}

	procedimentos, err := s.repo.ListProcedimentos(ctx, id)
	if err != nil {
		return Detalhes{}, err
	}

	return Detalhes{Plantao: p, Equipe: equipe, Procedimentos: procedimentos}, nil
}

// EquipeExtra devolve o cabeçalho do plantão e os membros em escala
// extraordinária, para o relatório de serviço extra.
func (s *Service) EquipeExtra(ctx context.Context, id int64) (Plantao, []Membro, error) {
	p, err := s.repo.GetPlantao(ctx, id)
	if err != nil {
		return Plantao{}, nil, err
	}

	equipe, err := s.repo.ListEquipeExtra(ctx, id)
	if err != nil {
		return Plantao{}, nil, err
	}

	return p, equipe, nil
}

// Dashboard devolve a visão geral, com cache curto em redis.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var d Dashboard
			if json.Unmarshal(data, &d) == nil {
				return d, nil
			}
		}
	}

	d, err := s.repo.GetDashboard(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(d); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, payload, dashboardCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("falha ao gravar cache do dashboard")
			}
		}
	}

	return d, nil
}

// Referencias devolve delegacias e servidores ativos para o formulário.
type Referencias struct {
	Delegacias []repo.Delegacia `json:"delegacias"`
	Servidores []repo.Servidor  `json:"servidores"`
}

func (s *Service) Referencias(ctx context.Context) (Referencias, error) {
	delegacias, err := s.ref.ListDelegaciasAtivas(ctx)
	if err != nil {
		return Referencias{}, err
	}

	servidores, err := s.ref.ListServidoresAtivos(ctx)
	if err != nil {
		return Referencias{}, err
	}

	return Referencias{Delegacias: delegacias, Servidores: servidores}, nil
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("falha ao invalidar cache do dashboard")
	}
}

func plantaoFromForm(usuario *repo.Usuario, form *Form) Plantao {
	p := Plantao{
		MatriculaResponsavel: usuario.Matricula,
		NomeResponsavel:      usuario.Nome,
		Delegacia:            form.Delegacia,
		DataEntrada:          form.DataEntrada,
		HoraEntrada:          form.HoraEntrada,
		QBO:                  form.QBO,
		QGuias:               form.QGuias,
		QApreensoes:          form.QApreensoes,
		QPresos:              form.QPresos,
		QMedidas:             form.QMedidas,
		QOutros:              form.QOutros,
	}
	if form.DataSaida != "" {
		p.DataSaida = &form.DataSaida
	}
	if form.HoraSaida != "" {
		p.HoraSaida = &form.HoraSaida
	}
	if form.Observacoes != "" {
		p.Observacoes = &form.Observacoes
	}
	return p
}
