package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dpisul/plantoes/internal/auth"
	"github.com/dpisul/plantoes/internal/mailer"
	"github.com/dpisul/plantoes/internal/repo"
)

var (
	// ErrMatriculaInvalida indica matrícula ausente ou curta demais.
	ErrMatriculaInvalida = errors.New("matrícula inválida")
	// ErrServidorNaoEncontrado indica matrícula desconhecida ou servidor inativo.
	ErrServidorNaoEncontrado = errors.New("servidor não encontrado")
	// ErrTokenInvalido indica código inexistente, já usado ou expirado.
	ErrTokenInvalido = errors.New("código inválido ou expirado")
)

type authRepository interface {
	GetServidorAtivoByMatricula(ctx context.Context, matricula string) (repo.Servidor, error)
	GetServidorByEmail(ctx context.Context, email string) (repo.Servidor, error)
	ExpirePendingTokens(ctx context.Context, email string) error
	InsertToken(ctx context.Context, email, token string, expiracao time.Time) error
	GetPendingToken(ctx context.Context, email, token string, now time.Time) (repo.TokenAcesso, error)
	MarkTokenUsed(ctx context.Context, id int64) error
	InsertSessao(ctx context.Context, s repo.Sessao) error
	GetSessaoValida(ctx context.Context, sessionID string, now time.Time) (repo.Sessao, error)
	DeleteSessao(ctx context.Context, sessionID string) error
}

// AuthService concentra emissão de tokens de acesso e ciclo de vida das sessões.
type AuthService struct {
	repo       authRepository
	mailer     mailer.Sender
	tokenTTL   time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, sender mailer.Sender, tokenTTL, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		repo:       r,
		mailer:     sender,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// LoginInicio é o retorno da primeira etapa do login.
type LoginInicio struct {
	Nome           string `json:"nome"`
	Matricula      string `json:"matricula"`
	EmailMascarado string `json:"email_mascarado"`
	Email          string `json:"email"`
	// TokenDev carrega o código gerado quando não há canal de envio configurado.
	TokenDev string `json:"token_dev,omitempty"`
}

// IniciarLogin busca o servidor, emite um código de 6 dígitos e dispara o email.
// Falha no envio não aborta o fluxo: o token já está persistido.
func (s *AuthService) IniciarLogin(ctx context.Context, matricula string) (*LoginInicio, error) {
	matricula = strings.TrimSpace(matricula)
	if len(matricula) < 5 {
		return nil, ErrMatriculaInvalida
	}

	servidor, err := s.repo.GetServidorAtivoByMatricula(ctx, matricula)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrServidorNaoEncontrado
		}
		return nil, err
	}

	codigo, err := auth.GenerateAccessCode()
	if err != nil {
		return nil, err
	}

	// Garante no máximo um código pendente por email.
	if err := s.repo.ExpirePendingTokens(ctx, servidor.Email); err != nil {
		return nil, err
	}
	if err := s.repo.InsertToken(ctx, servidor.Email, codigo, s.now().Add(s.tokenTTL)); err != nil {
		return nil, err
	}

	resultado := &LoginInicio{
		Nome:           servidor.Nome,
		Matricula:      servidor.Matricula,
		EmailMascarado: auth.MaskEmail(servidor.Email),
		Email:          servidor.Email,
	}

	if s.mailer == nil {
		resultado.TokenDev = codigo
		return resultado, nil
	}

	go func(to, nome, codigo string) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.mailer.SendAccessCode(sendCtx, to, nome, codigo); err != nil {
			log.Warn().Err(err).Msg("falha ao enviar código de acesso")
		}
	}(servidor.Email, servidor.Nome, codigo)

	return resultado, nil
}

// ValidarToken consome o código e cria a sessão de 8 horas.
func (s *AuthService) ValidarToken(ctx context.Context, email, token string) (repo.Sessao, error) {
	agora := s.now()

	registro, err := s.repo.GetPendingToken(ctx, email, token, agora)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Sessao{}, ErrTokenInvalido
		}
		return repo.Sessao{}, err
	}

	// Uso único: marcado antes da criação da sessão, nunca revalidado.
	if err := s.repo.MarkTokenUsed(ctx, registro.ID); err != nil {
		return repo.Sessao{}, err
	}

	servidor, err := s.repo.GetServidorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Sessao{}, ErrServidorNaoEncontrado
		}
		return repo.Sessao{}, err
	}

	sessionID, err := auth.GenerateSessionID()
	if err != nil {
		return repo.Sessao{}, err
	}

	sessao := repo.Sessao{
		SessionID: sessionID,
		Matricula: servidor.Matricula,
		Nome:      servidor.Nome,
		Email:     servidor.Email,
		Lotacao:   servidor.Lotacao,
		Cargo:     servidor.Cargo,
		CriadoEm:  agora,
		ExpiraEm:  agora.Add(s.sessionTTL),
	}

	if err := s.repo.InsertSessao(ctx, sessao); err != nil {
		return repo.Sessao{}, err
	}

	return sessao, nil
}

// Resolver devolve a identidade da sessão ou nil quando expirada/inexistente.
func (s *AuthService) Resolver(ctx context.Context, sessionID string) (*repo.Usuario, error) {
	sessao, err := s.repo.GetSessaoValida(ctx, sessionID, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &repo.Usuario{
		Matricula: sessao.Matricula,
		Nome:      sessao.Nome,
		Email:     sessao.Email,
		Lotacao:   sessao.Lotacao,
		Cargo:     sessao.Cargo,
	}, nil
}

// Logout remove a sessão. Ausência é ignorada.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repo.DeleteSessao(ctx, sessionID)
}

// SessionTTL expõe a duração da sessão (usada para o max-age do cookie).
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}
