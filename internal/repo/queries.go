package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Queries concentra o acesso aos dados de autenticação.
type Queries struct {
	db *pgxpool.Pool
}

// New cria Queries sobre o pool compartilhado.
func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

// GetServidorAtivoByMatricula busca servidor ativo pela matrícula.
func (q *Queries) GetServidorAtivoByMatricula(ctx context.Context, matricula string) (Servidor, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Servidor
	err := q.db.QueryRow(ctx, `
		SELECT matricula, nome, email, cargo, classe, lotacao, ativo
		FROM servidores
		WHERE matricula = $1 AND ativo = TRUE
		LIMIT 1
	`, matricula).Scan(&s.Matricula, &s.Nome, &s.Email, &s.Cargo, &s.Classe, &s.Lotacao, &s.Ativo)
	if errors.Is(err, pgx.ErrNoRows) {
		return Servidor{}, ErrNotFound
	}
	return s, err
}

// GetServidorByEmail busca servidor pelo email cadastrado.
func (q *Queries) GetServidorByEmail(ctx context.Context, email string) (Servidor, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Servidor
	err := q.db.QueryRow(ctx, `
		SELECT matricula, nome, email, cargo, classe, lotacao, ativo
		FROM servidores
		WHERE email = $1
		LIMIT 1
	`, email).Scan(&s.Matricula, &s.Nome, &s.Email, &s.Cargo, &s.Classe, &s.Lotacao, &s.Ativo)
	if errors.Is(err, pgx.ErrNoRows) {
		return Servidor{}, ErrNotFound
	}
	return s, err
}

// ListServidoresAtivos lista servidores ativos para preencher o formulário de equipe.
func (q *Queries) ListServidoresAtivos(ctx context.Context) ([]Servidor, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := q.db.Query(ctx, `
		SELECT matricula, nome, email, cargo, classe, lotacao, ativo
		FROM servidores
		WHERE ativo = TRUE
		ORDER BY nome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servidores []Servidor
	for rows.Next() {
		var s Servidor
		if err := rows.Scan(&s.Matricula, &s.Nome, &s.Email, &s.Cargo, &s.Classe, &s.Lotacao, &s.Ativo); err != nil {
			return nil, err
		}
		servidores = append(servidores, s)
	}

	return servidores, rows.Err()
}

// ListDelegaciasAtivas lista unidades habilitadas para lançamento de plantão.
func (q *Queries) ListDelegaciasAtivas(ctx context.Context) ([]Delegacia, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := q.db.Query(ctx, `
		SELECT nome
		FROM delegacias
		WHERE status = 'SIM' OR status = 'TEMPORARIO'
		ORDER BY nome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var delegacias []Delegacia
	for rows.Next() {
		var d Delegacia
		if err := rows.Scan(&d.Nome); err != nil {
			return nil, err
		}
		delegacias = append(delegacias, d)
	}

	return delegacias, rows.Err()
}

// ExpirePendingTokens marca como expirados todos os tokens pendentes do email.
// Garante no máximo um token pendente por email.
func (q *Queries) ExpirePendingTokens(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.Exec(ctx, `
		UPDATE tokens_acesso SET status = $1 WHERE email = $2 AND status = $3
	`, TokenExpirado, email, TokenPendente)
	return err
}

// InsertToken grava um novo token pendente com a expiração informada.
func (q *Queries) InsertToken(ctx context.Context, email, token string, expiracao time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.Exec(ctx, `
		INSERT INTO tokens_acesso (email, token, expiracao, status)
		VALUES ($1, $2, $3, $4)
	`, email, token, expiracao, TokenPendente)
	return err
}

// GetPendingToken busca token pendente e não expirado para o par email/código.
func (q *Queries) GetPendingToken(ctx context.Context, email, token string, now time.Time) (TokenAcesso, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var t TokenAcesso
	err := q.db.QueryRow(ctx, `
		SELECT id, email, token, expiracao, status
		FROM tokens_acesso
		WHERE email = $1 AND token = $2 AND status = $3 AND expiracao > $4
		LIMIT 1
	`, email, token, TokenPendente, now).Scan(&t.ID, &t.Email, &t.Token, &t.Expiracao, &t.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenAcesso{}, ErrNotFound
	}
	return t, err
}

// MarkTokenUsed consome o token: nunca volta a ser validado.
func (q *Queries) MarkTokenUsed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.Exec(ctx, `
		UPDATE tokens_acesso SET status = $1 WHERE id = $2
	`, TokenUsado, id)
	return err
}

// InsertSessao persiste a sessão recém-criada.
func (q *Queries) InsertSessao(ctx context.Context, s Sessao) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.Exec(ctx, `
		INSERT INTO sessoes (session_id, matricula, nome, email, lotacao, cargo, criado_em, expira_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.SessionID, s.Matricula, s.Nome, s.Email, s.Lotacao, s.Cargo, s.CriadoEm, s.ExpiraEm)
	return err
}

// GetSessaoValida resolve a sessão filtrando pela expiração no momento da leitura.
// Sessões expiradas não são removidas ativamente; apenas deixam de resolver.
func (q *Queries) GetSessaoValida(ctx context.Context, sessionID string, now time.Time) (Sessao, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Sessao
	err := q.db.QueryRow(ctx, `
		SELECT session_id, matricula, nome, email, lotacao, cargo, criado_em, expira_em
		FROM sessoes
		WHERE session_id = $1 AND expira_em > $2
		LIMIT 1
	`, sessionID, now).Scan(&s.SessionID, &s.Matricula, &s.Nome, &s.Email, &s.Lotacao, &s.Cargo, &s.CriadoEm, &s.ExpiraEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sessao{}, ErrNotFound
	}
	return s, err
}

// DeleteSessao remove a sessão no logout. Idempotente.
func (q *Queries) DeleteSessao(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.Exec(ctx, `DELETE FROM sessoes WHERE session_id = $1`, sessionID)
	return err
}
