package rascunho

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpisul/plantoes/internal/db"
)

const dbTimeout = 3 * time.Second

// Repository fornece acesso aos rascunhos persistidos.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Inserir grava o rascunho e devolve o código derivado do id, na mesma
// transação.
func (r *Repository) Inserir(ctx context.Context, matricula, dadosJSON string, expiraEm time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var codigo string
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO rascunhos (matricula, dados_json, status, criado_em, expira_em)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, matricula, dadosJSON, StatusAtivo, time.Now(), expiraEm).Scan(&id)
		if err != nil {
			return err
		}

		codigo = FormatCodigo(id)
		_, err = tx.Exec(ctx, `UPDATE rascunhos SET codigo = $1 WHERE id = $2`, codigo, id)
		return err
	})
	if err != nil {
		return "", err
	}

	return codigo, nil
}

// BuscarAtivo devolve o payload do rascunho ativo e não expirado. A expiração
// é aplicada na leitura, sem limpeza em segundo plano.
func (r *Repository) BuscarAtivo(ctx context.Context, codigo string, now time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var dados string
	err := r.db.QueryRow(ctx, `
		SELECT dados_json
		FROM rascunhos
		WHERE codigo = $1 AND status = $2 AND expira_em > $3
		LIMIT 1
	`, codigo, StatusAtivo, now).Scan(&dados)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNaoEncontrado
	}
	return dados, err
}

// MarcarFinalizado consome o rascunho depois que o plantão foi gravado.
func (r *Repository) MarcarFinalizado(ctx context.Context, codigo string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE rascunhos SET status = $1 WHERE codigo = $2
	`, StatusFinalizado, codigo)
	return err
}
