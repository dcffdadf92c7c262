package plantao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpisul/plantoes/internal/db"
)

const dbTimeout = 5 * time.Second

// Repository fornece acesso aos dados de plantão.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const insertMembroSQL = `
	INSERT INTO plantoes_equipe
		(plantao_id, nome_servidor, matricula, cargo, classe, escala,
		 data_entrada, hora_entrada, data_saida, hora_saida, horas_trabalhadas)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const insertProcedimentoSQL = `
	INSERT INTO plantoes_procedimentos
		(plantao_id, tipo, numero, natureza, envolvidos, resumo, vitimas_json, suspeitos_json)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// CriarCompleto insere o plantão com equipe e procedimentos em uma única
// transação e atribui o protocolo derivado do id. Aplicação parcial nunca é
// observável.
func (r *Repository) CriarCompleto(ctx context.Context, p Plantao, equipe []Membro, procedimentos []Procedimento) (int64, string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	var protocolo string

	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		agora := time.Now()
		err := tx.QueryRow(ctx, `
			INSERT INTO plantoes
				(matricula_responsavel, nome_responsavel, delegacia,
				 data_entrada, hora_entrada, data_saida, hora_saida,
				 status, observacoes,
				 q_bo, q_guias, q_apreensoes, q_presos, q_medidas, q_outros,
				 criado_em, atualizado_em)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
			RETURNING id
		`, p.MatriculaResponsavel, p.NomeResponsavel, p.Delegacia,
			p.DataEntrada, p.HoraEntrada, p.DataSaida, p.HoraSaida,
			p.Status, p.Observacoes,
			p.QBO, p.QGuias, p.QApreensoes, p.QPresos, p.QMedidas, p.QOutros,
			agora).Scan(&id)
		if err != nil {
			return err
		}

		protocolo = FormatProtocolo(id)
		if _, err := tx.Exec(ctx, `UPDATE plantoes SET protocolo = $1 WHERE id = $2`, protocolo, id); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		queueFilhos(batch, id, equipe, procedimentos)
		if batch.Len() == 0 {
			return nil
		}
		return db.SendBatch(ctx, tx, batch)
	})
	if err != nil {
		return 0, "", err
	}

	return id, protocolo, nil
}

// Retificar atualiza o relatório no lugar e substitui todos os filhos na mesma
// transação. O id e o protocolo nunca mudam.
func (r *Repository) Retificar(ctx context.Context, id int64, p Plantao, equipe []Membro, procedimentos []Procedimento) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var protocolo string

	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT protocolo FROM plantoes WHERE id = $1`, id).Scan(&protocolo)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNaoEncontrado
		}
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		batch.Queue(`
			UPDATE plantoes SET
				matricula_responsavel = $1, nome_responsavel = $2, delegacia = $3,
				data_entrada = $4, hora_entrada = $5, data_saida = $6, hora_saida = $7,
				status = $8, observacoes = $9,
				q_bo = $10, q_guias = $11, q_apreensoes = $12,
				q_presos = $13, q_medidas = $14, q_outros = $15,
				atualizado_em = $16
			WHERE id = $17
		`, p.MatriculaResponsavel, p.NomeResponsavel, p.Delegacia,
			p.DataEntrada, p.HoraEntrada, p.DataSaida, p.HoraSaida,
			StatusRetificado, p.Observacoes,
			p.QBO, p.QGuias, p.QApreensoes, p.QPresos, p.QMedidas, p.QOutros,
			time.Now(), id)
		batch.Queue(`DELETE FROM plantoes_equipe WHERE plantao_id = $1`, id)
		batch.Queue(`DELETE FROM plantoes_procedimentos WHERE plantao_id = $1`, id)
		queueFilhos(batch, id, equipe, procedimentos)

		return db.SendBatch(ctx, tx, batch)
	})
	if err != nil {
		return "", err
	}

	return protocolo, nil
}

func queueFilhos(batch *pgx.Batch, id int64, equipe []Membro, procedimentos []Procedimento) {
	for _, m := range equipe {
		batch.Queue(insertMembroSQL, id, m.NomeServidor, m.Matricula, m.Cargo, m.Classe,
			m.Escala, m.DataEntrada, m.HoraEntrada, m.DataSaida, m.HoraSaida, m.HorasTrabalhadas)
	}
	for _, p := range procedimentos {
		batch.Queue(insertProcedimentoSQL, id, p.Tipo, p.Numero, p.Natureza,
			p.Envolvidos, p.Resumo, p.VitimasJSON, p.SuspeitosJSON)
	}
}

// GetPlantao carrega o relatório pelo id.
func (r *Repository) GetPlantao(ctx context.Context, id int64) (Plantao, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var p Plantao
	err := r.db.QueryRow(ctx, `
		SELECT id, protocolo, matricula_responsavel, nome_responsavel, delegacia,
		       data_entrada, hora_entrada, data_saida, hora_saida, status, observacoes,
		       q_bo, q_guias, q_apreensoes, q_presos, q_medidas, q_outros,
		       retificacao_de, criado_em, atualizado_em
		FROM plantoes
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Protocolo, &p.MatriculaResponsavel, &p.NomeResponsavel, &p.Delegacia,
		&p.DataEntrada, &p.HoraEntrada, &p.DataSaida, &p.HoraSaida, &p.Status, &p.Observacoes,
		&p.QBO, &p.QGuias, &p.QApreensoes, &p.QPresos, &p.QMedidas, &p.QOutros,
		&p.RetificacaoDe, &p.CriadoEm, &p.AtualizadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plantao{}, ErrNaoEncontrado
	}
	return p, err
}

// ListEquipe devolve os integrantes da equipe do plantão.
func (r *Repository) ListEquipe(ctx context.Context, plantaoID int64) ([]Membro, error) {
	return r.listEquipe(ctx, plantaoID, "")
}

// ListEquipeExtra devolve apenas os integrantes em escala extraordinária.
func (r *Repository) ListEquipeExtra(ctx context.Context, plantaoID int64) ([]Membro, error) {
	return r.listEquipe(ctx, plantaoID, EscalaExtraordinaria)
}

func (r *Repository) listEquipe(ctx context.Context, plantaoID int64, escala string) ([]Membro, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		SELECT id, plantao_id, nome_servidor, matricula, cargo, classe, escala,
		       data_entrada, hora_entrada, data_saida, hora_saida, horas_trabalhadas
		FROM plantoes_equipe
		WHERE plantao_id = $1
	`
	args := []any{plantaoID}
	if escala != "" {
		query += ` AND escala = $2`
		args = append(args, escala)
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var equipe []Membro
	for rows.Next() {
		var m Membro
		if err := rows.Scan(&m.ID, &m.PlantaoID, &m.NomeServidor, &m.Matricula, &m.Cargo, &m.Classe,
			&m.Escala, &m.DataEntrada, &m.HoraEntrada, &m.DataSaida, &m.HoraSaida, &m.HorasTrabalhadas); err != nil {
			return nil, err
		}
		equipe = append(equipe, m)
	}

	return equipe, rows.Err()
}

// ListProcedimentos devolve os procedimentos do plantão com as listas de
// vítimas e suspeitos já decodificadas.
func (r *Repository) ListProcedimentos(ctx context.Context, plantaoID int64) ([]Procedimento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, plantao_id, tipo, numero, natureza, envolvidos, resumo, vitimas_json, suspeitos_json
		FROM plantoes_procedimentos
		WHERE plantao_id = $1
		ORDER BY id
	`, plantaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procedimentos []Procedimento
	for rows.Next() {
		var p Procedimento
		if err := rows.Scan(&p.ID, &p.PlantaoID, &p.Tipo, &p.Numero, &p.Natureza,
			&p.Envolvidos, &p.Resumo, &p.VitimasJSON, &p.SuspeitosJSON); err != nil {
			return nil, err
		}
		p.Vitimas = decodeNomes(p.VitimasJSON)
		p.Suspeitos = decodeNomes(p.SuspeitosJSON)
		procedimentos = append(procedimentos, p)
	}

	return procedimentos, rows.Err()
}
