package plantao

import (
	"context"
	"strings"
	"time"
)

// ResumoPlantao é a linha da listagem do painel, com agregados dos filhos.
type ResumoPlantao struct {
	ID                 int64     `json:"id"`
	Protocolo          *string   `json:"protocolo,omitempty"`
	Delegacia          string    `json:"delegacia"`
	DataEntrada        string    `json:"data_entrada"`
	HoraEntrada        string    `json:"hora_entrada"`
	DataSaida          *string   `json:"data_saida,omitempty"`
	HoraSaida          *string   `json:"hora_saida,omitempty"`
	Status             string    `json:"status"`
	NomeResponsavel    string    `json:"nome_responsavel"`
	QBO                int       `json:"q_bo"`
	QGuias             int       `json:"q_guias"`
	QApreensoes        int       `json:"q_apreensoes"`
	QPresos            int       `json:"q_presos"`
	QMedidas           int       `json:"q_medidas"`
	QOutros            int       `json:"q_outros"`
	CriadoEm           time.Time `json:"criado_em"`
	TotalEquipe        int       `json:"total_equipe"`
	TotalProcedimentos int       `json:"total_procedimentos"`
	ServidoresEquipe   []string  `json:"servidores_equipe"`
	TiposProcedimento  []string  `json:"tipos_procedimento"`
}

// Estatisticas contabiliza relatórios por status.
type Estatisticas struct {
	Total       int `json:"total"`
	Rascunhos   int `json:"rascunhos"`
	Finalizados int `json:"finalizados"`
	Retificados int `json:"retificados"`
}

// Quantitativos soma os contadores dos relatórios não-rascunho.
type Quantitativos struct {
	BO         int `json:"bo"`
	Guias      int `json:"guias"`
	Apreensoes int `json:"apreensoes"`
	Presos     int `json:"presos"`
	Medidas    int `json:"medidas"`
	Outros     int `json:"outros"`
}

// Dashboard agrega a visão geral do painel.
type Dashboard struct {
	Plantoes      []ResumoPlantao `json:"plantoes"`
	Delegacias    []string        `json:"delegacias"`
	Estatisticas  Estatisticas    `json:"estatisticas"`
	Quantitativos Quantitativos   `json:"quantitativos"`
}

// GetDashboard monta a visão geral: últimos 200 plantões com agregados de
// equipe/procedimentos, contagens por status e totais quantitativos.
func (r *Repository) GetDashboard(ctx context.Context) (Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var d Dashboard

	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.protocolo, p.delegacia, p.data_entrada, p.hora_entrada,
		       p.data_saida, p.hora_saida, p.status, p.nome_responsavel,
		       p.q_bo, p.q_guias, p.q_apreensoes, p.q_presos, p.q_medidas, p.q_outros,
		       p.criado_em,
		       COUNT(DISTINCT e.id) AS total_equipe,
		       COUNT(DISTINCT pr.id) AS total_procedimentos,
		       STRING_AGG(DISTINCT e.nome_servidor, ',') AS servidores_equipe,
		       STRING_AGG(DISTINCT pr.tipo, ',') AS tipos_procedimento
		FROM plantoes p
		LEFT JOIN plantoes_equipe e ON e.plantao_id = p.id
		LEFT JOIN plantoes_procedimentos pr ON pr.plantao_id = p.id
		GROUP BY p.id
		ORDER BY p.criado_em DESC
		LIMIT 200
	`)
	if err != nil {
		return Dashboard{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var res ResumoPlantao
		var servidores, tipos *string
		if err := rows.Scan(&res.ID, &res.Protocolo, &res.Delegacia, &res.DataEntrada, &res.HoraEntrada,
			&res.DataSaida, &res.HoraSaida, &res.Status, &res.NomeResponsavel,
			&res.QBO, &res.QGuias, &res.QApreensoes, &res.QPresos, &res.QMedidas, &res.QOutros,
			&res.CriadoEm, &res.TotalEquipe, &res.TotalProcedimentos, &servidores, &tipos); err != nil {
			return Dashboard{}, err
		}
		res.ServidoresEquipe = splitAgg(servidores)
		res.TiposProcedimento = splitAgg(tipos)
		d.Plantoes = append(d.Plantoes, res)
	}
	if err := rows.Err(); err != nil {
		return Dashboard{}, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'rascunho'),
		       COUNT(*) FILTER (WHERE status = 'finalizado'),
		       COUNT(*) FILTER (WHERE status = 'retificado'),
		       COALESCE(SUM(q_bo) FILTER (WHERE status <> 'rascunho'), 0),
		       COALESCE(SUM(q_guias) FILTER (WHERE status <> 'rascunho'), 0),
		       COALESCE(SUM(q_apreensoes) FILTER (WHERE status <> 'rascunho'), 0),
		       COALESCE(SUM(q_presos) FILTER (WHERE status <> 'rascunho'), 0),
		       COALESCE(SUM(q_medidas) FILTER (WHERE status <> 'rascunho'), 0),
		       COALESCE(SUM(q_outros) FILTER (WHERE status <> 'rascunho'), 0)
		FROM plantoes
	`).Scan(&d.Estatisticas.Total, &d.Estatisticas.Rascunhos, &d.Estatisticas.Finalizados, &d.Estatisticas.Retificados,
		&d.Quantitativos.BO, &d.Quantitativos.Guias, &d.Quantitativos.Apreensoes,
		&d.Quantitativos.Presos, &d.Quantitativos.Medidas, &d.Quantitativos.Outros)
	if err != nil {
		return Dashboard{}, err
	}

	delegacias, err := r.db.Query(ctx, `
		SELECT DISTINCT delegacia FROM plantoes
		WHERE delegacia IS NOT NULL AND delegacia <> ''
		ORDER BY delegacia
	`)
	if err != nil {
		return Dashboard{}, err
	}
	defer delegacias.Close()

	for delegacias.Next() {
		var nome string
		if err := delegacias.Scan(&nome); err != nil {
			return Dashboard{}, err
		}
		d.Delegacias = append(d.Delegacias, nome)
	}

	return d, delegacias.Err()
}

func splitAgg(raw *string) []string {
	if raw == nil || *raw == "" {
		return []string{}
	}
	return strings.Split(*raw, ",")
}
