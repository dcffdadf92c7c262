package plantao

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Form é o resultado do parse do corpo form-encoded do plantão.
type Form struct {
	Delegacia   string
	DataEntrada string
	HoraEntrada string
	DataSaida   string
	HoraSaida   string
	Observacoes string

	QBO         int
	QGuias      int
	QApreensoes int
	QPresos     int
	QMedidas    int
	QOutros     int

	Equipe        []Membro
	Procedimentos []Procedimento
}

// ParseForm decodifica o formulário do plantão. Grupos repetidos seguem o
// contrato <grupo>_<indice>_<campo>: a varredura começa em 0 e para no primeiro
// índice ausente, então buracos truncam a lista. Nomes são normalizados para
// caixa alta, como saem no relatório impresso.
func ParseForm(values url.Values) (*Form, error) {
	f := &Form{
		Delegacia:   upper(values.Get("delegacia")),
		DataEntrada: strings.TrimSpace(values.Get("data_entrada")),
		HoraEntrada: strings.TrimSpace(values.Get("hora_entrada")),
		DataSaida:   strings.TrimSpace(values.Get("data_saida")),
		HoraSaida:   strings.TrimSpace(values.Get("hora_saida")),
		Observacoes: upper(values.Get("observacoes")),
	}

	if f.Delegacia == "" || f.DataEntrada == "" || f.HoraEntrada == "" {
		return nil, ErrValidacao
	}

	f.QBO = parseOrZero(values.Get("q_bo"))
	f.QGuias = parseOrZero(values.Get("q_guias"))
	f.QApreensoes = parseOrZero(values.Get("q_apreensoes"))
	f.QPresos = parseOrZero(values.Get("q_presos"))
	f.QMedidas = parseOrZero(values.Get("q_medidas"))
	f.QOutros = parseOrZero(values.Get("q_outros"))

	for i := 0; values.Has(fmt.Sprintf("equipe_%d_nome", i)); i++ {
		nome := upper(values.Get(fmt.Sprintf("equipe_%d_nome", i)))
		if nome == "" {
			continue
		}

		membro := Membro{
			NomeServidor: nome,
			Matricula:    optional(values.Get(fmt.Sprintf("equipe_%d_matricula", i))),
			Cargo:        optional(values.Get(fmt.Sprintf("equipe_%d_cargo", i))),
			Classe:       optional(values.Get(fmt.Sprintf("equipe_%d_classe", i))),
			Escala:       values.Get(fmt.Sprintf("equipe_%d_escala", i)),
			DataEntrada:  values.Get(fmt.Sprintf("equipe_%d_data_entrada", i)),
			HoraEntrada:  values.Get(fmt.Sprintf("equipe_%d_hora_entrada", i)),
			DataSaida:    optional(values.Get(fmt.Sprintf("equipe_%d_data_saida", i))),
			HoraSaida:    optional(values.Get(fmt.Sprintf("equipe_%d_hora_saida", i))),
		}
		if membro.Escala == "" {
			membro.Escala = EscalaNormal
		}
		// Horários do membro herdam os do plantão quando omitidos.
		if membro.DataEntrada == "" {
			membro.DataEntrada = f.DataEntrada
		}
		if membro.HoraEntrada == "" {
			membro.HoraEntrada = f.HoraEntrada
		}
		if membro.DataSaida == nil && f.DataSaida != "" {
			membro.DataSaida = &f.DataSaida
		}
		if membro.HoraSaida == nil && f.HoraSaida != "" {
			membro.HoraSaida = &f.HoraSaida
		}

		if membro.DataSaida != nil && membro.HoraSaida != nil {
			membro.HorasTrabalhadas = HorasEntre(membro.DataEntrada, membro.HoraEntrada, *membro.DataSaida, *membro.HoraSaida)
		}

		f.Equipe = append(f.Equipe, membro)
	}

	for j := 0; values.Has(fmt.Sprintf("proc_%d_tipo", j)); j++ {
		tipo := strings.TrimSpace(values.Get(fmt.Sprintf("proc_%d_tipo", j)))
		natureza := upper(values.Get(fmt.Sprintf("proc_%d_natureza", j)))
		if tipo == "" || natureza == "" {
			continue
		}

		proc := Procedimento{
			Tipo:       tipo,
			Numero:     optional(values.Get(fmt.Sprintf("proc_%d_numero", j))),
			Natureza:   natureza,
			Envolvidos: optionalUpper(values.Get(fmt.Sprintf("proc_%d_envolvidos", j))),
			Resumo:     optionalUpper(values.Get(fmt.Sprintf("proc_%d_resumo", j))),
			Vitimas:    parseNomes(values, fmt.Sprintf("proc_%d_vitima_", j)),
			Suspeitos:  parseNomes(values, fmt.Sprintf("proc_%d_suspeito_", j)),
		}

		vitimas, _ := json.Marshal(proc.Vitimas)
		suspeitos, _ := json.Marshal(proc.Suspeitos)
		proc.VitimasJSON = string(vitimas)
		proc.SuspeitosJSON = string(suspeitos)

		f.Procedimentos = append(f.Procedimentos, proc)
	}

	return f, nil
}

func parseNomes(values url.Values, prefix string) []string {
	nomes := []string{}
	for k := 0; values.Has(fmt.Sprintf("%s%d", prefix, k)); k++ {
		nome := upper(values.Get(fmt.Sprintf("%s%d", prefix, k)))
		if nome != "" {
			nomes = append(nomes, nome)
		}
	}
	return nomes
}

// parseOrZero converte contadores quantitativos; entrada ausente ou não
// numérica vale 0.
func parseOrZero(val string) int {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0
	}
	return n
}

func upper(val string) string {
	return strings.ToUpper(strings.TrimSpace(val))
}

func optional(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

func optionalUpper(val string) *string {
	return optional(strings.ToUpper(strings.TrimSpace(val)))
}
