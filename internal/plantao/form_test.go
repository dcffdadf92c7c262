package plantao

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formBase() url.Values {
	return url.Values{
		"delegacia":    {"central"},
		"data_entrada": {"2024-01-01"},
		"hora_entrada": {"08:00"},
		"data_saida":   {"2024-01-02"},
		"hora_saida":   {"08:00"},
	}
}

func TestParseFormCamposObrigatorios(t *testing.T) {
	values := formBase()
	values.Del("delegacia")

	_, err := ParseForm(values)
	require.ErrorIs(t, err, ErrValidacao)
}

func TestParseFormNormalizaCaixaAlta(t *testing.T) {
	values := formBase()
	values.Set("observacoes", "  plantão tranquilo ")

	form, err := ParseForm(values)
	require.NoError(t, err)

	assert.Equal(t, "CENTRAL", form.Delegacia)
	assert.Equal(t, "PLANTÃO TRANQUILO", form.Observacoes)
}

func TestParseFormContadoresDefensivos(t *testing.T) {
	values := formBase()
	values.Set("q_bo", "7")
	values.Set("q_guias", "abc")
	values.Set("q_presos", "")
	// q_apreensoes ausente por completo

	form, err := ParseForm(values)
	require.NoError(t, err)

	assert.Equal(t, 7, form.QBO)
	assert.Equal(t, 0, form.QGuias)
	assert.Equal(t, 0, form.QPresos)
	assert.Equal(t, 0, form.QApreensoes)
}

func TestParseFormEquipeParaNoPrimeiroIndiceAusente(t *testing.T) {
	values := formBase()
	values.Set("equipe_0_nome", "primeiro policial")
	values.Set("equipe_1_nome", "segundo policial")
	// índice 2 ausente: o 3 nunca é lido
	values.Set("equipe_3_nome", "fantasma")

	form, err := ParseForm(values)
	require.NoError(t, err)

	require.Len(t, form.Equipe, 2)
	assert.Equal(t, "PRIMEIRO POLICIAL", form.Equipe[0].NomeServidor)
	assert.Equal(t, "SEGUNDO POLICIAL", form.Equipe[1].NomeServidor)
}

func TestParseFormEquipeHerdaHorariosDoPlantao(t *testing.T) {
	values := formBase()
	values.Set("equipe_0_nome", "policial")

	form, err := ParseForm(values)
	require.NoError(t, err)
	require.Len(t, form.Equipe, 1)

	membro := form.Equipe[0]
	assert.Equal(t, EscalaNormal, membro.Escala)
	assert.Equal(t, "2024-01-01", membro.DataEntrada)
	assert.Equal(t, "08:00", membro.HoraEntrada)
	require.NotNil(t, membro.DataSaida)
	assert.Equal(t, "2024-01-02", *membro.DataSaida)
	assert.InDelta(t, 24.0, membro.HorasTrabalhadas, 0.01)
}

func TestParseFormProcedimentoComListasAninhadas(t *testing.T) {
	values := formBase()
	values.Set("proc_0_tipo", TipoTCO)
	values.Set("proc_0_natureza", "lesão corporal")
	values.Set("proc_0_numero", "2024/100")
	values.Set("proc_0_vitima_0", "vítima um")
	values.Set("proc_0_vitima_1", "vítima dois")
	// buraco no índice 2 trunca a lista
	values.Set("proc_0_vitima_3", "ignorada")
	values.Set("proc_0_suspeito_0", "suspeito um")

	form, err := ParseForm(values)
	require.NoError(t, err)
	require.Len(t, form.Procedimentos, 1)

	proc := form.Procedimentos[0]
	assert.Equal(t, TipoTCO, proc.Tipo)
	assert.Equal(t, "LESÃO CORPORAL", proc.Natureza)
	assert.Equal(t, []string{"VÍTIMA UM", "VÍTIMA DOIS"}, proc.Vitimas)
	assert.Equal(t, []string{"SUSPEITO UM"}, proc.Suspeitos)
	assert.JSONEq(t, `["VÍTIMA UM","VÍTIMA DOIS"]`, proc.VitimasJSON)
}

func TestParseFormProcedimentoSemNaturezaDescartado(t *testing.T) {
	values := formBase()
	values.Set("proc_0_tipo", TipoIPFlagrante)
	// natureza vazia: entrada descartada, mas a varredura continua
	values.Set("proc_0_natureza", "")
	values.Set("proc_1_tipo", TipoAIBOC)
	values.Set("proc_1_natureza", "dano")

	form, err := ParseForm(values)
	require.NoError(t, err)

	require.Len(t, form.Procedimentos, 1)
	assert.Equal(t, TipoAIBOC, form.Procedimentos[0].Tipo)
}
