package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/dpisul/plantoes/internal/http/middleware"
	"github.com/dpisul/plantoes/internal/rascunho"
)

// RascunhoSalvar guarda o snapshot do formulário sob um código curto.
func (h *Handler) RascunhoSalvar(w http.ResponseWriter, r *http.Request) {
	usuario := httpmiddleware.GetUsuario(r.Context())
	if usuario == nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "Sessão expirada. Faça login novamente.")
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido")
		return
	}

	dados := r.PostForm.Get("dados")
	if dados != "" && !json.Valid([]byte(dados)) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "dados do rascunho devem ser JSON válido")
		return
	}

	codigo, err := h.rascunhos.Salvar(r.Context(), usuario.Matricula, json.RawMessage(dados))
	if err != nil {
		log.Error().Err(err).Msg("erro ao salvar rascunho")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Erro ao salvar o rascunho.")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"sucesso": true,
		"codigo":  codigo,
	})
}

// RascunhoCarregar devolve o snapshot gravado para repopular o formulário.
func (h *Handler) RascunhoCarregar(w http.ResponseWriter, r *http.Request) {
	dados, err := h.rascunhos.Carregar(r.Context(), chi.URLParam(r, "codigo"))
	if err != nil {
		switch {
		case errors.Is(err, rascunho.ErrCodigoInvalido):
			WriteError(w, http.StatusBadRequest, "VALIDATION", "Código inválido. Use o formato R-XXXXXX.")
		case errors.Is(err, rascunho.ErrNaoEncontrado):
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "Rascunho não encontrado ou expirado (válido por 36 horas).")
		default:
			log.Error().Err(err).Msg("erro ao carregar rascunho")
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "Erro ao carregar o rascunho.")
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"rascunho": dados})
}
