package plantao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/dpisul/plantoes/internal/http/middleware"
)

// DraftFinalizer marca um rascunho como consumido após a finalização do plantão.
type DraftFinalizer interface {
	Finalizar(ctx context.Context, codigo string) error
}

// Handler orquestra as rotas do módulo de plantão.
type Handler struct {
	service *Service
	drafts  DraftFinalizer
}

func NewHandler(service *Service, drafts DraftFinalizer) *Handler {
	return &Handler{service: service, drafts: drafts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/plantao", func(r chi.Router) {
		r.Get("/", h.handleReferencias)
		r.Post("/", h.handleSalvar)
		r.Get("/imprimir/{id}", h.handleImprimir)
		r.Get("/extra/{id}", h.handleEquipeExtra)
		r.Get("/retificar/{id}", h.handleCarregarRetificacao)
		r.Post("/retificar/{id}", h.handleRetificar)
	})

	r.Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleReferencias(w http.ResponseWriter, r *http.Request) {
	referencias, err := h.service.Referencias(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, referencias)
}

func (h *Handler) handleSalvar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	usuario := httpmiddleware.GetUsuario(ctx)
	if usuario == nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "Sessão expirada. Faça login novamente.")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido")
		return
	}

	acao := r.PostForm.Get("acao")
	if acao == "" {
		acao = AcaoRascunho
	}

	form, err := ParseForm(r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	resultado, err := h.service.Salvar(ctx, usuario, form, acao)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	// Finalização redireciona para a impressão; é fluxo de controle, não erro.
	if resultado.Finalizado {
		// Vindo de um rascunho, o código é consumido. Falha aqui não desfaz
		// o plantão já gravado.
		if codigo := r.PostForm.Get("codigo_rascunho"); codigo != "" && h.drafts != nil {
			if err := h.drafts.Finalizar(ctx, codigo); err != nil {
				log.Warn().Err(err).Str("codigo", codigo).Msg("falha ao consumir rascunho")
			}
		}
		http.Redirect(w, r, fmt.Sprintf("/plantao/imprimir/%d", resultado.ID), http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sucesso":   true,
		"mensagem":  "Rascunho salvo! Protocolo: " + resultado.Protocolo,
		"protocolo": resultado.Protocolo,
	})
}

func (h *Handler) handleRetificar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	usuario := httpmiddleware.GetUsuario(ctx)
	if usuario == nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "Sessão expirada. Faça login novamente.")
		return
	}

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido")
		return
	}

	form, err := ParseForm(r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	protocolo, err := h.service.Retificar(ctx, usuario, id, form)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sucesso":   true,
		"acao":      "finalizado",
		"protocolo": protocolo,
		"id":        id,
	})
}

func (h *Handler) handleCarregarRetificacao(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido")
		return
	}

	detalhes, err := h.service.CarregarRetificacao(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detalhes)
}

func (h *Handler) handleImprimir(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido")
		return
	}

	detalhes, err := h.service.Imprimir(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detalhes)
}

func (h *Handler) handleEquipeExtra(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido")
		return
	}

	p, equipe, err := h.service.EquipeExtra(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plantao":      p,
		"equipe_extra": equipe,
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNaoEncontrado):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Relatório não encontrado.")
	case errors.Is(err, ErrEstadoInvalido):
		writeError(w, http.StatusBadRequest, "STATE", "Apenas relatórios finalizados podem ser retificados.")
	case errors.Is(err, ErrValidacao):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("erro interno no módulo plantão")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Erro ao processar a solicitação. Tente novamente.")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
