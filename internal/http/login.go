package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/dpisul/plantoes/internal/auth"
	httpmiddleware "github.com/dpisul/plantoes/internal/http/middleware"
	"github.com/dpisul/plantoes/internal/service"
)

// LoginEtapa informa ao cliente em qual etapa do login ele está.
func (h *Handler) LoginEtapa(w http.ResponseWriter, r *http.Request) {
	if httpmiddleware.GetUsuario(r.Context()) != nil {
		http.Redirect(w, r, redirectTarget(r), http.StatusFound)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"etapa": "matricula"})
}

// LoginMatricula é a primeira etapa: emite e envia o código de acesso.
func (h *Handler) LoginMatricula(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido")
		return
	}

	resultado, err := h.authService.IniciarLogin(r.Context(), r.PostForm.Get("matricula"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatriculaInvalida):
			WriteError(w, http.StatusBadRequest, "VALIDATION", "Matrícula inválida. Digite sua matrícula completa.")
		case errors.Is(err, service.ErrServidorNaoEncontrado):
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "Matrícula não encontrada. Verifique seu número ou entre em contato com o administrador.")
		default:
			log.Error().Err(err).Msg("erro ao iniciar login")
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "Erro interno ao processar a solicitação.")
		}
		return
	}

	resposta := map[string]any{
		"etapa": "token",
		"servidor": map[string]any{
			"nome":            resultado.Nome,
			"matricula":       resultado.Matricula,
			"email_mascarado": resultado.EmailMascarado,
			"email":           resultado.Email,
		},
	}
	// Sem canal de envio configurado, o código sai na resposta (modo dev).
	if resultado.TokenDev != "" {
		resposta["token_dev"] = resultado.TokenDev
	}

	WriteJSON(w, http.StatusOK, resposta)
}

// LoginToken é a segunda etapa: valida o código, cria a sessão e redireciona.
func (h *Handler) LoginToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido")
		return
	}

	email := r.PostForm.Get("email")
	token := r.PostForm.Get("token")
	if email == "" || len(token) != 6 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Token inválido. Digite os 6 dígitos recebidos por email.")
		return
	}

	sessao, err := h.authService.ValidarToken(r.Context(), email, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenInvalido):
			WriteError(w, http.StatusUnauthorized, "AUTH", "Código inválido ou expirado. Tente novamente.")
		case errors.Is(err, service.ErrServidorNaoEncontrado):
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "Servidor não encontrado.")
		default:
			log.Error().Err(err).Msg("erro ao validar token")
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "Erro interno ao processar a solicitação.")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sessao.SessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.authService.SessionTTL().Seconds()),
	})

	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

// Logout remove a sessão e limpa o cookie. Erros do banco são ignorados.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("falha ao remover sessão no logout")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func redirectTarget(r *http.Request) string {
	target := r.URL.Query().Get("redirect")
	if target == "" || !isLocalPath(target) {
		return "/plantao"
	}
	return target
}

// isLocalPath evita open redirect: só aceita caminhos absolutos do próprio site.
func isLocalPath(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && len(target) > 0 && target[0] == '/'
}
