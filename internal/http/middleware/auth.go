package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dpisul/plantoes/internal/auth"
	"github.com/dpisul/plantoes/internal/repo"
)

type contextKey string

const (
	// ContextKeyUsuario guarda a identidade resolvida da sessão.
	ContextKeyUsuario contextKey = "usuario"
)

// SessionResolver resolve um identificador de sessão em identidade.
type SessionResolver interface {
	Resolver(ctx context.Context, sessionID string) (*repo.Usuario, error)
}

// SessionGate roda em toda requisição, antes de qualquer rota: resolve o cookie
// de sessão e exige identidade fora dos prefixos públicos. Erros do banco na
// resolução degradam para anônimo em vez de derrubar a requisição.
func SessionGate(resolver SessionResolver, publicPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
				usuario, err := resolver.Resolver(ctx, cookie.Value)
				if err != nil {
					log.Warn().Err(err).Msg("falha ao resolver sessão; seguindo como anônimo")
				} else if usuario != nil {
					ctx = context.WithValue(ctx, ContextKeyUsuario, usuario)
				}
			}

			if GetUsuario(ctx) == nil && !isPublic(r.URL.Path, publicPrefixes) {
				loginURL := "/login?redirect=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsuario recupera a identidade do contexto, ou nil quando anônimo.
func GetUsuario(ctx context.Context) *repo.Usuario {
	val, _ := ctx.Value(ContextKeyUsuario).(*repo.Usuario)
	return val
}

func isPublic(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
