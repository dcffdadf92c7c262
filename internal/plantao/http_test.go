package plantao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/dpisul/plantoes/internal/http/middleware"
	"github.com/dpisul/plantoes/internal/repo"
)

func newTestRouter(memRepo *memPlantaoRepo, usuario *repo.Usuario) http.Handler {
	svc := NewService(memRepo, memRefRepo{}, nil)
	handler := NewHandler(svc, nil)

	r := chi.NewRouter()
	if usuario != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeyUsuario, usuario)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	handler.RegisterRoutes(r)
	return r
}

func postForm(t *testing.T, router http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("resposta não é JSON: %v", err)
	}
	return envelope.Data
}

func TestHandleSalvarRascunho(t *testing.T) {
	router := newTestRouter(newMemPlantaoRepo(), usuarioTeste())

	rec := postForm(t, router, "/plantao/", formBase())

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, esperado 200: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["protocolo"] != "FT-000001" {
		t.Fatalf("protocolo incorreto: %v", data["protocolo"])
	}
}

func TestHandleSalvarFinalizarRedireciona(t *testing.T) {
	router := newTestRouter(newMemPlantaoRepo(), usuarioTeste())

	values := formBase()
	values.Set("acao", AcaoFinalizar)
	rec := postForm(t, router, "/plantao/", values)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("finalizar deve redirecionar com 303, veio %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/plantao/imprimir/1" {
		t.Fatalf("redirect incorreto: %q", loc)
	}
}

func TestHandleSalvarSemSessao(t *testing.T) {
	router := newTestRouter(newMemPlantaoRepo(), nil)

	rec := postForm(t, router, "/plantao/", formBase())

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sem identidade deve responder 401, veio %d", rec.Code)
	}
}

func TestHandleSalvarValidacao(t *testing.T) {
	router := newTestRouter(newMemPlantaoRepo(), usuarioTeste())

	values := formBase()
	values.Del("hora_entrada")
	rec := postForm(t, router, "/plantao/", values)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("campos obrigatórios ausentes devem responder 400, veio %d", rec.Code)
	}
}

func TestHandleRetificarRascunhoRejeitado(t *testing.T) {
	memRepo := newMemPlantaoRepo()
	router := newTestRouter(memRepo, usuarioTeste())

	// Cria rascunho (id 1).
	postForm(t, router, "/plantao/", formBase())

	rec := postForm(t, router, "/plantao/retificar/1", formBase())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("retificar rascunho deve responder 400, veio %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRetificarFinalizado(t *testing.T) {
	memRepo := newMemPlantaoRepo()
	router := newTestRouter(memRepo, usuarioTeste())

	values := formBase()
	values.Set("acao", AcaoFinalizar)
	postForm(t, router, "/plantao/", values)

	rec := postForm(t, router, "/plantao/retificar/1", formBase())

	if rec.Code != http.StatusOK {
		t.Fatalf("retificar finalizado deve passar, veio %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["protocolo"] != "FT-000001" {
		t.Fatalf("retificação deve preservar o protocolo, veio %v", data["protocolo"])
	}
}

func TestHandleImprimirInexistente(t *testing.T) {
	router := newTestRouter(newMemPlantaoRepo(), usuarioTeste())

	req := httptest.NewRequest(http.MethodGet, "/plantao/imprimir/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("relatório inexistente deve responder 404, veio %d", rec.Code)
	}
}

func TestHandleImprimir(t *testing.T) {
	memRepo := newMemPlantaoRepo()
	router := newTestRouter(memRepo, usuarioTeste())

	values := formBase()
	values.Set("acao", AcaoFinalizar)
	values.Set("equipe_0_nome", "policial")
	values.Set("proc_0_tipo", TipoTCO)
	values.Set("proc_0_natureza", "dano")
	postForm(t, router, "/plantao/", values)

	req := httptest.NewRequest(http.MethodGet, "/plantao/imprimir/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, esperado 200: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if _, ok := data["plantao"]; !ok {
		t.Fatal("resposta de impressão deve conter o plantão")
	}
	equipe, ok := data["equipe"].([]any)
	if !ok || len(equipe) != 1 {
		t.Fatalf("resposta de impressão deve conter a equipe: %v", data["equipe"])
	}
}

type memFinalizer struct {
	codigos []string
}

func (m *memFinalizer) Finalizar(ctx context.Context, codigo string) error {
	m.codigos = append(m.codigos, codigo)
	return nil
}

func TestHandleSalvarFinalizarConsomeRascunho(t *testing.T) {
	finalizer := &memFinalizer{}
	svc := NewService(newMemPlantaoRepo(), memRefRepo{}, nil)
	handler := NewHandler(svc, finalizer)

	usuario := usuarioTeste()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeyUsuario, usuario)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.RegisterRoutes(r)

	values := formBase()
	values.Set("acao", AcaoFinalizar)
	values.Set("codigo_rascunho", "R-000007")
	rec := postForm(t, r, "/plantao/", values)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("finalização deve redirecionar com 303, veio %d", rec.Code)
	}
	if len(finalizer.codigos) != 1 || finalizer.codigos[0] != "R-000007" {
		t.Fatalf("rascunho não foi consumido: %v", finalizer.codigos)
	}
}
