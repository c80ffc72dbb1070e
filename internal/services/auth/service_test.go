// Caminho: internal/services/auth/service_test.go
// Resumo: Testes do serviço de autenticação: extração tolerante do token e do
// usuário, renovação via cookie e tratamento de endpoints errados.

package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/api"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

func newTestAuth(handler http.Handler) (*Service, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, api.NewHTTPClient(2*time.Second)), srv
}

func TestLoginExtraiTokenComCasingsVariados(t *testing.T) {
	casings := []string{"accessToken", "AccessToken", "acessToken", "AcessToken"}
	for _, key := range casings {
		t.Run(key, func(t *testing.T) {
			svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/Login/login" || r.Method != http.MethodPost {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body["Login"] != "ana" || body["senha"] != "s3nh4" || body["manter_logado"] != true {
					t.Errorf("payload de login inesperado: %v", body)
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					key:    "tok-123",
					"user": map[string]any{"Id": 7, "Nome": "Ana", "Email": "ana@exemplo.com", "Profile": 2},
				})
			}))
			defer srv.Close()

			user, err := svc.Login(context.Background(), "ana", "s3nh4", true)
			if err != nil {
				t.Fatalf("não esperava erro: %v", err)
			}
			if user.ID != "7" || user.Nome != "Ana" {
				t.Fatalf("usuário inesperado: %+v", user)
			}
			if user.Profile == nil || *user.Profile != 2 {
				t.Fatalf("perfil inesperado: %+v", user.Profile)
			}
			if got := svc.AccessToken(context.Background()); got != "tok-123" {
				t.Fatalf("esperava token em memória, obtive %q", got)
			}
		})
	}
}

func TestLoginEndpointErrado(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusMethodNotAllowed} {
		svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := svc.Login(context.Background(), "ana", "x", false)
		if !errors.Is(err, ErrBadLoginEndpoint) {
			t.Fatalf("status %d: esperava ErrBadLoginEndpoint, obtive %v", status, err)
		}
		srv.Close()
	}
}

func TestLoginCredenciaisInvalidas(t *testing.T) {
	svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Login ou senha inválidos"}`))
	}))
	defer srv.Close()

	_, err := svc.Login(context.Background(), "ana", "errada", false)
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		t.Fatalf("esperava StatusError 401, obtive %v", err)
	}
	if se.Message != "Login ou senha inválidos" {
		t.Fatalf("mensagem inesperada: %q", se.Message)
	}
}

func TestLoginSemToken(t *testing.T) {
	svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if _, err := svc.Login(context.Background(), "ana", "x", false); err == nil {
		t.Fatal("resposta sem accessToken deve falhar")
	}
}

func TestRefreshViaCookie(t *testing.T) {
	svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/Login/login":
			http.SetCookie(w, &http.Cookie{Name: "refresh", Value: "rt-1", Path: "/"})
			_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "tok-1"})
		case "/api/Login/refresh":
			if c, err := r.Cookie("refresh"); err != nil || c.Value != "rt-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "tok-2"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	if _, err := svc.Login(context.Background(), "ana", "x", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	token, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token != "tok-2" {
		t.Fatalf("esperava tok-2, obtive %q", token)
	}
	if got := svc.AccessToken(context.Background()); got != "tok-2" {
		t.Fatalf("token em memória deveria ter sido trocado, obtive %q", got)
	}
}

func TestRefreshRecusadoSinalizaSessaoExpirada(t *testing.T) {
	svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := svc.Refresh(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("refresh recusado deve sinalizar sessão expirada, obtive %v", err)
	}
}

func TestLogoutDescartaEstadoMesmoComFalha(t *testing.T) {
	svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/Login/login" {
			_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "tok-1", "user": map[string]any{"id": "7"}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := svc.Login(context.Background(), "ana", "x", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	svc.Logout(context.Background())

	if svc.Authenticated() {
		t.Fatal("logout deve descartar o token local")
	}
	if svc.CurrentUser() != nil {
		t.Fatal("logout deve descartar o usuário local")
	}
}

func TestRequestPasswordReset(t *testing.T) {
	svc, srv := newTestAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Login/forgot-password" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "E-mail enviado"})
	}))
	defer srv.Close()

	msg, err := svc.RequestPasswordReset(context.Background(), "ana@exemplo.com")
	if err != nil {
		t.Fatalf("não esperava erro: %v", err)
	}
	if msg != "E-mail enviado" {
		t.Fatalf("mensagem inesperada: %q", msg)
	}
}
