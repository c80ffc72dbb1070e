// Caminho: internal/chat/send_test.go
// Resumo: Testes do envio otimista: reconciliação por id com tolerância de
// desvio de relógio, cadeia de endpoints de fallback e reenvio de falhas.

package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/api"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

type stubTokens struct{}

func (stubTokens) AccessToken(ctx context.Context) string  { return "tok" }
func (stubTokens) Refresh(ctx context.Context) (string, error) { return "", nil }

type stubUsers struct{ user *domain.AuthUser }

func (s stubUsers) CurrentUser() *domain.AuthUser { return s.user }

func newTestService(upstream http.Handler, user *domain.AuthUser) (*Service, *httptest.Server) {
	srv := httptest.NewServer(upstream)
	client := api.New(srv.URL, api.NewHTTPClient(2*time.Second), stubTokens{})
	return New(client, stubUsers{user: user}), srv
}

func iso(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05.000Z") }

func TestReconcileDesvioDeRelogio(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	local := domain.Message{ID: "l1", Content: "oi", CreatedAt: iso(base), Pending: true}

	// Desvio dentro da tolerância: horário local prevalece.
	server := domain.Message{ID: "s1", Content: "oi", CreatedAt: iso(base.Add(3 * time.Second))}
	got := reconcile(local, server)
	if got.CreatedAt != local.CreatedAt {
		t.Fatalf("desvio de 3s deve manter o horário local, obtive %q", got.CreatedAt)
	}
	if got.ID != "s1" || got.Pending || got.Failed {
		t.Fatalf("confirmação inesperada: %+v", got)
	}

	// Desvio acima da tolerância: servidor prevalece.
	server = domain.Message{ID: "s1", Content: "oi", CreatedAt: iso(base.Add(7 * time.Second))}
	got = reconcile(local, server)
	if got.CreatedAt != server.CreatedAt {
		t.Fatalf("desvio de 7s deve adotar o servidor, obtive %q", got.CreatedAt)
	}
}

func TestReconcilePaletaEConteudo(t *testing.T) {
	local := domain.Message{ID: "l1", Content: "oi", IsPalette: true, Type: domain.TypeImage, CreatedAt: iso(time.Now())}
	server := domain.Message{ID: "s1", CreatedAt: iso(time.Now())}

	got := reconcile(local, server)
	if !got.IsPalette {
		t.Fatal("paleta detectada localmente deve sobreviver (OU)")
	}
	if got.Content != "oi" {
		t.Fatalf("servidor sem conteúdo mantém o local, obtive %q", got.Content)
	}
	if got.Type != domain.TypeImage {
		t.Fatalf("servidor sem tipo específico mantém o local, obtive %q", got.Type)
	}
}

func TestMergeMessagesPreservaOtimistas(t *testing.T) {
	now := iso(time.Now())
	local := []domain.Message{
		{ID: "a", Content: "confirmada antes", CreatedAt: now},
		{ID: "b", Content: "pendente", CreatedAt: now, Pending: true},
		{ID: "c", Content: "falhou", CreatedAt: now, Failed: true},
	}
	server := []domain.Message{
		{ID: "a", Content: "confirmada antes", CreatedAt: now},
		{ID: "z", Content: "nova do servidor", CreatedAt: now},
	}

	got := mergeMessages(local, server)
	if len(got) != 4 {
		t.Fatalf("esperava 4 mensagens, obtive %d", len(got))
	}
	// Ordem do servidor primeiro, otimistas preservadas ao final.
	if got[0].ID != "a" || got[1].ID != "z" {
		t.Fatalf("ordem do servidor deve prevalecer: %+v", got)
	}
	if got[2].ID != "b" || !got[2].Pending {
		t.Fatalf("pendente deve sobreviver: %+v", got[2])
	}
	if got[3].ID != "c" || !got[3].Failed {
		t.Fatalf("falhada deve sobreviver: %+v", got[3])
	}

	// Registro local confirmado que sumiu do servidor não volta.
	for _, m := range got {
		if m.ID == "a" && (m.Pending || m.Failed) {
			t.Fatalf("registro casado não pode manter flags: %+v", m)
		}
	}
}

func TestSendConfirmaNoPrimeiroEndpoint(t *testing.T) {
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/chats/c1/messages" {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "srv-1", "content": body["content"], "from": 1,
				"createdAt": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}), &domain.AuthUser{ID: "7"})
	defer srv.Close()

	msg, err := svc.Send(context.Background(), "c1", "olá", "")
	if err != nil {
		t.Fatalf("não esperava erro: %v", err)
	}
	if msg.ID != "srv-1" || msg.Pending || msg.Failed {
		t.Fatalf("confirmação inesperada: %+v", msg)
	}

	session := svc.Session("c1")
	if len(session.Messages) != 1 || session.Messages[0].ID != "srv-1" {
		t.Fatalf("registro otimista deveria ter sido substituído: %+v", session.Messages)
	}
}

func TestSendCadeiaDeFallback(t *testing.T) {
	var paths []string
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/chats" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "srv-2", "content": "olá", "from": 1})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}), nil)
	defer srv.Close()

	msg, err := svc.Send(context.Background(), "c1", "olá", "")
	if err != nil {
		t.Fatalf("não esperava erro: %v", err)
	}
	if msg.ID != "srv-2" {
		t.Fatalf("esperava confirmação pelo último endpoint, obtive %+v", msg)
	}
	if len(paths) != 3 {
		t.Fatalf("esperava 3 tentativas na cadeia, obtive %v", paths)
	}
}

func TestSendFalhaMarcaFailedEPermiteRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "srv-3", "content": "olá", "from": 1})
	}), nil)
	defer srv.Close()

	msg, err := svc.Send(context.Background(), "c1", "olá", "")
	if err == nil {
		t.Fatal("esperava erro com todos os endpoints falhando")
	}
	if !msg.Failed || msg.Pending {
		t.Fatalf("esperava registro marcado como failed: %+v", msg)
	}

	session := svc.Session("c1")
	if len(session.Messages) != 1 || !session.Messages[0].Failed {
		t.Fatalf("registro falhado deve permanecer na lista: %+v", session.Messages)
	}

	// Reenvio com o backend recuperado substitui o registro no lugar.
	fail.Store(false)
	confirmed, err := svc.Retry(context.Background(), "c1", msg.ID)
	if err != nil {
		t.Fatalf("não esperava erro no reenvio: %v", err)
	}
	if confirmed.ID != "srv-3" || confirmed.Failed || confirmed.Pending {
		t.Fatalf("reenvio deveria confirmar: %+v", confirmed)
	}

	session = svc.Session("c1")
	if len(session.Messages) != 1 || session.Messages[0].ID != "srv-3" {
		t.Fatalf("reenvio não pode duplicar o registro: %+v", session.Messages)
	}
}

func TestRetryDeMensagemDesconhecida(t *testing.T) {
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), nil)
	defer srv.Close()

	if _, err := svc.Retry(context.Background(), "c1", "nao-existe"); err != ErrUnknownRecord {
		t.Fatalf("esperava ErrUnknownRecord, obtive %v", err)
	}
}

func TestSendVazia(t *testing.T) {
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), nil)
	defer srv.Close()

	if _, err := svc.Send(context.Background(), "c1", "   ", ""); err != ErrEmptyMessage {
		t.Fatalf("esperava ErrEmptyMessage, obtive %v", err)
	}
}

func TestSendBloqueadoEmChatEncerrado(t *testing.T) {
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), &domain.AuthUser{ID: "7"})
	defer srv.Close()

	svc.mu.Lock()
	st := svc.state("c1")
	st.hasStatus = true
	st.statusLabel = "Encerrado"
	svc.mu.Unlock()

	if _, err := svc.Send(context.Background(), "c1", "oi", ""); err != ErrChatClosed {
		t.Fatalf("esperava ErrChatClosed, obtive %v", err)
	}
}

func TestSendAdminIgnoraBloqueio(t *testing.T) {
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "srv-4", "content": "aviso", "from": 3})
	}), &domain.AuthUser{ID: "3"})
	defer srv.Close()

	svc.mu.Lock()
	st := svc.state("c1")
	st.hasStatus = true
	st.statusLabel = "Encerrado"
	s := false
	st.caseExists = &s
	svc.mu.Unlock()

	msg, err := svc.Send(context.Background(), "c1", "aviso", "")
	if err != nil {
		t.Fatalf("admin deve enviar em chat encerrado: %v", err)
	}
	if !msg.IsPalette {
		t.Fatal("mensagem do admin 3 deve carregar a paleta")
	}
}

func TestSendBloqueadoSemCaso(t *testing.T) {
	svc, srv := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), &domain.AuthUser{ID: "7"})
	defer srv.Close()

	svc.mu.Lock()
	st := svc.state("c1")
	s := false
	st.caseExists = &s
	svc.mu.Unlock()

	if _, err := svc.Send(context.Background(), "c1", "oi", ""); err != ErrCaseRequired {
		t.Fatalf("esperava ErrCaseRequired, obtive %v", err)
	}
}
