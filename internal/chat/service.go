// Caminho: internal/chat/service.go
// Resumo: Serviço de sessões de chat: carrega e projeta a sessão a partir do
// backend, mantém o estado local (mensagens otimistas, janela de desfazer) e
// concilia com as respostas do servidor.

package chat

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/api"
	"github.com/leodviana/ClubClincheckPro/internal/contants"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
	"github.com/leodviana/ClubClincheckPro/internal/kv"
	"github.com/leodviana/ClubClincheckPro/internal/normalize"
)

// UserSource fornece o usuário autenticado corrente, ou nil.
type UserSource interface {
	CurrentUser() *domain.AuthUser
}

// Service orquestra as operações de chat sobre o cliente HTTP. O estado por
// sessão (mensagens otimistas, caso, janela de desfazer) vive em memória e é
// reconciliado a cada carga.
type Service struct {
	client *api.Client
	users  UserSource

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState é o estado local de uma sessão, protegido pelo mutex do serviço.
type sessionState struct {
	title       *string
	statusKey   domain.StatusKey
	statusLabel string
	hasStatus   bool
	messages    []domain.Message
	caseData    domain.Case
	caseExists  *bool
	refreshKey  int64

	undoTimer    *time.Timer
	undoDeadline time.Time
}

// New cria o serviço de chat.
func New(client *api.Client, users UserSource) *Service {
	return &Service{client: client, users: users, sessions: map[string]*sessionState{}}
}

// Load carrega a sessão do backend e devolve a projeção reconciliada com o
// estado local. Falhas parciais (metadados ou caso indisponíveis) não derrubam
// a carga: a sessão sai com o que foi possível obter. Já a falha total de
// conectividade sobe como erro, para não entregar uma sessão vazia fabricada
// como se o chat realmente não tivesse mensagens.
func (s *Service) Load(ctx context.Context, chatID string) (domain.ChatSession, error) {
	viewer := s.users.CurrentUser()

	meta, metaErr := s.client.FetchJSON(ctx, "GET", "/api/chats/"+chatID, nil)

	var serverMsgs []domain.Message
	raw, msgErr := s.client.FetchJSON(ctx, "GET", "/api/chats/"+chatID+"/messages", nil)
	if msgErr == nil {
		serverMsgs = normalizeList(normalize.ItemList(raw), viewer)
	}

	if errors.Is(metaErr, domain.ErrServerUnreachable) && errors.Is(msgErr, domain.ErrServerUnreachable) {
		return s.snapshot(chatID), domain.ErrServerUnreachable
	}
	// Sem endpoint dedicado de mensagens, os metadados podem embutir a lista.
	if serverMsgs == nil && metaErr == nil {
		serverMsgs = normalizeList(normalize.ItemList(meta), viewer)
	}

	s.mu.Lock()
	st := s.state(chatID)

	if metaErr == nil {
		obj := normalize.FirstItem(meta)
		if title := firstNonBlank(obj, "title", "name", "caseTitle", "title_chat", "subject", "chatTitle", "titulo"); title != "" {
			st.title = &title
		}
		if key, ok := normalize.SessionStatus(fieldAny(obj, "status", "state", "situacao", "status_chat")); ok {
			st.statusKey = key
			st.statusLabel = normalize.Status(fieldAny(obj, "status", "state", "situacao", "status_chat")).Label
			st.hasStatus = true
		}
	}
	if serverMsgs != nil {
		st.messages = mergeMessages(st.messages, serverMsgs)
	}
	s.mu.Unlock()

	s.loadCase(ctx, chatID)
	s.applyHint(ctx, chatID)

	return s.snapshot(chatID), nil
}

// Session devolve a projeção atual sem tocar o backend.
func (s *Service) Session(chatID string) domain.ChatSession {
	return s.snapshot(chatID)
}

// loadCase busca o caso clínico e resolve o tri-estado de CaseExists:
// sucesso com campos -> true; erro HTTP (404 incluso) ou resposta sem campos
// -> false (formulário obrigatório); falha de conectividade mantém nil
// (desconhecido) para não bloquear indevidamente.
func (s *Service) loadCase(ctx context.Context, chatID string) {
	raw, err := s.client.FetchJSON(ctx, "GET", "/api/chats/"+chatID+"/case", nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)

	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			exists := false
			st.caseExists = &exists
		}
		return
	}

	obj := normalize.FirstItem(raw)
	exists := normalize.HasCaseFields(obj)
	st.caseExists = &exists
	if exists {
		st.caseData = normalize.Case(obj, st.caseData)
	}
}

// applyHint sobrepõe a dica efêmera de status gravada por mutações recentes
// (encerrar/reabrir), enquanto o backend ainda pode devolver o valor antigo.
func (s *Service) applyHint(ctx context.Context, chatID string) {
	hint, ok := kv.GetChatMetaHint(ctx, chatID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)
	st.statusKey = hint.StatusKey
	st.statusLabel = hint.StatusLabel
	st.hasStatus = true
}

// snapshot monta a projeção pública da sessão a partir do estado local.
func (s *Service) snapshot(chatID string) domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)

	status := domain.StatusInfo{Key: domain.StatusNaoIniciado, Label: "Não iniciado", ClassName: "bg-slate-100 text-slate-600"}
	if st.hasStatus {
		status = normalize.Status(string(st.statusKey))
		if st.statusLabel != "" {
			status.Label = st.statusLabel
		}
	}

	msgs := make([]domain.Message, len(st.messages))
	copy(msgs, st.messages)

	session := domain.ChatSession{
		ID:         chatID,
		Title:      st.title,
		Status:     status,
		Messages:   msgs,
		CaseExists: st.caseExists,
		RefreshKey: st.refreshKey,
	}
	if st.caseExists != nil && *st.caseExists {
		c := st.caseData
		session.Case = &c
	}
	if !st.undoDeadline.IsZero() {
		if remaining := time.Until(st.undoDeadline); remaining > 0 {
			session.UndoSeconds = int(remaining.Round(time.Second) / time.Second)
		}
	}
	return session
}

// state devolve (criando se preciso) o estado da sessão. Chamar com o mutex.
func (s *Service) state(chatID string) *sessionState {
	st, ok := s.sessions[chatID]
	if !ok {
		st = &sessionState{}
		s.sessions[chatID] = st
	}
	return st
}

// isAdmin informa se o usuário autenticado é o administrador da plataforma.
func isAdmin(u *domain.AuthUser) bool {
	return u != nil && u.ID == strconv.Itoa(contants.AdminUserID)
}

// isPaletteUser informa se o usuário recebe o estilo de paleta.
func isPaletteUser(u *domain.AuthUser) bool {
	if u == nil {
		return false
	}
	if u.Profile != nil && *u.Profile == contants.AdminProfile {
		return true
	}
	return u.ID == strconv.Itoa(contants.AdminUserID)
}

func normalizeList(items []any, viewer *domain.AuthUser) []domain.Message {
	if items == nil {
		return nil
	}
	out := make([]domain.Message, 0, len(items))
	for _, it := range items {
		out = append(out, normalize.Message(it, viewer))
	}
	return out
}

func firstNonBlank(obj any, keys ...string) string {
	m, ok := obj.(map[string]any)
	if !ok {
		return ""
	}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := normalize.Trimmed(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func fieldAny(obj any, keys ...string) any {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
