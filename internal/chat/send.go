// Caminho: internal/chat/send.go
// Resumo: Envio otimista de mensagens com cadeia de endpoints de fallback,
// retry manual de falhas e reconciliação local/servidor casada por id.

package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/leodviana/ClubClincheckPro/internal/contants"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
	"github.com/leodviana/ClubClincheckPro/internal/normalize"
)

// Erros de gate do envio.
var (
	ErrChatClosed    = errors.New("Este chat está encerrado.")
	ErrCaseRequired  = errors.New("Envie o caso clínico antes de enviar mensagens.")
	ErrEmptyMessage  = errors.New("A mensagem não pode ser vazia.")
	ErrUnknownRecord = errors.New("Mensagem não encontrada para reenvio.")
)

// Send registra a mensagem otimista (pending) e tenta confirmá-la no backend.
// Em caso de falha a mensagem permanece na lista marcada como failed, para que
// o usuário possa reenviar; o erro original é devolvido junto.
func (s *Service) Send(ctx context.Context, chatID, content string, msgType domain.MessageType) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if msgType == "" {
		msgType = domain.TypeText
	}

	viewer := s.users.CurrentUser()
	if err := s.sendGate(chatID, viewer); err != nil {
		return domain.Message{}, err
	}

	from := domain.FromUser
	if isAdmin(viewer) {
		from = domain.FromAdmin
	}
	local := domain.Message{
		ID:        uuid.NewString(),
		From:      from,
		Type:      msgType,
		Content:   content,
		CreatedAt: normalize.CreatedAt(nil),
		Pending:   true,
		IsPalette: from == domain.FromAdmin && isPaletteUser(viewer),
	}

	s.mu.Lock()
	st := s.state(chatID)
	st.messages = append(st.messages, local)
	s.mu.Unlock()

	return s.deliver(ctx, chatID, local, viewer)
}

// Retry reenvia uma mensagem marcada como failed, reutilizando o mesmo
// registro local (mesmo id otimista) até a confirmação.
func (s *Service) Retry(ctx context.Context, chatID, messageID string) (domain.Message, error) {
	viewer := s.users.CurrentUser()

	s.mu.Lock()
	st := s.state(chatID)
	idx := indexByID(st.messages, messageID)
	if idx < 0 || !st.messages[idx].Failed {
		s.mu.Unlock()
		return domain.Message{}, ErrUnknownRecord
	}
	st.messages[idx].Pending = true
	st.messages[idx].Failed = false
	local := st.messages[idx]
	s.mu.Unlock()

	return s.deliver(ctx, chatID, local, viewer)
}

// deliver percorre a cadeia de endpoints candidatos e reconcilia o resultado.
// A cadeia existe porque backends antigos expõem o envio em rotas diferentes;
// o primeiro sucesso encerra a busca.
func (s *Service) deliver(ctx context.Context, chatID string, local domain.Message, viewer *domain.AuthUser) (domain.Message, error) {
	endpoints := []struct {
		path string
		body map[string]any
	}{
		{"/api/chats/" + chatID + "/messages", map[string]any{"content": local.Content, "type": string(local.Type)}},
		{"/api/chats/" + chatID, map[string]any{"content": local.Content, "type": string(local.Type)}},
		{"/api/chats", map[string]any{"chatId": chatID, "content": local.Content, "type": string(local.Type)}},
	}

	var lastErr error
	for _, ep := range endpoints {
		raw, err := s.client.FetchJSON(ctx, "POST", ep.path, ep.body)
		if err != nil {
			lastErr = err
			log.Printf("[DEBUG] envio falhou em %s: %v", ep.path, err)
			continue
		}
		confirmed := s.confirm(chatID, local, raw, viewer)
		return confirmed, nil
	}

	s.mu.Lock()
	st := s.state(chatID)
	if idx := indexByID(st.messages, local.ID); idx >= 0 {
		st.messages[idx].Pending = false
		st.messages[idx].Failed = true
		local = st.messages[idx]
	}
	s.mu.Unlock()

	if lastErr == nil {
		lastErr = domain.ErrNoEndpoint
	}
	return local, lastErr
}

// confirm substitui o registro otimista pela versão confirmada, preservando o
// horário local quando o desvio do servidor cabe na tolerância.
func (s *Service) confirm(chatID string, local domain.Message, raw any, viewer *domain.AuthUser) domain.Message {
	server := normalize.Message(normalize.FirstItem(raw), viewer)
	merged := reconcile(local, server)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)
	if idx := indexByID(st.messages, local.ID); idx >= 0 {
		st.messages[idx] = merged
	} else {
		st.messages = append(st.messages, merged)
	}
	st.touch()
	return merged
}

// reconcile funde o registro otimista com o confirmado. O id e o conteúdo do
// servidor prevalecem; o horário local só cede quando o desvio ultrapassa a
// tolerância; a flag de paleta é um OU (qualquer lado pode tê-la detectado).
func reconcile(local, server domain.Message) domain.Message {
	out := server
	out.Pending = false
	out.Failed = false
	out.IsPalette = local.IsPalette || server.IsPalette
	if out.Content == "" {
		out.Content = local.Content
	}
	if out.Type == domain.TypeText && local.Type != domain.TypeText {
		out.Type = local.Type
	}

	localT, okL := normalize.ParseCreatedAt(local.CreatedAt)
	serverT, okS := normalize.ParseCreatedAt(server.CreatedAt)
	if okL && okS {
		drift := serverT.Sub(localT)
		if drift < 0 {
			drift = -drift
		}
		if drift <= contants.TimestampDriftTolerance {
			out.CreatedAt = local.CreatedAt
		}
	} else if okL && !okS {
		out.CreatedAt = local.CreatedAt
	}
	return out
}

// mergeMessages concilia a lista local com a do servidor, casando por id:
// registros confirmados seguem a ordem do servidor; otimistas ainda sem
// correspondente (pending ou failed) são preservados ao final, nunca perdidos.
func mergeMessages(local, server []domain.Message) []domain.Message {
	seen := make(map[string]int, len(local))
	for i, m := range local {
		seen[m.ID] = i
	}

	out := make([]domain.Message, 0, len(server)+len(local))
	matched := make(map[string]bool, len(server))
	for _, sv := range server {
		if idx, ok := seen[sv.ID]; ok {
			out = append(out, reconcile(local[idx], sv))
			matched[sv.ID] = true
			continue
		}
		out = append(out, sv)
	}
	for _, lc := range local {
		if matched[lc.ID] {
			continue
		}
		if lc.Pending || lc.Failed {
			out = append(out, lc)
		}
	}
	return out
}

func indexByID(list []domain.Message, id string) int {
	for i, m := range list {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// sendGate bloqueia envio em chat encerrado (exceto admin) e em sessão ainda
// sem caso clínico submetido.
func (s *Service) sendGate(chatID string, viewer *domain.AuthUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)

	if st.hasStatus && normalize.LabelEncerrado(st.statusLabel) && !isAdmin(viewer) {
		return ErrChatClosed
	}
	if st.caseExists != nil && !*st.caseExists && !isAdmin(viewer) {
		return ErrCaseRequired
	}
	return nil
}

// touch incrementa a chave de atualização: contador estritamente crescente,
// para que duas mutações nunca produzam a mesma chave.
func (st *sessionState) touch() {
	st.refreshKey++
}
