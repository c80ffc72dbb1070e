// Caminho: internal/chat/lifecycle.go
// Resumo: Encerramento e reabertura de chats, com janela de desfazer e dica
// efêmera de status para mascarar a latência de propagação do backend.

package chat

import (
	"context"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/contants"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
	"github.com/leodviana/ClubClincheckPro/internal/kv"
)

// Close encerra o chat no backend. Em sucesso, grava a dica de status, marca a
// sessão como encerrada e abre a janela de desfazer; expirando a janela sem
// reabertura, o encerramento fica definitivo.
func (s *Service) Close(ctx context.Context, chatID string) (domain.ChatSession, error) {
	if _, err := s.client.FetchJSON(ctx, "POST", "/api/Chats/"+chatID+"/close", nil); err != nil {
		return s.snapshot(chatID), err
	}

	_ = kv.SetChatMetaHint(ctx, chatID, kv.ChatMetaHint{
		StatusKey:   domain.StatusEncerrado,
		StatusLabel: "Encerrado",
	})

	s.mu.Lock()
	st := s.state(chatID)
	st.statusKey = domain.StatusEncerrado
	st.statusLabel = "Encerrado"
	st.hasStatus = true
	st.touch()

	if st.undoTimer != nil {
		st.undoTimer.Stop()
	}
	st.undoDeadline = time.Now().Add(contants.UndoCloseWindow)
	var tm *time.Timer
	tm = time.AfterFunc(contants.UndoCloseWindow, func() {
		s.clearUndoIfOwner(chatID, tm)
	})
	st.undoTimer = tm
	s.mu.Unlock()

	return s.snapshot(chatID), nil
}

// clearUndoIfOwner expira a janela de desfazer somente se o timer informado
// ainda é o dono dela. Um callback atrasado de um encerramento anterior (que
// disparou enquanto outro Close instalava uma janela nova) não pode apagar a
// janela do sucessor.
func (s *Service) clearUndoIfOwner(chatID string, tm *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.state(chatID)
	if cur.undoTimer != tm {
		return
	}
	cur.undoTimer = nil
	cur.undoDeadline = time.Time{}
}

// Reopen desfaz o encerramento (ou reabre um chat já encerrado). O timer de
// desfazer é cancelado antes da chamada; se o backend recusar, a sessão
// permanece encerrada e o erro sobe ao chamador.
func (s *Service) Reopen(ctx context.Context, chatID string) (domain.ChatSession, error) {
	s.mu.Lock()
	st := s.state(chatID)
	if st.undoTimer != nil {
		st.undoTimer.Stop()
		st.undoTimer = nil
	}
	st.undoDeadline = time.Time{}
	s.mu.Unlock()

	if _, err := s.client.FetchJSON(ctx, "POST", "/api/Chats/open-chat/"+chatID, nil); err != nil {
		return s.snapshot(chatID), err
	}

	kv.DelChatMetaHint(ctx, chatID)

	s.mu.Lock()
	st = s.state(chatID)
	st.statusKey = domain.StatusAberto
	st.statusLabel = "Em aberto"
	st.hasStatus = true
	st.touch()
	s.mu.Unlock()

	return s.snapshot(chatID), nil
}
