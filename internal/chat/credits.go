// Caminho: internal/chat/credits.go
// Resumo: Listagem de créditos do usuário, com fallback para a listagem de
// chats quando o endpoint dedicado não existe no backend.

package chat

import (
	"context"
	"log"

	"github.com/leodviana/ClubClincheckPro/internal/domain"
	"github.com/leodviana/ClubClincheckPro/internal/normalize"
)

// Credits lista os créditos/sessões do usuário autenticado. O endpoint
// dedicado é preferido; backends antigos só expõem a listagem de chats.
func (s *Service) Credits(ctx context.Context) ([]domain.Credit, error) {
	var lastErr error
	for _, path := range []string{"/api/credits", "/api/chats"} {
		raw, err := s.client.FetchJSON(ctx, "GET", path, nil)
		if err != nil {
			lastErr = err
			log.Printf("[DEBUG] listagem de créditos falhou em %s: %v", path, err)
			continue
		}
		return normalize.Credits(raw), nil
	}
	return nil, lastErr
}
