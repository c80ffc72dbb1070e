// Caminho: internal/normalize/message.go
// Resumo: Normalizador de mensagens: mapeia um item cru do backend (chaves,
// casings e tipos variados) para o esquema local fechado, sem nunca falhar.

package normalize

import (
	"strings"

	"github.com/google/uuid"

	"github.com/leodviana/ClubClincheckPro/internal/contants"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

// Message normaliza um item cru para o registro local. viewer é o usuário
// autenticado, usado para classificar remetentes opacos por igualdade de id.
// Todo campo tem default seguro; identificadores ausentes ganham um UUID novo.
func Message(it any, viewer *domain.AuthUser) domain.Message {
	id := trimmed(field(it, "id", "message_id", "isn_mensagem", "uuid"))
	if id == "" {
		id = uuid.NewString()
	}

	from, senderID := senderRole(field(it, "from", "sender", "from_user", "user_id"), viewer)

	msg := domain.Message{
		ID:        id,
		From:      from,
		SenderID:  senderID,
		Content:   toString(field(it, "content", "text", "message", "body", "url")),
		Type:      MessageKind(field(it, "type", "tipo", "message_type")),
		CreatedAt: CreatedAt(field(it, "createdAt", "created_at", "timestamp", "dt_criacao")),
	}
	msg.IsPalette = paletteFlag(it, from)
	return msg
}

// MessageKind mapeia o tipo cru: códigos numéricos pela tabela fixa do
// backend, strings por substring, default texto.
func MessageKind(raw any) domain.MessageType {
	switch v := raw.(type) {
	case float64:
		switch int(v) {
		case contants.TypeCodeImage:
			return domain.TypeImage
		case contants.TypeCodeVideo:
			return domain.TypeVideo
		case contants.TypeCodeAudio:
			return domain.TypeAudio
		default:
			return domain.TypeText
		}
	case string:
		switch {
		case strings.Contains(v, "image"):
			return domain.TypeImage
		case strings.Contains(v, "audio"):
			return domain.TypeAudio
		case strings.Contains(v, "video"):
			return domain.TypeVideo
		}
	}
	return domain.TypeText
}

// senderRole classifica o remetente. Valores numéricos passam pela tabela fixa
// (1 = usuário; 2 e 3 = admin); fora dela o valor é um id opaco de remetente e
// o papel sai da igualdade com o id do usuário autenticado. Strings seguem a
// mesma checagem de id e, por fim, casamento por palavra-chave.
func senderRole(raw any, viewer *domain.AuthUser) (domain.MessageFrom, string) {
	switch v := raw.(type) {
	case float64:
		n := int(v)
		if n == contants.FromUserValue {
			return domain.FromUser, ""
		}
		for _, adminCode := range contants.FromAdminValues {
			if n == adminCode {
				return domain.FromAdmin, ""
			}
		}
		senderID := toString(v)
		if viewer != nil && viewer.ID != "" && senderID == viewer.ID {
			return domain.FromUser, senderID
		}
		return domain.FromAdmin, senderID
	case string:
		senderID := v
		if viewer != nil && viewer.ID != "" && senderID == viewer.ID {
			return domain.FromUser, senderID
		}
		switch strings.ToLower(v) {
		case "user", "paciente", "cliente":
			return domain.FromUser, senderID
		case "admin", "especialista", "staff":
			return domain.FromAdmin, senderID
		}
		return domain.FromAdmin, senderID
	}
	return domain.FromAdmin, ""
}

// paletteFlag avalia a dica cosmética de paleta. Mensagens de usuário nunca a
// carregam; para admin, vale o código de remetente 3 ou o primeiro campo
// candidato que case (booleano, numérico 3 ou string reconhecida).
func paletteFlag(it any, from domain.MessageFrom) bool {
	if from != domain.FromAdmin {
		return false
	}
	rawFrom := field(it, "from", "sender", "from_user", "user_id")
	if n, ok := rawFrom.(float64); ok && int(n) == contants.FromPaletteValue {
		return true
	}

	candidates := []string{"isPalette", "is_palette", "palette", "sender_profile", "profile", "profile_id", "admin_color", "color"}
	for _, key := range candidates {
		cand := field(it, key)
		if cand == nil {
			continue
		}
		if b, ok := cand.(bool); ok && b {
			return true
		}
		if n, ok := cand.(float64); ok {
			if int(n) == contants.FromPaletteValue {
				return true
			}
			continue
		}
		s := strings.ToLower(toString(cand))
		if s == "3" || s == "true" ||
			strings.Contains(s, "palette") || strings.Contains(s, "pink") ||
			strings.Contains(s, "magenta") || strings.Contains(s, "brand") {
			return true
		}
	}
	return false
}
