// Caminho: internal/normalize/status.go
// Resumo: Classificador total de status de sessão: qualquer valor cru (código
// numérico, string numérica ou texto livre) cai em exatamente uma das chaves
// aberto | encerrado | nao_iniciado, com rótulo e classe de estilo.

package normalize

import (
	"strings"

	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

const (
	classAberto = "bg-green-100 text-green-700"
	classNeutro = "bg-slate-100 text-slate-600"
)

// Palavras-chave de classificação. "encerrado" é verificado antes de concluir
// "nao_iniciado"; vocabulários antigos (bloqueado/fechado/finalizado) colapsam
// em encerrado.
var (
	abertoKeywords    = []string{"open", "abert"}
	encerradoKeywords = []string{"clos", "fech", "encerr", "lock", "bloq", "final"}
)

// Status classifica um status cru. Nulo ou ausente vira nao_iniciado com o
// rótulo "Não iniciado"; texto livre desconhecido mantém o texto original como
// rótulo. Função pura e total: nenhuma entrada falha.
func Status(raw any) domain.StatusInfo {
	if raw == nil {
		return domain.StatusInfo{Key: domain.StatusNaoIniciado, Label: "Não iniciado", ClassName: classNeutro}
	}

	if n, ok := numericStatus(raw); ok {
		switch n {
		case 1:
			return domain.StatusInfo{Key: domain.StatusAberto, Label: "Aberto", ClassName: classAberto}
		case 2:
			return domain.StatusInfo{Key: domain.StatusEncerrado, Label: "Encerrado", ClassName: classNeutro}
		default:
			return domain.StatusInfo{Key: domain.StatusNaoIniciado, Label: "Não iniciado", ClassName: classNeutro}
		}
	}

	s := strings.ToLower(toString(raw))
	if containsAny(s, abertoKeywords) {
		return domain.StatusInfo{Key: domain.StatusAberto, Label: "Em aberto", ClassName: classAberto}
	}
	if containsAny(s, encerradoKeywords) {
		return domain.StatusInfo{Key: domain.StatusEncerrado, Label: "Encerrado", ClassName: classNeutro}
	}
	return domain.StatusInfo{Key: domain.StatusNaoIniciado, Label: toString(raw), ClassName: classNeutro}
}

// SessionStatus classifica apenas quando o valor é conclusivo; devolve false
// para valores nulos ou desconhecidos, para que quem carrega a sessão não
// sobrescreva um status anterior com palpite.
func SessionStatus(raw any) (domain.StatusKey, bool) {
	if raw == nil {
		return "", false
	}
	if n, ok := numericStatus(raw); ok {
		switch n {
		case 1:
			return domain.StatusAberto, true
		case 2:
			return domain.StatusEncerrado, true
		default:
			return "", false
		}
	}
	s := strings.ToLower(toString(raw))
	if containsAny(s, abertoKeywords) {
		return domain.StatusAberto, true
	}
	if containsAny(s, encerradoKeywords) {
		return domain.StatusEncerrado, true
	}
	return "", false
}

// LabelEncerrado informa se um rótulo de exibição corresponde a chat
// encerrado (usado para bloquear envio de não-admins).
func LabelEncerrado(label string) bool {
	low := strings.ToLower(label)
	return strings.Contains(low, "encerr") || strings.Contains(low, "fech") || strings.Contains(low, "final")
}

// numericStatus aceita número JSON ou string composta só de dígitos.
func numericStatus(raw any) (int, bool) {
	if n, ok := raw.(float64); ok {
		return int(n), true
	}
	if s, ok := raw.(string); ok && digitsRe.MatchString(s) {
		if n, ok := toNumber(s); ok {
			return int(n), true
		}
	}
	return 0, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
