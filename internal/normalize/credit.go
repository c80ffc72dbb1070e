// Caminho: internal/normalize/credit.go
// Resumo: Adaptador de créditos: projeta a lista crua do backend (com caso
// aninhado em chaves variadas) no resumo local, derivando o título a partir do
// nome do paciente e descartando títulos que só ecoam o id do chat.

package normalize

import (
	"regexp"
	"strings"

	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

var (
	patientNameKeyRe = regexp.MustCompile(`(?i)patient.*name|patient_name|patientname|patient|nome|name$`)
	chatLabelRe      = regexp.MustCompile(`(?i)^chat\s*[:\-]?\s*[0-9a-f\-]{6,}`)
)

// Credits normaliza a lista de créditos (array direto ou envelope {data}).
func Credits(data any) []domain.Credit {
	var rawList []any
	if arr, ok := data.([]any); ok {
		rawList = arr
	} else if m, ok := data.(map[string]any); ok {
		rawList, _ = m["data"].([]any)
	}

	out := make([]domain.Credit, 0, len(rawList))
	for _, it := range rawList {
		out = append(out, Credit(it))
	}
	return out
}

// Credit normaliza um item de crédito.
func Credit(it any) domain.Credit {
	src := field(it, "case", "caseInfo", "caseData", "case_obj", "case_info")
	if src == nil {
		src = it
	}

	id := trimmed(field(it,
		"id", "chatId", "chat_id", "chatSessionId", "chatSessionID", "chat_session_id",
		"uuid", "uuid_chat"))
	if id == "" {
		id = trimmed(field(src, "chatSessionId", "chatSessionID", "chat_session_id"))
	}

	remaining := 0
	if n, ok := toNumber(field(it, "remaining", "creditos", "messagesRemaining")); ok {
		remaining = int(n)
	}

	return domain.Credit{
		ID:            id,
		Title:         creditTitle(it, src, id),
		Remaining:     remaining,
		Status:        optional(field(it, "status", "state", "status_text")),
		CreatedAt:     firstOptional(field(src, "createdAt", "created_at"), field(it, "createdAt", "created_at", "dt_criacao")),
		OpenAt:        firstOptional(field(it, "openedAt", "openAt", "open_at", "dt_abertura"), field(src, "openAt", "open_at")),
		CloseAt:       firstOptional(field(it, "closedAt", "closeAt", "closed_at", "dt_encerramento"), field(src, "closedAt", "closed_at")),
		TreatmentPlan: firstOptional(field(src, "treatmentPlan", "treatment_plan", "TreatmentPlan"), field(it, "treatmentPlan", "treatment_plan", "plano")),
		CaseCreatedAt: optional(field(src, "createdAt", "created_at")),
		CaseUpdatedAt: optional(field(src, "updatedAt", "updated_at")),
	}
}

// creditTitle deriva o título: locais aninhados explícitos primeiro, depois a
// varredura recursiva limitada, depois candidatos rasos. Um título que seja o
// próprio id, o contenha (mesmo sem hífens) ou tenha a cara de um rótulo
// "Chat <id>" é descartado (vira nulo) para não exibir id como nome.
func creditTitle(it, src any, id string) *string {
	explicitSrc := field(it, "caseInfo", "case_info", "case", "caseData")
	if explicitSrc == nil {
		explicitSrc = src
	}

	candidate := trimmed(field(explicitSrc, "patientName", "PatientName", "patient_name", "name"))
	if candidate == "" {
		candidate = findPatientName(it, 2)
	}
	if candidate == "" {
		candidate = findPatientName(src, 2)
	}
	if candidate == "" {
		candidate = trimmed(field(src, "patientName", "PatientName", "patient_name"))
	}
	if candidate == "" {
		candidate = trimmed(field(it, "patientName", "PatientName", "patient_name", "title", "nome", "caseTitle", "title_chat"))
	}
	if candidate == "" {
		return nil
	}

	idStr := strings.TrimSpace(id)
	compactID := strings.ToLower(strings.ReplaceAll(idStr, "-", ""))
	lowered := strings.ToLower(candidate)

	switch {
	case candidate == idStr:
		return nil
	case idStr != "" && strings.Contains(candidate, idStr):
		return nil
	case compactID != "" && strings.Contains(lowered, compactID):
		return nil
	case chatLabelRe.MatchString(candidate):
		return nil
	}
	return &candidate
}

// findPatientName procura um valor textual sob chave com cara de "nome do
// paciente", com recursão limitada em profundidade: primeiro as chaves diretas
// do nível atual, depois a descida em objetos e arrays aninhados.
func findPatientName(obj any, depth int) string {
	if obj == nil || depth < 0 {
		return ""
	}
	switch v := obj.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		keys := sortedKeys(v)
		for _, k := range keys {
			if s, ok := v[k].(string); ok && strings.TrimSpace(s) != "" && patientNameKeyRe.MatchString(k) {
				return strings.TrimSpace(s)
			}
		}
		for _, k := range keys {
			switch v[k].(type) {
			case map[string]any, []any:
				if found := findPatientName(v[k], depth-1); found != "" {
					return found
				}
			}
		}
	case []any:
		for _, el := range v {
			if found := findPatientName(el, depth-1); found != "" {
				return found
			}
		}
	}
	return ""
}

// optional converte um valor cru em *string, normalizando vazio para nulo.
func optional(v any) *string {
	s := trimmed(v)
	if s == "" {
		return nil
	}
	return &s
}

// firstOptional devolve o primeiro valor não-vazio entre os candidatos.
func firstOptional(values ...any) *string {
	for _, v := range values {
		if s := optional(v); s != nil {
			return s
		}
	}
	return nil
}
