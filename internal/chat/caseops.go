// Caminho: internal/chat/caseops.go
// Resumo: Submissão do caso clínico que desbloqueia o envio de mensagens. O
// payload usa as chaves PascalCase esperadas pelo backend.

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

// CaseForm é o formulário recebido do frontend para criar o caso.
type CaseForm struct {
	PatientName          string `json:"patientName"`
	Diagnostic           string `json:"diagnostic"`
	TreatmentPlan        string `json:"treatmentPlan"`
	Objective            string `json:"objective"`
	PatientConcerns      string `json:"patientConcerns"`
	DoctorComments       string `json:"doctorComments"`
	ClinicalNotes        string `json:"clinicalNotes"`
	TreatmentLimitations string `json:"treatmentLimitations"`
	Confirmed            bool   `json:"confirmed"`
}

// ErrCaseNotConfirmed exige o aceite explícito antes da submissão.
var ErrCaseNotConfirmed = errors.New("Confirme as informações do caso antes de enviar.")

// Validate confere os campos obrigatórios do formulário.
func (f CaseForm) Validate() error {
	var missing []string
	if strings.TrimSpace(f.PatientName) == "" {
		missing = append(missing, "nome do paciente")
	}
	if strings.TrimSpace(f.Objective) == "" {
		missing = append(missing, "objetivo")
	}
	if strings.TrimSpace(f.PatientConcerns) == "" {
		missing = append(missing, "queixas do paciente")
	}
	if strings.TrimSpace(f.DoctorComments) == "" {
		missing = append(missing, "comentários do doutor")
	}
	if len(missing) > 0 {
		return errors.New("Preencha os campos obrigatórios: " + strings.Join(missing, ", ") + ".")
	}
	if !f.Confirmed {
		return ErrCaseNotConfirmed
	}
	return nil
}

// SubmitCase valida e envia o caso clínico. Em sucesso, o chat passa a aberto
// e CaseExists vira true, liberando o envio de mensagens.
func (s *Service) SubmitCase(ctx context.Context, chatID string, form CaseForm) (domain.ChatSession, error) {
	if err := form.Validate(); err != nil {
		return s.snapshot(chatID), err
	}

	viewer := s.users.CurrentUser()
	confirmedBy := ""
	if viewer != nil {
		confirmedBy = viewer.Nome
		if confirmedBy == "" {
			confirmedBy = viewer.Email
		}
	}

	payload := map[string]any{
		"ChatSessionId":          chatID,
		"PatientName":            strings.TrimSpace(form.PatientName),
		"Diagnosis":              strings.TrimSpace(form.Diagnostic),
		"TreatmentPlan":          strings.TrimSpace(form.TreatmentPlan),
		"MainConcerns":           strings.TrimSpace(form.PatientConcerns),
		"DoctorComments":         strings.TrimSpace(form.DoctorComments),
		"ClinicalConsiderations": strings.TrimSpace(form.ClinicalNotes),
		"TreatmentLimitations":   strings.TrimSpace(form.TreatmentLimitations),
		"ObjectiveGeneral":       strings.TrimSpace(form.Objective),
		"Confirmed":              form.Confirmed,
		"ConfirmedBy":            confirmedBy,
		"CreatedAt":              time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	if _, err := s.client.FetchJSON(ctx, "POST", "/api/chats/"+chatID+"/case", payload); err != nil {
		return s.snapshot(chatID), err
	}

	s.mu.Lock()
	st := s.state(chatID)
	exists := true
	st.caseExists = &exists
	st.caseData = domain.Case{
		PatientName:          strings.TrimSpace(form.PatientName),
		Diagnostic:           strings.TrimSpace(form.Diagnostic),
		TreatmentPlan:        strings.TrimSpace(form.TreatmentPlan),
		Objective:            strings.TrimSpace(form.Objective),
		PatientConcerns:      strings.TrimSpace(form.PatientConcerns),
		DoctorComments:       strings.TrimSpace(form.DoctorComments),
		ClinicalNotes:        strings.TrimSpace(form.ClinicalNotes),
		TreatmentLimitations: strings.TrimSpace(form.TreatmentLimitations),
	}
	st.statusKey = domain.StatusAberto
	st.statusLabel = "Em aberto"
	st.hasStatus = true
	st.touch()
	s.mu.Unlock()

	return s.snapshot(chatID), nil
}

// Case devolve o caso da sessão e o tri-estado de existência: nil = ainda
// desconhecido (backend não respondeu), false = ausente (formulário
// obrigatório), true = presente. Com o tri-estado ainda não resolvido, o
// backend é consultado antes de responder, para nunca converter "não
// verificado" num falso negativo.
func (s *Service) Case(ctx context.Context, chatID string) (*domain.Case, *bool) {
	s.mu.Lock()
	unknown := s.state(chatID).caseExists == nil
	s.mu.Unlock()

	if unknown {
		s.loadCase(ctx, chatID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(chatID)
	if st.caseExists == nil || !*st.caseExists {
		return nil, st.caseExists
	}
	c := st.caseData
	return &c, st.caseExists
}
