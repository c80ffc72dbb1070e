// Caminho: internal/normalize/case.go
// Resumo: Normalizador do caso clínico: escolha do primeiro candidato não-vazio
// por campo, em listas de chaves priorizadas, sem sobrescrever valor local
// preenchido com ausência remota.

package normalize

import "github.com/leodviana/ClubClincheckPro/internal/domain"

// Listas de chaves candidatas por campo, em ordem de prioridade.
var (
	casePatientNameKeys = []string{"patientName", "PatientName", "patient_name", "name"}
	caseDiagnosticKeys  = []string{"diagnostic", "Diagnosis", "diagnose", "diagnostico"}
	caseTreatmentKeys   = []string{"treatmentPlan", "TreatmentPlan", "treatment_plan", "plano"}
	caseDoubtsKeys      = []string{"doubts", "duvidas", "questions"}
	caseObjectiveKeys   = []string{
		"objective", "ObjectiveGeneral", "Objective", "objectiveGeneral",
		"objective_general", "Objective_General", "objetivo", "ObjectiveText",
	}
	caseConcernsKeys = []string{"patientConcerns", "MainConcerns", "mainConcerns", "patient_concerns"}
	caseCommentsKeys = []string{"doctorComments", "DoctorComments", "doctor_comments"}
	caseClinicalKeys = []string{
		"clinicalNotes", "ClinicalConsiderations", "clinical_considerations",
		"Clinical_Considerations", "clinical_notes", "ClinicalConsideration",
		"clinicalConsiderations", "clinical_consideration", "clinical_note",
		"ClinicalNote", "ClinicalNotes", "clinicalObservation", "clinical_observations",
	}
	caseLimitationsKeys = []string{"treatmentLimitations", "TreatmentLimitations", "treatment_limitations"}
)

// HasCaseFields informa se o objeto traz ao menos um campo de caso com valor
// não-vazio. Resposta sem nenhum deles é tratada como "sem caso" (chat
// bloqueado até a submissão do formulário).
func HasCaseFields(obj any) bool {
	groups := [][]string{
		casePatientNameKeys, caseDiagnosticKeys, caseTreatmentKeys, caseDoubtsKeys,
		caseObjectiveKeys, caseConcernsKeys, caseCommentsKeys, caseClinicalKeys,
		caseLimitationsKeys,
	}
	for _, keys := range groups {
		if pickNonEmpty(obj, keys, "") != "" {
			return true
		}
	}
	return false
}

// Case normaliza o caso cru sobre o valor local existente: cada campo recebe o
// primeiro candidato não-vazio após trim, ou mantém o que já havia.
func Case(raw any, existing domain.Case) domain.Case {
	return domain.Case{
		PatientName:          pickNonEmpty(raw, casePatientNameKeys, existing.PatientName),
		Diagnostic:           pickNonEmpty(raw, caseDiagnosticKeys, existing.Diagnostic),
		TreatmentPlan:        pickNonEmpty(raw, caseTreatmentKeys, existing.TreatmentPlan),
		Doubts:               pickNonEmpty(raw, caseDoubtsKeys, existing.Doubts),
		Objective:            pickNonEmpty(raw, caseObjectiveKeys, existing.Objective),
		PatientConcerns:      pickNonEmpty(raw, caseConcernsKeys, existing.PatientConcerns),
		DoctorComments:       pickNonEmpty(raw, caseCommentsKeys, existing.DoctorComments),
		ClinicalNotes:        pickNonEmpty(raw, caseClinicalKeys, existing.ClinicalNotes),
		TreatmentLimitations: pickNonEmpty(raw, caseLimitationsKeys, existing.TreatmentLimitations),
	}
}

// pickNonEmpty devolve o primeiro candidato não-nulo e não-vazio após trim.
func pickNonEmpty(obj any, keys []string, fallback string) string {
	m, ok := obj.(map[string]any)
	if !ok {
		return fallback
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && !blank(v) {
			return trimmed(v)
		}
	}
	return fallback
}
