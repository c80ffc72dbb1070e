// Caminho: internal/domain/models.go
// Resumo: Modelos de domínio do gateway de chat (Message, ChatSession, Case,
// Credit, AuthUser) e erros centrais usados por serviços.

package domain

import "errors"

// MessageFrom identifica o papel do remetente de uma mensagem.
type MessageFrom string

const (
	FromUser  MessageFrom = "user"
	FromAdmin MessageFrom = "admin"
)

// MessageType identifica o tipo de conteúdo de uma mensagem.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeAudio MessageType = "audio"
)

// Message é a projeção local de uma mensagem de chat. Registros otimistas
// nascem com Pending=true e são substituídos (nunca removidos) pela versão
// confirmada do servidor, casada pelo ID.
type Message struct {
	ID        string      `json:"id"`
	From      MessageFrom `json:"from"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"createdAt"` // sempre UTC ISO-8601
	Pending   bool        `json:"pending,omitempty"`
	Failed    bool        `json:"failed,omitempty"` // último envio falhou
	SenderID  string      `json:"senderId,omitempty"`
	IsPalette bool        `json:"isPalette,omitempty"` // estilo de paleta (admin)
}

// StatusKey é o conjunto fechado de estados lógicos de uma sessão.
type StatusKey string

const (
	StatusAberto      StatusKey = "aberto"
	StatusEncerrado   StatusKey = "encerrado"
	StatusNaoIniciado StatusKey = "nao_iniciado"
)

// StatusInfo é o resultado do classificador de status: chave lógica, rótulo de
// exibição e classe de estilo consumida pelo frontend.
type StatusInfo struct {
	Key       StatusKey `json:"key"`
	Label     string    `json:"label"`
	ClassName string    `json:"className"`
}

// Case é o formulário clínico estruturado cuja submissão libera o envio de
// mensagens na sessão.
type Case struct {
	PatientName          string `json:"patientName"`
	Diagnostic           string `json:"diagnostic"`
	TreatmentPlan        string `json:"treatmentPlan"`
	Doubts               string `json:"doubts"`
	Objective            string `json:"objective"`
	PatientConcerns      string `json:"patientConcerns"`
	DoctorComments       string `json:"doctorComments"`
	ClinicalNotes        string `json:"clinicalNotes"`
	TreatmentLimitations string `json:"treatmentLimitations,omitempty"`
}

// ChatSession é a projeção local de uma sessão de chat. CaseExists usa três
// estados: nil = ainda não verificado (carregando), true = caso presente,
// false = bloqueado até submissão do formulário.
type ChatSession struct {
	ID          string     `json:"id"`
	Title       *string    `json:"title"`
	Status      StatusInfo `json:"status"`
	Messages    []Message  `json:"messages"`
	Case        *Case      `json:"case,omitempty"`
	CaseExists  *bool      `json:"caseExists"`
	RefreshKey  int64      `json:"refreshKey"`
	UndoSeconds int        `json:"undoSeconds,omitempty"` // janela de desfazer ativa
}

// Credit é o resumo de uma sessão/caso voltado ao paciente.
type Credit struct {
	ID            string  `json:"id"`
	Title         *string `json:"title"`
	Remaining     int     `json:"remaining"`
	Status        *string `json:"status"`
	CreatedAt     *string `json:"createdAt"`
	OpenAt        *string `json:"openAt"`
	CloseAt       *string `json:"closeAt"`
	TreatmentPlan *string `json:"treatmentPlan"`
	CaseCreatedAt *string `json:"caseCreatedAt"`
	CaseUpdatedAt *string `json:"caseUpdatedAt"`
}

// AuthUser é o usuário autenticado retornado pelo backend no login.
type AuthUser struct {
	ID      string `json:"id"`
	Nome    string `json:"nome,omitempty"`
	Email   string `json:"email,omitempty"`
	Profile *int   `json:"profile,omitempty"`
}

// Erros comuns de domínio.
var (
	// ErrServerUnreachable cobre falhas de conectividade (sem resposta HTTP).
	// A mensagem ao usuário nunca expõe detalhes da pilha de rede.
	ErrServerUnreachable = errors.New("Não foi possível conectar ao servidor. Verifique sua conexão, a URL da API e as regras de CORS/HTTPS.")

	// ErrUnauthorized indica refresh recusado: a sessão upstream expirou e o
	// usuário precisa autenticar de novo.
	ErrUnauthorized = errors.New("Sessão expirada. Faça login novamente.")

	// ErrNoEndpoint indica que toda a cadeia de endpoints candidatos falhou.
	ErrNoEndpoint = errors.New("Nenhum endpoint disponível para envio de mensagens")
)
