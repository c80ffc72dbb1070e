// Caminho: pkg/httpapi/httpapi.go
// Resumo: Ponto de entrada HTTP compartilhado entre Vercel e servidor local,
// com todas as rotas do gateway de chat.

package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/leodviana/ClubClincheckPro/internal/api"
	"github.com/leodviana/ClubClincheckPro/internal/chat"
	"github.com/leodviana/ClubClincheckPro/internal/config"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
	"github.com/leodviana/ClubClincheckPro/internal/kv"
	authsvc "github.com/leodviana/ClubClincheckPro/internal/services/auth"
)

var (
	inited = false
	cfg    *config.Config
	auths  *authsvc.Service
	chats  *chat.Service
	router *mux.Router
)

// init prepara dependências (config, Redis, serviços) na primeira invocação.
func init() {
	if inited {
		return
	}
	// Em desenvolvimento, preferimos que o .env local sobrescreva variáveis já definidas
	_ = godotenv.Overload()
	cfg = config.Load()

	if err := kv.Init(cfg.RedisURL, cfg.RedisHost, cfg.RedisPort, cfg.RedisPass, cfg.RedisTLS); err != nil {
		logWarn("redis indisponível, usando fallback em memória: %v", err)
	}

	httpClient := api.NewHTTPClient(cfg.RequestTimeout)
	auths = authsvc.New(cfg.APIBaseURL, httpClient)
	client := api.New(cfg.APIBaseURL, httpClient, auths)
	chats = chat.New(client, auths)

	router = buildRouter()
	inited = true
}

// buildRouter registra todas as rotas do gateway.
func buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	r.HandleFunc("/auth/login", loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", refreshHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", logoutHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/forgot-password", forgotPasswordHandler).Methods(http.MethodPost)

	r.HandleFunc("/credits", creditsHandler).Methods(http.MethodGet)

	r.HandleFunc("/chats/{chatId}", chatHandler).Methods(http.MethodGet)
	r.HandleFunc("/chats/{chatId}/messages", sendMessageHandler).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatId}/messages/{messageId}/retry", retryMessageHandler).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatId}/close", closeChatHandler).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatId}/open", openChatHandler).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatId}/case", caseGetHandler).Methods(http.MethodGet)
	r.HandleFunc("/chats/{chatId}/case", caseSubmitHandler).Methods(http.MethodPost)

	return r
}

// Handler é o ponto de entrada HTTP, com logging de requisição
// (método, caminho, status, duração, UA, bytes).
func Handler(w http.ResponseWriter, r *http.Request) {
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	defer func() {
		dur := time.Since(start)
		ua := strings.TrimSpace(r.Header.Get("User-Agent"))
		logInfo("%s %s -> %d (%s) ua=%q bytes=%d", r.Method, r.URL.Path, sw.status, dur.String(), ua, sw.nbytes)
	}()
	router.ServeHTTP(sw, r)
}

// writeJSON escreve uma resposta JSON com status e payload arbitrários.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError padroniza o envelope de erro {success, code, message}.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"success": false, "code": code, "message": message})
}

// writeUpstreamError traduz os erros dos serviços para o envelope do gateway.
func writeUpstreamError(w http.ResponseWriter, err error, code string) {
	var se *api.StatusError
	switch {
	case errors.Is(err, domain.ErrServerUnreachable):
		writeError(w, http.StatusBadGateway, code+"_CONN", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, code, err.Error())
	case errors.As(err, &se):
		status := se.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, code, se.Message)
	default:
		writeError(w, http.StatusBadRequest, code, err.Error())
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": cfg.ServiceName,
		"status":  "healthy",
		"redis":   kv.Available(),
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": cfg.ServiceName,
		"version": cfg.Version,
		"endpoints": []string{
			"/healthz", "/auth/login", "/auth/refresh", "/auth/logout",
			"/auth/forgot-password", "/credits", "/chats/{chatId}",
			"/chats/{chatId}/messages", "/chats/{chatId}/close",
			"/chats/{chatId}/open", "/chats/{chatId}/case",
		},
	})
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login        string `json:"login"`
		Senha        string `json:"senha"`
		ManterLogado bool   `json:"manterLogado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "AUTH_400_001", "JSON inválido")
		return
	}
	if strings.TrimSpace(req.Login) == "" || req.Senha == "" {
		writeError(w, http.StatusBadRequest, "AUTH_400_002", "Informe login e senha.")
		return
	}
	user, err := auths.Login(r.Context(), strings.TrimSpace(req.Login), req.Senha, req.ManterLogado)
	if err != nil {
		logWarn("login falhou para '%s': %v", req.Login, err)
		writeUpstreamError(w, err, "AUTH_401_001")
		return
	}
	logInfo("login ok para '%s'", req.Login)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func refreshHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := auths.Refresh(r.Context()); err != nil {
		logDebug("refresh falhou: %v", err)
		writeUpstreamError(w, err, "AUTH_401_002")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func logoutHandler(w http.ResponseWriter, r *http.Request) {
	auths.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "AUTH_400_003", "JSON inválido")
		return
	}
	msg, err := auths.RequestPasswordReset(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeUpstreamError(w, err, "AUTH_400_004")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

func creditsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := chats.Credits(r.Context())
	if err != nil {
		writeUpstreamError(w, err, "CHAT_502_001")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": list})
}

func chatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	session, err := chats.Load(r.Context(), chatID)
	if err != nil {
		writeUpstreamError(w, err, "CHAT_502_002")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": session})
}

func sendMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	var req struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "CHAT_400_001", "JSON inválido")
		return
	}
	msg, err := chats.Send(r.Context(), chatID, req.Content, domain.MessageType(req.Type))
	if err != nil {
		// A mensagem otimista sobrevive marcada como failed; o frontend
		// oferece o reenvio com o registro devolvido junto do erro.
		if msg.ID != "" {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"success": false, "code": "CHAT_502_003", "message": err.Error(), "data": msg,
			})
			return
		}
		writeUpstreamError(w, err, "CHAT_400_002")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": msg})
}

func retryMessageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	msg, err := chats.Retry(r.Context(), vars["chatId"], vars["messageId"])
	if err != nil {
		if errors.Is(err, chat.ErrUnknownRecord) {
			writeError(w, http.StatusNotFound, "CHAT_404_001", err.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false, "code": "CHAT_502_004", "message": err.Error(), "data": msg,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": msg})
}

func closeChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	session, err := chats.Close(r.Context(), chatID)
	if err != nil {
		writeUpstreamError(w, err, "CHAT_502_005")
		return
	}
	logInfo("chat %s encerrado (desfazer em %ds)", chatID, session.UndoSeconds)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": session})
}

func openChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	session, err := chats.Reopen(r.Context(), chatID)
	if err != nil {
		writeUpstreamError(w, err, "CHAT_502_006")
		return
	}
	logInfo("chat %s reaberto", chatID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": session})
}

func caseGetHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	c, exists := chats.Case(r.Context(), chatID)
	switch {
	case exists == nil:
		// Não verificado não é "ausente": o backend não respondeu.
		writeError(w, http.StatusBadGateway, "CHAT_502_007", "Não foi possível verificar o caso clínico.")
	case !*exists:
		writeError(w, http.StatusNotFound, "CHAT_404_002", "Caso clínico ainda não cadastrado.")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": c})
	}
}

func caseSubmitHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	var form chat.CaseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "CHAT_400_003", "JSON inválido")
		return
	}
	session, err := chats.SubmitCase(r.Context(), chatID, form)
	if err != nil {
		writeUpstreamError(w, err, "CHAT_400_004")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": session})
}

// statusWriter captura status/bytes para logging.
type statusWriter struct {
	http.ResponseWriter
	status int
	nbytes int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.nbytes += n
	return n, err
}

// Logging helpers com níveis simples (DEBUG, INFO, WARN, ERROR)
func logEnabled(level string) bool {
	order := map[string]int{"DEBUG": 10, "INFO": 20, "WARN": 30, "ERROR": 40}
	cur := "INFO"
	if cfg != nil && strings.TrimSpace(cfg.LogLevel) != "" {
		cur = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	}
	return order[strings.ToUpper(level)] >= order[cur]
}

func logDebug(format string, args ...any) {
	if logEnabled("DEBUG") {
		log.Printf("[DEBUG] "+format, args...)
	}
}
func logInfo(format string, args ...any) {
	if logEnabled("INFO") {
		log.Printf("[INFO]  "+format, args...)
	}
}
func logWarn(format string, args ...any) {
	if logEnabled("WARN") {
		log.Printf("[WARN]  "+format, args...)
	}
}
func logError(format string, args ...any) {
	if logEnabled("ERROR") {
		log.Printf("[ERROR] "+format, args...)
	}
}
