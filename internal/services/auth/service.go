// Caminho: internal/services/auth/service.go
// Resumo: Serviço de autenticação contra o backend de chat: login, renovação
// via refresh cookie, logout melhor-esforço e recuperação de senha. Guarda o
// access token somente em memória e implementa api.TokenSource.

package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leodviana/ClubClincheckPro/internal/api"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

// ErrBadLoginEndpoint sinaliza 404/405 no login: quase sempre URL base errada.
var ErrBadLoginEndpoint = errors.New("Problema na conexão com o servidor.")

// refreshSkew antecipa a renovação para não usar um token na iminência de expirar.
const refreshSkew = 30 * time.Second

// Service autentica contra o backend e mantém o access token em memória.
// O *http.Client é o mesmo usado pelo cliente de chat, para que o refresh
// cookie HttpOnly gravado no login circule nas renovações.
type Service struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	user      *domain.AuthUser
}

// New cria o serviço de autenticação para a URL base informada.
func New(baseURL string, httpClient *http.Client) *Service {
	return &Service{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Login autentica com login e senha. O corpo segue o contrato do backend
// ({Login, senha, manter_logado}); a resposta tolera casings variados de
// accessToken e do objeto de usuário.
func (s *Service) Login(ctx context.Context, login, senha string, manterLogado bool) (domain.AuthUser, error) {
	body := map[string]any{"Login": login, "senha": senha, "manter_logado": manterLogado}
	res, err := s.post(ctx, "/api/Login/login", body)
	if err != nil {
		return domain.AuthUser{}, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusMethodNotAllowed {
		return domain.AuthUser{}, ErrBadLoginEndpoint
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.AuthUser{}, api.ResponseError(res)
	}

	payload, err := decodeAny(res.Body)
	if err != nil {
		return domain.AuthUser{}, errors.New("Resposta inválida do servidor.")
	}
	token := extractAccessToken(payload)
	if token == "" {
		return domain.AuthUser{}, errors.New("Resposta de login sem accessToken.")
	}
	user := extractUser(payload)

	s.mu.Lock()
	s.token = token
	s.expiresAt = tokenExpiry(token, payload)
	s.user = &user
	s.mu.Unlock()
	return user, nil
}

// AccessToken devolve o token corrente, renovando antes quando a expiração
// conhecida já passou (ou está a menos de refreshSkew de passar).
func (s *Service) AccessToken(ctx context.Context) string {
	s.mu.Lock()
	token := s.token
	stale := token != "" && !s.expiresAt.IsZero() && time.Now().After(s.expiresAt.Add(-refreshSkew))
	s.mu.Unlock()

	if stale {
		if renewed, err := s.Refresh(ctx); err == nil && renewed != "" {
			return renewed
		}
	}
	return token
}

// Refresh renova o access token via refresh cookie. O cookie circula pelo jar
// do *http.Client compartilhado; sem cookie válido o backend responde 401.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	res, err := s.post(ctx, "/api/Login/refresh", nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusUnauthorized {
		return "", domain.ErrUnauthorized
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", api.ResponseError(res)
	}
	payload, err := decodeAny(res.Body)
	if err != nil {
		return "", errors.New("Resposta de refresh inválida.")
	}
	token := extractAccessToken(payload)
	if token == "" {
		return "", errors.New("Resposta de refresh sem accessToken.")
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = tokenExpiry(token, payload)
	s.mu.Unlock()
	return token, nil
}

// Logout invalida a sessão no backend (melhor-esforço; falha de rede é
// ignorada) e sempre descarta o estado local.
func (s *Service) Logout(ctx context.Context) {
	if res, err := s.post(ctx, "/api/Login/logout", nil); err == nil {
		_ = res.Body.Close()
	}
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.user = nil
	s.mu.Unlock()
}

// RequestPasswordReset solicita o e-mail de recuperação de senha.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	res, err := s.post(ctx, "/api/Login/forgot-password", map[string]any{"email": email})
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", api.ResponseError(res)
	}
	payload, _ := decodeAny(res.Body)
	if m, ok := payload.(map[string]any); ok {
		if v, ok := m["message"].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "Se o e-mail estiver cadastrado, você receberá as instruções de recuperação.", nil
}

// CurrentUser devolve o usuário autenticado, ou nil.
func (s *Service) CurrentUser() *domain.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated informa se há token em memória.
func (s *Service) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *Service) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := s.http.Do(req)
	if err != nil {
		return nil, domain.ErrServerUnreachable
	}
	return res, nil
}

func decodeAny(r io.Reader) (any, error) {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// extractAccessToken tolera os casings observados no backend, inclusive os
// com o typo "Acess".
func extractAccessToken(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"accessToken", "AccessToken", "acessToken", "AcessToken", "token", "Token"} {
		if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// extractUser normaliza o objeto de usuário da resposta de login.
func extractUser(payload any) domain.AuthUser {
	m, _ := payload.(map[string]any)
	src := m
	for _, key := range []string{"user", "User", "usuario", "Usuario"} {
		if nested, ok := m[key].(map[string]any); ok {
			src = nested
			break
		}
	}
	user := domain.AuthUser{
		ID:    firstString(src, "id", "Id", "isn_usuario", "isnUsuario"),
		Nome:  firstString(src, "nome", "Nome", "name", "Name"),
		Email: firstString(src, "email", "Email"),
	}
	for _, key := range []string{"profile", "Profile", "perfil", "Perfil"} {
		if n, ok := src[key].(float64); ok {
			p := int(n)
			user.Profile = &p
			break
		}
	}
	return user
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// tokenExpiry deriva o instante de expiração: campo explícito da resposta
// primeiro, depois a claim exp do próprio JWT (lida sem verificar assinatura,
// só para agendar a renovação).
func tokenExpiry(token string, payload any) time.Time {
	if m, ok := payload.(map[string]any); ok {
		for _, key := range []string{
			"accessTokenExpiration", "AccessTokenExpiration",
			"acessTokenExpiration", "AcessTokenExpiration",
			"expiresAt", "expires_at",
		} {
			if v, ok := m[key].(string); ok {
				if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
					return t
				}
			}
		}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
