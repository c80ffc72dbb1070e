// Caminho: internal/api/client.go
// Resumo: Cliente HTTP para o backend de chat: Bearer token em memória,
// cookie jar para o refresh cookie HttpOnly e retry único após renovar o
// token quando a resposta é 401. Nunca repete mais de uma vez.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

// TokenSource fornece o access token corrente e sabe renová-lo. O
// armazenamento do token é responsabilidade de quem implementa, não do
// cliente.
type TokenSource interface {
	// AccessToken devolve o token atual, ou vazio quando não autenticado.
	AccessToken(ctx context.Context) string
	// Refresh tenta renovar o token; vazio sem erro significa "sem token novo".
	Refresh(ctx context.Context) (string, error)
}

// Client encapsula as chamadas ao backend. O cookie jar transporta o refresh
// cookie entre requisições (equivalente a credentials: include).
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// New cria um cliente para a URL base informada (sem barra final). O
// *http.Client é compartilhado com o serviço de autenticação para que o
// refresh cookie gravado no login seja visto pelas chamadas de renovação.
func New(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

// NewHTTPClient cria o *http.Client compartilhado, com cookie jar (transporte
// do refresh cookie HttpOnly, equivalente a credentials: include).
func NewHTTPClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Timeout: timeout, Jar: jar}
}

// BaseURL devolve a URL base configurada.
func (c *Client) BaseURL() string { return c.baseURL }

// Do executa a requisição com o Bearer token corrente. Em 401, renova o token
// uma única vez e repete; se a renovação não produzir token novo, devolve a
// resposta 401 original intacta. Falha de rede vira erro de conectividade
// genérico, sem vazar detalhes da pilha ao usuário.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
	}

	run := func(token string) (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.http.Do(req)
	}

	first, err := run(c.tokens.AccessToken(ctx))
	if err != nil {
		log.Printf("[DEBUG] upstream %s %s: %v", method, path, err)
		return nil, domain.ErrServerUnreachable
	}
	if first.StatusCode != http.StatusUnauthorized {
		return first, nil
	}

	newToken, refreshErr := c.tokens.Refresh(ctx)
	if refreshErr != nil || newToken == "" {
		return first, nil
	}
	_ = first.Body.Close()

	second, err := run(newToken)
	if err != nil {
		log.Printf("[DEBUG] upstream retry %s %s: %v", method, path, err)
		return nil, domain.ErrServerUnreachable
	}
	return second, nil
}

// FetchJSON executa a requisição e decodifica o corpo como JSON de forma
// aberta (any). Status fora de 2xx vira StatusError com a mensagem extraída
// do corpo; corpo vazio decodifica como nil.
func (c *Client) FetchJSON(ctx context.Context, method, path string, body any) (any, error) {
	res, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, ResponseError(res)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, domain.ErrServerUnreachable
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		// Corpo não-JSON em resposta 2xx: tolerado como texto cru.
		return strings.TrimSpace(string(raw)), nil
	}
	return data, nil
}

// buildURL monta a URL final evitando segmentos duplicados: se a base já
// contém um caminho (ex.: termina em /api) e o path pedido o repete, o
// prefixo repetido é removido.
func (c *Client) buildURL(path string) string {
	fullPath := path
	if !strings.HasPrefix(fullPath, "/") {
		fullPath = "/" + fullPath
	}
	if u, err := url.Parse(c.baseURL); err == nil {
		basePath := strings.TrimRight(u.Path, "/")
		if basePath != "" && basePath != "/" && strings.HasPrefix(fullPath, basePath) {
			fullPath = fullPath[len(basePath):]
			if fullPath == "" {
				fullPath = "/"
			}
		}
	}
	return c.baseURL + fullPath
}
