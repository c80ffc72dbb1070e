// Caminho: internal/api/errors.go
// Resumo: Taxonomia de erros da comunicação com o backend: falha de
// conectividade (sem resposta) versus erro estruturado com status HTTP, com
// extração tolerante da mensagem do corpo.

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxUserMessageLen limita mensagens repassadas ao usuário; acima disso a
// mensagem técnica é trocada por uma genérica.
const maxUserMessageLen = 200

// genericFailureMessage substitui mensagens técnicas longas demais.
const genericFailureMessage = "Ocorreu uma falha ao comunicar com o servidor."

// StatusError representa uma resposta HTTP de erro com mensagem extraída do
// corpo (campo error/message em JSON, texto cru, ou "HTTP <status>").
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// ResponseError lê o corpo de uma resposta de erro e monta o StatusError.
// O corpo só é interpretado como JSON quando o Content-Type indica JSON;
// caso contrário é tratado como texto de detalhe.
func ResponseError(res *http.Response) *StatusError {
	msg := readErrorBody(res)
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", res.StatusCode)
	}
	if len(msg) > maxUserMessageLen {
		msg = genericFailureMessage
	}
	return &StatusError{Status: res.StatusCode, Message: msg}
}

func readErrorBody(res *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return ""
	}
	ct := res.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		var data any
		if json.Unmarshal(body, &data) == nil {
			if m, ok := data.(map[string]any); ok {
				if v, ok := m["error"]; ok && v != nil {
					return strings.TrimSpace(fmt.Sprint(v))
				}
				if v, ok := m["message"]; ok && v != nil {
					return strings.TrimSpace(fmt.Sprint(v))
				}
			}
			if compact, err := json.Marshal(data); err == nil {
				return string(compact)
			}
		}
	}
	return strings.TrimSpace(string(body))
}
