// Caminho: internal/normalize/value.go
// Resumo: Acesso defensivo a valores JSON fracamente tipados (map[string]any,
// []any, float64, string) decodificados de respostas do backend.

package normalize

import (
	"sort"
	"strconv"
	"strings"
)

// field devolve o primeiro valor não-nulo entre as chaves candidatas, na ordem
// de prioridade informada. Devolve nil quando o valor não é um objeto ou
// nenhuma chave está presente.
func field(v any, keys ...string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for _, k := range keys {
		if val, ok := m[k]; ok && val != nil {
			return val
		}
	}
	return nil
}

// toString converte um escalar JSON em string. Números inteiros saem sem casa
// decimal (12345, não 1.2345e+04), espelhando String(n) do backend antigo.
func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// toNumber tenta extrair um número de um escalar JSON.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// blank informa se o valor é nulo ou uma string vazia após trim.
func blank(v any) bool {
	if v == nil {
		return true
	}
	return strings.TrimSpace(toString(v)) == ""
}

// trimmed devolve a forma textual do valor sem espaços nas bordas.
func trimmed(v any) string {
	return strings.TrimSpace(toString(v))
}

// Trimmed é a forma exportada de trimmed, para consumidores do pacote.
func Trimmed(v any) string { return trimmed(v) }

// sortedKeys devolve as chaves de um objeto em ordem estável, para que a
// varredura heurística seja determinística entre execuções.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
