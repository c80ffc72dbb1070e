// Caminho: internal/normalize/timestamp.go
// Resumo: Normalização de timestamps ambíguos do backend para UTC ISO-8601.
// A ordem das regras é parte do contrato e não pode ser alterada: formatos de
// data sem fuso já causaram deslocamentos de horas na interface.

package normalize

import (
	"regexp"
	"time"

	"github.com/leodviana/ClubClincheckPro/internal/contants"
)

// isoMillis formata sempre em UTC com milissegundos, como toISOString().
const isoMillis = "2006-01-02T15:04:05.000Z"

// timeNow é substituível em testes.
var timeNow = time.Now

var (
	digitsRe  = regexp.MustCompile(`^\d+$`)
	tzMarkRe  = regexp.MustCompile(`[Zz]|[+-]\d{2}:?\d{2}$`)
	sqlLikeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:\.\d+)?$`)
)

// CreatedAt normaliza um timestamp cru para UTC ISO-8601, na seguinte ordem:
//  1. nulo -> agora;
//  2. numérico -> epoch Unix; acima de 10^12 é milissegundo, senão segundo;
//  3. string só de dígitos -> mesmo tratamento numérico;
//  4. string com marcador de fuso (Z ou ±HH:MM/±HHMM no fim) -> parse direto;
//  5. string "YYYY-MM-DD[ T]HH:MM:SS[.fração]" sem fuso -> tratada como UTC
//     explicitamente (espaço vira T e recebe sufixo Z), nunca como hora local;
//  6. qualquer outra coisa -> parse genérico de melhor esforço, senão agora.
func CreatedAt(raw any) string {
	switch v := raw.(type) {
	case nil:
		return timeNow().UTC().Format(isoMillis)
	case float64:
		return fromEpoch(v)
	case string:
		if digitsRe.MatchString(v) {
			if n, ok := toNumber(v); ok {
				return fromEpoch(n)
			}
		}
		if tzMarkRe.MatchString(v) {
			if t, ok := parseAnyDate(v); ok {
				return t.UTC().Format(isoMillis)
			}
		}
		if sqlLikeRe.MatchString(v) {
			asUTC := v
			if asUTC[10] == ' ' {
				asUTC = asUTC[:10] + "T" + asUTC[11:]
			}
			if t, ok := parseAnyDate(asUTC + "Z"); ok {
				return t.UTC().Format(isoMillis)
			}
		}
		if t, ok := parseAnyDate(v); ok {
			return t.UTC().Format(isoMillis)
		}
		return timeNow().UTC().Format(isoMillis)
	default:
		return timeNow().UTC().Format(isoMillis)
	}
}

// ParseCreatedAt lê de volta um timestamp já normalizado por CreatedAt. Usado
// na reconciliação para medir o desvio entre o horário otimista local e o
// confirmado pelo servidor.
func ParseCreatedAt(s string) (time.Time, bool) {
	t, err := time.Parse(isoMillis, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// fromEpoch converte epoch numérico para ISO-8601, desambiguando segundos de
// milissegundos pelo limiar de 10^12 (estritamente maior = milissegundos).
func fromEpoch(n float64) string {
	ms := n
	if int64(n) <= contants.MillisecondsEpochThreshold {
		ms = n * 1000
	}
	return time.UnixMilli(int64(ms)).UTC().Format(isoMillis)
}

// parseAnyDate tenta um conjunto de layouts comuns do backend, do mais ao
// menos específico.
func parseAnyDate(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC1123Z,
		time.RFC1123,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
