// Caminho: internal/normalize/shape_test.go
// Resumo: Testes do detector de formato: array direto, envelopes data/messages
// e varredura heurística por arrays com cara de mensagem.

package normalize

import "testing"

func TestItemListFormas(t *testing.T) {
	item := map[string]any{"content": "oi"}

	cases := []struct {
		nome string
		data any
		want int
	}{
		{"array direto", []any{item, item}, 2},
		{"envelope data", map[string]any{"data": []any{item}}, 1},
		{"envelope messages", map[string]any{"messages": []any{item, item, item}}, 3},
		{"heuristica", map[string]any{"total": float64(1), "registros": []any{item}}, 1},
		{"objeto sem listas", map[string]any{"id": "x"}, 0},
		{"escalar", "nada", 0},
		{"nulo", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.nome, func(t *testing.T) {
			if got := ItemList(tc.data); len(got) != tc.want {
				t.Fatalf("esperava %d itens, obtive %d", tc.want, len(got))
			}
		})
	}
}

func TestItemListPrioridadeDataSobreHeuristica(t *testing.T) {
	msg := map[string]any{"content": "oi"}
	data := map[string]any{
		"outros": []any{msg, msg},
		"data":   []any{msg},
	}
	if got := ItemList(data); len(got) != 1 {
		t.Fatalf("envelope data deve ganhar da varredura, obtive %d itens", len(got))
	}
}

func TestItemListHeuristicaIgnoraArraysEstranhos(t *testing.T) {
	data := map[string]any{
		"tags": []any{"a", "b"},
	}
	if got := ItemList(data); got != nil {
		t.Fatalf("array de escalares não qualifica, obtive %v", got)
	}
}

func TestFirstItem(t *testing.T) {
	obj := map[string]any{"id": "x"}

	if got := FirstItem([]any{obj}); got == nil {
		t.Fatal("esperava primeiro elemento do array")
	}
	if got := FirstItem([]any{}); got != nil {
		t.Fatal("array vazio deve devolver nulo")
	}
	if got := FirstItem(map[string]any{"data": obj}); got == nil {
		t.Fatal("esperava conteúdo do envelope data")
	}
	if got := FirstItem(obj); got == nil {
		t.Fatal("objeto simples deve voltar inteiro")
	}
}

func TestLooksLikeMessage(t *testing.T) {
	cases := []struct {
		nome string
		it   any
		want bool
	}{
		{"com conteudo", map[string]any{"content": "oi"}, true},
		{"com tipo", map[string]any{"tipo": float64(2)}, true},
		{"com timestamp", map[string]any{"dt_criacao": "2025-01-01"}, true},
		{"campos vazios", map[string]any{"content": "  "}, false},
		{"sem campos", map[string]any{"id": "x"}, false},
		{"nulo", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.nome, func(t *testing.T) {
			if got := LooksLikeMessage(tc.it); got != tc.want {
				t.Fatalf("esperava %v, obtive %v", tc.want, got)
			}
		})
	}
}
