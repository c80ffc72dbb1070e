// Caminho: internal/normalize/shape.go
// Resumo: Detector de formato de respostas do backend: decide se um payload é
// uma lista direta, um objeto envelope ou um item único, e extrai a lista
// lógica. A ordem dos desempates é deliberada: campos nomeados explícitos
// ganham da detecção heurística.

package normalize

// ItemList extrai a lista lógica de itens de um payload decodificado,
// tentando nesta ordem:
//  1. o próprio valor é um array;
//  2. a propriedade "data" é um array;
//  3. a propriedade "messages" é um array;
//  4. varredura das demais propriedades pelo primeiro array cujo primeiro
//     elemento se parece com uma mensagem;
//  5. lista vazia.
//
// A varredura não remove duplicatas: se o mesmo registro for alcançável por
// dois caminhos, quem consome deve casar por id.
func ItemList(data any) []any {
	if arr, ok := data.([]any); ok {
		return arr
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	if arr, ok := m["data"].([]any); ok {
		return arr
	}
	if arr, ok := m["messages"].([]any); ok {
		return arr
	}
	for _, k := range sortedKeys(m) {
		if arr, ok := m[k].([]any); ok && len(arr) > 0 && LooksLikeMessage(arr[0]) {
			return arr
		}
	}
	return nil
}

// FirstItem extrai o item lógico de uma resposta que representa um único
// registro (array de um elemento, envelope {data: ...} ou o próprio objeto).
func FirstItem(data any) any {
	if arr, ok := data.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	if m, ok := data.(map[string]any); ok {
		if d, ok := m["data"]; ok && d != nil {
			return d
		}
	}
	return data
}

// LooksLikeMessage decide se um item qualifica como mensagem: basta um campo
// de conteúdo, de tipo ou de timestamp presente e não-vazio. O critério é
// permissivo de propósito; falso positivo é preferível a descartar dados.
func LooksLikeMessage(it any) bool {
	if it == nil {
		return false
	}
	if !blank(field(it, "content", "text", "message", "body", "url")) {
		return true
	}
	if !blank(field(it, "type", "message_type", "tipo")) {
		return true
	}
	if !blank(field(it, "createdAt", "created_at", "timestamp", "dt_criacao")) {
		return true
	}
	return false
}
