// Caminho: internal/contants/contants.go
// Resumo: Constantes do protocolo de chat: códigos de remetente/tipo usados pelo
// backend, tolerâncias de reconciliação e janelas de tempo da interface.

package contants

import "time"

// Códigos numéricos de remetente no formato do backend.
const (
	FromUserValue = 1 // backend: 1 = usuário
)

// FromAdminValues são os códigos numéricos tratados como administrador.
// O valor 3 adicionalmente marca a mensagem com a flag de paleta.
var FromAdminValues = []int{2, 3}

// FromPaletteValue é o código de admin que ativa o estilo de paleta.
const FromPaletteValue = 3

// AdminUserID é o id de usuário autenticado considerado administrador.
const AdminUserID = 3

// AdminProfile é o perfil que marca o usuário como admin de paleta.
const AdminProfile = 3

// Códigos numéricos de tipo de mensagem no formato do backend.
const (
	TypeCodeImage = 1
	TypeCodeText  = 2
	TypeCodeVideo = 3
	TypeCodeAudio = 4
)

// TimestampDriftTolerance é o desvio máximo entre o horário otimista do
// cliente e o horário confirmado pelo servidor antes do valor do servidor
// prevalecer na reconciliação.
const TimestampDriftTolerance = 5000 * time.Millisecond

// UndoCloseWindow é a janela em que o encerramento de um chat pode ser desfeito.
const UndoCloseWindow = 10 * time.Second

// ChatMetaHintTTL é a validade da dica de status gravada ao encerrar um chat.
const ChatMetaHintTTL = 30 * time.Second

// MillisecondsEpochThreshold separa timestamps numéricos em segundos dos em
// milissegundos: valores acima do limiar já estão em milissegundos.
const MillisecondsEpochThreshold = int64(1e12)
