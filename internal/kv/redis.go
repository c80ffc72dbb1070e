// Caminho: internal/kv/redis.go
// Resumo: Armazém de dicas efêmeras de chat (go-redis/v9) com fallback em
// memória. As dicas são consultivas: anotam o rótulo de status logo após
// encerrar/reabrir, enquanto o backend ainda devolve o valor antigo.

package kv

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leodviana/ClubClincheckPro/internal/contants"
	"github.com/leodviana/ClubClincheckPro/internal/domain"
)

var client *redis.Client

// memStore é o fallback em memória quando o Redis não está configurado.
var (
	memMu    sync.Mutex
	memStore = map[string]memEntry{}
)

type memEntry struct {
	val       string
	expiresAt time.Time
}

// ChatMetaHint é a dica de status gravada após mutações locais de chat.
type ChatMetaHint struct {
	StatusKey   domain.StatusKey `json:"statusKey"`
	StatusLabel string           `json:"statusLabel"`
	ExpiresAt   int64            `json:"expiresAt"`
}

// Init inicializa o cliente usando REDIS_URL (URI) ou addr/pass separados.
func Init(redisURL, host string, port int, pass string, useTLS bool) error {
	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return err
		}
		client = redis.NewClient(opt)
		return nil
	}
	if host == "" {
		return nil
	}
	addr := host
	if port > 0 {
		addr = host + ":" + strconv.Itoa(port)
	}
	// TLS por opções separadas não é suportado; prefira REDIS_URL quando TLS for necessário.
	client = redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: 0})
	return nil
}

// Available informa se o cliente Redis está configurado.
func Available() bool { return client != nil }

// SetChatMetaHint grava a dica de status do chat com o TTL padrão.
func SetChatMetaHint(ctx context.Context, chatID string, hint ChatMetaHint) error {
	hint.ExpiresAt = time.Now().Add(contants.ChatMetaHintTTL).UnixMilli()
	raw, err := json.Marshal(hint)
	if err != nil {
		return err
	}
	return set(ctx, chatMetaKey(chatID), string(raw), contants.ChatMetaHintTTL)
}

// GetChatMetaHint recupera a dica de status, se ainda vigente.
func GetChatMetaHint(ctx context.Context, chatID string) (ChatMetaHint, bool) {
	raw, err := get(ctx, chatMetaKey(chatID))
	if err != nil || raw == "" {
		return ChatMetaHint{}, false
	}
	var hint ChatMetaHint
	if json.Unmarshal([]byte(raw), &hint) != nil {
		return ChatMetaHint{}, false
	}
	if hint.ExpiresAt > 0 && time.Now().UnixMilli() > hint.ExpiresAt {
		DelChatMetaHint(ctx, chatID)
		return ChatMetaHint{}, false
	}
	return hint, true
}

// DelChatMetaHint remove a dica (melhor-esforço).
func DelChatMetaHint(ctx context.Context, chatID string) {
	key := chatMetaKey(chatID)
	if client != nil {
		_ = client.Del(ctx, key).Err()
		return
	}
	memMu.Lock()
	delete(memStore, key)
	memMu.Unlock()
}

func chatMetaKey(chatID string) string { return "chat.meta." + chatID }

// set grava uma string com TTL no Redis ou no fallback em memória.
func set(ctx context.Context, key, val string, ttl time.Duration) error {
	if client != nil {
		return client.Set(ctx, key, val, ttl).Err()
	}
	memMu.Lock()
	memStore[key] = memEntry{val: val, expiresAt: time.Now().Add(ttl)}
	memMu.Unlock()
	return nil
}

// get recupera uma string; retorna "" e nil se não existir ou expirou.
func get(ctx context.Context, key string) (string, error) {
	if client != nil {
		v, err := client.Get(ctx, key).Result()
		if err == redis.Nil {
			return "", nil
		}
		return v, err
	}
	memMu.Lock()
	defer memMu.Unlock()
	e, ok := memStore[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(e.expiresAt) {
		delete(memStore, key)
		return "", nil
	}
	return e.val, nil
}
