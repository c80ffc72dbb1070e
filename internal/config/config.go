// Caminho: internal/config/config.go
// Resumo: Carrega e expõe variáveis de configuração do gateway a partir de
// variáveis de ambiente. Inclui defaults seguros para desenvolvimento.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config representa as configurações necessárias do gateway.
type Config struct {
	DeploymentEnv string
	LogLevel      string

	// API upstream (backend de chat, externamente controlado)
	APIBaseURL     string
	RequestTimeout time.Duration

	// Redis (opcional; dicas de status entre telas)
	RedisHost string
	RedisPort int
	RedisPass string
	RedisTLS  bool
	RedisURL  string

	// Metadados
	ServiceName string
	Version     string
}

// getenv retorna o valor de uma variável de ambiente, ou o default se não definido.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt retorna uma variável de ambiente como inteiro, ou o default se ausente/inválido.
func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getenvBool retorna uma variável de ambiente como bool, ou o default se ausente/inválido.
func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load carrega as variáveis de configuração a partir do ambiente.
// A URL base perde a barra final para evitar caminhos duplicados.
func Load() *Config {
	return &Config{
		DeploymentEnv: getenv("DEPLOYMENT_ENVIRONMENT", "development"),
		LogLevel:      getenv("LOG_LEVEL", "INFO"),

		APIBaseURL:     strings.TrimRight(getenv("API_BASE_URL", ""), "/"),
		RequestTimeout: time.Duration(getenvInt("API_REQUEST_TIMEOUT_SECONDS", 20)) * time.Second,

		RedisHost: getenv("REDIS_HOST", ""),
		RedisPort: getenvInt("REDIS_PORT", 0),
		RedisPass: getenv("REDIS_PASSWORD", ""),
		RedisTLS:  getenvBool("REDIS_USE_TLS", false),
		RedisURL:  getenv("REDIS_URL", ""),

		ServiceName: getenv("OTEL_SERVICE_NAME", "clincheck_chat_gateway"),
		Version:     getenv("SERVICE_VERSION", "0.1.0"),
	}
}
