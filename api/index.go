// Caminho: api/index.go
// Resumo: Ponto de entrada serverless (Vercel). A inicialização do gateway
// (config, Redis, serviços) acontece no init do pacote httpapi, uma única vez
// por cold start.

package handler

import (
	"net/http"

	"github.com/leodviana/ClubClincheckPro/pkg/httpapi"
)

// Handler é o ponto de entrada principal para a Vercel.
func Handler(w http.ResponseWriter, r *http.Request) {
	httpapi.Handler(w, r)
}
