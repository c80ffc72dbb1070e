// Caminho: cmd/server/main.go
// Resumo: Servidor HTTP local para desenvolvimento. Encapsula o handler
// serverless (api/index.go) e expõe o gateway em localhost:8080.

package main

import (
	"log"
	"net/http"
	"os"

	handler "github.com/leodviana/ClubClincheckPro/api"
)

// main inicia um servidor HTTP local e encaminha todas as rotas para o handler do gateway.
func main() {
	http.HandleFunc("/", handler.Handler)
	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	log.Printf("Gateway iniciado em http://localhost%v", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
