package server

import (
	"net/http"
)

func (s *HttpServer) loadRoutes(mux *http.ServeMux) http.HandlerFunc {
	mux.HandleFunc("POST /webhook", s.crmWebhook)
	mux.HandleFunc("POST /api/gerar-pix", s.generatePix)
	mux.HandleFunc("POST /webhook/mp-callback", s.gatewayCallback)
	mux.HandleFunc("GET /health", s.healthCheck)
	mux.HandleFunc("GET /monitor/status", s.monitorStatus)

	return mux.ServeHTTP
}
