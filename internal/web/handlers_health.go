package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// storefrontEndpoints is advertised by /health.
var storefrontEndpoints = map[string]string{
	"artesanos":      "/api/artesanos",
	"productos":      "/api/productos",
	"proyectos":      "/api/proyectos",
	"voluntarios":    "/api/voluntarios",
	"articulosBlog":  "/api/articulosBlog",
	"consultas_POST": "/api/consultas",
	"consultas_GET":  "/api/consultas",
	"informes":       "/api/informes",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"backend":   s.engine.Backend(),
		"endpoints": storefrontEndpoints,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, legacyError{Error: "Endpoint no encontrado"})
}

// debugEnvironment reports which credentials are configured without
// revealing them.
type debugEnvironment struct {
	Backend              string `json:"STORE_BACKEND"`
	ServiceAccountJSON   bool   `json:"SERVICE_ACCOUNT_JSON"`
	ClientEmail          bool   `json:"GOOGLE_CLIENT_EMAIL"`
	PrivateKey           bool   `json:"GOOGLE_PRIVATE_KEY"`
	PrivateKeyLength     int    `json:"GOOGLE_PRIVATE_KEY_length"`
	ClientEmailValue     string `json:"GOOGLE_CLIENT_EMAIL_value"`
	ServiceAccountFile   string `json:"SERVICE_ACCOUNT_FILE"`
	ConnectionTTLSeconds int    `json:"SHEETS_CONNECTION_TTL_seconds"`
}

type debugData struct {
	TotalArtesanos int         `json:"totalArtesanos"`
	PrimerArtesano core.Record `json:"primerArtesano"`
}

// handleDebug probes the store and samples the artisans collection. It is
// only routed when ENABLE_DEBUG_ENDPOINT is set.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	creds := s.cfg.Credentials
	env := debugEnvironment{
		Backend:              s.cfg.Store.Backend,
		ServiceAccountJSON:   creds.ServiceAccountJSON != "",
		ClientEmail:          creds.ClientEmail != "",
		PrivateKey:           creds.PrivateKey != "",
		PrivateKeyLength:     len(creds.PrivateKey),
		ClientEmailValue:     creds.ClientEmail,
		ServiceAccountFile:   creds.ServiceAccountFile,
		ConnectionTTLSeconds: int(s.cfg.Store.ConnectionTTL.Seconds()),
	}
	if env.ClientEmailValue == "" {
		env.ClientEmailValue = "NO CONFIGURADO"
	}

	resp := map[string]any{
		"status":      "DEBUG MODE",
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"requestId":   requestID(r),
		"environment": env,
	}

	if probe, err := s.engine.Probe(r.Context(), core.Artesanos); err != nil {
		msg := core.MapError(err)
		resp["connection"] = map[string]any{"success": false, "error": msg.Message, "code": msg.Code}
	} else {
		resp["connection"] = map[string]any{"success": true, "probe": probe}
	}

	if artisans, err := s.engine.GetAll(r.Context(), core.Artesanos); err != nil {
		resp["dataTestError"] = err.Error()
	} else {
		data := debugData{TotalArtesanos: len(artisans)}
		if len(artisans) > 0 {
			data.PrimerArtesano = artisans[0]
		}
		resp["dataTest"] = data
	}

	writeJSON(w, http.StatusOK, resp)
}
