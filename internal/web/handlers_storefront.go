package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/sheetdb/internal/catalog"
	"github.com/JonMunkholm/sheetdb/internal/core"
)

// Storefront endpoints answer with single-key envelopes ({"productos": [...]})
// and Spanish error messages that the public site displays as is.

const inquiryReceived = "Consulta recibida. Nos pondremos en contacto pronto."

// listHandler serves every record of collection under key.
func (s *Server) listHandler(collection core.Collection, key, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.engine.GetAll(r.Context(), collection)
		if err != nil {
			respondLegacyError(w, r, err, failure)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{key: records})
	}
}

func (s *Server) handleArtesano(w http.ResponseWriter, r *http.Request) {
	artisan, ok, err := s.engine.GetByID(r.Context(), chi.URLParam(r, "id"), core.Artesanos)
	if err != nil {
		respondLegacyError(w, r, err, "Error al cargar artesano")
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, legacyError{Error: "Artesano no encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artesano": artisan})
}

func (s *Server) handleProductos(w http.ResponseWriter, r *http.Request) {
	listings, err := s.catalog.AvailableProducts(r.Context())
	if err != nil {
		respondLegacyError(w, r, err, "Error al cargar productos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"productos": listings})
}

func (s *Server) handleProducto(w http.ResponseWriter, r *http.Request) {
	detail, ok, err := s.catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondLegacyError(w, r, err, "Error al cargar producto")
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, legacyError{Error: "Producto no encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"producto": detail})
}

func (s *Server) handleProductosPorCategoria(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ProductsByCategory(r.Context(), chi.URLParam(r, "categoria"))
	if err != nil {
		respondLegacyError(w, r, err, "Error al filtrar productos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"productos": products})
}

func (s *Server) handleCrearConsulta(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, legacyError{Error: "Cuerpo de la solicitud inválido"})
		return
	}

	consulta, err := s.catalog.SubmitInquiry(r.Context(), inquiryFromJSON(body))
	if err != nil {
		if problems := catalog.Problems(err); errors.Is(err, core.ErrInvalidRecord) && len(problems) > 0 {
			writeJSON(w, http.StatusBadRequest, legacyError{Error: problems[0].Error()})
			return
		}
		respondLegacyError(w, r, err, "Error al procesar consulta")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"mensaje":  inquiryReceived,
		"consulta": consulta,
	})
}

func (s *Server) handleConsultas(w http.ResponseWriter, r *http.Request) {
	inquiries, err := s.catalog.Inquiries(r.Context())
	if err != nil {
		respondLegacyError(w, r, err, "Error al cargar consultas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consultas": inquiries})
}

func (s *Server) handleInformes(w http.ResponseWriter, r *http.Request) {
	reports, err := s.catalog.Reports(r.Context())
	if err != nil {
		respondLegacyError(w, r, err, "Error al cargar informes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"informes": reports})
}

// inquiryFromJSON reads the inquiry fields, accepting numbers and booleans
// in their JSON spelling.
func inquiryFromJSON(body []byte) catalog.InquiryInput {
	fields := gjson.GetManyBytes(body, "clienteNombre", "clienteEmail", "clienteTelefono", "productoId", "mensaje")
	return catalog.InquiryInput{
		ClienteNombre:   scalar(fields[0]),
		ClienteEmail:    scalar(fields[1]),
		ClienteTelefono: scalar(fields[2]),
		ProductoID:      scalar(fields[3]),
		Mensaje:         scalar(fields[4]),
	}
}
