package catalog

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/JonMunkholm/sheetdb/internal/core"
	"github.com/JonMunkholm/sheetdb/internal/logging"
)

// ValidationError is an inquiry problem shown to the customer verbatim.
// It matches core.ErrInvalidRecord.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == core.ErrInvalidRecord
}

// Inquiry validation failures.
var (
	ErrNameAndMessageRequired = &ValidationError{Message: "Nombre y mensaje son obligatorios"}
	ErrContactRequired        = &ValidationError{Message: "Debe proporcionar al menos email o teléfono"}
	ErrInvalidEmail           = &ValidationError{Message: "Formato de email inválido"}
)

// Placeholder values stored for omitted inquiry fields.
const (
	NotProvided      = "No proporcionado"
	GeneralInquiry   = "Consulta general"
	ProductNotFound  = "Producto no encontrado"
	InquiryStatusNew = "Nuevo"
)

// timestampLayout matches the millisecond UTC timestamps stored in the sheet.
const timestampLayout = "2006-01-02T15:04:05.000Z"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InquiryInput is a customer inquiry as submitted.
type InquiryInput struct {
	ClienteNombre   string `json:"clienteNombre"`
	ClienteEmail    string `json:"clienteEmail"`
	ClienteTelefono string `json:"clienteTelefono"`
	ProductoID      string `json:"productoId"`
	Mensaje         string `json:"mensaje"`
}

// Validate checks the input and returns every problem found, in order.
func (in InquiryInput) Validate() error {
	var result *multierror.Error

	if in.ClienteNombre == "" || in.Mensaje == "" {
		result = multierror.Append(result, ErrNameAndMessageRequired)
	}
	if in.ClienteEmail == "" && in.ClienteTelefono == "" {
		result = multierror.Append(result, ErrContactRequired)
	}
	if in.ClienteEmail != "" && !emailPattern.MatchString(in.ClienteEmail) {
		result = multierror.Append(result, ErrInvalidEmail)
	}

	return result.ErrorOrNil()
}

// Problems returns the individual validation failures carried by err.
func Problems(err error) []error {
	if merr, ok := err.(*multierror.Error); ok {
		return merr.Errors
	}
	if err == nil {
		return nil
	}
	return []error{err}
}

// SubmitInquiry validates in, resolves the product name and appends the
// inquiry to the consultas collection. It returns the stored record.
func (s *Service) SubmitInquiry(ctx context.Context, in InquiryInput) (core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	productName := ""
	if in.ProductoID != "" {
		product, ok, err := s.engine.GetByID(ctx, in.ProductoID, core.Productos)
		if err != nil {
			return nil, err
		}
		productName = ProductNotFound
		if ok {
			productName = product["nombre"]
		}
	}

	rec := core.Record{
		"idConsulta":      s.newID(),
		"timestamp":       s.now().UTC().Format(timestampLayout),
		"clienteNombre":   in.ClienteNombre,
		"clienteEmail":    orDefault(in.ClienteEmail, NotProvided),
		"clienteTelefono": orDefault(in.ClienteTelefono, NotProvided),
		"productoId":      orDefault(in.ProductoID, GeneralInquiry),
		"productoNombre":  productName,
		"mensaje":         in.Mensaje,
		"estado":          InquiryStatusNew,
	}

	stored, err := s.engine.Create(ctx, rec, core.Consultas)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("inquiry received",
		"id", rec["idConsulta"],
		"producto_id", rec["productoId"],
	)
	return stored, nil
}

// Inquiries returns every inquiry, newest first. Rows whose timestamp does
// not parse sort after the rest, keeping their store order.
func (s *Service) Inquiries(ctx context.Context) ([]core.Record, error) {
	inquiries, err := s.engine.GetAll(ctx, core.Consultas)
	if err != nil {
		return nil, err
	}

	times := make(map[int]time.Time, len(inquiries))
	for i, rec := range inquiries {
		if t, err := time.Parse(time.RFC3339, rec["timestamp"]); err == nil {
			times[i] = t
		}
	}

	order := make([]int, len(inquiries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, okA := times[order[a]]
		tb, okB := times[order[b]]
		if okA && okB {
			return ta.After(tb)
		}
		return okA && !okB
	})

	sorted := make([]core.Record, len(order))
	for i, idx := range order {
		sorted[i] = inquiries[idx]
	}
	return sorted, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
