// Package catalog implements the storefront operations on top of the record
// engine: available products joined with their artisan, category filters,
// customer inquiries and annual reports.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/sheetdb/internal/core"
	"github.com/JonMunkholm/sheetdb/internal/logging"
)

// Service runs storefront queries and commands.
type Service struct {
	engine *core.Engine
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to timestamp inquiries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides inquiry id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// New creates a catalog service on engine.
func New(engine *core.Engine, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ArtisanSummary is the artisan excerpt attached to product listings.
type ArtisanSummary struct {
	Nombre    string `json:"nombre"`
	Comunidad string `json:"comunidad"`
	Estado    string `json:"estado"`
	Tecnica   string `json:"tecnica"`
	URLFoto   string `json:"urlFoto"`
}

func summarize(artisan core.Record) *ArtisanSummary {
	if artisan == nil {
		return nil
	}
	return &ArtisanSummary{
		Nombre:    artisan["nombreCompleto"],
		Comunidad: artisan["comunidad"],
		Estado:    artisan["estado"],
		Tecnica:   artisan["tecnica"],
		URLFoto:   artisan["urlFoto"],
	}
}

// Listing is a product with its artisan summary.
//
// It marshals as the product's fields plus an "artesano" key, which is
// absent when the product names no artisan and null when the named artisan
// does not exist.
type Listing struct {
	Product core.Record
	Artisan *ArtisanSummary
}

func (l Listing) MarshalJSON() ([]byte, error) {
	return marshalWithArtisan(l.Product, l.Artisan, l.Product["idArtesano"] != "")
}

// Detail is a product with its full artisan record. The "artesano" key is
// omitted when the artisan is unknown.
type Detail struct {
	Product core.Record
	Artisan core.Record
}

func (d Detail) MarshalJSON() ([]byte, error) {
	return marshalWithArtisan(d.Product, d.Artisan, d.Artisan != nil)
}

func marshalWithArtisan(product core.Record, artisan any, include bool) ([]byte, error) {
	out := make(map[string]any, len(product)+1)
	for k, v := range product {
		out[k] = v
	}
	if include {
		out["artesano"] = artisan
	}
	return json.Marshal(out)
}

// AvailableProducts returns the products in stock, each joined with its
// artisan. Products and artisans are read concurrently.
func (s *Service) AvailableProducts(ctx context.Context) ([]Listing, error) {
	var products, artisans []core.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.engine.GetAll(gctx, core.Productos)
		return err
	})
	g.Go(func() error {
		var err error
		artisans, err = s.engine.GetAll(gctx, core.Artesanos)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := indexFirst(artisans, "idArtesano")
	listings := make([]Listing, 0, len(products))
	for _, p := range products {
		if !InStock(p["stock"]) {
			continue
		}
		l := Listing{Product: p}
		if id := p["idArtesano"]; id != "" {
			l.Artisan = summarize(byID[core.NormalizeID(id)])
		}
		listings = append(listings, l)
	}

	logging.FromContext(ctx).Debug("available products",
		"products", len(products),
		"in_stock", len(listings),
	)
	return listings, nil
}

// Product returns a product with its full artisan record.
// A missing product returns ok == false.
func (s *Service) Product(ctx context.Context, id string) (Detail, bool, error) {
	product, ok, err := s.engine.GetByID(ctx, id, core.Productos)
	if err != nil || !ok {
		return Detail{}, ok, err
	}

	d := Detail{Product: product}
	if artisanID := product["idArtesano"]; artisanID != "" {
		artisan, found, err := s.engine.GetByID(ctx, artisanID, core.Artesanos)
		if err != nil {
			return Detail{}, false, err
		}
		if found {
			d.Artisan = artisan
		}
	}
	return d, true, nil
}

// ProductsByCategory returns in-stock products whose category matches,
// ignoring case.
func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]core.Record, error) {
	products, err := s.engine.GetAll(ctx, core.Productos)
	if err != nil {
		return nil, err
	}

	matched := make([]core.Record, 0)
	for _, p := range products {
		if strings.EqualFold(p["categoria"], category) && InStock(p["stock"]) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Reports returns the annual reports.
func (s *Service) Reports(ctx context.Context) ([]core.Record, error) {
	return s.engine.GetAll(ctx, core.InformesAnuales)
}

// InStock reports whether a stock cell holds a positive integer. Like a
// lenient integer parse, it reads leading digits after optional whitespace
// and sign and ignores the rest: "3 piezas" is in stock, "agotado" is not.
func InStock(stock string) bool {
	n, ok := leadingInt(stock)
	return ok && n > 0
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		if n < 1<<40 {
			n = n*10 + int(c-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// indexFirst maps normalized identifiers to the first record carrying them.
func indexFirst(records []core.Record, field string) map[string]core.Record {
	idx := make(map[string]core.Record, len(records))
	for _, r := range records {
		key := core.NormalizeID(r[field])
		if _, seen := idx[key]; !seen {
			idx[key] = r
		}
	}
	return idx
}
