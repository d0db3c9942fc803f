// Package sheets implements the tabular store on the Google Sheets v4 API.
//
// Each collection is one tab of a single spreadsheet, named after the
// collection. Reads return formatted values; writes use the RAW input
// option so cell text is stored verbatim.
//
// The authenticated service is cached for a configurable TTL. A TTL of zero
// re-authenticates on every Connect.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/JonMunkholm/sheetdb/internal/core"
	"github.com/JonMunkholm/sheetdb/internal/logging"
)

// DefaultTTL is how long an authenticated service is reused.
const DefaultTTL = 30 * time.Minute

// Connector opens connections to one spreadsheet.
type Connector struct {
	spreadsheetID string
	source        CredentialSource
	ttl           time.Duration
	clientOpts    []option.ClientOption
	now           func() time.Time

	mu       sync.Mutex
	svc      *sheetsapi.Service
	method   string
	expires  time.Time
	sheetIDs map[string]int64 // tab title -> sheet id, valid for svc's lifetime
}

// Option configures a Connector.
type Option func(*Connector)

// WithTTL sets how long an authenticated service is reused.
func WithTTL(ttl time.Duration) Option {
	return func(c *Connector) {
		c.ttl = ttl
	}
}

// WithClientOptions builds the service from opts instead of the configured
// credentials, e.g. to target an emulator endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Connector) {
		c.clientOpts = opts
	}
}

// WithClock overrides the clock used for TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Connector) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a connector for spreadsheetID.
func New(spreadsheetID string, source CredentialSource, opts ...Option) (*Connector, error) {
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}

	c := &Connector{
		spreadsheetID: spreadsheetID,
		source:        source,
		ttl:           DefaultTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SpreadsheetID returns the spreadsheet the connector targets.
func (c *Connector) SpreadsheetID() string {
	return c.spreadsheetID
}

// Describe names the backend and, once connected, the credential method.
func (c *Connector) Describe() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.method == "" {
		return "sheets"
	}
	return fmt.Sprintf("sheets (%s)", c.method)
}

// Connect returns a connection backed by a cached or freshly authenticated
// service.
func (c *Connector) Connect(ctx context.Context) (core.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.svc != nil && c.ttl > 0 && c.now().Before(c.expires) {
		return &conn{connector: c, svc: c.svc}, nil
	}

	svc, method, err := c.newService(ctx)
	if err != nil {
		return nil, err
	}

	c.svc = svc
	c.method = method
	c.expires = c.now().Add(c.ttl)
	c.sheetIDs = nil

	logging.FromContext(ctx).Debug("sheets service authenticated",
		"method", method,
		"spreadsheet_id", c.spreadsheetID,
	)
	return &conn{connector: c, svc: svc}, nil
}

func (c *Connector) newService(ctx context.Context) (*sheetsapi.Service, string, error) {
	// The service outlives the request that created it.
	base := context.WithoutCancel(ctx)

	if len(c.clientOpts) > 0 {
		svc, err := sheetsapi.NewService(base, c.clientOpts...)
		if err != nil {
			return nil, "", &core.AuthError{Method: MethodClientOpts, Err: err}
		}
		return svc, MethodClientOpts, nil
	}

	creds, err := LoadCredentials(c.source)
	if err != nil {
		return nil, "", err
	}

	svc, err := sheetsapi.NewService(base,
		option.WithCredentialsJSON(creds.JSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, "", &core.AuthError{Method: creds.Method, Err: err}
	}
	return svc, creds.Method, nil
}

// authMethod returns the credential method of the current service.
func (c *Connector) authMethod() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

// sheetID resolves a tab title to its numeric id. The spreadsheet metadata
// is cached per authenticated service and refetched when title is missing
// from the cache, so tabs added later are found.
func (c *Connector) sheetID(ctx context.Context, svc *sheetsapi.Service, title string) (int64, error) {
	c.mu.Lock()
	if c.svc == svc && c.sheetIDs != nil {
		id, ok := c.sheetIDs[title]
		c.mu.Unlock()
		if ok {
			return id, nil
		}
	} else {
		c.mu.Unlock()
	}

	resp, err := svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}

	ids := make(map[string]int64, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	c.mu.Lock()
	if c.svc == svc {
		c.sheetIDs = ids
	}
	c.mu.Unlock()

	id, ok := ids[title]
	if !ok {
		return 0, fmt.Errorf("sheets: no tab named %q", title)
	}
	return id, nil
}
