package sheets_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/JonMunkholm/sheetdb/internal/backend/memory"
	"github.com/JonMunkholm/sheetdb/internal/core"
)

// fakeSheets serves the subset of the Sheets v4 REST API the backend uses,
// storing cells in a memory.Store.
type fakeSheets struct {
	id    string
	store *memory.Store
	tabs  map[string]int64
	srv   *httptest.Server

	mu       sync.Mutex
	requests []string
	failWith int // status returned by the next request, if non-zero
	metadata int // spreadsheet metadata fetches
	deleted  []deleteCall
}

type deleteCall struct {
	SheetID    int64
	StartIndex int64
	EndIndex   int64
}

func newFakeSheets(t *testing.T, tabs map[string]int64) (*fakeSheets, *httptest.Server) {
	t.Helper()
	f := &fakeSheets{id: "sheet-123", store: memory.New(), tabs: tabs}
	f.srv = httptest.NewServer(f)
	t.Cleanup(f.srv.Close)
	return f, f.srv
}

func (f *fakeSheets) clientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(f.srv.URL + "/"),
		option.WithHTTPClient(f.srv.Client()),
	}
}

// addTab creates a tab after the connector may have cached the tab ids.
func (f *fakeSheets) addTab(title string, id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabs[title] = id
}

func (f *fakeSheets) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = status
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	status := f.failWith
	f.failWith = 0
	f.mu.Unlock()

	if status != 0 {
		writeAPIError(w, status)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	switch {
	case rest == f.id+":batchUpdate" && r.Method == http.MethodPost:
		f.batchUpdate(w, r)
	case strings.HasPrefix(rest, f.id+"/values/"):
		rng := strings.TrimPrefix(rest, f.id+"/values/")
		f.values(w, r, rng)
	case rest == f.id && r.Method == http.MethodGet:
		f.spreadsheet(w)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) values(w http.ResponseWriter, r *http.Request, a1 string) {
	ctx := context.Background()
	conn, err := f.store.Connect(ctx)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	if r.Method == http.MethodPost && strings.HasSuffix(a1, ":append") {
		sheet, _ := parseA1(strings.TrimSuffix(a1, ":append"))
		var body struct{ Values [][]string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeAPIError(w, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			writeAPIError(w, http.StatusBadRequest)
			return
		}
		for _, row := range body.Values {
			if err := conn.AppendRow(ctx, sheet, row); err != nil {
				writeAPIError(w, http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, map[string]any{"spreadsheetId": f.id})
		return
	}

	sheet, rng := parseA1(a1)
	f.mu.Lock()
	_, ok := f.tabs[sheet]
	f.mu.Unlock()
	if !ok {
		writeAPIError(w, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rows, err := conn.ReadRange(ctx, sheet, rng)
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError)
			return
		}
		resp := map[string]any{"range": a1, "majorDimension": "ROWS"}
		if len(rows) > 0 {
			resp["values"] = rows
		}
		writeJSON(w, resp)

	case http.MethodPut:
		var body struct{ Values [][]string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeAPIError(w, http.StatusBadRequest)
			return
		}
		if err := conn.WriteRange(ctx, sheet, rng, body.Values); err != nil {
			writeAPIError(w, http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"updatedRows": len(body.Values)})

	default:
		writeAPIError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Requests []struct {
			DeleteDimension *struct {
				Range struct {
					SheetID    int64  `json:"sheetId"`
					Dimension  string `json:"dimension"`
					StartIndex int64  `json:"startIndex"`
					EndIndex   int64  `json:"endIndex"`
				} `json:"range"`
			} `json:"deleteDimension"`
		} `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest)
		return
	}

	ctx := context.Background()
	conn, err := f.store.Connect(ctx)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	for _, req := range body.Requests {
		if req.DeleteDimension == nil || req.DeleteDimension.Range.Dimension != "ROWS" {
			writeAPIError(w, http.StatusBadRequest)
			return
		}
		rng := req.DeleteDimension.Range

		title := ""
		f.mu.Lock()
		f.deleted = append(f.deleted, deleteCall{SheetID: rng.SheetID, StartIndex: rng.StartIndex, EndIndex: rng.EndIndex})
		for name, id := range f.tabs {
			if id == rng.SheetID {
				title = name
			}
		}
		f.mu.Unlock()
		if title == "" {
			writeAPIError(w, http.StatusBadRequest)
			return
		}
		if err := conn.DeleteRow(ctx, title, int(rng.StartIndex)+1); err != nil {
			writeAPIError(w, http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, map[string]any{"spreadsheetId": f.id})
}

func (f *fakeSheets) spreadsheet(w http.ResponseWriter) {
	f.mu.Lock()
	f.metadata++
	var sheets []map[string]any
	for title, id := range f.tabs {
		sheets = append(sheets, map[string]any{
			"properties": map[string]any{"sheetId": id, "title": title},
		})
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{"spreadsheetId": f.id, "sheets": sheets})
}

func (f *fakeSheets) metadataFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadata
}

func (f *fakeSheets) deletes() []deleteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deleteCall(nil), f.deleted...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": http.StatusText(status),
		},
	})
}

// parseA1 splits "tab!A1:Z1" into the tab and its range.
func parseA1(a1 string) (string, core.RangeSpec) {
	sheet, cells, _ := strings.Cut(a1, "!")
	if strings.HasPrefix(sheet, "'") {
		sheet = strings.ReplaceAll(strings.Trim(sheet, "'"), "''", "'")
	}

	start, end, ok := strings.Cut(cells, ":")
	if !ok {
		end = start
	}
	var rng core.RangeSpec
	rng.StartCol, rng.StartRow = splitCell(start)
	rng.EndCol, rng.EndRow = splitCell(end)
	return sheet, rng
}

func splitCell(cell string) (string, int) {
	i := strings.IndexFunc(cell, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return cell, 0
	}
	row, err := strconv.Atoi(cell[i:])
	if err != nil {
		panic(fmt.Sprintf("bad cell %q", cell))
	}
	return cell[:i], row
}
