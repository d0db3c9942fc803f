package sheets

import (
	"context"
	"fmt"

	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

const (
	valueInputRaw   = "RAW"
	insertRows      = "INSERT_ROWS"
	dimensionRows   = "ROWS"
	renderFormatted = "FORMATTED_VALUE"
)

// conn shares the connector's service. Close releases nothing.
type conn struct {
	connector *Connector
	svc       *sheetsapi.Service
}

func (c *conn) ReadRange(ctx context.Context, collection string, rng core.RangeSpec) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.connector.spreadsheetID, rng.A1(collection)).
		ValueRenderOption(renderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.classify("readRange", err)
	}
	return toStrings(resp.Values), nil
}

func (c *conn) WriteRange(ctx context.Context, collection string, rng core.RangeSpec, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.
		Update(c.connector.spreadsheetID, rng.A1(collection), &sheetsapi.ValueRange{Values: toValues(rows)}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	return c.classify("writeRange", err)
}

func (c *conn) AppendRow(ctx context.Context, collection string, row []string) error {
	anchor := core.RangeSpec{StartCol: core.FirstColumn, EndCol: core.FirstColumn}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.connector.spreadsheetID, anchor.A1(collection), &sheetsapi.ValueRange{Values: toValues([][]string{row})}).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	return c.classify("appendRow", err)
}

func (c *conn) DeleteRow(ctx context.Context, collection string, rowIndex int) error {
	if rowIndex < 1 {
		return &core.RemoteError{Primitive: "deleteRow", Err: fmt.Errorf("invalid row index %d", rowIndex)}
	}

	sheetID, err := c.connector.sheetID(ctx, c.svc, collection)
	if err != nil {
		return c.classify("deleteRow", err)
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  dimensionRows,
					StartIndex: int64(rowIndex - 1),
					EndIndex:   int64(rowIndex),
					// The first tab has id 0, which would otherwise be omitted.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.connector.spreadsheetID, req).Context(ctx).Do()
	return c.classify("deleteRow", err)
}

func (c *conn) Close() error {
	return nil
}

func (c *conn) classify(primitive string, err error) error {
	return classifyError(primitive, c.connector.authMethod(), err)
}

func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch s := v.(type) {
			case nil:
			case string:
				cells[j] = s
			default:
				cells[j] = fmt.Sprint(s)
			}
		}
		rows[i] = cells
	}
	return rows
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, s := range row {
			cells[j] = s
		}
		values[i] = cells
	}
	return values
}
