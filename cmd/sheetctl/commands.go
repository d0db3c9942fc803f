package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/pierrec/lz4/v4"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

// check probes every registered collection and compares its header with
// the expected fields. It returns how many collections could not be read.
func check(ctx context.Context, engine *core.Engine, out io.Writer) (int, error) {
	failed := 0
	fmt.Fprintf(out, "backend: %s\n", engine.Backend())

	for _, def := range engine.Registry().All() {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		if _, err := engine.Probe(ctx, def.Name); err != nil {
			failColor.Fprintf(out, "FAIL  %-16s [%s] %v\n", def.Name, core.MapError(err).Code, err)
			failed++
			continue
		}

		schema, err := engine.Schema(ctx, def.Name)
		switch {
		case errors.Is(err, core.ErrEmptySchema):
			warnColor.Fprintf(out, "WARN  %-16s no header row\n", def.Name)
			continue
		case err != nil:
			failColor.Fprintf(out, "FAIL  %-16s [%s] %v\n", def.Name, core.MapError(err).Code, err)
			failed++
			continue
		}

		if missing := schema.Missing(def.Fields); len(missing) > 0 {
			warnColor.Fprintf(out, "WARN  %-16s missing fields: %s\n", def.Name, strings.Join(missing, ", "))
			continue
		}
		if def.IDField != "" && schema.Index(def.IDField) < 0 {
			warnColor.Fprintf(out, "WARN  %-16s identifier %s not in header\n", def.Name, def.IDField)
			continue
		}
		okColor.Fprintf(out, "OK    %-16s %d column(s)\n", def.Name, len(schema))
	}
	return failed, nil
}

// dump prints every record of collection as indented JSON, or as Go
// values when raw is set.
func dump(ctx context.Context, engine *core.Engine, collection core.Collection, raw bool, out io.Writer) error {
	records, err := engine.GetAll(ctx, collection)
	if err != nil {
		return err
	}
	if raw {
		spew.Fdump(out, records)
		return nil
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// export writes the raw rows of collection as CSV, header first. Rows are
// padded to the header width. It returns the number of data rows written.
func export(ctx context.Context, engine *core.Engine, collection core.Collection, w io.Writer, compress bool) (int, error) {
	if _, err := engine.Registry().Lookup(collection); err != nil {
		return 0, err
	}
	rows, err := engine.Rows(ctx, collection)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%s: %w", collection, core.ErrEmptySchema)
	}

	var zw *lz4.Writer
	if compress {
		zw = lz4.NewWriter(w)
		w = zw
	}

	cw := csv.NewWriter(w)
	width := len(rows[0])
	for _, row := range rows {
		if len(row) < width {
			row = append(row, make([]string, width-len(row))...)
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	if zw != nil {
		if err := zw.Flush(); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
	}
	return len(rows) - 1, nil
}

// skipBOM drops the UTF-8 byte order mark spreadsheet programs put at the
// start of exported CSV files.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	return br
}

// replacer is a store that can overwrite a whole collection.
type replacer interface {
	Replace(ctx context.Context, collection string, rows [][]string) error
}

// importCSV replaces collection with the rows of a CSV file whose first
// record is the header. Invalid UTF-8 becomes U+FFFD and header names are
// trimmed. It returns the number of data rows loaded.
func importCSV(ctx context.Context, store replacer, collection core.Collection, r io.Reader, compressed bool) (int, error) {
	if compressed {
		r = lz4.NewReader(r)
	}

	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}
	rows = core.TrimRows(rows)
	if len(rows) == 0 || len(core.TrimRow(rows[0])) == 0 {
		return 0, fmt.Errorf("%s: %w", collection, core.ErrEmptySchema)
	}
	for i, row := range rows {
		for j, cell := range row {
			row[j] = strings.ToValidUTF8(cell, "\uFFFD")
			if i == 0 {
				row[j] = strings.TrimSpace(row[j])
			}
		}
		rows[i] = core.TrimRow(row)
	}

	if err := store.Replace(ctx, string(collection), rows); err != nil {
		return 0, err
	}
	return len(rows) - 1, nil
}
