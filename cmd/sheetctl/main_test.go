package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetdb/internal/backend/memory"
	"github.com/JonMunkholm/sheetdb/internal/backend/sqlite"
	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
)

func init() {
	color.NoColor = true
}

func testEngine(store *memory.Store) *core.Engine {
	return core.NewEngine(store, core.WithRegistry(core.NewRegistry(
		core.CollectionDefinition{Name: core.Productos, IDField: "idProducto", Fields: []string{"idProducto", "nombre", "stock"}},
		core.CollectionDefinition{Name: core.Artesanos, IDField: "idArtesano", Fields: []string{"idArtesano", "nombreCompleto"}},
		core.CollectionDefinition{Name: core.InformesAnuales, Fields: []string{"anio"}},
	)))
}

func seeded() *memory.Store {
	store := memory.New()
	store.Seed("productos",
		[]string{"idProducto", "nombre", "stock", "precio"},
		[]string{"P1", "Huipil, bordado", "5", "1200"},
		[]string{"P2", "Rebozo"},
	)
	store.Seed("artesanos", []string{"idArtesano", "comunidad"})
	return store
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer
	failed, err := check(context.Background(), testEngine(seeded()), &out)
	require.NoError(t, err)
	assert.Zero(t, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "backend: memory", lines[0])
	assert.Contains(t, lines[1], "WARN  artesanos")
	assert.Contains(t, lines[1], "missing fields: nombreCompleto")
	assert.Contains(t, lines[2], "WARN  informesAnuales")
	assert.Contains(t, lines[2], "no header row")
	assert.Contains(t, lines[3], "OK    productos")
	assert.Contains(t, lines[3], "4 column(s)")
}

func TestCheck_CountsFailures(t *testing.T) {
	store := seeded()
	store.FailNext(memory.PrimitiveReadRange, errors.New("tab not found"))

	var out bytes.Buffer
	failed, err := check(context.Background(), testEngine(store), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "FAIL  artesanos")
	assert.Contains(t, out.String(), "tab not found")
	assert.Contains(t, out.String(), "OK    productos")
}

func TestDump(t *testing.T) {
	engine := testEngine(seeded())

	var out bytes.Buffer
	require.NoError(t, dump(context.Background(), engine, core.Productos, false, &out))

	var records []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Huipil, bordado", records[0]["nombre"])
	assert.Equal(t, "", records[1]["stock"])

	out.Reset()
	require.NoError(t, dump(context.Background(), engine, core.Productos, true, &out))
	assert.Contains(t, out.String(), "core.Record")
	assert.Contains(t, out.String(), "Rebozo")

	err := dump(context.Background(), engine, "ventas", false, &out)
	assert.ErrorIs(t, err, core.ErrUnknownCollection)
}

func TestExport(t *testing.T) {
	var out bytes.Buffer
	n, err := export(context.Background(), testEngine(seeded()), core.Productos, &out, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "idProducto,nombre,stock,precio\nP1,\"Huipil, bordado\",5,1200\nP2,Rebozo,,\n", out.String())

	_, err = export(context.Background(), testEngine(seeded()), core.InformesAnuales, &out, false)
	assert.ErrorIs(t, err, core.ErrEmptySchema)
}

func TestExportImport_LZ4RoundTrip(t *testing.T) {
	ctx := context.Background()

	var snapshot bytes.Buffer
	_, err := export(ctx, testEngine(seeded()), core.Productos, &snapshot, true)
	require.NoError(t, err)
	require.Greater(t, snapshot.Len(), 4)
	assert.Equal(t, []byte{0x04, 0x22, 0x4d, 0x18}, snapshot.Bytes()[:4], "lz4 frame magic")

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	n, err := importCSV(ctx, store, core.Productos, &snapshot, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	engine := core.NewEngine(store, core.WithRegistry(core.NewRegistry(
		core.CollectionDefinition{Name: core.Productos, IDField: "idProducto"},
	)))
	rec, ok, err := engine.GetByID(ctx, "P2", core.Productos)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.Record{"idProducto": "P2", "nombre": "Rebozo", "stock": "", "precio": ""}, rec)
}

type replaceSpy struct {
	collection string
	rows       [][]string
}

func (s *replaceSpy) Replace(_ context.Context, collection string, rows [][]string) error {
	s.collection = collection
	s.rows = rows
	return nil
}

func TestImportCSV(t *testing.T) {
	spy := &replaceSpy{}
	input := "idConsulta,nombre,,\nC1,Ana,,\n,,,\n"

	n, err := importCSV(context.Background(), spy, core.Consultas, strings.NewReader(input), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "consultas", spy.collection)
	assert.Equal(t, [][]string{{"idConsulta", "nombre"}, {"C1", "Ana"}}, spy.rows)

	bom := "\xEF\xBB\xBF idConsulta ,nombre\nC2,Jos\xe9\n"
	_, err = importCSV(context.Background(), spy, core.Consultas, strings.NewReader(bom), false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"idConsulta", "nombre"}, {"C2", "Jos\uFFFD"}}, spy.rows)

	_, err = importCSV(context.Background(), spy, core.Consultas, strings.NewReader(",,\n"), false)
	assert.ErrorIs(t, err, core.ErrEmptySchema)

	_, err = importCSV(context.Background(), spy, core.Consultas, strings.NewReader("a,\"b\n"), false)
	assert.ErrorContains(t, err, "read csv")
}

func TestRun(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: ":memory:"}}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, "help", nil, &out))
	assert.Contains(t, out.String(), "usage: sheetctl")

	err := run(context.Background(), cfg, "compact", nil, &out)
	assert.ErrorContains(t, err, `unknown command "compact"`)

	out.Reset()
	require.NoError(t, run(context.Background(), cfg, "check", nil, &out))
	assert.Contains(t, out.String(), "backend: sqlite (:memory:)")
	assert.Contains(t, out.String(), "WARN  productos")

	err = run(context.Background(), cfg, "dump", nil, &out)
	assert.ErrorContains(t, err, "expected exactly one collection")

	err = run(context.Background(), cfg, "import", []string{"productos"}, &out)
	assert.ErrorContains(t, err, "expected <collection> <file>")
}
