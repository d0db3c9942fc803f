package collections

import "github.com/JonMunkholm/sheetdb/internal/core"

func init() {
	registerConsultas()
	registerInformesAnuales()
}

func registerConsultas() {
	core.Register(core.CollectionDefinition{
		Name:    core.Consultas,
		Label:   "Consultas",
		IDField: "idConsulta",
		Fields: []string{
			"idConsulta",
			"timestamp",
			"clienteNombre",
			"clienteEmail",
			"clienteTelefono",
			"productoId",
			"productoNombre",
			"mensaje",
			"estado",
		},
	})
}

// informesAnuales rows are only listed and appended; they carry no identifier.
func registerInformesAnuales() {
	core.Register(core.CollectionDefinition{
		Name:   core.InformesAnuales,
		Label:  "Informes anuales",
		Fields: []string{"anio", "titulo", "resumen", "urlDocumento"},
	})
}
