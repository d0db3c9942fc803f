package collections

import "github.com/JonMunkholm/sheetdb/internal/core"

func init() {
	registerProyectos()
	registerVoluntarios()
	registerArticulosBlog()
}

func registerProyectos() {
	core.Register(core.CollectionDefinition{
		Name:    core.Proyectos,
		Label:   "Proyectos",
		IDField: "idProyecto",
		Fields:  []string{"idProyecto", "nombre", "descripcion", "estado", "fechaInicio", "urlImagen"},
	})
}

func registerVoluntarios() {
	core.Register(core.CollectionDefinition{
		Name:    core.Voluntarios,
		Label:   "Voluntarios",
		IDField: "idVoluntario",
		Fields:  []string{"idVoluntario", "nombreCompleto", "email", "telefono", "area", "fechaRegistro"},
	})
}

func registerArticulosBlog() {
	core.Register(core.CollectionDefinition{
		Name:    core.ArticulosBlog,
		Label:   "Artículos del blog",
		IDField: "idArticulo",
		Fields:  []string{"idArticulo", "titulo", "autor", "fechaPublicacion", "resumen", "contenido", "urlImagen"},
	})
}
