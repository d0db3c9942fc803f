package collections

import "github.com/JonMunkholm/sheetdb/internal/core"

func init() {
	registerArtesanos()
	registerProductos()
}

func registerArtesanos() {
	core.Register(core.CollectionDefinition{
		Name:    core.Artesanos,
		Label:   "Artesanos",
		IDField: "idArtesano",
		Fields: []string{
			"idArtesano",
			"nombreCompleto",
			"comunidad",
			"estado",
			"tecnica",
			"urlFoto",
			"biografia",
		},
	})
}

func registerProductos() {
	core.Register(core.CollectionDefinition{
		Name:    core.Productos,
		Label:   "Productos",
		IDField: "idProducto",
		Fields: []string{
			"idProducto",
			"nombre",
			"descripcion",
			"precio",
			"stock",
			"categoria",
			"idArtesano",
			"urlImagen",
		},
	})
}
