package domain

import (
	"time"

	"github.com/truequeapp/trueque-api/internal/store"
)

// ColeccionTrueques es la colección remota de anuncios.
const ColeccionTrueques = "trueques"

// TipoTrueque clasifica el anuncio: un objeto físico o una habilidad.
type TipoTrueque string

const (
	TipoObjeto    TipoTrueque = "OBJETO"
	TipoHabilidad TipoTrueque = "HABILIDAD"
)

// CategoriaOtro es la categoría por defecto.
const CategoriaOtro = "Otro"

// Categorias es el conjunto cerrado de categorías de anuncio.
var Categorias = []string{"Electrónica", "Libros", "Deportes", "Música", "Idiomas", CategoriaOtro}

// Trueque es un anuncio publicado: algo que su dueño ofrece a cambio de otra
// cosa. Usuario es el nombre visible del dueño, desnormalizado al crear el
// anuncio; UsuarioID puede venir vacío en anuncios anteriores a la migración.
type Trueque struct {
	ID          string      `json:"id"`
	Titulo      string      `json:"titulo"`
	Descripcion string      `json:"descripcion"`
	Tipo        TipoTrueque `json:"tipo"`
	Usuario     string      `json:"usuario"`
	UsuarioID   string      `json:"usuarioId"`
	Categoria   string      `json:"categoria"`
	ImagenURL   string      `json:"imagenUrl,omitempty"`
	CreadoEn    time.Time   `json:"creadoEn"`
}

// TruequeFromDoc mapea un documento a Trueque. El título es obligatorio; sin
// él, el documento se descarta (ok == false). Un tipo irreconocible cae en
// OBJETO y una categoría ausente en "Otro".
func TruequeFromDoc(d store.Document) (Trueque, bool) {
	titulo := cadena(d.Fields, "titulo")
	if titulo == "" {
		return Trueque{}, false
	}

	tipo := TipoObjeto
	if cadena(d.Fields, "tipo") == string(TipoHabilidad) {
		tipo = TipoHabilidad
	}

	categoria := cadena(d.Fields, "categoria")
	if categoria == "" {
		categoria = CategoriaOtro
	}

	return Trueque{
		ID:          d.ID,
		Titulo:      titulo,
		Descripcion: cadena(d.Fields, "descripcion"),
		Tipo:        tipo,
		Usuario:     cadena(d.Fields, "usuario"),
		UsuarioID:   cadena(d.Fields, "usuarioId"),
		Categoria:   categoria,
		ImagenURL:   cadena(d.Fields, "imagenUrl"),
		CreadoEn:    fecha(d.Fields, "creadoEn"),
	}, true
}

// MapTrueques mapea un snapshot completo, descartando documentos malformados.
func MapTrueques(snap store.Snapshot) []Trueque {
	trueques := make([]Trueque, 0, len(snap))
	for _, doc := range snap {
		if t, ok := TruequeFromDoc(doc); ok {
			trueques = append(trueques, t)
		}
	}
	return trueques
}
