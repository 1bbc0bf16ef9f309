package domain

import (
	"time"

	"github.com/truequeapp/trueque-api/internal/store"
)

// ColeccionSolicitudes es la colección remota de propuestas de trueque.
const ColeccionSolicitudes = "solicitudes"

// EstadoSolicitud es el estado de una propuesta. Las transiciones válidas son
// pendiente→aceptada y pendiente→rechazada, en un solo sentido.
type EstadoSolicitud string

const (
	EstadoPendiente EstadoSolicitud = "pendiente"
	EstadoAceptada  EstadoSolicitud = "aceptada"
	EstadoRechazada EstadoSolicitud = "rechazada"
)

// Solicitud es una propuesta: el solicitante ofrece su anuncio a cambio del
// anuncio solicitado. Los títulos viajan desnormalizados para poder mostrarla
// sin cargar los anuncios.
type Solicitud struct {
	ID                      string          `json:"id"`
	TruequeSolicitadoID     string          `json:"truequeSolicitadoId"`
	TruequeSolicitadoTitulo string          `json:"truequeSolicitadoTitulo"`
	TruequeOfrecidoID       string          `json:"truequeOfrecidoId"`
	TruequeOfrecidoTitulo   string          `json:"truequeOfrecidoTitulo"`
	SolicitanteID           string          `json:"solicitanteId"`
	SolicitanteNombre       string          `json:"solicitanteNombre"`
	PropietarioID           string          `json:"propietarioId"`
	Estado                  EstadoSolicitud `json:"estado"`
	CreadoEn                time.Time       `json:"creadoEn"`
}

// SolicitudFromDoc mapea un documento a Solicitud. Los IDs de los dos anuncios
// son obligatorios; un estado ausente se considera pendiente.
func SolicitudFromDoc(d store.Document) (Solicitud, bool) {
	solicitadoID := cadena(d.Fields, "truequeSolicitadoId")
	ofrecidoID := cadena(d.Fields, "truequeOfrecidoId")
	if solicitadoID == "" || ofrecidoID == "" {
		return Solicitud{}, false
	}

	estado := EstadoSolicitud(cadena(d.Fields, "estado"))
	if estado == "" {
		estado = EstadoPendiente
	}

	return Solicitud{
		ID:                      d.ID,
		TruequeSolicitadoID:     solicitadoID,
		TruequeSolicitadoTitulo: cadena(d.Fields, "truequeSolicitadoTitulo"),
		TruequeOfrecidoID:       ofrecidoID,
		TruequeOfrecidoTitulo:   cadena(d.Fields, "truequeOfrecidoTitulo"),
		SolicitanteID:           cadena(d.Fields, "solicitanteId"),
		SolicitanteNombre:       cadena(d.Fields, "solicitanteNombre"),
		PropietarioID:           cadena(d.Fields, "propietarioId"),
		Estado:                  estado,
		CreadoEn:                fecha(d.Fields, "creadoEn"),
	}, true
}

// MapSolicitudes mapea un snapshot completo, descartando documentos malformados.
func MapSolicitudes(snap store.Snapshot) []Solicitud {
	solicitudes := make([]Solicitud, 0, len(snap))
	for _, doc := range snap {
		if s, ok := SolicitudFromDoc(doc); ok {
			solicitudes = append(solicitudes, s)
		}
	}
	return solicitudes
}
