package store

import (
	"context"
	"errors"
	"time"
)

// GetContext devuelve un contexto con tiempo límite para operaciones remotas.
func GetContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// ErrNotFound se devuelve cuando el documento pedido no existe en la colección.
var ErrNotFound = errors.New("documento no encontrado")

// ErrPrecondicion se devuelve cuando una operación de lote con Expect
// encuentra el documento en otro estado del esperado.
var ErrPrecondicion = errors.New("el documento no cumple la condición esperada")

// serverTimestamp es el tipo del centinela ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp es un valor centinela: al escribirlo en un campo, el store lo
// sustituye por la hora asignada por el servidor (nunca por la del cliente).
var ServerTimestamp = serverTimestamp{}

// Document es un documento sin esquema: un ID y un mapa de campos.
type Document struct {
	ID     string
	Fields map[string]any
}

// Snapshot es la vista completa de una consulta; cada entrega REEMPLAZA la
// anterior, nunca es un delta.
type Snapshot []Document

// Filter es una condición de igualdad sobre un campo.
type Filter struct {
	Field string
	Value any
}

// Query describe una consulta sobre una colección. Si ID no está vacío, la
// consulta es sobre ese único documento y los demás criterios se ignoran.
type Query struct {
	Collection string
	ID         string
	Filters    []Filter
	OrderBy    string
	Descending bool
}

// OpKind indica el tipo de operación dentro de un lote.
type OpKind int

const (
	OpUpdate OpKind = iota
	OpDelete
)

// Op es una operación de un lote atómico. Expect, solo válido en OpUpdate,
// exige igualdades sobre el documento en el momento de aplicar el lote; si no
// se cumplen, el lote entero falla con ErrPrecondicion.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Fields     map[string]any
	Expect     []Filter
}

// CancelFunc cancela una suscripción. Es idempotente y síncrona: cuando
// retorna, no se entrega ningún snapshot más.
type CancelFunc func()

// Store es el contrato del almacén remoto de documentos. Es la única fuente de
// verdad; todo lo que el cliente retiene son cachés que se reemplazan enteras
// con cada snapshot.
type Store interface {
	// Get lee un documento; ErrNotFound si no existe.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Find ejecuta la consulta una sola vez.
	Find(ctx context.Context, q Query) (Snapshot, error)

	// Add crea un documento con ID asignado por el store y lo devuelve.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Set escribe el documento completo con el ID dado, creándolo si no existe.
	Set(ctx context.Context, collection, id string, fields map[string]any) error

	// Update fusiona los campos dados sobre un documento existente;
	// ErrNotFound si no existe.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete elimina un documento. Borrar un documento inexistente no es error.
	Delete(ctx context.Context, collection, id string) error

	// RunBatch aplica todas las operaciones como una unidad: o se aplican
	// todas o ninguna.
	RunBatch(ctx context.Context, ops []Op) error

	// Subscribe registra un oyente sobre la consulta. onSnapshot recibe la
	// colección completa en cada cambio (incluida una entrega inicial);
	// onError señala fallos del oyente sin cerrar la suscripción.
	// El callback no debe llamar de vuelta al store.
	Subscribe(q Query, onSnapshot func(Snapshot), onError func(error)) CancelFunc
}
