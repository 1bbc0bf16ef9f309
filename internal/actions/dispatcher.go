// Package actions concentra las escrituras puntuales contra el almacén
// remoto. Cada acción valida en el cliente antes de escribir, informa el
// resultado al llamador y nunca reintenta: las cachés se corrigen solas con el
// siguiente snapshot de la suscripción.
package actions

import (
	"context"
	"errors"

	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
)

// Errores de validación: se producen antes de cualquier llamada remota.
var (
	ErrSinSesion         = errors.New("no hay sesión activa")
	ErrCamposIncompletos = errors.New("completa todos los campos")
	ErrAutoTrueque       = errors.New("no puedes solicitar tu propio trueque")
	ErrNombreInvalido    = errors.New("introduce un nombre válido")
	ErrNoPendiente       = errors.New("la solicitud ya fue respondida")
)

// Dispatcher ejecuta las acciones de la aplicación contra un Store.
type Dispatcher struct {
	st store.Store
}

// New crea un Dispatcher sobre el store dado.
func New(st store.Store) *Dispatcher {
	return &Dispatcher{st: st}
}

// nombreOUsuario replica el fallback del cliente original: si el perfil aún no
// cargó el nombre, el anuncio sale firmado como "Usuario".
func nombreOUsuario(nombre string) string {
	if nombre == "" {
		return "Usuario"
	}
	return nombre
}

// CrearTrueque publica un anuncio nuevo. Título, descripción y categoría son
// obligatorios; el ID y la hora de creación los asigna el almacén.
func (d *Dispatcher) CrearTrueque(ctx context.Context, uid, nombre, titulo, descripcion string, tipo domain.TipoTrueque, categoria, imagenURL string) (string, error) {
	if uid == "" {
		return "", ErrSinSesion
	}
	if titulo == "" || descripcion == "" || categoria == "" {
		return "", ErrCamposIncompletos
	}

	fields := map[string]any{
		"titulo":      titulo,
		"descripcion": descripcion,
		"tipo":        string(tipo),
		"usuario":     nombreOUsuario(nombre),
		"usuarioId":   uid,
		"categoria":   categoria,
		"creadoEn":    store.ServerTimestamp,
	}
	if imagenURL != "" {
		fields["imagenUrl"] = imagenURL
	}
	return d.st.Add(ctx, domain.ColeccionTrueques, fields)
}

// EliminarTrueque borra un anuncio. El mensaje devuelto es el aviso que ve el
// usuario, tanto en éxito como en fallo.
func (d *Dispatcher) EliminarTrueque(ctx context.Context, id string) (string, error) {
	if err := d.st.Delete(ctx, domain.ColeccionTrueques, id); err != nil {
		return "No se pudo eliminar el trueque: " + err.Error(), err
	}
	return "Trueque eliminado.", nil
}

// ActualizarNombre cambia el nombre visible del perfil.
func (d *Dispatcher) ActualizarNombre(ctx context.Context, uid, nuevoNombre string) (string, error) {
	if uid == "" || nuevoNombre == "" {
		return "Introduce un nombre válido.", ErrNombreInvalido
	}
	if err := d.st.Update(ctx, domain.ColeccionUsuarios, uid, map[string]any{"nombre": nuevoNombre}); err != nil {
		return "No se pudo actualizar el nombre: " + err.Error(), err
	}
	return "Nombre actualizado.", nil
}

// EnviarSolicitud crea una propuesta pendiente: el solicitante ofrece su
// anuncio a cambio del solicitado. Sin sesión no se escribe nada, y tampoco si
// el anuncio solicitado es del propio solicitante.
func (d *Dispatcher) EnviarSolicitud(ctx context.Context, uid, nombre string, solicitado, ofrecido domain.Trueque) (string, error) {
	if uid == "" {
		return "", ErrSinSesion
	}
	if solicitado.UsuarioID == uid {
		return "", ErrAutoTrueque
	}

	_, err := d.st.Add(ctx, domain.ColeccionSolicitudes, map[string]any{
		"truequeSolicitadoId":     solicitado.ID,
		"truequeSolicitadoTitulo": solicitado.Titulo,
		"truequeOfrecidoId":       ofrecido.ID,
		"truequeOfrecidoTitulo":   ofrecido.Titulo,
		"solicitanteId":           uid,
		"solicitanteNombre":       nombreOUsuario(nombre),
		"propietarioId":           solicitado.UsuarioID,
		"estado":                  string(domain.EstadoPendiente),
		"creadoEn":                store.ServerTimestamp,
	})
	if err != nil {
		return "No se pudo enviar la solicitud: " + err.Error(), err
	}
	return "Solicitud enviada.", nil
}

// ResponderSolicitud resuelve una propuesta pendiente. Aceptar consume el
// trueque: borra los dos anuncios y marca la solicitud aceptada en un único
// lote atómico. Rechazar solo cambia el estado. El cambio de estado lleva la
// condición "sigue pendiente" en el propio lote: dos respuestas concurrentes
// no pueden pisarse, la segunda falla con ErrNoPendiente.
func (d *Dispatcher) ResponderSolicitud(ctx context.Context, s domain.Solicitud, aceptar bool) error {
	if s.Estado != domain.EstadoPendiente {
		return ErrNoPendiente
	}

	pendiente := []store.Filter{{Field: "estado", Value: string(domain.EstadoPendiente)}}

	var ops []store.Op
	if aceptar {
		ops = []store.Op{
			{Kind: store.OpDelete, Collection: domain.ColeccionTrueques, ID: s.TruequeSolicitadoID},
			{Kind: store.OpDelete, Collection: domain.ColeccionTrueques, ID: s.TruequeOfrecidoID},
			{Kind: store.OpUpdate, Collection: domain.ColeccionSolicitudes, ID: s.ID,
				Fields: map[string]any{"estado": string(domain.EstadoAceptada)}, Expect: pendiente},
		}
	} else {
		ops = []store.Op{
			{Kind: store.OpUpdate, Collection: domain.ColeccionSolicitudes, ID: s.ID,
				Fields: map[string]any{"estado": string(domain.EstadoRechazada)}, Expect: pendiente},
		}
	}

	if err := d.st.RunBatch(ctx, ops); err != nil {
		if errors.Is(err, store.ErrPrecondicion) {
			return ErrNoPendiente
		}
		return err
	}
	return nil
}
