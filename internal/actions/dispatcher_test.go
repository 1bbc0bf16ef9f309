package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
	"github.com/truequeapp/trueque-api/internal/store/memstore"
)

func TestCrearTrueque(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("sin sesión no escribe nada", func(t *testing.T) {
		st := memstore.New()
		d := New(st)

		_, err := d.CrearTrueque(ctx, "", "Ana", "Bicicleta", "de montaña", domain.TipoObjeto, "Deportes", "")
		assert.ErrorIs(err, ErrSinSesion)

		snap, _ := st.Find(ctx, store.Query{Collection: domain.ColeccionTrueques})
		assert.Empty(snap)
	})

	t.Run("campos obligatorios", func(t *testing.T) {
		d := New(memstore.New())

		_, err := d.CrearTrueque(ctx, "u1", "Ana", "", "de montaña", domain.TipoObjeto, "Deportes", "")
		assert.ErrorIs(err, ErrCamposIncompletos)
		_, err = d.CrearTrueque(ctx, "u1", "Ana", "Bicicleta", "", domain.TipoObjeto, "Deportes", "")
		assert.ErrorIs(err, ErrCamposIncompletos)
		_, err = d.CrearTrueque(ctx, "u1", "Ana", "Bicicleta", "de montaña", domain.TipoObjeto, "", "")
		assert.ErrorIs(err, ErrCamposIncompletos)
	})

	t.Run("publica el anuncio con la marca de tiempo del almacén", func(t *testing.T) {
		st := memstore.New()
		d := New(st)

		id, err := d.CrearTrueque(ctx, "u1", "Ana", "Bicicleta", "de montaña", domain.TipoObjeto, "Deportes", "https://img/bici.jpg")
		assert.Nil(err)

		doc, err := st.Get(ctx, domain.ColeccionTrueques, id)
		assert.Nil(err)
		trueque, ok := domain.TruequeFromDoc(doc)
		assert.True(ok)
		assert.Equal("Ana", trueque.Usuario)
		assert.Equal("u1", trueque.UsuarioID)
		assert.Equal("https://img/bici.jpg", trueque.ImagenURL)
		assert.False(trueque.CreadoEn.IsZero())
	})

	t.Run("sin nombre de perfil firma como Usuario", func(t *testing.T) {
		st := memstore.New()
		d := New(st)

		id, err := d.CrearTrueque(ctx, "u1", "", "Bicicleta", "de montaña", domain.TipoObjeto, "Deportes", "")
		assert.Nil(err)

		doc, _ := st.Get(ctx, domain.ColeccionTrueques, id)
		assert.Equal("Usuario", doc.Fields["usuario"])
	})
}

func TestEliminarTrueque(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	st := memstore.New()
	d := New(st)
	st.Set(ctx, domain.ColeccionTrueques, "t1", map[string]any{"titulo": "Bicicleta"})

	mensaje, err := d.EliminarTrueque(ctx, "t1")
	assert.Nil(err)
	assert.Equal("Trueque eliminado.", mensaje)

	_, err = st.Get(ctx, domain.ColeccionTrueques, "t1")
	assert.ErrorIs(err, store.ErrNotFound)
}

func TestActualizarNombre(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("nombre vacío", func(t *testing.T) {
		d := New(memstore.New())
		mensaje, err := d.ActualizarNombre(ctx, "u1", "")
		assert.ErrorIs(err, ErrNombreInvalido)
		assert.Equal("Introduce un nombre válido.", mensaje)
	})

	t.Run("actualiza el perfil", func(t *testing.T) {
		st := memstore.New()
		d := New(st)
		st.Set(ctx, domain.ColeccionUsuarios, "u1", map[string]any{"nombre": "Ana", "correo": "ana@mail.com"})

		mensaje, err := d.ActualizarNombre(ctx, "u1", "Ana María")
		assert.Nil(err)
		assert.Equal("Nombre actualizado.", mensaje)

		doc, _ := st.Get(ctx, domain.ColeccionUsuarios, "u1")
		assert.Equal("Ana María", doc.Fields["nombre"])
		// El resto del perfil no se toca.
		assert.Equal("ana@mail.com", doc.Fields["correo"])
	})

	t.Run("perfil inexistente devuelve el aviso de fallo", func(t *testing.T) {
		d := New(memstore.New())
		mensaje, err := d.ActualizarNombre(ctx, "u9", "Ana")
		assert.NotNil(err)
		assert.Contains(mensaje, "No se pudo actualizar el nombre: ")
	})
}

func TestEnviarSolicitud(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	solicitado := domain.Trueque{ID: "t1", Titulo: "Bicicleta", UsuarioID: "u1"}
	ofrecido := domain.Trueque{ID: "t2", Titulo: "Guitarra", UsuarioID: "u2"}

	t.Run("crea la propuesta pendiente", func(t *testing.T) {
		st := memstore.New()
		d := New(st)

		mensaje, err := d.EnviarSolicitud(ctx, "u2", "Pedro", solicitado, ofrecido)
		assert.Nil(err)
		assert.Equal("Solicitud enviada.", mensaje)

		snap, _ := st.Find(ctx, store.Query{Collection: domain.ColeccionSolicitudes})
		assert.Len(snap, 1)
		s, ok := domain.SolicitudFromDoc(snap[0])
		assert.True(ok)
		assert.Equal("t1", s.TruequeSolicitadoID)
		assert.Equal("Bicicleta", s.TruequeSolicitadoTitulo)
		assert.Equal("t2", s.TruequeOfrecidoID)
		assert.Equal("u2", s.SolicitanteID)
		assert.Equal("Pedro", s.SolicitanteNombre)
		assert.Equal("u1", s.PropietarioID)
		assert.Equal(domain.EstadoPendiente, s.Estado)
	})

	t.Run("el propio anuncio no se puede solicitar y no se escribe nada", func(t *testing.T) {
		st := memstore.New()
		d := New(st)

		_, err := d.EnviarSolicitud(ctx, "u1", "Ana", solicitado, ofrecido)
		assert.ErrorIs(err, ErrAutoTrueque)

		snap, _ := st.Find(ctx, store.Query{Collection: domain.ColeccionSolicitudes})
		assert.Empty(snap)
	})

	t.Run("sin sesión no se escribe nada", func(t *testing.T) {
		st := memstore.New()
		d := New(st)

		_, err := d.EnviarSolicitud(ctx, "", "Pedro", solicitado, ofrecido)
		assert.ErrorIs(err, ErrSinSesion)

		snap, _ := st.Find(ctx, store.Query{Collection: domain.ColeccionSolicitudes})
		assert.Empty(snap)
	})
}

func TestResponderSolicitud(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	preparar := func() (*memstore.Store, *Dispatcher, domain.Solicitud) {
		st := memstore.New()
		st.Set(ctx, domain.ColeccionTrueques, "t1", map[string]any{"titulo": "Bicicleta", "usuarioId": "u1"})
		st.Set(ctx, domain.ColeccionTrueques, "t2", map[string]any{"titulo": "Guitarra", "usuarioId": "u2"})
		st.Set(ctx, domain.ColeccionSolicitudes, "s1", map[string]any{
			"truequeSolicitadoId": "t1",
			"truequeOfrecidoId":   "t2",
			"solicitanteId":       "u2",
			"propietarioId":       "u1",
			"estado":              "pendiente",
		})
		doc, _ := st.Get(ctx, domain.ColeccionSolicitudes, "s1")
		solicitud, _ := domain.SolicitudFromDoc(doc)
		return st, New(st), solicitud
	}

	t.Run("rechazar solo cambia el estado", func(t *testing.T) {
		st, d, solicitud := preparar()

		assert.Nil(d.ResponderSolicitud(ctx, solicitud, false))

		doc, _ := st.Get(ctx, domain.ColeccionSolicitudes, "s1")
		assert.Equal("rechazada", doc.Fields["estado"])

		// Los dos anuncios siguen publicados.
		_, err := st.Get(ctx, domain.ColeccionTrueques, "t1")
		assert.Nil(err)
		_, err = st.Get(ctx, domain.ColeccionTrueques, "t2")
		assert.Nil(err)
	})

	t.Run("aceptar consume los dos anuncios en un solo lote", func(t *testing.T) {
		st, d, solicitud := preparar()

		assert.Nil(d.ResponderSolicitud(ctx, solicitud, true))

		_, err := st.Get(ctx, domain.ColeccionTrueques, "t1")
		assert.ErrorIs(err, store.ErrNotFound)
		_, err = st.Get(ctx, domain.ColeccionTrueques, "t2")
		assert.ErrorIs(err, store.ErrNotFound)

		doc, _ := st.Get(ctx, domain.ColeccionSolicitudes, "s1")
		assert.Equal("aceptada", doc.Fields["estado"])
	})

	t.Run("si el lote falla no se aplica ninguna operación", func(t *testing.T) {
		st, d, solicitud := preparar()
		st.FailBatchAfter(2)

		assert.NotNil(d.ResponderSolicitud(ctx, solicitud, true))

		_, err := st.Get(ctx, domain.ColeccionTrueques, "t1")
		assert.Nil(err)
		_, err = st.Get(ctx, domain.ColeccionTrueques, "t2")
		assert.Nil(err)
		doc, _ := st.Get(ctx, domain.ColeccionSolicitudes, "s1")
		assert.Equal("pendiente", doc.Fields["estado"])
	})

	t.Run("dos respuestas sobre la misma solicitud: la segunda pierde", func(t *testing.T) {
		st, d, solicitud := preparar()

		assert.Nil(d.ResponderSolicitud(ctx, solicitud, true))

		// La segunda respuesta llega con la lectura vieja, todavía pendiente.
		assert.ErrorIs(d.ResponderSolicitud(ctx, solicitud, false), ErrNoPendiente)

		doc, _ := st.Get(ctx, domain.ColeccionSolicitudes, "s1")
		assert.Equal("aceptada", doc.Fields["estado"])
	})

	t.Run("una solicitud ya respondida no se vuelve a responder", func(t *testing.T) {
		st, d, solicitud := preparar()
		solicitud.Estado = domain.EstadoRechazada

		assert.ErrorIs(d.ResponderSolicitud(ctx, solicitud, true), ErrNoPendiente)

		// Nada cambió.
		_, err := st.Get(ctx, domain.ColeccionTrueques, "t1")
		assert.Nil(err)
	})
}
