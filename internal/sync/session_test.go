package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
	"github.com/truequeapp/trueque-api/internal/store/memstore"
)

func TestManagerResuscribir(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	st := memstore.New()
	st.Set(ctx, "trueques", "t1", map[string]any{"titulo": "Bicicleta"})

	mgr := NewManager(st)
	defer mgr.Close()

	entregasViejas := 0
	entregasNuevas := 0

	mgr.Subscribe("lista", store.Query{Collection: "trueques"}, func(store.Snapshot) {
		entregasViejas++
	}, nil)
	assert.Equal(1, entregasViejas)

	// Resuscribir la misma clave cancela la suscripción anterior.
	mgr.Subscribe("lista", store.Query{Collection: "trueques"}, func(store.Snapshot) {
		entregasNuevas++
	}, nil)

	st.Set(ctx, "trueques", "t2", map[string]any{"titulo": "Guitarra"})

	assert.Equal(1, entregasViejas)
	assert.Equal(2, entregasNuevas)
}

func TestManagerCancel(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	st := memstore.New()

	mgr := NewManager(st)
	defer mgr.Close()

	entregas := 0
	mgr.Subscribe("lista", store.Query{Collection: "trueques"}, func(store.Snapshot) {
		entregas++
	}, nil)

	mgr.Cancel("lista")
	mgr.Cancel("lista") // idempotente

	st.Set(ctx, "trueques", "t1", map[string]any{"titulo": "Bicicleta"})
	assert.Equal(1, entregas)
}

func TestSessionCachesGlobales(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	st := memstore.New()
	st.Set(ctx, domain.ColeccionTrueques, "t1", map[string]any{"titulo": "Bicicleta", "usuarioId": "u9"})

	sesion := NewSession(st, auth.New(st), nil, nil)
	sesion.Start()
	defer sesion.Close()

	assert.Len(sesion.Globales(), 1)

	st.Set(ctx, domain.ColeccionTrueques, "t2", map[string]any{"titulo": "Guitarra", "usuarioId": "u9"})
	assert.Len(sesion.Globales(), 2)

	// Sin identidad no hay cachés personales.
	assert.Empty(sesion.UID())
	assert.Empty(sesion.Propios())
	assert.Empty(sesion.Solicitudes())
}

func TestSessionCambioDeIdentidad(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	st := memstore.New()
	identidad := auth.New(st)

	sesion := NewSession(st, identidad, nil, nil)
	sesion.Start()
	defer sesion.Close()

	ana, err := identidad.Registrar(ctx, "Ana", "ana", "ana@mail.com", "secreto1")
	assert.Nil(err)

	st.Set(ctx, domain.ColeccionTrueques, "t1", map[string]any{
		"titulo": "Bicicleta", "usuario": "Ana", "usuarioId": ana.UID,
	})
	st.Set(ctx, domain.ColeccionSolicitudes, "s1", map[string]any{
		"truequeSolicitadoId": "t1", "truequeOfrecidoId": "t2",
		"propietarioId": ana.UID, "estado": "pendiente",
	})

	t.Run("las cachés personales siguen a la identidad", func(t *testing.T) {
		assert.Equal(ana.UID, sesion.UID())
		assert.Equal("Ana", sesion.Nombre())
		assert.Len(sesion.Propios(), 1)
		assert.Len(sesion.Solicitudes(), 1)
	})

	t.Run("cambiar de usuario no filtra datos del anterior", func(t *testing.T) {
		pedro, err := identidad.Registrar(ctx, "Pedro", "pedro", "pedro@mail.com", "secreto2")
		assert.Nil(err)

		assert.Equal(pedro.UID, sesion.UID())
		assert.Equal("Pedro", sesion.Nombre())
		assert.Empty(sesion.Propios())
		assert.Empty(sesion.Solicitudes())

		// La caché global es compartida y sobrevive al cambio.
		assert.NotEmpty(sesion.Globales())
	})

	t.Run("cerrar sesión vacía lo personal y conserva lo global", func(t *testing.T) {
		identidad.CerrarSesion()

		assert.Empty(sesion.UID())
		assert.Empty(sesion.Nombre())
		assert.Empty(sesion.Propios())
		assert.Empty(sesion.Solicitudes())
		assert.NotEmpty(sesion.Globales())

		// Los cambios remotos ya no alimentan cachés personales.
		st.Set(ctx, domain.ColeccionSolicitudes, "s2", map[string]any{
			"truequeSolicitadoId": "t1", "truequeOfrecidoId": "t3",
			"propietarioId": ana.UID, "estado": "pendiente",
		})
		assert.Empty(sesion.Solicitudes())
	})
}

func TestSessionMisTrueques(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	st := memstore.New()
	identidad := auth.New(st)

	// Anuncio heredado, sin usuarioId, firmado con el nombre visible.
	st.Set(ctx, domain.ColeccionTrueques, "viejo", map[string]any{
		"titulo": "Patinete", "usuario": "ana", "usuarioId": "",
	})

	sesion := NewSession(st, identidad, nil, nil)
	sesion.Start()
	defer sesion.Close()

	ana, err := identidad.Registrar(ctx, "Ana", "ana", "ana@mail.com", "secreto1")
	assert.Nil(err)

	st.Set(ctx, domain.ColeccionTrueques, "nuevo", map[string]any{
		"titulo": "Bicicleta", "usuario": "Ana", "usuarioId": ana.UID,
	})

	mios := sesion.MisTrueques()
	assert.Len(mios, 2)
	ids := map[string]bool{}
	for _, tr := range mios {
		ids[tr.ID] = true
	}
	assert.True(ids["nuevo"])
	assert.True(ids["viejo"])
}

func TestSessionAvisosDeError(t *testing.T) {
	assert := assert.New(t)
	st := memstore.New()

	avisos := []string{}
	cambios := 0
	sesion := NewSession(st, auth.New(st), func() { cambios++ }, func(aviso string) {
		avisos = append(avisos, aviso)
	})
	sesion.Start()
	defer sesion.Close()

	// La entrega inicial ya cuenta como cambio y no produce avisos.
	assert.Greater(cambios, 0)
	assert.Empty(avisos)
}
