package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIniciar(t *testing.T) {
	assert := assert.New(t)

	t.Run("sesión recordada salta el inicio", func(t *testing.T) {
		e := Nuevo()
		e.Iniciar(true, true)
		assert.Equal(PantallaPrincipal, e.Actual())
	})

	t.Run("sesión sin recuérdame pide iniciar", func(t *testing.T) {
		e := Nuevo()
		e.Iniciar(true, false)
		assert.Equal(PantallaLogin, e.Actual())
	})

	t.Run("sin sesión pide iniciar aunque haya recuérdame", func(t *testing.T) {
		e := Nuevo()
		e.Iniciar(false, true)
		assert.Equal(PantallaLogin, e.Actual())
	})
}

func TestFlujoDeAcceso(t *testing.T) {
	assert := assert.New(t)
	e := Nuevo()

	assert.True(e.IrARegistro())
	assert.Equal(PantallaRegistro, e.Actual())

	assert.True(e.VolverALogin())
	assert.Equal(PantallaLogin, e.Actual())

	assert.True(e.LoginExitoso())
	assert.Equal(PantallaPrincipal, e.Actual())

	// El alta también desemboca en la principal.
	e2 := Nuevo()
	e2.IrARegistro()
	assert.True(e2.LoginExitoso())
	assert.Equal(PantallaPrincipal, e2.Actual())
}

func TestRutaDeVueltaDelFormulario(t *testing.T) {
	assert := assert.New(t)

	t.Run("abierto desde la principal vuelve a la principal", func(t *testing.T) {
		e := Nuevo()
		e.LoginExitoso()

		assert.True(e.AbrirAgregar())
		assert.True(e.CancelarAgregar())
		assert.Equal(PantallaPrincipal, e.Actual())
	})

	t.Run("abierto desde el perfil vuelve al perfil", func(t *testing.T) {
		e := Nuevo()
		e.LoginExitoso()
		e.AbrirPerfil()

		assert.True(e.AbrirAgregar())
		assert.True(e.CancelarAgregar())
		assert.Equal(PantallaPerfil, e.Actual())
	})

	t.Run("guardar lleva siempre al perfil", func(t *testing.T) {
		e := Nuevo()
		e.LoginExitoso()
		e.AbrirAgregar()

		assert.True(e.TruequeGuardado())
		assert.Equal(PantallaPerfil, e.Actual())
	})
}

func TestRutaDeVueltaDeNotificaciones(t *testing.T) {
	assert := assert.New(t)

	t.Run("desde la principal", func(t *testing.T) {
		e := Nuevo()
		e.LoginExitoso()

		assert.True(e.AbrirNotificaciones())
		assert.True(e.VolverDeNotificaciones())
		assert.Equal(PantallaPrincipal, e.Actual())
	})

	t.Run("desde el perfil", func(t *testing.T) {
		e := Nuevo()
		e.LoginExitoso()
		e.AbrirPerfil()

		assert.True(e.AbrirNotificaciones())
		assert.True(e.VolverDeNotificaciones())
		assert.Equal(PantallaPerfil, e.Actual())
	})
}

func TestCerrarSesion(t *testing.T) {
	assert := assert.New(t)

	e := Nuevo()
	e.LoginExitoso()
	e.AbrirPerfil()

	assert.True(e.CerrarSesion())
	assert.Equal(PantallaLogin, e.Actual())

	// Desde el propio login no hay nada que cerrar.
	assert.False(e.CerrarSesion())
}

func TestTransicionesInvalidas(t *testing.T) {
	assert := assert.New(t)
	e := Nuevo()

	// Desde el login solo se puede ir al registro o autenticarse.
	assert.False(e.AbrirPerfil())
	assert.False(e.AbrirAgregar())
	assert.False(e.AbrirNotificaciones())
	assert.False(e.VolverAPrincipal())
	assert.False(e.CancelarAgregar())
	assert.False(e.VolverDeNotificaciones())
	assert.Equal(PantallaLogin, e.Actual())

	// Un evento ignorado no mueve la máquina.
	e.LoginExitoso()
	assert.False(e.VolverALogin())
	assert.Equal(PantallaPrincipal, e.Actual())
}

func TestNombresDePantalla(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("login", PantallaLogin.String())
	assert.Equal("principal", PantallaPrincipal.String())
	assert.Equal("agregarTrueque", PantallaAgregarTrueque.String())
	assert.Equal("desconocida", Pantalla(99).String())
}
