// Package app modela la navegación de la aplicación como una máquina de
// estados explícita: una pantalla activa, eventos con nombre y una ruta de
// vuelta recordada por punto de entrada. No hay pila de navegación implícita.
package app

import "sync"

// Pantalla es cada estado de la navegación.
type Pantalla int

const (
	PantallaLogin Pantalla = iota
	PantallaRegistro
	PantallaPrincipal
	PantallaPerfil
	PantallaAgregarTrueque
	PantallaNotificaciones
)

// String devuelve el nombre de la pantalla para trazas.
func (p Pantalla) String() string {
	switch p {
	case PantallaLogin:
		return "login"
	case PantallaRegistro:
		return "registro"
	case PantallaPrincipal:
		return "principal"
	case PantallaPerfil:
		return "perfil"
	case PantallaAgregarTrueque:
		return "agregarTrueque"
	case PantallaNotificaciones:
		return "notificaciones"
	}
	return "desconocida"
}

// Estado es la máquina de navegación. Cada evento devuelve si la transición se
// aplicó; un evento desde una pantalla que no lo admite se ignora.
type Estado struct {
	mu                   sync.Mutex
	actual               Pantalla
	volverAgregar        Pantalla
	volverNotificaciones Pantalla
}

// Nuevo crea la máquina en la pantalla de inicio de sesión.
func Nuevo() *Estado {
	return &Estado{
		actual:               PantallaLogin,
		volverAgregar:        PantallaPrincipal,
		volverNotificaciones: PantallaPrincipal,
	}
}

// Actual devuelve la pantalla activa.
func (e *Estado) Actual() Pantalla {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actual
}

// Iniciar fija la pantalla inicial: si hay sesión válida y la marca de
// "recuérdame" está activa, se salta el inicio de sesión.
func (e *Estado) Iniciar(haySesion, recordar bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if haySesion && recordar {
		e.actual = PantallaPrincipal
	} else {
		e.actual = PantallaLogin
	}
}

// LoginExitoso avanza a la pantalla principal tras autenticarse.
func (e *Estado) LoginExitoso() bool {
	return e.transicion([]Pantalla{PantallaLogin, PantallaRegistro}, PantallaPrincipal)
}

// IrARegistro pasa del inicio de sesión al alta.
func (e *Estado) IrARegistro() bool {
	return e.transicion([]Pantalla{PantallaLogin}, PantallaRegistro)
}

// VolverALogin regresa del alta al inicio de sesión.
func (e *Estado) VolverALogin() bool {
	return e.transicion([]Pantalla{PantallaRegistro}, PantallaLogin)
}

// AbrirPerfil abre el perfil desde la pantalla principal.
func (e *Estado) AbrirPerfil() bool {
	return e.transicion([]Pantalla{PantallaPrincipal}, PantallaPerfil)
}

// VolverAPrincipal regresa del perfil a la pantalla principal.
func (e *Estado) VolverAPrincipal() bool {
	return e.transicion([]Pantalla{PantallaPerfil}, PantallaPrincipal)
}

// AbrirAgregar abre el formulario de anuncio y recuerda desde dónde se abrió.
func (e *Estado) AbrirAgregar() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actual != PantallaPrincipal && e.actual != PantallaPerfil {
		return false
	}
	e.volverAgregar = e.actual
	e.actual = PantallaAgregarTrueque
	return true
}

// CancelarAgregar vuelve a la pantalla desde la que se abrió el formulario.
func (e *Estado) CancelarAgregar() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actual != PantallaAgregarTrueque {
		return false
	}
	e.actual = e.volverAgregar
	return true
}

// TruequeGuardado cierra el formulario hacia el perfil, donde se ve el anuncio
// recién publicado.
func (e *Estado) TruequeGuardado() bool {
	return e.transicion([]Pantalla{PantallaAgregarTrueque}, PantallaPerfil)
}

// AbrirNotificaciones abre las solicitudes y recuerda desde dónde.
func (e *Estado) AbrirNotificaciones() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actual != PantallaPrincipal && e.actual != PantallaPerfil {
		return false
	}
	e.volverNotificaciones = e.actual
	e.actual = PantallaNotificaciones
	return true
}

// VolverDeNotificaciones regresa a la pantalla desde la que se abrieron.
func (e *Estado) VolverDeNotificaciones() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actual != PantallaNotificaciones {
		return false
	}
	e.actual = e.volverNotificaciones
	return true
}

// CerrarSesion regresa al inicio de sesión desde cualquier pantalla interna.
func (e *Estado) CerrarSesion() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actual == PantallaLogin || e.actual == PantallaRegistro {
		return false
	}
	e.actual = PantallaLogin
	return true
}

func (e *Estado) transicion(desde []Pantalla, hacia Pantalla) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range desde {
		if e.actual == p {
			e.actual = hacia
			return true
		}
	}
	return false
}
