// Package auth es el servicio de identidad: alta, inicio y cierre de sesión,
// identidad actual y notificación de cambios. Los errores llevan siempre un
// mensaje legible para mostrar tal cual en pantalla.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
)

// coleccionCredenciales guarda el correo y el hash de contraseña de cada
// identidad; el ID del documento es el UID.
const coleccionCredenciales = "credenciales"

var (
	ErrCamposIncompletos = errors.New("completa todos los campos")
	ErrCorreoRegistrado  = errors.New("el correo ya está registrado")
	ErrCredenciales      = errors.New("correo o contraseña incorrectos")
)

// Identidad es el usuario autenticado.
type Identidad struct {
	UID     string `json:"uid"`
	Nombre  string `json:"nombre"`
	Usuario string `json:"usuario"`
	Correo  string `json:"correo"`
}

// Service implementa el servicio de identidad sobre el almacén de documentos.
type Service struct {
	st store.Store

	mu        sync.Mutex
	actual    *Identidad
	listeners map[int]func(*Identidad)
	nextID    int
}

// New crea el servicio sin identidad activa.
func New(st store.Store) *Service {
	return &Service{st: st, listeners: make(map[int]func(*Identidad))}
}

// Registrar da de alta una identidad nueva y escribe su perfil público en
// usuarios/{uid}. Deja la sesión iniciada.
func (s *Service) Registrar(ctx context.Context, nombre, usuario, correo, contrasena string) (*Identidad, error) {
	nombre = strings.TrimSpace(nombre)
	usuario = strings.TrimSpace(usuario)
	correo = strings.TrimSpace(correo)
	if nombre == "" || usuario == "" || correo == "" || contrasena == "" {
		return nil, ErrCamposIncompletos
	}

	existentes, err := s.st.Find(ctx, store.Query{
		Collection: coleccionCredenciales,
		Filters:    []store.Filter{{Field: "correo", Value: correo}},
	})
	if err != nil {
		return nil, fmt.Errorf("error al comprobar el correo: %w", err)
	}
	if len(existentes) > 0 {
		return nil, ErrCorreoRegistrado
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(contrasena), 10)
	if err != nil {
		return nil, fmt.Errorf("error al proteger la contraseña: %w", err)
	}

	uid, err := s.st.Add(ctx, coleccionCredenciales, map[string]any{
		"correo": correo,
		"hash":   string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("error al crear la identidad: %w", err)
	}

	if err := s.st.Set(ctx, domain.ColeccionUsuarios, uid, map[string]any{
		"nombre":  nombre,
		"usuario": usuario,
		"correo":  correo,
	}); err != nil {
		return nil, fmt.Errorf("error al guardar el perfil: %w", err)
	}

	id := &Identidad{UID: uid, Nombre: nombre, Usuario: usuario, Correo: correo}
	s.establecer(id)
	return id, nil
}

// IniciarSesion valida las credenciales y deja la sesión iniciada.
func (s *Service) IniciarSesion(ctx context.Context, correo, contrasena string) (*Identidad, error) {
	correo = strings.TrimSpace(correo)
	if correo == "" || contrasena == "" {
		return nil, ErrCamposIncompletos
	}

	credenciales, err := s.st.Find(ctx, store.Query{
		Collection: coleccionCredenciales,
		Filters:    []store.Filter{{Field: "correo", Value: correo}},
	})
	if err != nil {
		return nil, fmt.Errorf("error al buscar las credenciales: %w", err)
	}
	if len(credenciales) == 0 {
		return nil, ErrCredenciales
	}

	cred := credenciales[0]
	hash, _ := cred.Fields["hash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(contrasena)) != nil {
		return nil, ErrCredenciales
	}

	id := &Identidad{UID: cred.ID, Correo: correo}
	if perfil, err := s.st.Get(ctx, domain.ColeccionUsuarios, cred.ID); err == nil {
		u := domain.UsuarioFromDoc(perfil)
		id.Nombre = u.Nombre
		id.Usuario = u.Usuario
	}

	s.establecer(id)
	return id, nil
}

// CerrarSesion descarta la identidad activa.
func (s *Service) CerrarSesion() {
	s.establecer(nil)
}

// Actual devuelve la identidad activa, o nil si no hay sesión.
func (s *Service) Actual() *Identidad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actual
}

// Suscribir registra un oyente de cambios de identidad. Se invoca de inmediato
// con la identidad actual y después con cada cambio; la función devuelta lo
// da de baja.
func (s *Service) Suscribir(fn func(*Identidad)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	actual := s.actual
	s.mu.Unlock()

	fn(actual)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// establecer fija la identidad y avisa a los oyentes fuera del candado.
func (s *Service) establecer(id *Identidad) {
	s.mu.Lock()
	s.actual = id
	listeners := make([]func(*Identidad), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}
