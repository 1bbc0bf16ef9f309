package domain

import "github.com/truequeapp/trueque-api/internal/store"

// ColeccionUsuarios guarda el perfil público de cada usuario, con el UID de la
// identidad como ID de documento.
const ColeccionUsuarios = "usuarios"

// Usuario es el perfil público: nombre visible, identificador corto y correo.
type Usuario struct {
	ID      string `json:"id"`
	Nombre  string `json:"nombre"`
	Usuario string `json:"usuario"`
	Correo  string `json:"correo"`
}

// UsuarioFromDoc mapea un documento de perfil. Ningún campo es obligatorio:
// un perfil incompleto se muestra con los campos en blanco.
func UsuarioFromDoc(d store.Document) Usuario {
	return Usuario{
		ID:      d.ID,
		Nombre:  cadena(d.Fields, "nombre"),
		Usuario: cadena(d.Fields, "usuario"),
		Correo:  cadena(d.Fields, "correo"),
	}
}
