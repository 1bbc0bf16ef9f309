// Package views calcula proyecciones de solo lectura sobre las cachés de
// anuncios. No guarda estado propio: cada llamada recalcula la vista a partir
// de sus entradas.
package views

import (
	"strings"

	"github.com/truequeapp/trueque-api/internal/domain"
)

// MisTrueques une los anuncios propios con los anuncios heredados de antes de
// la migración, que no llevan usuarioId y se reconocen por el nombre visible
// del dueño (sin distinguir mayúsculas). El resultado se deduplica por ID,
// conservando la primera aparición.
//
// El emparejamiento por nombre es ambiguo si dos usuarios comparten nombre
// visible; se mantiene tal cual por compatibilidad con los datos antiguos.
func MisTrueques(propios, globales []domain.Trueque, nombre string) []domain.Trueque {
	nombre = strings.TrimSpace(nombre)

	candidatos := make([]domain.Trueque, 0, len(propios))
	candidatos = append(candidatos, propios...)
	if nombre != "" {
		for _, t := range globales {
			if t.UsuarioID == "" && strings.EqualFold(t.Usuario, nombre) {
				candidatos = append(candidatos, t)
			}
		}
	}

	vistos := make(map[string]bool, len(candidatos))
	resultado := make([]domain.Trueque, 0, len(candidatos))
	for _, t := range candidatos {
		if vistos[t.ID] {
			continue
		}
		vistos[t.ID] = true
		resultado = append(resultado, t)
	}
	return resultado
}

// Filtro son los criterios de búsqueda de la pantalla principal. Los campos
// nulos o vacíos no filtran.
type Filtro struct {
	Texto     string
	Categoria *string
	Tipo      *domain.TipoTrueque
}

// Filtrar devuelve la subsecuencia de anuncios que pasa el filtro: tipo exacto
// si se pidió uno, texto contenido en título, descripción o nombre del dueño
// (sin distinguir mayúsculas), y categoría exacta si hay una seleccionada.
func Filtrar(trueques []domain.Trueque, f Filtro) []domain.Trueque {
	q := strings.ToLower(strings.TrimSpace(f.Texto))

	resultado := make([]domain.Trueque, 0, len(trueques))
	for _, t := range trueques {
		if f.Tipo != nil && t.Tipo != *f.Tipo {
			continue
		}
		if q != "" && !contiene(t, q) {
			continue
		}
		if f.Categoria != nil && t.Categoria != *f.Categoria {
			continue
		}
		resultado = append(resultado, t)
	}
	return resultado
}

func contiene(t domain.Trueque, q string) bool {
	return strings.Contains(strings.ToLower(t.Titulo), q) ||
		strings.Contains(strings.ToLower(t.Descripcion), q) ||
		strings.Contains(strings.ToLower(t.Usuario), q)
}
