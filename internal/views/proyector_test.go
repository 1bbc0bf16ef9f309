package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truequeapp/trueque-api/internal/domain"
)

func TestMisTrueques(t *testing.T) {
	assert := assert.New(t)

	propios := []domain.Trueque{
		{ID: "t1", Titulo: "Bicicleta", Usuario: "Ana", UsuarioID: "u1"},
	}
	globales := []domain.Trueque{
		{ID: "t1", Titulo: "Bicicleta", Usuario: "Ana", UsuarioID: "u1"},
		{ID: "t2", Titulo: "Guitarra", Usuario: "ana", UsuarioID: ""},
		{ID: "t3", Titulo: "Patinete", Usuario: "Pedro", UsuarioID: ""},
		{ID: "t4", Titulo: "Libro", Usuario: "Ana", UsuarioID: "u9"},
	}

	t.Run("propios más heredados por nombre", func(t *testing.T) {
		resultado := MisTrueques(propios, globales, "Ana")
		ids := make([]string, 0, len(resultado))
		for _, tr := range resultado {
			ids = append(ids, tr.ID)
		}
		// t2 casa por nombre sin distinguir mayúsculas; t4 tiene otro dueño.
		assert.Equal([]string{"t1", "t2"}, ids)
	})

	t.Run("deduplica por ID conservando la primera aparición", func(t *testing.T) {
		duplicados := append([]domain.Trueque{}, propios...)
		duplicados = append(duplicados, domain.Trueque{ID: "t1", Titulo: "Bicicleta vieja"})
		resultado := MisTrueques(duplicados, nil, "Ana")
		assert.Len(resultado, 1)
		assert.Equal("Bicicleta", resultado[0].Titulo)
	})

	t.Run("sin nombre no se emparejan heredados", func(t *testing.T) {
		resultado := MisTrueques(propios, globales, "   ")
		assert.Len(resultado, 1)
		assert.Equal("t1", resultado[0].ID)
	})

	t.Run("sin propios ni nombre la vista queda vacía", func(t *testing.T) {
		resultado := MisTrueques(nil, globales, "")
		assert.Empty(resultado)
	})
}

func TestFiltrar(t *testing.T) {
	assert := assert.New(t)

	deportes := "Deportes"
	musica := "Música"
	habilidad := domain.TipoHabilidad

	trueques := []domain.Trueque{
		{ID: "t1", Titulo: "Bicicleta", Descripcion: "de montaña", Usuario: "Ana", Tipo: domain.TipoObjeto, Categoria: deportes},
		{ID: "t2", Titulo: "Guitarra", Descripcion: "española", Usuario: "Pedro", Tipo: domain.TipoObjeto, Categoria: musica},
		{ID: "t3", Titulo: "Clases de solfeo", Descripcion: "una hora", Usuario: "Pedro", Tipo: domain.TipoHabilidad, Categoria: musica},
	}

	t.Run("sin criterios pasa todo", func(t *testing.T) {
		assert.Len(Filtrar(trueques, Filtro{}), 3)
	})

	t.Run("texto en el título sin distinguir mayúsculas", func(t *testing.T) {
		resultado := Filtrar(trueques, Filtro{Texto: "  biciCLETA "})
		assert.Len(resultado, 1)
		assert.Equal("t1", resultado[0].ID)
	})

	t.Run("texto en la descripción", func(t *testing.T) {
		resultado := Filtrar(trueques, Filtro{Texto: "montaña"})
		assert.Len(resultado, 1)
		assert.Equal("t1", resultado[0].ID)
	})

	t.Run("texto en el nombre del dueño", func(t *testing.T) {
		resultado := Filtrar(trueques, Filtro{Texto: "pedro"})
		assert.Len(resultado, 2)
	})

	t.Run("categoría exacta", func(t *testing.T) {
		resultado := Filtrar(trueques, Filtro{Categoria: &musica})
		assert.Len(resultado, 2)
		assert.Equal("t2", resultado[0].ID)
		assert.Equal("t3", resultado[1].ID)
	})

	t.Run("tipo exacto", func(t *testing.T) {
		resultado := Filtrar(trueques, Filtro{Tipo: &habilidad})
		assert.Len(resultado, 1)
		assert.Equal("t3", resultado[0].ID)
	})

	t.Run("criterios combinados", func(t *testing.T) {
		resultado := Filtrar(trueques, Filtro{Texto: "guitarra", Categoria: &musica})
		assert.Len(resultado, 1)
		assert.Equal("t2", resultado[0].ID)

		assert.Empty(Filtrar(trueques, Filtro{Texto: "guitarra", Categoria: &deportes}))
	})
}
