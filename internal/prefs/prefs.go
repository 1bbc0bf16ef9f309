// Package prefs es el almacén local de preferencias: pares clave/valor en un
// sqlite de dispositivo. Hoy solo guarda la marca "remember_me" que decide si
// una sesión válida salta la pantalla de inicio.
package prefs

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ClaveRecordarme controla el avance automático tras la pantalla de inicio.
const ClaveRecordarme = "remember_me"

// Store es el fichero de preferencias abierto.
type Store struct {
	db *sqlx.DB
}

// Open abre (o crea) el fichero de preferencias en la ruta dada.
func Open(ruta string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+ruta)
	if err != nil {
		return nil, fmt.Errorf("error al abrir las preferencias: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		clave TEXT NOT NULL PRIMARY KEY,
		valor TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("error al crear la tabla de preferencias: %w", err)
	}

	return &Store{db: db}, nil
}

// Close cierra el fichero.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetBool guarda una preferencia booleana.
func (s *Store) SetBool(clave string, valor bool) error {
	texto := "0"
	if valor {
		texto = "1"
	}
	_, err := s.db.Exec(`INSERT INTO prefs (clave, valor) VALUES (?, ?)
		ON CONFLICT (clave) DO UPDATE SET valor = excluded.valor`, clave, texto)
	if err != nil {
		return fmt.Errorf("error al guardar la preferencia %s: %w", clave, err)
	}
	return nil
}

// GetBool lee una preferencia booleana; si no existe devuelve false.
func (s *Store) GetBool(clave string) bool {
	var valor string
	if err := s.db.Get(&valor, `SELECT valor FROM prefs WHERE clave = ?`, clave); err != nil {
		return false
	}
	return valor == "1"
}
