// Package domain define los registros tipados de TruequeApp y el mapeo desde
// documentos sin esquema. El mapeo es de documento completo a registro
// completo: si falta un campo obligatorio el documento se descarta en
// silencio, los campos opcionales reciben su valor por defecto.
package domain

import "time"

// cadena lee un campo de texto; devuelve "" si falta o no es texto.
func cadena(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}

// fecha lee una marca de tiempo. El backend en memoria guarda time.Time; el de
// Postgres la devuelve como texto RFC 3339 dentro del jsonb.
func fecha(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
