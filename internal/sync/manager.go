// Package sync mantiene las suscripciones vivas contra el almacén remoto y la
// sesión que decide cuáles deben existir según la identidad activa.
package sync

import (
	gosync "sync"

	"github.com/truequeapp/trueque-api/internal/store"
)

// Manager posee como máximo una suscripción viva por clave lógica. Volver a
// suscribir una clave cancela primero la suscripción anterior, de modo que
// nunca hay entregas duplicadas ni entregas de una consulta obsoleta.
type Manager struct {
	st store.Store

	mu     gosync.Mutex
	subs   map[string]store.CancelFunc
	closed bool
}

// NewManager crea un Manager sobre el store dado.
func NewManager(st store.Store) *Manager {
	return &Manager{st: st, subs: make(map[string]store.CancelFunc)}
}

// Subscribe establece la suscripción de la clave, cancelando la previa si
// existe antes de abrir la nueva.
func (m *Manager) Subscribe(key string, q store.Query, onSnapshot func(store.Snapshot), onError func(error)) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	prev := m.subs[key]
	delete(m.subs, key)
	m.mu.Unlock()

	if prev != nil {
		prev()
	}

	cancel := m.st.Subscribe(q, onSnapshot, onError)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return
	}
	// Otra llamada concurrente con la misma clave pudo registrar su
	// suscripción mientras abríamos la nuestra; al desplazarla hay que
	// cancelarla o quedaría viva sin dueño.
	desplazada := m.subs[key]
	m.subs[key] = cancel
	m.mu.Unlock()

	if desplazada != nil {
		desplazada()
	}
}

// Cancel cancela la suscripción de la clave, si existe. Es idempotente.
func (m *Manager) Cancel(key string) {
	m.mu.Lock()
	cancel := m.subs[key]
	delete(m.subs, key)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close cancela todas las suscripciones; el Manager queda inservible.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	cancels := make([]store.CancelFunc, 0, len(m.subs))
	for _, cancel := range m.subs {
		cancels = append(cancels, cancel)
	}
	m.subs = make(map[string]store.CancelFunc)
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
