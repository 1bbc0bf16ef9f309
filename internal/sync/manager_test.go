package sync

import (
	"context"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truequeapp/trueque-api/internal/store"
)

// almacenConcurrente es un store de prueba cuyo Subscribe se detiene en una
// barrera, de modo que dos llamadas concurrentes se solapan con seguridad.
// Cuenta las suscripciones que siguen vivas.
type almacenConcurrente struct {
	barrera *gosync.WaitGroup

	mu    gosync.Mutex
	vivas int
}

func (a *almacenConcurrente) Subscribe(q store.Query, onSnapshot func(store.Snapshot), onError func(error)) store.CancelFunc {
	a.barrera.Done()
	a.barrera.Wait()

	a.mu.Lock()
	a.vivas++
	a.mu.Unlock()

	var una gosync.Once
	return func() {
		una.Do(func() {
			a.mu.Lock()
			a.vivas--
			a.mu.Unlock()
		})
	}
}

func (a *almacenConcurrente) abiertas() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vivas
}

func (a *almacenConcurrente) Get(ctx context.Context, collection, id string) (store.Document, error) {
	return store.Document{}, store.ErrNotFound
}

func (a *almacenConcurrente) Find(ctx context.Context, q store.Query) (store.Snapshot, error) {
	return store.Snapshot{}, nil
}

func (a *almacenConcurrente) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	return "", nil
}

func (a *almacenConcurrente) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	return nil
}

func (a *almacenConcurrente) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return nil
}

func (a *almacenConcurrente) Delete(ctx context.Context, collection, id string) error {
	return nil
}

func (a *almacenConcurrente) RunBatch(ctx context.Context, ops []store.Op) error {
	return nil
}

func TestManagerSubscribeConcurrente(t *testing.T) {
	assert := assert.New(t)

	var barrera gosync.WaitGroup
	barrera.Add(2)
	st := &almacenConcurrente{barrera: &barrera}
	mgr := NewManager(st)

	// Dos Subscribe con la misma clave a la vez: ninguna ve la suscripción de
	// la otra al entrar, así que la que registre en segundo lugar debe cancelar
	// la que desplaza.
	var wg gosync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mgr.Subscribe("lista", store.Query{Collection: "trueques"}, func(store.Snapshot) {}, nil)
		}()
	}
	wg.Wait()

	assert.Equal(1, st.abiertas())

	mgr.Close()
	assert.Equal(0, st.abiertas())
}
