// Package postgres implementa el almacén de documentos sobre una tabla jsonb.
// Cada escritura emite NOTIFY y una conexión dedicada en LISTEN vuelve a
// ejecutar las consultas suscritas, entregando el snapshot completo.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/truequeapp/trueque-api/internal/store"
)

const canalCambios = "documentos_cambios"

const esquema = `
CREATE TABLE IF NOT EXISTS documentos (
	coleccion TEXT NOT NULL,
	id        TEXT NOT NULL,
	datos     JSONB NOT NULL,
	PRIMARY KEY (coleccion, id)
)`

type subscription struct {
	mu         sync.Mutex
	query      store.Query
	onSnapshot func(store.Snapshot)
	onError    func(error)
	cancelled  bool

	// Cada refresco toma una generación al empezar su Find; una entrega cuya
	// generación es anterior a la última entregada perdió la carrera contra un
	// refresco más nuevo y se descarta.
	genPedida    uint64
	genEntregada uint64
}

// iniciarRefresco reserva la generación del refresco que empieza.
func (s *subscription) iniciarRefresco() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genPedida++
	return s.genPedida
}

// deliver entrega el snapshot salvo que la suscripción ya esté cancelada o que
// una generación más nueva ya haya entregado; el mutex por suscripción hace
// que Cancel sea síncrono respecto a las entregas.
func (s *subscription) deliver(snap store.Snapshot, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled || gen <= s.genEntregada {
		return
	}
	s.genEntregada = gen
	s.onSnapshot(snap)
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cancelled && s.onError != nil {
		s.onError(err)
	}
}

// Store es el backend Postgres del almacén de documentos.
type Store struct {
	pool *pgxpool.Pool

	mu      sync.Mutex
	subs    map[int]*subscription
	nextSub int

	cancelListen context.CancelFunc
}

// New abre el pool, garantiza el esquema y arranca el oyente de cambios.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error al analizar la URL de la base de datos: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("error al crear el pool de conexiones: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error al comprobar la conexión: %w", err)
	}
	if _, err := pool.Exec(ctx, esquema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error al crear el esquema: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		pool:         pool,
		subs:         make(map[int]*subscription),
		cancelListen: cancel,
	}
	go s.escuchar(listenCtx)
	return s, nil
}

// Close cancela el oyente y cierra el pool.
func (s *Store) Close() {
	s.cancelListen()
	s.pool.Close()
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var datos []byte
	err := s.pool.QueryRow(ctx,
		`SELECT datos FROM documentos WHERE coleccion = $1 AND id = $2`,
		collection, id).Scan(&datos)
	if err != nil {
		return store.Document{}, store.ErrNotFound
	}
	fields := map[string]any{}
	if err := json.Unmarshal(datos, &fields); err != nil {
		return store.Document{}, fmt.Errorf("error al decodificar el documento: %w", err)
	}
	return store.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Find(ctx context.Context, q store.Query) (store.Snapshot, error) {
	sql := `SELECT id, datos FROM documentos WHERE coleccion = $1`
	args := []any{q.Collection}

	if q.ID != "" {
		sql += ` AND id = $2`
		args = append(args, q.ID)
	} else {
		for _, f := range q.Filters {
			sql += fmt.Sprintf(` AND datos->>$%d = $%d`, len(args)+1, len(args)+2)
			args = append(args, f.Field, fmt.Sprint(f.Value))
		}
		if q.OrderBy != "" {
			sql += fmt.Sprintf(` ORDER BY datos->>$%d`, len(args)+1)
			args = append(args, q.OrderBy)
			if q.Descending {
				sql += ` DESC`
			}
		} else {
			sql += ` ORDER BY id`
		}
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la consulta: %w", err)
	}
	defer rows.Close()

	snap := store.Snapshot{}
	for rows.Next() {
		var id string
		var datos []byte
		if err := rows.Scan(&id, &datos); err != nil {
			return nil, fmt.Errorf("error al escanear la fila: %w", err)
		}
		fields := map[string]any{}
		if err := json.Unmarshal(datos, &fields); err != nil {
			return nil, fmt.Errorf("error al decodificar el documento %s: %w", id, err)
		}
		snap = append(snap, store.Document{ID: id, Fields: fields})
	}
	return snap, rows.Err()
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.New().String()
	datos, err := codificar(fields)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documentos (coleccion, id, datos) VALUES ($1, $2, $3)`,
		collection, id, datos)
	if err != nil {
		return "", fmt.Errorf("error al insertar el documento: %w", err)
	}
	s.notificar(ctx, collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	datos, err := codificar(fields)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documentos (coleccion, id, datos) VALUES ($1, $2, $3)
		ON CONFLICT (coleccion, id) DO UPDATE SET datos = EXCLUDED.datos`,
		collection, id, datos)
	if err != nil {
		return fmt.Errorf("error al guardar el documento: %w", err)
	}
	s.notificar(ctx, collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	datos, err := codificar(fields)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documentos SET datos = datos || $3::jsonb WHERE coleccion = $1 AND id = $2`,
		collection, id, datos)
	if err != nil {
		return fmt.Errorf("error al actualizar el documento: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.notificar(ctx, collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documentos WHERE coleccion = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return fmt.Errorf("error al eliminar el documento: %w", err)
	}
	s.notificar(ctx, collection)
	return nil
}

// RunBatch aplica el lote en una única transacción SQL; el NOTIFY viaja dentro
// de la transacción, así que solo se emite si el commit tiene éxito.
func (s *Store) RunBatch(ctx context.Context, ops []store.Op) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error al iniciar la transacción: %w", err)
	}
	defer tx.Rollback(ctx)

	touched := make(map[string]bool)
	for _, op := range ops {
		switch op.Kind {
		case store.OpUpdate:
			datos, err := codificar(op.Fields)
			if err != nil {
				return err
			}
			sql := `UPDATE documentos SET datos = datos || $3::jsonb WHERE coleccion = $1 AND id = $2`
			args := []any{op.Collection, op.ID, datos}
			for _, e := range op.Expect {
				sql += fmt.Sprintf(` AND datos->>$%d = $%d`, len(args)+1, len(args)+2)
				args = append(args, e.Field, fmt.Sprint(e.Value))
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return fmt.Errorf("lote: error al actualizar %s/%s: %w", op.Collection, op.ID, err)
			}
			if tag.RowsAffected() == 0 {
				if len(op.Expect) > 0 {
					return fmt.Errorf("lote: %s/%s: %w", op.Collection, op.ID, store.ErrPrecondicion)
				}
				return fmt.Errorf("lote: %s/%s: %w", op.Collection, op.ID, store.ErrNotFound)
			}
		case store.OpDelete:
			if _, err := tx.Exec(ctx,
				`DELETE FROM documentos WHERE coleccion = $1 AND id = $2`,
				op.Collection, op.ID); err != nil {
				return fmt.Errorf("lote: error al eliminar %s/%s: %w", op.Collection, op.ID, err)
			}
		}
		touched[op.Collection] = true
	}

	for collection := range touched {
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, canalCambios, collection); err != nil {
			return fmt.Errorf("lote: error al notificar: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error al confirmar la transacción: %w", err)
	}
	return nil
}

func (s *Store) Subscribe(q store.Query, onSnapshot func(store.Snapshot), onError func(error)) store.CancelFunc {
	sub := &subscription{query: q, onSnapshot: onSnapshot, onError: onError}

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = sub
	s.mu.Unlock()

	// Entrega inicial fuera de los locks del registro.
	go s.refrescar(sub)

	return func() {
		sub.mu.Lock()
		sub.cancelled = true
		sub.mu.Unlock()

		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// escuchar mantiene una conexión dedicada en LISTEN y reejecuta las consultas
// suscritas a la colección notificada.
func (s *Store) escuchar(ctx context.Context) {
	for {
		if err := s.bucleEscucha(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Oyente de cambios caído, reintentando: %v", err)
			s.propagarError(err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (s *Store) bucleEscucha(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+canalCambios); err != nil {
		return err
	}
	for {
		notif, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		for _, sub := range s.subsDeColeccion(notif.Payload) {
			s.refrescar(sub)
		}
	}
}

func (s *Store) subsDeColeccion(collection string) []*subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*subscription
	for _, sub := range s.subs {
		if sub.query.Collection == collection {
			out = append(out, sub)
		}
	}
	return out
}

func (s *Store) refrescar(sub *subscription) {
	gen := sub.iniciarRefresco()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := s.Find(ctx, sub.query)
	if err != nil {
		sub.fail(err)
		return
	}
	sub.deliver(snap, gen)
}

func (s *Store) propagarError(err error) {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fail(err)
	}
}

func (s *Store) notificar(ctx context.Context, collection string) {
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, canalCambios, collection); err != nil {
		log.Printf("Error al notificar el cambio en %s: %v", collection, err)
	}
}

// codificar serializa los campos resolviendo el centinela de hora de servidor.
func codificar(fields map[string]any) ([]byte, error) {
	resolved := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == store.ServerTimestamp {
			resolved[k] = time.Now().UTC()
			continue
		}
		resolved[k] = v
	}
	datos, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("error al serializar los campos: %w", err)
	}
	return datos, nil
}
