package social

import (
	"context"
	"errors"
	"strings"
	"sync"

	"backend-snapgraph/internal/events"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore models the parts of Postgres the toggles depend on: the primary
// keys on follows/likes and the foreign keys to users and posts. Statements
// apply immediately, so it only stands in for transactions that never write
// before failing, which holds for every toggle path.
type memStore struct {
	mu      sync.Mutex
	users   map[int64]bool
	posts   map[int64]bool
	follows map[[2]int64]bool
	likes   map[[2]int64]bool

	// afterDelete runs outside the lock between a toggle's delete and insert.
	afterDelete func()
}

func newMemStore(users []int64, posts []int64) *memStore {
	s := &memStore{
		users:   map[int64]bool{},
		posts:   map[int64]bool{},
		follows: map[[2]int64]bool{},
		likes:   map[[2]int64]bool{},
	}
	for _, id := range users {
		s.users[id] = true
	}
	for _, id := range posts {
		s.posts[id] = true
	}
	return s
}

func (s *memStore) followEdges(follower int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.follows {
		if k[0] == follower {
			n++
		}
	}
	return n
}

func (s *memStore) Begin(context.Context) (pgx.Tx, error) { return &memTx{s: s}, nil }

func (s *memStore) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("memStore: Query not supported")
}

func (s *memStore) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a, b := args[0].(int64), args[1].(int64)
	key := [2]int64{a, b}

	switch {
	case strings.HasPrefix(sql, "DELETE FROM follows"):
		return s.remove(s.follows, key), nil
	case strings.HasPrefix(sql, "DELETE FROM likes"):
		return s.remove(s.likes, key), nil
	case strings.HasPrefix(sql, "INSERT INTO follows"):
		return s.insert(s.follows, key, s.users[a] && s.users[b])
	case strings.HasPrefix(sql, "INSERT INTO likes"):
		return s.insert(s.likes, key, s.users[a] && s.posts[b])
	}
	return pgconn.CommandTag{}, errors.New("memStore: unexpected exec " + sql)
}

func (s *memStore) remove(m map[[2]int64]bool, key [2]int64) pgconn.CommandTag {
	s.mu.Lock()
	found := m[key]
	delete(m, key)
	hook := s.afterDelete
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if found {
		return pgconn.NewCommandTag("DELETE 1")
	}
	return pgconn.NewCommandTag("DELETE 0")
}

func (s *memStore) insert(m map[[2]int64]bool, key [2]int64, refsOK bool) (pgconn.CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !refsOK {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23503"}
	}
	if m[key] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	m[key] = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (s *memStore) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := args[0].(int64)
	switch {
	case strings.Contains(sql, "FROM posts WHERE id"):
		return memRow{s.posts[id]}
	case strings.Contains(sql, "EXISTS (SELECT 1 FROM follows"):
		return memRow{s.follows[[2]int64{id, args[1].(int64)}]}
	case strings.Contains(sql, "EXISTS (SELECT 1 FROM likes"):
		return memRow{s.likes[[2]int64{id, args[1].(int64)}]}
	case strings.Contains(sql, "COUNT(*) FROM follows WHERE follower_id"):
		return memRow{countWhere(s.follows, func(k [2]int64) bool { return k[0] == id })}
	case strings.Contains(sql, "COUNT(*) FROM likes WHERE post_id"):
		return memRow{countWhere(s.likes, func(k [2]int64) bool { return k[1] == id })}
	}
	return memRow{errors.New("memStore: unexpected query " + sql)}
}

func countWhere(m map[[2]int64]bool, match func([2]int64) bool) int64 {
	var n int64
	for k := range m {
		if match(k) {
			n++
		}
	}
	return n
}

type memRow struct{ v any }

func (r memRow) Scan(dest ...any) error {
	if err, ok := r.v.(error); ok {
		return err
	}
	switch d := dest[0].(type) {
	case *bool:
		*d = r.v.(bool)
	case *int64:
		*d = r.v.(int64)
	default:
		return errors.New("memRow: unsupported destination")
	}
	return nil
}

// memTx forwards to the store. Methods the toggles never call are left to
// the embedded nil interface.
type memTx struct {
	pgx.Tx
	s *memStore
}

func (t *memTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.s.Exec(ctx, sql, args...)
}

func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.s.QueryRow(ctx, sql, args...)
}

func (t *memTx) Commit(context.Context) error   { return nil }
func (t *memTx) Rollback(context.Context) error { return nil }

type recordingPublisher struct {
	mu  sync.Mutex
	got []string
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, evt.Name+"@"+evt.Channel)
	return nil
}
