package orm

import (
	"context"
	"errors"
	"fmt"
)

var errMapper = errors.New("mapper error")

type author struct {
	ID   int64
	Name string
	Tags []string
}

type book struct {
	ID       string
	AuthorID int64
	Title    string
	Author   *author
	Meta     map[string]string
}

// note has a caller-assigned identifier and no generator.
type note struct {
	Key  string
	Body string
}

func testMapping() *Mapping {
	m := NewMapping()
	Describe(m, func(a *author) *int64 { return &a.ID },
		Value("name", func(a *author) any { return a.Name }),
		Value("tags", func(a *author) any { return a.Tags }),
	)
	Describe(m, func(b *book) *string { return &b.ID },
		Value("author_id", func(b *book) any { return b.AuthorID }),
		Value("title", func(b *book) any { return b.Title }),
		Ref("author", func(b *book) any { return b.Author }),
		Value("meta", func(b *book) any { return b.Meta }),
	)
	Describe(m, func(n *note) *string { return &n.Key },
		Value("body", func(n *note) any { return n.Body }),
	)
	return m
}

func label(e Entity) string {
	switch v := e.(type) {
	case *author:
		return "author:" + v.Name
	case *book:
		return "book:" + v.Title
	case *note:
		return "note:" + v.Key
	}
	return fmt.Sprintf("%T", e)
}

type txMarker struct{}

type fakeConn struct {
	calls     *[]string
	beginErr  error
	commitErr error
	begins    int
	commits   int
	rollbacks int
}

func (c *fakeConn) BeginTx(ctx context.Context) (context.Context, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	c.begins++
	*c.calls = append(*c.calls, "begin")
	return context.WithValue(ctx, txMarker{}, c.begins), nil
}

func (c *fakeConn) Commit(ctx context.Context) error {
	if ctx.Value(txMarker{}) == nil {
		return ErrNoTransaction
	}
	if c.commitErr != nil {
		return c.commitErr
	}
	c.commits++
	*c.calls = append(*c.calls, "commit")
	return nil
}

func (c *fakeConn) Rollback(ctx context.Context) error {
	if ctx.Value(txMarker{}) == nil {
		return ErrNoTransaction
	}
	c.rollbacks++
	*c.calls = append(*c.calls, "rollback")
	return nil
}

// recordingMapper appends "<verb> <label>" to a shared call log and simulates
// an auto-increment column for authors.
type recordingMapper struct {
	calls    *[]string
	failOn   Entity
	failVerb Verb
	lastID   int64
	onAdd    func(e Entity)

	postCommits   int
	postRollbacks int
}

func (m *recordingMapper) record(verb Verb, e Entity) error {
	if m.failOn != nil && m.failOn == e && m.failVerb == verb {
		return errMapper
	}
	*m.calls = append(*m.calls, string(verb)+" "+label(e))
	return nil
}

func (m *recordingMapper) Add(_ context.Context, e Entity) error {
	if m.onAdd != nil {
		m.onAdd(e)
	}
	if err := m.record(VerbInsert, e); err != nil {
		return err
	}
	if _, ok := e.(*author); ok {
		m.lastID++
	}
	return nil
}

func (m *recordingMapper) Update(_ context.Context, e Entity) error { return m.record(VerbUpdate, e) }
func (m *recordingMapper) Delete(_ context.Context, e Entity) error { return m.record(VerbDelete, e) }

func (m *recordingMapper) PostCommit(context.Context) error {
	m.postCommits++
	return nil
}

func (m *recordingMapper) PostRollback(context.Context) { m.postRollbacks++ }

type fixture struct {
	uow    *UnitOfWork
	conn   *fakeConn
	mapper *recordingMapper
	calls  *[]string
	bookNo int
}

// newFixture wires authors to a post-insert generator reading the mapper's
// last id, books to a pre-insert counter, and notes to no generator.
func newFixture() *fixture {
	calls := &[]string{}
	f := &fixture{calls: calls, conn: &fakeConn{calls: calls}, mapper: &recordingMapper{calls: calls}}
	f.uow = NewUnitOfWork(f.conn, testMapping())
	f.uow.RegisterDataMapper(TypeOf[*author](), f.mapper)
	f.uow.RegisterDataMapper(TypeOf[*book](), f.mapper)
	f.uow.RegisterDataMapper(TypeOf[*note](), f.mapper)
	f.uow.RegisterIDGenerator(TypeOf[*author](), &PostInsertGenerator{
		ReadBack: func(context.Context, Entity) (any, error) { return f.mapper.lastID, nil },
		Empty:    int64(0),
	})
	f.uow.RegisterIDGenerator(TypeOf[*book](), &PreInsertGenerator{
		Next: func(context.Context, Entity) (any, error) {
			f.bookNo++
			return fmt.Sprintf("book-%d", f.bookNo), nil
		},
		Empty: "",
	})
	return f
}

func (f *fixture) reset() { *f.calls = (*f.calls)[:0] }

// registered inserts the entities in one commit and clears the call log.
func (f *fixture) registered(es ...Entity) {
	for _, e := range es {
		if err := f.uow.ScheduleForInsertion(e); err != nil {
			panic(err)
		}
	}
	if err := f.uow.Commit(context.Background()); err != nil {
		panic(err)
	}
	f.reset()
}
