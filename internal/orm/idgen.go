package orm

import (
	"context"
	"reflect"

	"github.com/google/uuid"
)

// IDGenerator decides how an entity type's identifier is produced. A
// post-insert generator reads back a value assigned by the store, so it must
// only be called after the mapper's Add.
type IDGenerator interface {
	IsPostInsert() bool
	Generate(ctx context.Context, e Entity) (any, error)
	// EmptyValue is the identifier of an entity that was never inserted.
	EmptyValue(e Entity) any
}

// PreInsertGenerator produces the identifier before the row is written.
type PreInsertGenerator struct {
	Next  func(ctx context.Context, e Entity) (any, error)
	Empty any
}

func (g *PreInsertGenerator) IsPostInsert() bool { return false }

func (g *PreInsertGenerator) Generate(ctx context.Context, e Entity) (any, error) {
	return g.Next(ctx, e)
}

func (g *PreInsertGenerator) EmptyValue(Entity) any { return g.Empty }

// PostInsertGenerator reads back an identifier the store assigned on insert.
type PostInsertGenerator struct {
	ReadBack func(ctx context.Context, e Entity) (any, error)
	Empty    any
}

func (g *PostInsertGenerator) IsPostInsert() bool { return true }

func (g *PostInsertGenerator) Generate(ctx context.Context, e Entity) (any, error) {
	return g.ReadBack(ctx, e)
}

func (g *PostInsertGenerator) EmptyValue(Entity) any { return g.Empty }

// NewUUIDGenerator assigns random UUID strings on the client.
func NewUUIDGenerator() *PreInsertGenerator {
	return &PreInsertGenerator{
		Next:  func(context.Context, Entity) (any, error) { return uuid.NewString(), nil },
		Empty: "",
	}
}

// IDGenerators maps entity types to their generator. Types without one keep
// whatever identifier the caller assigned.
type IDGenerators struct {
	byType map[reflect.Type]IDGenerator
}

func NewIDGenerators() *IDGenerators {
	return &IDGenerators{byType: map[reflect.Type]IDGenerator{}}
}

func (g *IDGenerators) Register(t reflect.Type, gen IDGenerator) { g.byType[t] = gen }

func (g *IDGenerators) Lookup(e Entity) (IDGenerator, bool) {
	gen, ok := g.byType[reflect.TypeOf(e)]
	return gen, ok
}
