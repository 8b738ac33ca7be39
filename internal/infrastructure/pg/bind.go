package pg

import (
	"ormcore/internal/domain"
	"ormcore/internal/orm"
)

type Mappers struct {
	Authors *AuthorMapper
	Books   *BookMapper
	Reviews *ReviewMapper
}

// Bind registers the domain mappers and identifier generators on u. Authors
// draw from a sequence before insert, books get a client-side UUID and
// reviews read their serial back. wrap, when not nil, decorates each mapper
// before registration.
func Bind(u *orm.UnitOfWork, db *DB, wrap func(orm.DataMapper) orm.DataMapper) *Mappers {
	if wrap == nil {
		wrap = func(m orm.DataMapper) orm.DataMapper { return m }
	}
	reg := u.EntityRegistry()
	ms := &Mappers{
		Authors: NewAuthorMapper(db, reg),
		Books:   NewBookMapper(db, reg),
		Reviews: NewReviewMapper(db, reg),
	}
	u.RegisterDataMapper(orm.TypeOf[*domain.Author](), wrap(ms.Authors))
	u.RegisterDataMapper(orm.TypeOf[*domain.Book](), wrap(ms.Books))
	u.RegisterDataMapper(orm.TypeOf[*domain.Review](), wrap(ms.Reviews))

	u.RegisterIDGenerator(orm.TypeOf[*domain.Author](), NewSequenceGenerator(db, "authors_id_seq"))
	u.RegisterIDGenerator(orm.TypeOf[*domain.Book](), orm.NewUUIDGenerator())
	u.RegisterIDGenerator(orm.TypeOf[*domain.Review](), NewSerialGenerator(db, "reviews", "id"))
	return ms
}
