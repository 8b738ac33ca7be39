package orm

import "errors"

var (
	ErrCommitFailed     = errors.New("commit failed")
	ErrUnknownMapper    = errors.New("no data mapper registered for entity type")
	ErrInvalidAction    = errors.New("invalid scheduled action")
	ErrUnmappedType     = errors.New("no field mapping registered for entity type")
	ErrIdentifierType   = errors.New("identifier not assignable")
	ErrNoTransaction    = errors.New("no transaction in context")
	ErrUnexpectedEntity = errors.New("unexpected entity type")
)
