package schema

import "errors"

// ErrConfig is wrapped by every schema declaration error
var ErrConfig = errors.New("schema configuration error")

var (
	ErrMissingBackReference  = configError("missing back-reference")
	ErrAmbiguousRelationship = configError("ambiguous self-referential relationship")
	ErrNoForeignKey          = configError("no foreign key links the entities")
	ErrInvalidCascade        = configError("invalid cascade")
	ErrUnknownEntity         = configError("unknown entity")
	ErrUnknownColumn         = configError("unknown column")
	ErrDuplicate             = configError("duplicate declaration")
	ErrNoPrimaryKey          = configError("entity has no primary key")
)

type schemaError struct {
	msg string
}

func configError(msg string) error {
	return &schemaError{msg: msg}
}

func (e *schemaError) Error() string {
	return e.msg
}

func (e *schemaError) Unwrap() error {
	return ErrConfig
}
