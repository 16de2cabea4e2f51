package sparsecs

import "github.com/rotisserie/eris"

// Fatal conditions are raised as panics whose value wraps one of these
// sentinels. Use eris.Is (or errors.Is) on the recovered value to tell them
// apart.
var (
	// ErrEntityCapacity is raised when Allocate would exceed the configured
	// maximum number of entity slots.
	ErrEntityCapacity = eris.New("ecs: entity capacity exceeded")
	// ErrIndexOutOfRange is raised when a component is inserted for an entity
	// index at or beyond the configured maximum.
	ErrIndexOutOfRange = eris.New("ecs: entity index out of range")
	// ErrBorrowConflict is raised when a borrow would break the
	// single-writer/multiple-reader rule for a component type.
	ErrBorrowConflict = eris.New("ecs: component storage already borrowed")
	// ErrReleasedBorrow is raised when a guard is used after Release.
	ErrReleasedBorrow = eris.New("ecs: use of released borrow")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = eris.New("ecs: invalid config")
)
