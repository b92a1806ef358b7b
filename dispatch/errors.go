package dispatch

import "errors"

// ErrDuplicateRouteName is returned by Table.Add when a route carries a
// name that is already registered. Route names are globally unique;
// a collision is a registration-time error and never surfaces during
// dispatch.
var ErrDuplicateRouteName = errors.New("dispatch: duplicate route name")

// ErrUnresolvedMiddleware is returned by Registry.Chain in strict mode
// when a middleware name resolves to nothing, locally or through the
// external resolver. Outside strict mode unresolved names are dropped
// from the chain silently.
var ErrUnresolvedMiddleware = errors.New("dispatch: unresolved middleware")
