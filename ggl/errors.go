package ggl

import "errors"

// Errors
var (
	ErrBadExpr          = errors.New("bad graph expression")
	ErrBadNodeID        = errors.New("bad graph node ID")
	ErrMissingNodeLabel = errors.New("node has no label")
	ErrBadEdge          = errors.New("bad graph edge")
	ErrBadEncoding      = errors.New("bad graph encoding")
	ErrNilGraph         = errors.New("nil graph")
	ErrBadRule          = errors.New("rule failed consistency check")
	ErrRuleMarkInGraph  = errors.New("rule context marks are not allowed in a plain graph")
	ErrBadConstraint    = errors.New("bad match constraint")
	ErrBadCatalogParam  = errors.New("bad catalog param")
	ErrCatalogReadOnly  = errors.New("catalog is in read-only mode")
	ErrBadConfig        = errors.New("bad config")
)
