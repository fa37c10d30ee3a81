package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
// Expired cache entries also report ErrNotFound.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var ErrNotFound = errors.New("not found")
