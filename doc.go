// Package navtrack maintains daily price histories for a list of funds.
//
// Each configured fund is looked up on several public sites (one adapter
// package per site), the observations are merged into a single per-fund
// series with a deterministic last-source-wins policy, and the result is
// persisted as a canonical JSON document only when its content actually
// changed. A single metadata document accumulates resolved names, currencies
// and cached per-site identifiers across runs.
package navtrack
