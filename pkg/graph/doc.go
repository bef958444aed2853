// Package graph holds the curve graph produced by evaluating a script: a
// DAG of primitive curves, transforms, trims and groups. Every node that
// carries a curve owns a lazily built hull for geometric queries.
package graph
