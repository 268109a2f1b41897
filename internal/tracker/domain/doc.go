// Package domain holds the core types of the unit tracking service: product
// models and their warranty windows, typed holder references, the per-unit
// lifecycle projection, and part lines.
//
// Types here are plain values with no storage or transport concerns. The
// event log is the source of truth; a Unit is a derived projection of it.
package domain
