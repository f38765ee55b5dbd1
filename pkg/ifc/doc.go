// Package ifc holds an in-memory IFC model: entity instances with typed
// attribute values, name-based attribute access, subtype-aware queries and
// inverse relations. Models are read from ISO 10303-21 (STEP) files.
//
// A Model is built once and then treated as read-only; every query method is
// safe for concurrent use after construction.
package ifc
