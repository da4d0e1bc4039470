// Package usdl implements the Universal Schema Definition Language plane
// of the UDM toolkit: the compiled-in catalog of %-prefixed directives and
// the bidirectional bridge between a USDL schema (a UDM object using
// directive keys such as %types, %fields and %logicalType) and a concrete
// schema format, demonstrated with Avro.
//
// Both sides of the bridge are represented as udm.Value trees; ToJSON and
// FromJSON move the concrete side to and from its native JSON bytes with
// field order preserved.
//
// The bridge is idempotent on already-concrete input: a schema without a
// %types key passes through ToAvro unchanged, and a document without Avro
// type markers passes through FromAvro unchanged.
package usdl
