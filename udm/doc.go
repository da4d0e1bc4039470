// Package udm implements the Universal Data Model (UDM), the
// format-agnostic value tree at the center of the UTL-X toolkit, together
// with the UDM Language codec and the path navigator.
//
// UDM is designed to be:
//   - Format-agnostic (one model for JSON, XML, CSV, YAML, Avro, ...)
//   - Deterministic (serialization is a pure function of the tree)
//   - Round-trippable (parse(serialize(v)) reconstructs v)
//   - Immutable (trees are safe to share once constructed)
//
// # Data Model
//
// Scalars: string, number, boolean, null
// Containers: array, object (ordered properties + attributes + name + metadata)
// Temporal: datetime, date, local-datetime, time
// Special: binary, lambda
//
// # UDM Language Syntax
//
// Header:     @udm-version: 1.0
// Scalar:     "text", 42, 3.14, true, false, null
// Array:      [1, 2, 3]
// Object:     {name: "Alice", age: 30}
// Full form:  @Customer(metadata: {source: "xml"}) {
//               attributes: {id: "CUST-001"},
//               properties: {name: "John Doe"}
//             }
// Temporal:   @DateTime("2024-01-15T10:30:00Z"), @Date("2024-01-15"),
//             @LocalDateTime("2024-01-15T10:30:00"), @Time("10:30:00")
// Binary:     @Binary(encoding: "base64", size: 5, data: "aGVsbG8=")
// Lambda:     @Lambda(id: "toUpper", arity: 1)
//
// The keys "attributes", "properties" and "metadata" inside a full-form
// object are grammar structure, not data: the parser folds them into the
// Object's attribute, property and metadata maps and they are never visible
// as navigable property names afterwards.
//
// # Path Expressions
//
// The navigator resolves dotted/bracketed paths against a tree:
//
//	order.items[0].price
//	customer.@id          (attribute access)
//	$input.order.total    ($input. prefix is stripped)
//
// A path that resolves to nothing yields the absent outcome, not an error;
// only a syntactically malformed path expression fails.
package udm
