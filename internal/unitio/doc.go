// Package unitio reads and writes compilation units for the linker.
//
// A unit is the linker's whole input: the types of one compilation unit,
// their members with bodies, and the override layers attached to each
// target member. Units are stored as JSON (".json") or MessagePack
// (".msgpack", ".mp"); both encodings share the wire structs in this
// package.
package unitio
