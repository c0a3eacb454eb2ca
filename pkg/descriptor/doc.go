// Package descriptor models the wire payloads of the remote document
// protocol: ordered key/value descriptors, typed values, address references,
// and the codec that converts between native Go values and wire values.
//
// Percentages travel as 0-1 fractions. Enumerations travel as a
// (type, value) pair and are mapped to closed native tag sets by EnumTable.
package descriptor
