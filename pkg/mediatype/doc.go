// Package mediatype parses content types and decides whether a declared
// media type includes an observed one.
//
// Wildcards follow the usual HTTP rules: */* includes everything, type/*
// includes every subtype of type and type/*+suffix includes every structured
// subtype with that suffix. Parameters only take part in matching when the
// including type declares them.
package mediatype
