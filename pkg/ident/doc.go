// Package ident defines the identifiers exchanged between readers and writers:
// 16-byte GUIDs naming DDS entities and local instance handles.
//
// A GUID is a 12-byte participant prefix followed by a 4-byte entity id. GUIDs
// render in the dotted hex form used throughout the logs:
//
//	01030000.2d7a84b1.00000001.00000102
//
// New generates a GUID from a random UUID, which is what tests and the
// simulator use to name synthetic writers and readers.
package ident
