package platform

import (
	"encoding/binary"
)

type ArchitectureName string
type OperatingSystemName string

const (
	Amd64 = ArchitectureName("amd64")
	M68k  = ArchitectureName("m68k")

	Linux  = OperatingSystemName("linux")
	Darwin = OperatingSystemName("darwin")
)

type Platform interface {
	ArchitectureName() ArchitectureName
	OperatingSystemName() OperatingSystemName

	PointerByteSize() int
	ByteOrder() binary.ByteOrder

	// Maps a symbol name to its externally visible (object file) name.
	MangledName(name string) string

	// The container format's relocation type name (e.g., R_X86_64_64).
	// Returns "" for unsupported kinds.
	RelocationTypeName(RelocationKind) string
}

// Shared by platforms whose object format prefixes C symbols with an
// underscore.
func MangleForOperatingSystem(os OperatingSystemName, name string) string {
	if os == Darwin {
		return "_" + name
	}
	return name
}
