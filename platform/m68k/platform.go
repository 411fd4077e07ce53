package m68k

import (
	"encoding/binary"

	"github.com/pattyshack/nuthatch/platform"
)

// The 68000 family is big-endian with a flat 32-bit address space.
const pointerByteSize = 4

var relocationTypeNames = map[platform.RelocationKind]string{
	platform.AbsPtrRelocation: "R_68K_32",
	platform.Rel32Relocation:  "R_68K_PC32",
}

type Platform struct {
	os platform.OperatingSystemName
}

func NewPlatform(os platform.OperatingSystemName) platform.Platform {
	return Platform{
		os: os,
	}
}

func (Platform) ArchitectureName() platform.ArchitectureName {
	return platform.M68k
}

func (p Platform) OperatingSystemName() platform.OperatingSystemName {
	return p.os
}

func (Platform) PointerByteSize() int {
	return pointerByteSize
}

func (Platform) ByteOrder() binary.ByteOrder {
	return binary.BigEndian
}

func (p Platform) MangledName(name string) string {
	return platform.MangleForOperatingSystem(p.os, name)
}

func (Platform) RelocationTypeName(kind platform.RelocationKind) string {
	return relocationTypeNames[kind]
}
