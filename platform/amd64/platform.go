package amd64

import (
	"encoding/binary"

	"github.com/pattyshack/nuthatch/platform"
)

const pointerByteSize = 8

var relocationTypeNames = map[platform.RelocationKind]string{
	platform.AbsPtrRelocation: "R_X86_64_64",
	platform.Rel32Relocation:  "R_X86_64_PC32",
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
	return platform.Amd64
}

func (p Platform) OperatingSystemName() platform.OperatingSystemName {
	return p.os
}

func (Platform) PointerByteSize() int {
	return pointerByteSize
}

func (Platform) ByteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

func (p Platform) MangledName(name string) string {
	return platform.MangleForOperatingSystem(p.os, name)
}

func (Platform) RelocationTypeName(kind platform.RelocationKind) string {
	return relocationTypeNames[kind]
}
