// Package classfiletest emits small but structurally valid class files for tests.
package classfiletest

import (
	"encoding/binary"

	"github.com/agentic-research/jarjar/internal/classfile"
)

type member struct {
	name, desc, signature uint16
}

// Builder assembles a class file. Methods are chainable; Bytes renders it.
type Builder struct {
	pool       [][]byte
	utf8s      map[string]uint16
	classes    map[string]uint16
	this       uint16
	super      uint16
	interfaces []uint16
	fields     []member
	methods    []member
	signature  uint16
	annots     []uint16
	typeAnnots []typeAnnot
}

type typeAnnot struct {
	target []byte
	desc   uint16
}

// New starts a class named name (internal form) extending super.
// An empty super produces a class without a superclass.
func New(name, super string) *Builder {
	b := &Builder{utf8s: make(map[string]uint16), classes: make(map[string]uint16)}
	b.this = b.Class(name)
	if super != "" {
		b.super = b.Class(super)
	}
	return b
}

func (b *Builder) add(entry []byte) uint16 {
	b.pool = append(b.pool, entry)
	return uint16(len(b.pool))
}

// Utf8 interns a CONSTANT_Utf8 entry.
func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	enc := classfile.AppendModifiedUTF8(nil, s)
	entry := []byte{1, byte(len(enc) >> 8), byte(len(enc))}
	idx := b.add(append(entry, enc...))
	b.utf8s[s] = idx
	return idx
}

// Class interns a CONSTANT_Class entry.
func (b *Builder) Class(name string) uint16 {
	if idx, ok := b.classes[name]; ok {
		return idx
	}
	n := b.Utf8(name)
	idx := b.add([]byte{7, byte(n >> 8), byte(n)})
	b.classes[name] = idx
	return idx
}

// String adds a CONSTANT_String, as an ldc of a literal would.
func (b *Builder) String(value string) *Builder {
	n := b.Utf8(value)
	b.add([]byte{8, byte(n >> 8), byte(n)})
	return b
}

// Long adds a two-slot CONSTANT_Long.
func (b *Builder) Long(v uint64) *Builder {
	entry := []byte{5}
	entry = binary.BigEndian.AppendUint64(entry, v)
	b.add(entry)
	b.pool = append(b.pool, nil) // unusable second slot
	return b
}

// MethodRef adds a CONSTANT_Methodref with its class and NameAndType.
func (b *Builder) MethodRef(owner, name, desc string) *Builder {
	c := b.Class(owner)
	nt := b.add(u2s(12, b.Utf8(name), b.Utf8(desc)))
	b.add(u2s(10, c, nt))
	return b
}

// Interface declares an implemented interface.
func (b *Builder) Interface(name string) *Builder {
	b.interfaces = append(b.interfaces, b.Class(name))
	return b
}

// Field declares a field with a descriptor and optional generic signature.
func (b *Builder) Field(name, desc, signature string) *Builder {
	b.fields = append(b.fields, b.member(name, desc, signature))
	return b
}

// Method declares an abstract method.
func (b *Builder) Method(name, desc, signature string) *Builder {
	b.methods = append(b.methods, b.member(name, desc, signature))
	return b
}

func (b *Builder) member(name, desc, signature string) member {
	m := member{name: b.Utf8(name), desc: b.Utf8(desc)}
	if signature != "" {
		m.signature = b.Utf8(signature)
	}
	return m
}

// Signature sets the class-level generic signature.
func (b *Builder) Signature(sig string) *Builder {
	b.signature = b.Utf8(sig)
	return b
}

// Annotation adds a marker annotation of the given type descriptor.
func (b *Builder) Annotation(desc string) *Builder {
	b.annots = append(b.annots, b.Utf8(desc))
	return b
}

// TypeAnnotation adds a class-level type annotation. target is the
// target_type byte followed by its target_info; the type path is empty.
func (b *Builder) TypeAnnotation(target []byte, desc string) *Builder {
	b.typeAnnots = append(b.typeAnnots, typeAnnot{target: target, desc: b.Utf8(desc)})
	return b
}

// Package adds a CONSTANT_Package, as module-info classes carry.
func (b *Builder) Package(name string) *Builder {
	b.add(u2s(20, b.Utf8(name)))
	return b
}

func u2s(tag byte, vs ...uint16) []byte {
	out := []byte{tag}
	for _, v := range vs {
		out = binary.BigEndian.AppendUint16(out, v)
	}
	return out
}

// Bytes renders the class file.
func (b *Builder) Bytes() []byte {
	// attribute names must be in the pool before it is written
	sigName := b.Utf8("Signature")
	var annName, typeAnnName uint16
	if len(b.annots) > 0 {
		annName = b.Utf8("RuntimeVisibleAnnotations")
	}
	if len(b.typeAnnots) > 0 {
		typeAnnName = b.Utf8("RuntimeVisibleTypeAnnotations")
	}

	out := binary.BigEndian.AppendUint32(nil, 0xCAFEBABE)
	out = binary.BigEndian.AppendUint16(out, 0)  // minor
	out = binary.BigEndian.AppendUint16(out, 52) // major
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.pool)+1))
	for _, entry := range b.pool {
		out = append(out, entry...)
	}
	out = binary.BigEndian.AppendUint16(out, 0x0021) // public super
	out = binary.BigEndian.AppendUint16(out, b.this)
	out = binary.BigEndian.AppendUint16(out, b.super)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}
	for _, members := range [][]member{b.fields, b.methods} {
		out = binary.BigEndian.AppendUint16(out, uint16(len(members)))
		for _, m := range members {
			out = binary.BigEndian.AppendUint16(out, 0x0001)
			out = binary.BigEndian.AppendUint16(out, m.name)
			out = binary.BigEndian.AppendUint16(out, m.desc)
			if m.signature == 0 {
				out = binary.BigEndian.AppendUint16(out, 0)
				continue
			}
			out = binary.BigEndian.AppendUint16(out, 1)
			out = appendSignature(out, sigName, m.signature)
		}
	}

	var attrs uint16
	if b.signature != 0 {
		attrs++
	}
	if len(b.annots) > 0 {
		attrs++
	}
	if len(b.typeAnnots) > 0 {
		attrs++
	}
	out = binary.BigEndian.AppendUint16(out, attrs)
	if b.signature != 0 {
		out = appendSignature(out, sigName, b.signature)
	}
	if len(b.annots) > 0 {
		out = binary.BigEndian.AppendUint16(out, annName)
		out = binary.BigEndian.AppendUint32(out, uint32(2+4*len(b.annots)))
		out = binary.BigEndian.AppendUint16(out, uint16(len(b.annots)))
		for _, a := range b.annots {
			out = binary.BigEndian.AppendUint16(out, a)
			out = binary.BigEndian.AppendUint16(out, 0) // no element pairs
		}
	}
	if len(b.typeAnnots) > 0 {
		var body []byte
		body = binary.BigEndian.AppendUint16(body, uint16(len(b.typeAnnots)))
		for _, a := range b.typeAnnots {
			body = append(body, a.target...)
			body = append(body, 0) // empty type path
			body = binary.BigEndian.AppendUint16(body, a.desc)
			body = binary.BigEndian.AppendUint16(body, 0)
		}
		out = binary.BigEndian.AppendUint16(out, typeAnnName)
		out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
		out = append(out, body...)
	}
	return out
}

func appendSignature(out []byte, name, sig uint16) []byte {
	out = binary.BigEndian.AppendUint16(out, name)
	out = binary.BigEndian.AppendUint32(out, 2)
	return binary.BigEndian.AppendUint16(out, sig)
}
