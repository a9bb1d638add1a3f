// Package classfile walks the symbolic references of a compiled Java class
// and rewrites them without touching bytecode.
//
// Every reference is a two-byte index into the constant pool pointing at a
// CONSTANT_Utf8 entry. Rewriting appends new Utf8 entries and repoints the
// referencing slots, so no existing index ever moves.
package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformed    = errors.New("malformed class file")
	ErrPoolOverflow = errors.New("constant pool overflow")
)

const magic = 0xCAFEBABE

const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// Remapper receives every symbolic reference of a class. Returning the
// argument unchanged leaves the reference alone.
type Remapper interface {
	// MapType maps an internal class name such as "java/lang/String".
	MapType(name string) string
	// MapString maps the value of a string constant.
	MapString(value string) string
}

// Funcs adapts plain functions to Remapper. Nil fields map to identity.
type Funcs struct {
	Type   func(string) string
	String func(string) string
}

func (f Funcs) MapType(name string) string {
	if f.Type == nil {
		return name
	}
	return f.Type(name)
}

func (f Funcs) MapString(value string) string {
	if f.String == nil {
		return value
	}
	return f.String(value)
}

type refKind uint8

const (
	kindClass      refKind = iota // CONSTANT_Class name: internal name or array descriptor
	kindDescriptor                // descriptor or generic signature
	kindString                    // string constant
	kindPackage                   // CONSTANT_Package name, slash separated
)

// slot is the offset of a u2 Utf8 index together with how to interpret it.
type slot struct {
	off  int
	kind refKind
}

type constant struct {
	tag  byte
	off  int // CONSTANT_Class: offset of the name index
	utf8 string
}

// File is a parsed class. Only the constant pool and the locations of
// symbolic references are decoded.
type File struct {
	data      []byte
	pool      []constant
	poolEnd   int
	thisClass uint16
	slots     []slot
}

// Parse decodes data far enough to find every symbolic reference.
func Parse(data []byte) (*File, error) {
	f := &File{data: data}
	r := &reader{data: data}
	if r.u4() != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	r.skip(4) // minor, major

	count := int(r.u2())
	if count == 0 {
		r.fail("empty constant pool")
	}
	f.pool = make([]constant, count)
	for i := 1; i < count && r.err == nil; i++ {
		tag := r.u1()
		f.pool[i].tag = tag
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			s, err := decodeModifiedUTF8(r.bytes(n))
			if err != nil && r.err == nil {
				r.err = err
			}
			f.pool[i].utf8 = s
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref, tagDynamic, tagInvokeDynamic:
			r.skip(4)
		case tagLong, tagDouble:
			r.skip(8)
			i++
		case tagClass:
			f.pool[i].off = r.pos
			f.slot(r, kindClass)
		case tagString:
			f.slot(r, kindString)
		case tagNameAndType:
			r.skip(2)
			f.slot(r, kindDescriptor)
		case tagMethodHandle:
			r.skip(3)
		case tagMethodType:
			f.slot(r, kindDescriptor)
		case tagModule:
			r.skip(2)
		case tagPackage:
			f.slot(r, kindPackage)
		default:
			r.fail("unknown constant tag %d", tag)
		}
	}
	f.poolEnd = r.pos

	r.skip(2) // access flags
	f.thisClass = r.u2()
	r.skip(2) // super class, covered by its CONSTANT_Class
	r.skip(2 * int(r.u2()))
	for pass := 0; pass < 2 && r.err == nil; pass++ { // fields, then methods
		n := int(r.u2())
		for j := 0; j < n && r.err == nil; j++ {
			r.skip(4) // access, name
			f.slot(r, kindDescriptor)
			f.attributes(r)
		}
	}
	f.attributes(r)
	if r.err != nil {
		return nil, r.err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) slot(r *reader, kind refKind) {
	if r.need(2) {
		f.slots = append(f.slots, slot{off: r.pos, kind: kind})
	}
	r.u2()
}

func (f *File) utf8At(idx uint16) (string, bool) {
	if idx == 0 || int(idx) >= len(f.pool) || f.pool[idx].tag != tagUtf8 {
		return "", false
	}
	return f.pool[idx].utf8, true
}

func (f *File) attributes(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		name, ok := f.utf8At(r.u2())
		length := int(r.u4())
		if r.err != nil {
			return
		}
		if !ok {
			r.fail("attribute name is not a utf8 constant")
			return
		}
		sub := r.sub(length)
		switch name {
		case "Signature":
			f.slot(sub, kindDescriptor)
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			f.annotations(sub)
		case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
			params := int(sub.u1())
			for p := 0; p < params && sub.err == nil; p++ {
				f.annotations(sub)
			}
		case "RuntimeVisibleTypeAnnotations", "RuntimeInvisibleTypeAnnotations":
			f.typeAnnotations(sub)
		case "AnnotationDefault":
			f.elementValue(sub)
		case "Code":
			sub.skip(4) // max stack, max locals
			sub.skip(int(sub.u4()))
			sub.skip(8 * int(sub.u2()))
			f.attributes(sub)
		case "LocalVariableTable", "LocalVariableTypeTable":
			entries := int(sub.u2())
			for e := 0; e < entries && sub.err == nil; e++ {
				sub.skip(6) // start, length, name
				f.slot(sub, kindDescriptor)
				sub.skip(2) // index
			}
		case "Record":
			components := int(sub.u2())
			for c := 0; c < components && sub.err == nil; c++ {
				sub.skip(2)
				f.slot(sub, kindDescriptor)
				f.attributes(sub)
			}
		}
		if sub.err != nil {
			r.err = sub.err
			return
		}
		r.skip(length)
	}
}

func (f *File) annotations(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		f.annotation(r)
	}
}

func (f *File) annotation(r *reader) {
	f.slot(r, kindDescriptor)
	pairs := int(r.u2())
	for i := 0; i < pairs && r.err == nil; i++ {
		r.skip(2)
		f.elementValue(r)
	}
}

// typeAnnotations walks type_annotation entries, which carry a target and a
// type path ahead of an ordinary annotation body.
func (f *File) typeAnnotations(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		switch target := r.u1(); {
		case target <= 0x01, target == 0x16:
			r.skip(1)
		case target >= 0x10 && target <= 0x12, target == 0x17, target >= 0x42 && target <= 0x46:
			r.skip(2)
		case target >= 0x13 && target <= 0x15:
		case target == 0x40, target == 0x41:
			r.skip(6 * int(r.u2()))
		case target >= 0x47 && target <= 0x4B:
			r.skip(3)
		default:
			r.fail("unknown type annotation target 0x%02x", target)
			return
		}
		r.skip(2 * int(r.u1())) // type_path
		f.annotation(r)
	}
}

func (f *File) elementValue(r *reader) {
	switch tag := r.u1(); tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		r.skip(2)
	case 's':
		f.slot(r, kindString)
	case 'e':
		f.slot(r, kindDescriptor)
		r.skip(2)
	case 'c':
		f.slot(r, kindDescriptor)
	case '@':
		f.annotation(r)
	case '[':
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			f.elementValue(r)
		}
	default:
		r.fail("unknown element value tag %q", tag)
	}
}

func (f *File) validate() error {
	if int(f.thisClass) >= len(f.pool) || f.pool[f.thisClass].tag != tagClass {
		return fmt.Errorf("%w: this_class is not a class constant", ErrMalformed)
	}
	for _, s := range f.slots {
		if _, ok := f.utf8At(f.index(s)); !ok {
			return fmt.Errorf("%w: reference at offset %d is not a utf8 constant", ErrMalformed, s.off)
		}
	}
	return nil
}

func (f *File) index(s slot) uint16 {
	return binary.BigEndian.Uint16(f.data[s.off:])
}

// Name is the internal name of the class itself.
func (f *File) Name() string {
	name, _ := f.utf8At(binary.BigEndian.Uint16(f.data[f.pool[f.thisClass].off:]))
	return name
}

func (f *File) mapRef(kind refKind, value string, m Remapper) string {
	switch kind {
	case kindClass:
		if strings.HasPrefix(value, "[") {
			return MapSignature(value, m.MapType)
		}
		return m.MapType(value)
	case kindDescriptor:
		return MapSignature(value, m.MapType)
	case kindString:
		return m.MapString(value)
	case kindPackage:
		// a package follows the renames of the classes inside it
		mapped, ok := strings.CutSuffix(m.MapType(value+"/package-info"), "/package-info")
		if !ok {
			return value
		}
		return mapped
	}
	return value
}

type refKey struct {
	kind  refKind
	index uint16
}

// Walk reports each distinct reference to m once. Return values are ignored.
func (f *File) Walk(m Remapper) {
	seen := make(map[refKey]struct{}, len(f.slots))
	for _, s := range f.slots {
		idx := f.index(s)
		k := refKey{s.kind, idx}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		f.mapRef(s.kind, f.pool[idx].utf8, m)
	}
}

// Rewrite returns a copy of the class with every reference replaced by what
// m returns for it, along with the class's new name.
func (f *File) Rewrite(m Remapper) ([]byte, string, error) {
	out := bytes.Clone(f.data)
	cache := make(map[refKey]uint16, len(f.slots))
	added := make(map[string]uint16)
	values := make(map[uint16]string)
	next := len(f.pool)
	var extra []byte

	for _, s := range f.slots {
		idx := f.index(s)
		k := refKey{s.kind, idx}
		n, ok := cache[k]
		if !ok {
			n = idx
			old := f.pool[idx].utf8
			if mapped := f.mapRef(s.kind, old, m); mapped != old {
				if j, ok := added[mapped]; ok {
					n = j
				} else {
					if next >= 0xFFFF {
						return nil, "", fmt.Errorf("%w: more than 65534 constants", ErrPoolOverflow)
					}
					enc := AppendModifiedUTF8(nil, mapped)
					if len(enc) > 0xFFFF {
						return nil, "", fmt.Errorf("%w: constant of %d bytes", ErrPoolOverflow, len(enc))
					}
					extra = append(extra, tagUtf8, byte(len(enc)>>8), byte(len(enc)))
					extra = append(extra, enc...)
					n = uint16(next)
					added[mapped] = n
					values[n] = mapped
					next++
				}
			}
			cache[k] = n
		}
		binary.BigEndian.PutUint16(out[s.off:], n)
	}

	name := f.Name()
	if v, ok := values[binary.BigEndian.Uint16(out[f.pool[f.thisClass].off:])]; ok {
		name = v
	}
	if len(extra) == 0 {
		return out, name, nil
	}
	binary.BigEndian.PutUint16(out[8:], uint16(next))
	result := make([]byte, 0, len(out)+len(extra))
	result = append(result, out[:f.poolEnd]...)
	result = append(result, extra...)
	return append(result, out[f.poolEnd:]...), name, nil
}

// Rewrite parses data and rewrites it in one step, returning the new bytes
// and the (possibly renamed) class name.
func Rewrite(data []byte, m Remapper) ([]byte, string, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	return f.Rewrite(m)
}

// Walk parses data and reports its references to m, returning the class name.
func Walk(data []byte, m Remapper) (string, error) {
	f, err := Parse(data)
	if err != nil {
		return "", err
	}
	f.Walk(m)
	return f.Name(), nil
}
