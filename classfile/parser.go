// Package classfile lifts the guest platform's class-file binary format
// (spec.md §4.1) into the in-memory Class representation consumed by the
// repository and interpreter.
package classfile

import (
	"encoding/binary"
	"fmt"
)

const magic = 0xCAFEBABE

// recognized attribute names; anything else on a field or method is fatal
// per spec.md §4.1.
const (
	attrConstantValue = "ConstantValue"
	attrSignature     = "Signature"
	attrCode          = "Code"
	attrExceptions    = "Exceptions"
	attrDeprecated    = "Deprecated"
	attrRuntimeVis    = "RuntimeVisibleAnnotations"
)

// cursor is a straight-line, big-endian reader over a byte buffer with an
// explicit position, matching the teacher's hand-rolled parsing style
// (no reflection/binary-struct-tag library; see DESIGN.md).
type cursor struct {
	file string
	buf  []byte
	pos  int
}

func (c *cursor) require(n int) error {
	if c.pos+n > len(c.buf) {
		return malformed(c.file, fmt.Sprintf("unexpected end of file at offset %d, need %d more bytes", c.pos, n))
	}
	return nil
}

func (c *cursor) u8() (byte, error) {
	if err := c.require(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) i64() (int64, error) {
	if err := c.require(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return int64(v), nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Read parses a class file's bytes, presented with a source filename for
// diagnostics, into a fully-populated Class.
func Read(name string, data []byte) (*Class, error) {
	c := &cursor{file: name, buf: data}

	m, err := c.u32()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, malformed(name, fmt.Sprintf("bad magic 0x%08X", m))
	}

	minor, err := c.u16()
	if err != nil {
		return nil, err
	}
	major, err := c.u16()
	if err != nil {
		return nil, err
	}

	cpCount, err := c.u16()
	if err != nil {
		return nil, err
	}
	cp, err := parseConstantPool(c, int(cpCount))
	if err != nil {
		return nil, err
	}

	accessFlags, err := c.u16()
	if err != nil {
		return nil, err
	}
	thisIdx, err := c.u16()
	if err != nil {
		return nil, err
	}
	superIdx, err := c.u16()
	if err != nil {
		return nil, err
	}

	thisName, err := cp.ClassName(thisIdx)
	if err != nil {
		return nil, malformed(name, "this_class does not resolve to a class name: "+err.Error())
	}

	var superName string
	if superIdx == 0 {
		superName = thisName // java/lang/Object is its own super, per spec.md §4.1
	} else {
		superName, err = cp.ClassName(superIdx)
		if err != nil {
			return nil, malformed(name, "super_class does not resolve to a class name: "+err.Error())
		}
	}

	ifaceCount, err := c.u16()
	if err != nil {
		return nil, err
	}
	interfaces := make([]string, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := c.u16()
		if err != nil {
			return nil, err
		}
		ifName, err := cp.ClassName(idx)
		if err != nil {
			return nil, malformed(name, "interface index does not resolve: "+err.Error())
		}
		interfaces = append(interfaces, ifName)
	}

	fieldCount, err := c.u16()
	if err != nil {
		return nil, err
	}
	var instanceFields, staticFields []*Field
	for i := 0; i < int(fieldCount); i++ {
		f, err := parseField(c, cp, thisName)
		if err != nil {
			return nil, err
		}
		if f.IsStatic {
			f.Offset = len(staticFields)
			staticFields = append(staticFields, f)
		} else {
			f.Offset = len(instanceFields)
			instanceFields = append(instanceFields, f)
		}
	}

	methodCount, err := c.u16()
	if err != nil {
		return nil, err
	}
	methods := make([]*Method, 0, methodCount)
	for i := 0; i < int(methodCount); i++ {
		m, err := parseMethod(c, cp, thisName)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}

	// class-level attributes: skip anything recognized or not, fatal only
	// on truncation (spec.md doesn't enumerate class attributes beyond
	// what's implied by fields/methods; SourceFile and similar are
	// harmless to skip wholesale here since this core does not use them).
	if _, err := skipAttributes(c, cp, true); err != nil {
		return nil, err
	}

	class := &Class{
		Name:           thisName,
		SuperName:      superName,
		Flags:          accessFlags,
		MinorVer:       minor,
		MajorVer:       major,
		CP:             cp,
		Interfaces:     interfaces,
		Methods:        methods,
		InstanceFields: instanceFields,
		StaticFields:   staticFields,
	}
	class.finalize()
	return class, nil
}

func parseConstantPool(c *cursor, count int) (*ConstantPool, error) {
	cp := newConstantPool(count)
	for i := 1; i < count; i++ {
		tag, err := c.u8()
		if err != nil {
			return nil, err
		}
		switch CPTag(tag) {
		case CPUtf8:
			length, err := c.u16()
			if err != nil {
				return nil, err
			}
			b, err := c.bytes(int(length))
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPUtf8, Utf8: string(b)})
		case CPInteger:
			v, err := c.i32()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPInteger, Int32: v})
		case CPFloat:
			v, err := c.u32()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPFloat, Float32: bitsToFloat32(v)})
		case CPLong:
			v, err := c.i64()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPLong, Int64: v})
			i++ // second slot unused
		case CPDouble:
			v, err := c.i64()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPDouble, Float64: bitsToFloat64(v)})
			i++ // second slot unused
		case CPClass:
			idx, err := c.u16()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPClass, Utf8Idx: idx})
		case CPString:
			idx, err := c.u16()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPString, Utf8Idx: idx})
		case CPFieldRef, CPMethodRef, CPInterfaceMethodRef:
			classIdx, err := c.u16()
			if err != nil {
				return nil, err
			}
			ntIdx, err := c.u16()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPTag(tag), ClassIdx: classIdx, NameAndTypeIdx: ntIdx})
		case CPNameAndType:
			nameIdx, err := c.u16()
			if err != nil {
				return nil, err
			}
			descIdx, err := c.u16()
			if err != nil {
				return nil, err
			}
			cp.set(i, CPEntry{Tag: CPNameAndType, NameIdx: nameIdx, DescIdx: descIdx})
		default:
			return nil, malformed(c.file, fmt.Sprintf("unknown constant pool tag %d at entry %d", tag, i))
		}
	}
	return cp, nil
}

func parseField(c *cursor, cp *ConstantPool, owner string) (*Field, error) {
	flags, err := c.u16()
	if err != nil {
		return nil, err
	}
	nameIdx, err := c.u16()
	if err != nil {
		return nil, err
	}
	descIdx, err := c.u16()
	if err != nil {
		return nil, err
	}
	name, err := cp.Utf8(nameIdx)
	if err != nil {
		return nil, malformed(c.file, "field name index does not resolve: "+err.Error())
	}
	desc, err := cp.Utf8(descIdx)
	if err != nil {
		return nil, malformed(c.file, "field descriptor index does not resolve: "+err.Error())
	}

	attrs, err := parseFieldOrMethodAttributes(c, cp)
	if err != nil {
		return nil, err
	}

	return &Field{
		OwningClassName: owner,
		Name:            name,
		Descriptor:      desc,
		Flags:           flags,
		IsStatic:        flags&AccStatic != 0,
		Attributes:      attrs,
	}, nil
}

// parseFieldOrMethodAttributes parses the field-attribute set from
// spec.md §4.1: ConstantValue and Signature are recognized and skipped;
// anything else is fatal.
func parseFieldOrMethodAttributes(c *cursor, cp *ConstantPool) ([]Attribute, error) {
	count, err := c.u16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx, err := c.u16()
		if err != nil {
			return nil, err
		}
		length, err := c.u32()
		if err != nil {
			return nil, err
		}
		attrName, err := cp.Utf8(nameIdx)
		if err != nil {
			return nil, malformed(c.file, "attribute name index does not resolve: "+err.Error())
		}
		endIndex := c.pos + int(length)
		if endIndex > len(c.buf) {
			return nil, malformed(c.file, fmt.Sprintf("attribute %q length %d runs past end of file", attrName, length))
		}
		switch attrName {
		case attrConstantValue:
			// u16 const value index; 2 bytes.
			if _, err := c.u16(); err != nil {
				return nil, err
			}
		case attrSignature:
			if _, err := c.u16(); err != nil {
				return nil, err
			}
		default:
			return nil, malformed(c.file, fmt.Sprintf("unknown field attribute %q", attrName))
		}
		if c.pos != endIndex {
			c.pos = endIndex
		}
		attrs = append(attrs, Attribute{Name: attrName})
	}
	return attrs, nil
}

func parseMethod(c *cursor, cp *ConstantPool, owner string) (*Method, error) {
	flags, err := c.u16()
	if err != nil {
		return nil, err
	}
	nameIdx, err := c.u16()
	if err != nil {
		return nil, err
	}
	descIdx, err := c.u16()
	if err != nil {
		return nil, err
	}
	name, err := cp.Utf8(nameIdx)
	if err != nil {
		return nil, malformed(c.file, "method name index does not resolve: "+err.Error())
	}
	desc, err := cp.Utf8(descIdx)
	if err != nil {
		return nil, malformed(c.file, "method descriptor index does not resolve: "+err.Error())
	}

	count, err := c.u16()
	if err != nil {
		return nil, err
	}

	m := &Method{
		OwningClassName: owner,
		Name:            name,
		Descriptor:      desc,
		Flags:           flags,
		Native:          flags&AccNative != 0,
	}

	for i := 0; i < int(count); i++ {
		attrNameIdx, err := c.u16()
		if err != nil {
			return nil, err
		}
		length, err := c.u32()
		if err != nil {
			return nil, err
		}
		attrName, err := cp.Utf8(attrNameIdx)
		if err != nil {
			return nil, malformed(c.file, "attribute name index does not resolve: "+err.Error())
		}
		endIndex := c.pos + int(length)
		if endIndex > len(c.buf) {
			return nil, malformed(c.file, fmt.Sprintf("attribute %q length %d runs past end of file", attrName, length))
		}

		switch attrName {
		case attrCode:
			maxStack, err := c.u16()
			if err != nil {
				return nil, err
			}
			maxLocals, err := c.u16()
			if err != nil {
				return nil, err
			}
			codeLen, err := c.u32()
			if err != nil {
				return nil, err
			}
			code, err := c.bytes(int(codeLen))
			if err != nil {
				return nil, err
			}
			m.MaxStack = int(maxStack)
			m.MaxLocals = int(maxLocals)
			m.Bytecode = code
			// Skip the exception table and nested attributes by jumping
			// straight to end_index, per spec.md §4.1 (exception-handler
			// tables are an explicit non-goal).
			c.pos = endIndex
		case attrSignature, attrExceptions, attrDeprecated, attrRuntimeVis:
			c.pos = endIndex
		default:
			return nil, malformed(c.file, fmt.Sprintf("unknown method attribute %q", attrName))
		}

		if c.pos != endIndex {
			c.pos = endIndex
		}
		m.Attributes = append(m.Attributes, Attribute{Name: attrName})
	}

	return m, nil
}

// skipAttributes consumes a trailing attribute count + attribute list
// without interpreting any of them; used for the class-level attribute
// set, which this core does not otherwise consult. allowTruncated permits
// an absent count (some minimal fixtures omit the trailing table
// entirely) by treating EOF-at-count as zero attributes.
func skipAttributes(c *cursor, cp *ConstantPool, allowTruncated bool) (int, error) {
	if allowTruncated && c.pos >= len(c.buf) {
		return 0, nil
	}
	count, err := c.u16()
	if err != nil {
		if allowTruncated {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < int(count); i++ {
		if _, err := c.u16(); err != nil {
			return 0, err
		}
		length, err := c.u32()
		if err != nil {
			return 0, err
		}
		endIndex := c.pos + int(length)
		if endIndex > len(c.buf) {
			return 0, malformed(c.file, fmt.Sprintf("class attribute length %d runs past end of file", length))
		}
		c.pos = endIndex
	}
	_ = cp
	return int(count), nil
}
