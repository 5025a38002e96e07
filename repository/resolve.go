package repository

import "minivm/classfile"

// ResolveField implements spec.md §4.2 field resolution: given a CP index
// into a FieldRef (evaluated against the referring class's constant
// pool), produce the owning class and the resolved Field, by fully
// qualified name:descriptor key.
func (r *Repository) ResolveField(cp *classfile.ConstantPool, idx uint16) (owner *classfile.Class, field *classfile.Field, err error) {
	ownerName, name, desc, err := cp.FieldRefTarget(idx)
	if err != nil {
		return nil, nil, err
	}
	owner, err = r.LookupClass(ownerName)
	if err != nil {
		return nil, nil, err
	}
	field, ok := owner.LookupField(name + ":" + desc)
	if !ok {
		return nil, nil, &MemberNotFoundError{Class: ownerName, Member: name + ":" + desc}
	}
	return owner, field, nil
}

// ResolveMethodRef resolves a CP index into a MethodRef to the owning
// class and the Method declared on it under that "name:descriptor" key,
// using LookupMethodExact (no super-class walk).
func (r *Repository) ResolveMethodRef(cp *classfile.ConstantPool, idx uint16) (owner *classfile.Class, method *classfile.Method, err error) {
	ownerName, name, desc, err := cp.MethodRefTarget(idx)
	if err != nil {
		return nil, nil, err
	}
	owner, err = r.LookupClass(ownerName)
	if err != nil {
		return nil, nil, err
	}
	method, err = r.LookupMethodExact(ownerName, name+":"+desc)
	if err != nil {
		return nil, nil, err
	}
	return owner, method, nil
}

// LookupMethodExact returns the method matching fully-qualified
// name+descriptor on the named class exactly -- no super-class walk in
// this core (spec.md §4.2 and §9, exact-lookup invokevirtual).
func (r *Repository) LookupMethodExact(className, nameAndDesc string) (*classfile.Method, error) {
	c, err := r.LookupClass(className)
	if err != nil {
		return nil, err
	}
	m, ok := c.LookupMethod(nameAndDesc)
	if !ok {
		return nil, &MemberNotFoundError{Class: className, Member: nameAndDesc}
	}
	return m, nil
}

// LookupMethodArgCount parses the descriptor at the MethodRef target of
// cpIdx (evaluated against cp) and returns its argument count, per
// spec.md §4.2.
func LookupMethodArgCount(cp *classfile.ConstantPool, cpIdx uint16) (int, error) {
	return cp.ArgCount(cpIdx)
}
