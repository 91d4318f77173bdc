package classfile

import "strings"

// AccessFlags is the access_flags bit set of a class, field, method or
// method parameter. Several bits are overloaded depending on the owner
// (0x0020 is ACC_SUPER on classes and ACC_SYNCHRONIZED on methods).
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
	AccMandated     AccessFlags = 0x8000
)

// Has reports whether all bits in f are set.
func (a AccessFlags) Has(f AccessFlags) bool { return a&f == f }

func (a AccessFlags) IsPublic() bool     { return a.Has(AccPublic) }
func (a AccessFlags) IsPrivate() bool    { return a.Has(AccPrivate) }
func (a AccessFlags) IsProtected() bool  { return a.Has(AccProtected) }
func (a AccessFlags) IsStatic() bool     { return a.Has(AccStatic) }
func (a AccessFlags) IsFinal() bool      { return a.Has(AccFinal) }
func (a AccessFlags) IsInterface() bool  { return a.Has(AccInterface) }
func (a AccessFlags) IsAbstract() bool   { return a.Has(AccAbstract) }
func (a AccessFlags) IsSynthetic() bool  { return a.Has(AccSynthetic) }
func (a AccessFlags) IsAnnotation() bool { return a.Has(AccAnnotation) }
func (a AccessFlags) IsEnum() bool       { return a.Has(AccEnum) }
func (a AccessFlags) IsModule() bool     { return a.Has(AccModule) }

// ClassModifiers renders the flags as Java source modifiers of a class.
func (a AccessFlags) ClassModifiers() string {
	var mods []string
	mods = appendVisibility(mods, a)
	if a.IsAbstract() && !a.IsInterface() {
		mods = append(mods, "abstract")
	}
	if a.IsStatic() {
		mods = append(mods, "static")
	}
	if a.IsFinal() && !a.IsEnum() {
		mods = append(mods, "final")
	}
	if a.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	return strings.Join(mods, " ")
}

// MethodModifiers renders the flags as Java source modifiers of a method.
func (a AccessFlags) MethodModifiers() string {
	var mods []string
	mods = appendVisibility(mods, a)
	for _, m := range []struct {
		flag AccessFlags
		name string
	}{
		{AccAbstract, "abstract"},
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccSynchronized, "synchronized"},
		{AccNative, "native"},
		{AccStrict, "strictfp"},
		{AccSynthetic, "synthetic"},
		{AccBridge, "bridge"},
	} {
		if a.Has(m.flag) {
			mods = append(mods, m.name)
		}
	}
	return strings.Join(mods, " ")
}

// FieldModifiers renders the flags as Java source modifiers of a field.
func (a AccessFlags) FieldModifiers() string {
	var mods []string
	mods = appendVisibility(mods, a)
	for _, m := range []struct {
		flag AccessFlags
		name string
	}{
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccTransient, "transient"},
		{AccVolatile, "volatile"},
		{AccSynthetic, "synthetic"},
	} {
		if a.Has(m.flag) {
			mods = append(mods, m.name)
		}
	}
	return strings.Join(mods, " ")
}

func appendVisibility(mods []string, a AccessFlags) []string {
	switch {
	case a.IsPublic():
		return append(mods, "public")
	case a.IsProtected():
		return append(mods, "protected")
	case a.IsPrivate():
		return append(mods, "private")
	}
	return mods
}
