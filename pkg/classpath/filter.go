package classpath

import (
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
	errs "github.com/matzehuels/classscan/pkg/errors"
)

// Filter selects the classes of a scan by package and class name.
//
// Reject rules win over accept rules. With no accept rules at all, every
// class that is not rejected is accepted. A class rule also covers the
// nested classes of the named class ("com.example.Outer" covers
// "com.example.Outer$Inner"). The empty package name denotes the root
// package, so AcceptPackages: []string{""} accepts everything.
type Filter struct {
	AcceptPackages             []string // Packages and their subpackages
	AcceptPackagesNonRecursive []string // Packages without their subpackages
	RejectPackages             []string // Packages and their subpackages
	AcceptClasses              []string
	RejectClasses              []string

	// IncludeInfoClasses keeps module-info and package-info resources,
	// which are skipped by default.
	IncludeInfoClasses bool
}

// Validate checks every package and class name of the filter.
func (f Filter) Validate() error {
	for _, list := range [][]string{f.AcceptPackages, f.AcceptPackagesNonRecursive, f.RejectPackages} {
		for _, p := range list {
			if err := errs.ValidatePackageName(p); err != nil {
				return err
			}
		}
	}
	for _, list := range [][]string{f.AcceptClasses, f.RejectClasses} {
		for _, c := range list {
			if err := errs.ValidateClassName(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsEmpty reports whether the filter has no accept or reject rules.
func (f Filter) IsEmpty() bool {
	return len(f.AcceptPackages) == 0 && len(f.AcceptPackagesNonRecursive) == 0 &&
		len(f.RejectPackages) == 0 && len(f.AcceptClasses) == 0 && len(f.RejectClasses) == 0
}

// AcceptResource reports whether a resource path names a class the filter
// accepts. Non-class resources and META-INF entries are never accepted.
func (f Filter) AcceptResource(resource string) bool {
	if !isClassResource(resource) || strings.HasPrefix(resource, "META-INF/") {
		return false
	}
	name := classfile.ResourceClassName(resource)
	if !f.IncludeInfoClasses && isInfoClass(name) {
		return false
	}
	return f.Accept(name)
}

// Accept reports whether the filter accepts a dotted class name.
func (f Filter) Accept(className string) bool {
	pkg := classfile.PackageName(className)
	for _, c := range f.RejectClasses {
		if coversClass(c, className) {
			return false
		}
	}
	for _, p := range f.RejectPackages {
		if coversPackage(p, pkg) {
			return false
		}
	}

	if len(f.AcceptPackages) == 0 && len(f.AcceptPackagesNonRecursive) == 0 && len(f.AcceptClasses) == 0 {
		return true
	}
	for _, c := range f.AcceptClasses {
		if coversClass(c, className) {
			return true
		}
	}
	for _, p := range f.AcceptPackages {
		if coversPackage(p, pkg) {
			return true
		}
	}
	for _, p := range f.AcceptPackagesNonRecursive {
		if p == pkg {
			return true
		}
	}
	return false
}

func coversClass(rule, name string) bool {
	return name == rule || strings.HasPrefix(name, rule+"$")
}

func coversPackage(rule, pkg string) bool {
	return rule == "" || pkg == rule || strings.HasPrefix(pkg, rule+".")
}

func isInfoClass(name string) bool {
	simple := name[strings.LastIndexByte(name, '.')+1:]
	return simple == "module-info" || simple == "package-info"
}
