// Package specprovider defines the capability interface the dependency-resolution
// core uses to query per-package spec metadata. The real implementation — parsing
// RPM spec files, invoking rpmspec, talking to the source tree — lives outside this
// module entirely; the core never imports it and only ever sees a SpecProvider.
package specprovider

import "fmt"

// SpecProvider answers metadata queries about base packages and the RPMs they
// produce. Base packages are spec-level identities (e.g. "glibc"); RPM packages
// are the installable artifacts a base produces (e.g. "glibc-devel").
type SpecProvider interface {
	// BasePkg maps an RPM package name to the base package that produces it.
	BasePkg(rpm string) (string, error)

	// BuildRequires returns the RPM packages that must be installed to build base.
	BuildRequires(base string) ([]string, error)

	// CheckBuildRequires returns the additional RPM packages required when the
	// package's "check" (test) phase is enabled for the given highest version.
	CheckBuildRequires(base string, version string) ([]string, error)

	// Requires returns the transitive run-time requirements of rpm.
	Requires(rpm string) ([]string, error)

	// SubPackages returns every RPM package a base produces.
	SubPackages(base string) ([]string, error)

	// HighestVersion returns the highest known version string for base.
	HighestVersion(base string) (string, error)

	// ListPackages returns every base package known to the provider.
	ListPackages() ([]string, error)
}

// UnknownPackageError reports that the provider has no metadata for a base or
// RPM package that the core needed in order to continue resolving dependencies.
type UnknownPackageError struct {
	Package string
	Query   string // which query failed, e.g. "BuildRequires", "BasePkg"
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("unknown package %q (query: %s)", e.Package, e.Query)
}

func (e *UnknownPackageError) Unwrap() error {
	return ErrUnknownPackage
}

// ErrUnknownPackage is the sentinel wrapped by UnknownPackageError, allowing
// callers to test with errors.Is(err, specprovider.ErrUnknownPackage).
var ErrUnknownPackage = fmt.Errorf("unknown package")
