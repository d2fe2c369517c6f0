package specprovider

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PackageSpec is the fixture-format description of one base package. It mirrors
// the fields a real spec-file parser would extract: the RPMs it produces, what
// each of those RPMs needs at build and run time, and its highest known version.
type PackageSpec struct {
	Base           string
	SubPackages    []string            // rpm names this base produces
	BuildRequires  []string            // rpms needed to build Base
	CheckRequires  []string            // additional rpms needed when check mode is on
	HighestVersion string              // e.g. "2.39-1"
	Requires       map[string][]string // rpm -> its run-time requirements
	RpmToBase      map[string]string   // rpm -> owning base (usually just Base's own rpms, but lets a fixture map third-party rpms too)
}

// FixtureProvider is an in-memory SpecProvider backed by a fixed set of
// PackageSpec values, built directly from Go literals in tests. It is the
// grounded stand-in for the teacher's testFixtureQuerier: both let unit tests
// exercise dependency resolution without a real spec tree on disk.
type FixtureProvider struct {
	specs map[string]*PackageSpec // base -> spec
	owner map[string]string       // rpm -> base, derived from every spec's SubPackages plus RpmToBase overrides
}

// NewFixtureProvider builds a FixtureProvider from a list of package specs.
func NewFixtureProvider(specs ...*PackageSpec) *FixtureProvider {
	p := &FixtureProvider{
		specs: make(map[string]*PackageSpec, len(specs)),
		owner: make(map[string]string),
	}
	for _, s := range specs {
		p.specs[s.Base] = s
		for _, rpm := range s.SubPackages {
			p.owner[rpm] = s.Base
		}
		for rpm, base := range s.RpmToBase {
			p.owner[rpm] = base
		}
	}
	return p
}

func (p *FixtureProvider) BasePkg(rpm string) (string, error) {
	if base, ok := p.owner[rpm]; ok {
		return base, nil
	}
	// An rpm with no registered owner is assumed to be its own base's sole
	// artifact — this keeps small hand-written fixtures terse (no need to
	// spell out SubPackages for single-RPM bases).
	if _, ok := p.specs[rpm]; ok {
		return rpm, nil
	}
	return "", &UnknownPackageError{Package: rpm, Query: "BasePkg"}
}

func (p *FixtureProvider) BuildRequires(base string) ([]string, error) {
	s, ok := p.specs[base]
	if !ok {
		return nil, &UnknownPackageError{Package: base, Query: "BuildRequires"}
	}
	return append([]string(nil), s.BuildRequires...), nil
}

func (p *FixtureProvider) CheckBuildRequires(base string, version string) ([]string, error) {
	s, ok := p.specs[base]
	if !ok {
		return nil, &UnknownPackageError{Package: base, Query: "CheckBuildRequires"}
	}
	return append([]string(nil), s.CheckRequires...), nil
}

func (p *FixtureProvider) Requires(rpm string) ([]string, error) {
	base, err := p.BasePkg(rpm)
	if err != nil {
		return nil, err
	}
	s := p.specs[base]
	if s.Requires == nil {
		return nil, nil
	}
	return append([]string(nil), s.Requires[rpm]...), nil
}

func (p *FixtureProvider) SubPackages(base string) ([]string, error) {
	s, ok := p.specs[base]
	if !ok {
		return nil, &UnknownPackageError{Package: base, Query: "SubPackages"}
	}
	if len(s.SubPackages) == 0 {
		return []string{base}, nil
	}
	return append([]string(nil), s.SubPackages...), nil
}

func (p *FixtureProvider) HighestVersion(base string) (string, error) {
	s, ok := p.specs[base]
	if !ok {
		return "", &UnknownPackageError{Package: base, Query: "HighestVersion"}
	}
	return s.HighestVersion, nil
}

func (p *FixtureProvider) ListPackages() ([]string, error) {
	out := make([]string, 0, len(p.specs))
	for base := range p.specs {
		out = append(out, base)
	}
	sort.Strings(out)
	return out, nil
}

// LoadFixtureDir loads one PackageSpec per "*.spec" file in dir and returns a
// FixtureProvider built from them. The file format is a minimal line-oriented
// key:value format, one base package per file:
//
//	base: glibc
//	subpackages: glibc glibc-devel glibc-common
//	buildrequires: gcc binutils
//	checkrequires: python3
//	highestversion: 2.39-1
//	requires glibc-devel: glibc
//
// Lines are whitespace-trimmed; blank lines and lines starting with "#" are
// skipped. This mirrors the teacher's loadFixturesFromDir/category__port.txt
// convention, adapted from make -V output to a spec-file-shaped key:value form.
func LoadFixtureDir(dir string) (*FixtureProvider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture directory: %w", err)
	}

	var specs []*PackageSpec
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".spec") {
			continue
		}
		spec, err := parseSpecFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		specs = append(specs, spec)
	}
	return NewFixtureProvider(specs...), nil
}

func parseSpecFile(path string) (*PackageSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	spec := &PackageSpec{Requires: make(map[string][]string)}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		fields := strings.Fields(value)

		switch {
		case key == "base":
			spec.Base = value
		case key == "subpackages":
			spec.SubPackages = fields
		case key == "buildrequires":
			spec.BuildRequires = fields
		case key == "checkrequires":
			spec.CheckRequires = fields
		case key == "highestversion":
			spec.HighestVersion = value
		case strings.HasPrefix(key, "requires "):
			rpm := strings.TrimSpace(strings.TrimPrefix(key, "requires "))
			spec.Requires[rpm] = fields
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if spec.Base == "" {
		return nil, fmt.Errorf("fixture %s: missing \"base:\" field", path)
	}
	return spec, nil
}
