// Package registry holds the read-only lookup tables the classifiers run
// against: copyright holder names, license template texts, and the canonical
// basenames that select a file category. A Registry is built once at startup
// and never mutated afterwards, so it is safe to share across workers.
package registry

import (
	"fmt"
	"os"
	"sort"

	"github.com/glaslos/tlsh"
	"gopkg.in/yaml.v3"
)

// UnknownIdentifier is recorded whenever a comparison was attempted and
// nothing in the registry matched. An empty identifier means the comparison
// was never attempted; the two must not be conflated.
const UnknownIdentifier = "unknown"

// Part selects which template of a License a comparison runs against.
type Part int

const (
	PartFileHeader Part = iota
	PartLicenseFile
	PartContributingFile
)

// License holds the three template texts registered for one license
// identifier. The {copyright} placeholder stands for the full
// "Copyright <years> <holder>" statement.
type License struct {
	FileHeader       string `yaml:"file_header"`
	LicenseFile      string `yaml:"license_file"`
	ContributingFile string `yaml:"contributing_file"`
}

func (l License) part(p Part) string {
	switch p {
	case PartFileHeader:
		return l.FileHeader
	case PartLicenseFile:
		return l.LicenseFile
	case PartContributingFile:
		return l.ContributingFile
	}
	return ""
}

type Registry struct {
	holders    map[string]string
	holderIDs  []string
	licenses   map[string]License
	licenseIDs []string
	filenames  map[string]string

	indexes [3]*candidateIndex
	digests [3]map[string]*tlsh.TLSH
}

type overlay struct {
	CopyrightNames map[string]string  `yaml:"copyright_names"`
	Licenses       map[string]License `yaml:"licenses"`
	Filenames      map[string]string  `yaml:"filenames"`
}

// Default returns a registry containing only the built-in holders, licenses,
// and filenames.
func Default() *Registry {
	return build(builtinCopyrightNames, builtinLicenses, builtinFilenames)
}

// Load returns the default registry, merged with the custom holders and
// licenses from the given YAML file when path is non-empty. Custom entries
// shadow built-ins with the same identifier.
func Load(path string) (*Registry, error) {
	holders := make(map[string]string, len(builtinCopyrightNames))
	for id, name := range builtinCopyrightNames {
		holders[id] = name
	}
	licenses := make(map[string]License, len(builtinLicenses))
	for id, lic := range builtinLicenses {
		licenses[id] = lic
	}
	filenames := make(map[string]string, len(builtinFilenames))
	for category, name := range builtinFilenames {
		filenames[category] = name
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read registry file: %w", err)
		}
		var extra overlay
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("invalid registry file format: %w", err)
		}
		for id, name := range extra.CopyrightNames {
			holders[id] = name
		}
		for id, lic := range extra.Licenses {
			licenses[id] = lic
		}
		for category, name := range extra.Filenames {
			filenames[category] = name
		}
	}

	return build(holders, licenses, filenames), nil
}

func build(holders map[string]string, licenses map[string]License, filenames map[string]string) *Registry {
	r := &Registry{
		holders:   holders,
		licenses:  licenses,
		filenames: filenames,
	}
	for id := range holders {
		r.holderIDs = append(r.holderIDs, id)
	}
	sort.Strings(r.holderIDs)
	for id := range licenses {
		r.licenseIDs = append(r.licenseIDs, id)
	}
	sort.Strings(r.licenseIDs)

	for _, p := range []Part{PartFileHeader, PartLicenseFile, PartContributingFile} {
		r.indexes[p] = newCandidateIndex(r, p)
		r.digests[p] = templateDigests(r, p)
	}
	return r
}

// HolderIdentifier returns the identifier whose canonical name exactly equals
// the given holder name, or UnknownIdentifier.
func (r *Registry) HolderIdentifier(name string) string {
	for _, id := range r.holderIDs {
		if name != "" && r.holders[id] == name {
			return id
		}
	}
	return UnknownIdentifier
}

// HolderName returns the canonical name registered for an identifier.
func (r *Registry) HolderName(id string) (string, bool) {
	name, ok := r.holders[id]
	return name, ok
}

// MatchLicense returns the identifier of the license whose template for the
// given part exactly equals content, or UnknownIdentifier. Comparison is
// plain string equality; the Aho-Corasick index only narrows the candidate
// set and never changes the outcome.
func (r *Registry) MatchLicense(content string, p Part) string {
	for _, id := range r.indexes[p].candidates(content) {
		template := r.licenses[id].part(p)
		if template != "" && template == content {
			return id
		}
	}
	return UnknownIdentifier
}

// LicenseIDs returns the registered license identifiers in sorted order.
func (r *Registry) LicenseIDs() []string {
	return append([]string(nil), r.licenseIDs...)
}

// Template returns the template text of one license part.
func (r *Registry) Template(id string, p Part) (string, bool) {
	lic, ok := r.licenses[id]
	if !ok {
		return "", false
	}
	return lic.part(p), true
}

// LicenseFilename returns the canonical basename of a license file.
func (r *Registry) LicenseFilename() string {
	return r.filenames["license"]
}

// ContributingFilename returns the canonical basename of a contributing
// guide.
func (r *Registry) ContributingFilename() string {
	return r.filenames["contributing"]
}
