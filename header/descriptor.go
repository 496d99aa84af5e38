package header

import (
	"os"
	"path/filepath"

	"tidings/registry"
)

// Category tells which classifier a file runs through.
type Category int

const (
	Source Category = iota
	Contributing
	License
)

func (c Category) String() string {
	switch c {
	case Contributing:
		return "contributing"
	case License:
		return "license"
	default:
		return "source"
	}
}

// Status tracks the descriptor lifecycle: Unread until parsed, NoContent
// when the file is missing or empty, Parsed otherwise.
type Status int

const (
	Unread Status = iota
	NoContent
	Parsed
)

func (s Status) String() string {
	switch s {
	case NoContent:
		return "no_content"
	case Parsed:
		return "parsed"
	default:
		return "unread"
	}
}

// Descriptor is one file under inspection and the classification extracted
// from it. CopyrightIdentifier and LicenseIdentifier carry
// registry.UnknownIdentifier after a failed comparison; they stay empty when
// no comparison could be attempted.
type Descriptor struct {
	Category Category
	Path     string
	Exists   bool
	Status   Status

	CopyrightYears      string
	CopyrightName       string
	CopyrightIdentifier string
	LicenseIdentifier   string

	content string
}

// NewDescriptor creates a descriptor for path, probing the filesystem for
// existence.
func NewDescriptor(category Category, path string) *Descriptor {
	_, err := os.Stat(path)
	return &Descriptor{
		Category: category,
		Path:     path,
		Exists:   err == nil,
		Status:   Unread,
	}
}

// Content returns the raw file content loaded by Parse.
func (d *Descriptor) Content() string {
	return d.content
}

func (d *Descriptor) read() error {
	if !d.Exists {
		return nil
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return err
	}
	d.content = string(data)
	return nil
}

// Parse loads the file once and runs the category's classifier over it.
// Missing files, empty files, and failed matches are terminal states, not
// errors; only a read failure on an existing file is returned.
func (d *Descriptor) Parse(reg *registry.Registry) error {
	if err := d.read(); err != nil {
		return err
	}
	if d.content == "" {
		d.Status = NoContent
		return nil
	}
	d.Status = Parsed
	classifierFor(d.Category).classify(d, reg)
	return nil
}

// ParseFile determines the category of path by exact basename match against
// the filename registry, then classifies it. It never fails for missing or
// unparseable content.
func ParseFile(reg *registry.Registry, path string) (*Descriptor, error) {
	d := NewDescriptor(categoryFor(reg, path), path)
	if err := d.Parse(reg); err != nil {
		return d, err
	}
	return d, nil
}

func categoryFor(reg *registry.Registry, path string) Category {
	switch filepath.Base(path) {
	case reg.LicenseFilename():
		return License
	case reg.ContributingFilename():
		return Contributing
	}
	return Source
}

type classifier interface {
	classify(d *Descriptor, reg *registry.Registry)
}

func classifierFor(category Category) classifier {
	switch category {
	case License:
		return licenseClassifier{}
	case Contributing:
		return contributingClassifier{}
	}
	return sourceClassifier{}
}

// sourceClassifier reads the first comment block past any shebang/coding
// preamble, extracts the copyright statement from it, and compares the
// placeholder-normalized block against the registered file header templates.
type sourceClassifier struct{}

func (sourceClassifier) classify(d *Descriptor, reg *registry.Registry) {
	index := scanPastCodingAndShebangLines(d.content, 0)
	index = scanPastEmptyLines(d.content, index)

	block, _, ok := commentBlock(d.content, index)
	if !ok || block == "" {
		return
	}
	m, ok := searchCopyright(block)
	if !ok {
		return
	}

	d.CopyrightYears = block[m.Years.Start:m.Years.End]
	d.CopyrightName = block[m.Name.Start:m.Name.End]
	d.CopyrightIdentifier = reg.HolderIdentifier(d.CopyrightName)

	normalized := "{copyright}" + block[m.Name.End:]
	d.LicenseIdentifier = reg.MatchLicense(normalized, registry.PartFileHeader)
}

// licenseClassifier matches the copyright statement over the whole raw
// content; license files are plain text, not comments. When the statement is
// absent the license identifier is deliberately left unset rather than
// "unknown": no comparison could be attempted.
type licenseClassifier struct{}

func (licenseClassifier) classify(d *Descriptor, reg *registry.Registry) {
	m, ok := searchCopyright(d.content)
	if !ok {
		return
	}

	d.CopyrightYears = d.content[m.Years.Start:m.Years.End]
	d.CopyrightName = d.content[m.Name.Start:m.Name.End]
	d.CopyrightIdentifier = reg.HolderIdentifier(d.CopyrightName)

	normalized := d.content[:m.Word.Start] + "{copyright}" + d.content[m.Name.End:]
	d.LicenseIdentifier = reg.MatchLicense(normalized, registry.PartLicenseFile)
}

// contributingClassifier compares raw content directly against the
// registered contributing templates. Contributing files carry no copyright
// statement of their own.
type contributingClassifier struct{}

func (contributingClassifier) classify(d *Descriptor, reg *registry.Registry) {
	d.LicenseIdentifier = reg.MatchLicense(d.content, registry.PartContributingFile)
}
