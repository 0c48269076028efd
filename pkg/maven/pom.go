package maven

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/polytunnel/polytunnel/pkg/errors"
)

// Scope is a Maven dependency scope.
type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeTest     Scope = "test"
	ScopeProvided Scope = "provided"
	ScopeSystem   Scope = "system"
	ScopeImport   Scope = "import"
)

// ParseScope maps POM scope text to a Scope. Matching is case-sensitive and
// anything unrecognized, including the empty string, is compile.
func ParseScope(s string) Scope {
	switch Scope(s) {
	case ScopeRuntime, ScopeTest, ScopeProvided, ScopeSystem, ScopeImport:
		return Scope(s)
	default:
		return ScopeCompile
	}
}

// Transitive reports whether dependencies in this scope are followed
// during resolution.
func (s Scope) Transitive() bool {
	return s == ScopeCompile || s == ScopeProvided
}

// Exclusion names a groupId:artifactId excluded below a dependency.
type Exclusion struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
}

// Dependency is one <dependency> entry. An empty Version means the POM did
// not declare one and it is still to be filled from dependency management.
type Dependency struct {
	GroupID    string
	ArtifactID string
	Version    string
	Scope      Scope
	Optional   bool
	Exclusions []Exclusion
}

// GA returns "groupId:artifactId".
func (d Dependency) GA() string {
	return d.GroupID + ":" + d.ArtifactID
}

// Coordinate converts the dependency to a jar coordinate.
func (d Dependency) Coordinate() Coordinate {
	return NewCoordinate(d.GroupID, d.ArtifactID, d.Version)
}

// POM is the parsed subset of a project object model. It is mutated in place
// by the inheritance helpers and must not be shared between resolutions.
type POM struct {
	Coordinate           Coordinate
	Packaging            string
	Parent               *Coordinate
	Dependencies         []Dependency
	DependencyManagement []Dependency
	Properties           map[string]string
}

type xmlProject struct {
	GroupID              string          `xml:"groupId"`
	ArtifactID           string          `xml:"artifactId"`
	Version              string          `xml:"version"`
	Packaging            string          `xml:"packaging"`
	Parent               *xmlParent      `xml:"parent"`
	Properties           xmlProperties   `xml:"properties"`
	DependencyManagement []xmlDependency `xml:"dependencyManagement>dependencies>dependency"`
	Dependencies         []xmlDependency `xml:"dependencies>dependency"`
}

type xmlParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type xmlProperties struct {
	Entries []xmlProperty `xml:",any"`
}

type xmlProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlDependency struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Version    string         `xml:"version"`
	Scope      string         `xml:"scope"`
	Optional   string         `xml:"optional"`
	Exclusions []xmlExclusion `xml:"exclusions>exclusion"`
}

type xmlExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// ParsePOM parses POM text. Repository error pages (HTML or a DOCTYPE
// preamble) are rejected with an XML_PARSE error.
func ParsePOM(data []byte) (*POM, error) {
	trimmed := bytes.TrimSpace(data)
	if hasPrefixFold(trimmed, "<!DOCTYPE") || hasPrefixFold(trimmed, "<html") {
		return nil, errors.New(errors.ErrCodeXMLParse, "response is an HTML page, not a POM")
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = xml.HTMLEntity
	// Input is already known to be UTF-8; older POMs still declare ISO-8859-1.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var raw xmlProject
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeXMLParse, err, "parse pom")
	}

	pom := &POM{
		Coordinate: NewCoordinate(text(raw.GroupID), text(raw.ArtifactID), text(raw.Version)),
		Packaging:  text(raw.Packaging),
		Properties: make(map[string]string, len(raw.Properties.Entries)),
	}
	if pom.Packaging == "" {
		pom.Packaging = DefaultPackaging
	}
	if raw.Parent != nil {
		parent := NewCoordinate(text(raw.Parent.GroupID), text(raw.Parent.ArtifactID), text(raw.Parent.Version))
		parent.Packaging = "pom"
		pom.Parent = &parent
		if pom.Coordinate.GroupID == "" {
			pom.Coordinate.GroupID = parent.GroupID
		}
		if pom.Coordinate.Version == "" {
			pom.Coordinate.Version = parent.Version
		}
	}
	for _, p := range raw.Properties.Entries {
		pom.Properties[p.XMLName.Local] = text(p.Value)
	}
	pom.Dependencies = convertDependencies(raw.Dependencies)
	pom.DependencyManagement = convertDependencies(raw.DependencyManagement)

	pom.injectProjectProperties()
	pom.Coordinate.Version = pom.ResolveProperty(pom.Coordinate.Version)
	pom.resolveDependencies(false)
	return pom, nil
}

func convertDependencies(in []xmlDependency) []Dependency {
	if len(in) == 0 {
		return nil
	}
	out := make([]Dependency, 0, len(in))
	for _, d := range in {
		dep := Dependency{
			GroupID:    text(d.GroupID),
			ArtifactID: text(d.ArtifactID),
			Version:    text(d.Version),
			Scope:      ParseScope(text(d.Scope)),
			Optional:   text(d.Optional) == "true",
		}
		for _, e := range d.Exclusions {
			dep.Exclusions = append(dep.Exclusions, Exclusion{
				GroupID:    text(e.GroupID),
				ArtifactID: text(e.ArtifactID),
			})
		}
		out = append(out, dep)
	}
	return out
}

// injectProjectProperties exposes the POM's own coordinate to placeholders.
// Explicit properties with the same name are overwritten.
func (p *POM) injectProjectProperties() {
	set := func(value string, keys ...string) {
		if value == "" {
			return
		}
		for _, k := range keys {
			p.Properties[k] = value
		}
	}
	set(p.Coordinate.Version, "project.version", "pom.version", "version")
	set(p.Coordinate.GroupID, "project.groupId", "pom.groupId", "groupId")
	set(p.Coordinate.ArtifactID, "project.artifactId", "pom.artifactId", "artifactId")
}

func text(s string) string {
	return strings.TrimSpace(s)
}

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && strings.EqualFold(string(b[:len(prefix)]), prefix)
}
