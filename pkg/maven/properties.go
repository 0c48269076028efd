package maven

import "strings"

// maxInterpolationPasses bounds nested placeholder expansion
// (${a} -> ${b} -> literal) and stops self-referential properties.
const maxInterpolationPasses = 10

// Interpolate replaces ${key} placeholders with values from props.
// Unknown placeholders are kept verbatim and an unclosed "${" is passed
// through literally. Expansion repeats until a pass changes nothing or
// the pass limit is reached, so Interpolate is idempotent on its output.
func Interpolate(value string, props map[string]string) string {
	if !strings.Contains(value, "${") {
		return value
	}
	current := value
	for range maxInterpolationPasses {
		next := interpolateOnce(current, props)
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func interpolateOnce(value string, props map[string]string) string {
	var b strings.Builder
	b.Grow(len(value))

	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString("${")
			b.WriteString(rest)
			return b.String()
		}
		key := rest[:end]
		if v, ok := props[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString("${")
			b.WriteString(key)
			b.WriteByte('}')
		}
		rest = rest[end+1:]
	}
}

// ResolveProperty interpolates value against the POM's properties.
func (p *POM) ResolveProperty(value string) string {
	return Interpolate(value, p.Properties)
}

// MergeProperties adds inherited properties that are not defined locally,
// then re-resolves dependency fields that still contain placeholders.
func (p *POM) MergeProperties(extra map[string]string) {
	if p.Properties == nil {
		p.Properties = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if _, ok := p.Properties[k]; !ok {
			p.Properties[k] = v
		}
	}
	p.resolveDependencies(true)
}

// MergeDependencyManagement appends inherited dependencyManagement entries
// after the local ones, so local pins win on lookup.
func (p *POM) MergeDependencyManagement(inherited []Dependency) {
	p.DependencyManagement = append(p.DependencyManagement, inherited...)
}

// FillMissingVersions sets the version of every dependency that declares
// none from the first versioned dependencyManagement entry with the same
// groupId:artifactId. Dependencies without a match keep an empty version.
func (p *POM) FillMissingVersions() {
	for i := range p.Dependencies {
		d := &p.Dependencies[i]
		if d.Version != "" {
			continue
		}
		if v, ok := p.managedVersion(d.GroupID, d.ArtifactID); ok {
			d.Version = v
		}
	}
}

func (p *POM) managedVersion(groupID, artifactID string) (string, bool) {
	// Entries without a version (scope or exclusions only) defer to later,
	// inherited entries.
	for _, m := range p.DependencyManagement {
		if m.GroupID == groupID && m.ArtifactID == artifactID && m.Version != "" {
			return m.Version, true
		}
	}
	return "", false
}

// resolveDependencies interpolates groupId, artifactId and version of every
// dependency and dependencyManagement entry. With onlyPlaceholders set, only
// fields still containing "${" are touched.
func (p *POM) resolveDependencies(onlyPlaceholders bool) {
	resolve := func(s string) string {
		if onlyPlaceholders && !strings.Contains(s, "${") {
			return s
		}
		return Interpolate(s, p.Properties)
	}
	for _, list := range [][]Dependency{p.Dependencies, p.DependencyManagement} {
		for i := range list {
			list[i].GroupID = resolve(list[i].GroupID)
			list[i].ArtifactID = resolve(list[i].ArtifactID)
			if list[i].Version != "" {
				list[i].Version = resolve(list[i].Version)
			}
		}
	}
}
