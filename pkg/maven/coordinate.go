package maven

import (
	"strings"

	"github.com/polytunnel/polytunnel/pkg/errors"
)

// DefaultPackaging is the packaging assumed when none is declared.
const DefaultPackaging = "jar"

// Coordinate identifies an artifact in a Maven repository.
type Coordinate struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Version    string `json:"version" yaml:"version"`
	Classifier string `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Packaging  string `json:"packaging,omitempty" yaml:"packaging,omitempty"`
}

// NewCoordinate returns a jar coordinate without classifier.
func NewCoordinate(groupID, artifactID, version string) Coordinate {
	return Coordinate{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Version:    version,
		Packaging:  DefaultPackaging,
	}
}

// ParseCoordinate parses "g:a:v", "g:a:packaging:v" or
// "g:a:packaging:classifier:v". Only the segment count is checked; call
// Validate before using the result in a URL or path. An empty packaging
// segment means jar.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")

	switch len(parts) {
	case 3:
		return NewCoordinate(parts[0], parts[1], parts[2]), nil
	case 4:
		c := NewCoordinate(parts[0], parts[1], parts[3])
		c.Packaging = packagingOr(parts[2], c.Packaging)
		return c, nil
	case 5:
		c := NewCoordinate(parts[0], parts[1], parts[4])
		c.Packaging = packagingOr(parts[2], c.Packaging)
		c.Classifier = parts[3]
		return c, nil
	default:
		return Coordinate{}, errors.New(errors.ErrCodeInvalidCoordinate,
			"invalid format: %q (expected groupId:artifactId[:packaging[:classifier]]:version)", s)
	}
}

func packagingOr(p, def string) string {
	if p == "" {
		return def
	}
	return p
}

// String renders "groupId:artifactId:version".
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// Key is the graph identity of the coordinate. It ignores classifier and packaging.
func (c Coordinate) Key() string {
	return c.String()
}

// GA returns "groupId:artifactId", the key used for version overrides.
func (c Coordinate) GA() string {
	return c.GroupID + ":" + c.ArtifactID
}

// WithVersion returns a copy of c with its version replaced.
func (c Coordinate) WithVersion(version string) Coordinate {
	c.Version = version
	return c
}

// GroupPath converts the groupId to a path ("org.slf4j" -> "org/slf4j").
func (c Coordinate) GroupPath() string {
	return strings.ReplaceAll(c.GroupID, ".", "/")
}

// RepoPath is the repository-relative directory holding the artifact files.
func (c Coordinate) RepoPath() string {
	return c.GroupPath() + "/" + c.ArtifactID + "/" + c.Version
}

// JarFilename is "artifact-version[-classifier].jar".
func (c Coordinate) JarFilename() string {
	name := c.ArtifactID + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + ".jar"
}

// POMFilename is "artifact-version.pom".
func (c Coordinate) POMFilename() string {
	return c.ArtifactID + "-" + c.Version + ".pom"
}

// Validate checks every segment that ends up in a repository URL or a
// local file path.
func (c Coordinate) Validate() error {
	if err := errors.ValidateCoordinatePart("groupId", c.GroupID); err != nil {
		return err
	}
	if err := errors.ValidateCoordinatePart("artifactId", c.ArtifactID); err != nil {
		return err
	}
	if err := errors.ValidateCoordinatePart("version", c.Version); err != nil {
		return err
	}
	if c.Classifier != "" {
		return errors.ValidateCoordinatePart("classifier", c.Classifier)
	}
	return nil
}
