package maven

import (
	"testing"

	"github.com/polytunnel/polytunnel/pkg/errors"
)

const corePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.2.0</version>
  </parent>
  <artifactId>core</artifactId>
  <packaging>bundle</packaging>
  <properties>
    <jackson.version>2.15.2</jackson.version>
    <jackson.alias>${jackson.version}</jackson.alias>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.slf4j</groupId>
        <artifactId>slf4j-api</artifactId>
        <version>2.0.9</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.fasterxml.jackson.core</groupId>
      <artifactId>jackson-databind</artifactId>
      <version>${jackson.alias}</version>
      <exclusions>
        <exclusion>
          <groupId>com.fasterxml.jackson.core</groupId>
          <artifactId>jackson-annotations</artifactId>
        </exclusion>
      </exclusions>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>api</artifactId>
      <version>${project.version}</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13.2</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>com.google.code.findbugs</groupId>
      <artifactId>jsr305</artifactId>
      <version>3.0.2</version>
      <optional>true</optional>
    </dependency>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>shouty</artifactId>
      <version>1.0</version>
      <scope>Test</scope>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <dependencies>
          <dependency>
            <groupId>org.example</groupId>
            <artifactId>plugin-only</artifactId>
            <version>1.0</version>
          </dependency>
        </dependencies>
      </plugin>
    </plugins>
  </build>
</project>
`

func TestParsePOM(t *testing.T) {
	pom, err := ParsePOM([]byte(corePOM))
	if err != nil {
		t.Fatalf("ParsePOM error: %v", err)
	}

	if got := pom.Coordinate.String(); got != "com.example:core:1.2.0" {
		t.Errorf("Coordinate = %s, want groupId and version inherited from parent", got)
	}
	if pom.Packaging != "bundle" {
		t.Errorf("Packaging = %q", pom.Packaging)
	}
	if pom.Parent == nil || pom.Parent.String() != "com.example:parent:1.2.0" {
		t.Errorf("Parent = %v", pom.Parent)
	}
	if len(pom.DependencyManagement) != 1 {
		t.Errorf("DependencyManagement len = %d, want 1", len(pom.DependencyManagement))
	}
	if len(pom.Dependencies) != 6 {
		t.Fatalf("Dependencies len = %d, want 6 (plugin dependencies must be ignored)", len(pom.Dependencies))
	}

	tests := []struct {
		idx      int
		coord    string
		scope    Scope
		optional bool
	}{
		{0, "com.fasterxml.jackson.core:jackson-databind:2.15.2", ScopeCompile, false},
		{1, "com.example:api:1.2.0", ScopeCompile, false},
		{2, "org.slf4j:slf4j-api:", ScopeCompile, false},
		{3, "junit:junit:4.13.2", ScopeTest, false},
		{4, "com.google.code.findbugs:jsr305:3.0.2", ScopeCompile, true},
		{5, "org.example:shouty:1.0", ScopeCompile, false},
	}
	for _, tt := range tests {
		d := pom.Dependencies[tt.idx]
		if got := d.GA() + ":" + d.Version; got != tt.coord {
			t.Errorf("dep[%d] = %s, want %s", tt.idx, got, tt.coord)
		}
		if d.Scope != tt.scope {
			t.Errorf("dep[%d].Scope = %s, want %s", tt.idx, d.Scope, tt.scope)
		}
		if d.Optional != tt.optional {
			t.Errorf("dep[%d].Optional = %v, want %v", tt.idx, d.Optional, tt.optional)
		}
	}

	ex := pom.Dependencies[0].Exclusions
	if len(ex) != 1 || ex[0].ArtifactID != "jackson-annotations" {
		t.Errorf("Exclusions = %+v", ex)
	}
}

func TestParsePOMImplicitProperties(t *testing.T) {
	pom, err := ParsePOM([]byte(corePOM))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"project.version":    "1.2.0",
		"pom.version":        "1.2.0",
		"version":            "1.2.0",
		"project.groupId":    "com.example",
		"pom.groupId":        "com.example",
		"groupId":            "com.example",
		"project.artifactId": "core",
		"pom.artifactId":     "core",
		"artifactId":         "core",
		"jackson.version":    "2.15.2",
	}
	for k, v := range want {
		if got := pom.Properties[k]; got != v {
			t.Errorf("Properties[%q] = %q, want %q", k, got, v)
		}
	}
}

func TestParsePOMDefaults(t *testing.T) {
	pom, err := ParsePOM([]byte(`<project><groupId>g</groupId><artifactId>a</artifactId><version>1</version></project>`))
	if err != nil {
		t.Fatal(err)
	}
	if pom.Packaging != "jar" {
		t.Errorf("Packaging = %q, want jar", pom.Packaging)
	}
	if pom.Parent != nil {
		t.Errorf("Parent = %v, want nil", pom.Parent)
	}
	if len(pom.Dependencies) != 0 {
		t.Errorf("Dependencies = %v", pom.Dependencies)
	}
}

func TestParsePOMWhitespaceAndLatin1(t *testing.T) {
	data := `<?xml version="1.0" encoding="ISO-8859-1"?>
<project>
  <groupId>
    g
  </groupId>
  <artifactId>a</artifactId>
  <version> 1.0 </version>
  <packaging>pom</packaging>
</project>`
	pom, err := ParsePOM([]byte(data))
	if err != nil {
		t.Fatalf("ParsePOM error: %v", err)
	}
	if got := pom.Coordinate.String(); got != "g:a:1.0" {
		t.Errorf("Coordinate = %q", got)
	}
	if pom.Packaging != "pom" {
		t.Errorf("Packaging = %q", pom.Packaging)
	}
}

func TestParsePOMRejectsHTML(t *testing.T) {
	for _, body := range []string{
		"<!DOCTYPE html><html><body>502 Bad Gateway</body></html>",
		"  \n<html><head><title>Error</title></head></html>",
		"<!doctype html><html></html>",
	} {
		_, err := ParsePOM([]byte(body))
		if err == nil {
			t.Errorf("ParsePOM(%q) should fail", body)
			continue
		}
		if !errors.Is(err, errors.ErrCodeXMLParse) {
			t.Errorf("error code = %v, want XML_PARSE", errors.GetCode(err))
		}
	}
}

func TestParsePOMMalformed(t *testing.T) {
	_, err := ParsePOM([]byte("<project><groupId>g</artifactId></project>"))
	if !errors.Is(err, errors.ErrCodeXMLParse) {
		t.Errorf("error = %v, want XML_PARSE", err)
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"", ScopeCompile},
		{"compile", ScopeCompile},
		{"runtime", ScopeRuntime},
		{"test", ScopeTest},
		{"provided", ScopeProvided},
		{"system", ScopeSystem},
		{"import", ScopeImport},
		{"TEST", ScopeCompile},
		{"bogus", ScopeCompile},
	}
	for _, tt := range tests {
		if got := ParseScope(tt.in); got != tt.want {
			t.Errorf("ParseScope(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestScopeTransitive(t *testing.T) {
	want := map[Scope]bool{
		ScopeCompile:  true,
		ScopeProvided: true,
		ScopeRuntime:  false,
		ScopeTest:     false,
		ScopeSystem:   false,
		ScopeImport:   false,
	}
	for s, w := range want {
		if s.Transitive() != w {
			t.Errorf("%s.Transitive() = %v, want %v", s, !w, w)
		}
	}
}
