// Package maven models Maven artifacts and talks to Maven repositories.
//
// # Coordinates
//
// A [Coordinate] identifies one artifact. Its graph identity is
// "groupId:artifactId:version"; classifier and packaging only affect the
// file names inside the repository:
//
//	c, _ := maven.ParseCoordinate("org.slf4j:slf4j-api:2.0.9")
//	c.RepoPath()    // org/slf4j/slf4j-api/2.0.9
//	c.JarFilename() // slf4j-api-2.0.9.jar
//
// # POMs
//
// [ParsePOM] reads the subset of a POM needed for dependency resolution.
// Placeholders of the form ${key} are resolved against the POM's own
// properties plus the implicit project.* properties. The inheritance helpers
// ([POM.MergeProperties], [POM.MergeDependencyManagement],
// [POM.FillMissingVersions]) turn a POM into its effective form once the
// parent chain is known.
//
// # Repositories
//
// [Client] fetches POMs and jars over a pluggable [Transport], caches raw
// responses in a [cache.Cache], and queries the Maven Central search API.
// Tests use the in-memory repository in package maventest.
package maven
