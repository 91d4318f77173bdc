// Package maven downloads dependency jars from Maven Central.
//
// # Overview
//
// A pom.xml often names dependencies that were never downloaded to the
// local repository. [Client.FetchAll] retrieves them from a remote
// repository (https://repo1.maven.org/maven2 by default) into the same
// layout Maven uses, so the classpath derived from the pom is complete:
//
//	client := maven.NewClient("", nil)
//	results, err := client.FetchAll(ctx, missing, repoDir, maven.DefaultWorkers)
//	for _, r := range results {
//	    if r.Err != nil {
//	        log.Warn("fetch failed", "artifact", r.Coordinate, "err", r.Err)
//	    }
//	}
//
// # Coordinates
//
// Artifacts are identified by "groupId:artifactId:version" with an
// optional trailing classifier, e.g. "com.google.guava:guava:31.0-jre".
//
// # Integrity
//
// Each jar is written to a temporary file and compared against the
// repository's published .sha1 before it is renamed into place, so an
// interrupted or corrupt download never appears in the local repository.
// Artifacts without a published checksum are accepted as downloaded.
package maven
