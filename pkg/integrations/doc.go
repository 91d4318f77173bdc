// Package integrations provides HTTP clients for remote artifact repositories.
//
// # Overview
//
// Each repository has its own subpackage built on the shared [Client]:
//
//   - [maven]: Maven Central and compatible repositories
//
// # Shared Infrastructure
//
// [Client] sets the classscan User-Agent and retries transient failures
// (network errors, 429 and 5xx responses) with exponential backoff. Small
// responses such as checksums can be stored in any [cache.Cache] through
// [Client.Cached].
//
// [maven]: github.com/matzehuels/classscan/pkg/integrations/maven
// [cache.Cache]: github.com/matzehuels/classscan/pkg/cache.Cache
package integrations
