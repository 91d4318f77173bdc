package maven

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/integrations"
)

// DefaultRepository is Maven Central.
const DefaultRepository = "https://repo1.maven.org/maven2"

// DefaultWorkers is the number of concurrent downloads used by [Client.FetchAll].
const DefaultWorkers = 4

// checksumTTL bounds how long .sha1 files stay cached. Released artifacts
// are immutable, so this is long.
const checksumTTL = 7 * 24 * time.Hour

// ErrChecksum is returned when a downloaded jar does not match the
// repository's published SHA-1.
var ErrChecksum = errors.New("checksum mismatch")

// Artifact identifies a jar by its Maven coordinates.
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
}

// ParseCoordinate parses "groupId:artifactId:version[:classifier]".
func ParseCoordinate(coord string) (Artifact, error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Artifact{}, fmt.Errorf("invalid maven coordinate %q (expected groupId:artifactId:version)", coord)
	}
	for _, p := range parts {
		if p == "" {
			return Artifact{}, fmt.Errorf("invalid maven coordinate %q (empty element)", coord)
		}
	}
	a := Artifact{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	if len(parts) == 4 {
		a.Classifier = parts[3]
	}
	return a, nil
}

// String returns the coordinate form of a.
func (a Artifact) String() string {
	s := a.GroupID + ":" + a.ArtifactID + ":" + a.Version
	if a.Classifier != "" {
		s += ":" + a.Classifier
	}
	return s
}

// Path returns the slash-separated location of the jar inside a Maven
// repository, e.g. "com/google/guava/guava/31.0-jre/guava-31.0-jre.jar".
func (a Artifact) Path() string {
	file := a.ArtifactID + "-" + a.Version
	if a.Classifier != "" {
		file += "-" + a.Classifier
	}
	return path.Join(strings.ReplaceAll(a.GroupID, ".", "/"), a.ArtifactID, a.Version, file+".jar")
}

// Client downloads artifacts from a remote Maven repository into a local
// repository laid out like ~/.m2/repository.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the repository at baseURL (empty means
// [DefaultRepository]). Published checksums are cached in c, which may be nil.
func NewClient(baseURL string, c cache.Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultRepository
	}
	return &Client{
		Client:  integrations.NewClient(c, "maven:sha1:", checksumTTL, nil),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchJar makes sure the jar of a exists under repoDir, downloading it if
// needed, and returns its path. Downloads are verified against the
// repository's .sha1 file when one is published, and only moved into place
// once complete.
func (c *Client) FetchJar(ctx context.Context, a Artifact, repoDir string) (string, error) {
	dst := filepath.Join(repoDir, filepath.FromSlash(a.Path()))
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	url := c.baseURL + "/" + a.Path()
	tmp, sum, err := c.download(ctx, url, filepath.Dir(dst))
	if err != nil {
		return "", fmt.Errorf("%s: %w", a, err)
	}
	defer os.Remove(tmp)

	want, err := c.checksum(ctx, url+".sha1")
	switch {
	case errors.Is(err, integrations.ErrNotFound):
	case err != nil:
		return "", fmt.Errorf("%s: checksum: %w", a, err)
	case want != sum:
		return "", fmt.Errorf("%s: %w (got %s, want %s)", a, ErrChecksum, sum, want)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// download writes url to a temporary file in dir and returns its path and SHA-1.
func (c *Client) download(ctx context.Context, url, dir string) (string, string, error) {
	var tmp, sum string
	err := cache.RetryWithBackoff(ctx, func() error {
		body, err := c.Open(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()

		f, err := os.CreateTemp(dir, ".download-*.jar")
		if err != nil {
			return err
		}
		h := sha1.New()
		_, copyErr := io.Copy(io.MultiWriter(f, h), body)
		closeErr := f.Close()
		if copyErr != nil || closeErr != nil {
			os.Remove(f.Name())
			if copyErr != nil {
				return cache.Retryable(fmt.Errorf("%w: %v", integrations.ErrNetwork, copyErr))
			}
			return closeErr
		}
		tmp, sum = f.Name(), hex.EncodeToString(h.Sum(nil))
		return nil
	})
	return tmp, sum, err
}

// checksum fetches a .sha1 file. Some repositories append the file name
// after the digest, so only the first field is kept.
func (c *Client) checksum(ctx context.Context, url string) (string, error) {
	data, err := c.Cached(ctx, url, false, func() ([]byte, error) {
		text, err := c.GetText(ctx, url)
		return []byte(text), err
	})
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file %s", url)
	}
	return strings.ToLower(fields[0]), nil
}

// FetchResult reports the outcome of one download in [Client.FetchAll].
type FetchResult struct {
	Coordinate string
	Path       string
	Err        error
}

// FetchAll fetches every coordinate with up to workers concurrent
// downloads. Individual failures are reported per result; the returned
// error is non-nil only when ctx is cancelled. Results keep the order of
// coords.
func (c *Client) FetchAll(ctx context.Context, coords []string, repoDir string, workers int) ([]FetchResult, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]FetchResult, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, coord := range coords {
		results[i].Coordinate = coord
		g.Go(func() error {
			a, err := ParseCoordinate(coord)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Path, results[i].Err = c.FetchJar(gctx, a, repoDir)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
