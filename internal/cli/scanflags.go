package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/classpath"
	"github.com/matzehuels/classscan/pkg/config"
	errs "github.com/matzehuels/classscan/pkg/errors"
	"github.com/matzehuels/classscan/pkg/integrations/maven"
	"github.com/matzehuels/classscan/pkg/pipeline"
)

// scanFlags holds the flags shared by every command that scans.
type scanFlags struct {
	classpath          []string
	accept             []string
	acceptNonRecursive []string
	reject             []string
	workers            int
	noDeps             bool
	constantPool       bool
	strictNames        bool
	invisible          bool
	pom                string
	m2                 string
	fetch              bool
	repoURL            string
	noCache            bool
	refresh            bool
}

// register adds the scan flags to cmd.
func (f *scanFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVarP(&f.classpath, "classpath", "c", nil, "classpath elements (directories, jars); also accepts "+string(os.PathListSeparator)+"-separated lists")
	fs.StringSliceVar(&f.accept, "accept", nil, "packages to scan, including subpackages")
	fs.StringSliceVar(&f.acceptNonRecursive, "accept-nonrecursive", nil, "packages to scan, excluding subpackages")
	fs.StringSliceVar(&f.reject, "reject", nil, "packages to skip")
	fs.IntVar(&f.workers, "workers", 0, "parsing goroutines (0 = GOMAXPROCS)")
	fs.BoolVar(&f.noDeps, "no-deps", false, "do not build the class dependency map")
	fs.BoolVar(&f.constantPool, "constant-pool", false, "count constant-pool class references as dependencies")
	fs.BoolVar(&f.strictNames, "strict-names", false, "fail classes whose name disagrees with their path")
	fs.BoolVar(&f.invisible, "invisible-annotations", false, "also decode CLASS-retention annotations")
	fs.StringVar(&f.pom, "pom", "", "derive the classpath from a Maven pom.xml")
	fs.StringVar(&f.m2, "m2", "", "local Maven repository (default ~/.m2/repository)")
	fs.BoolVar(&f.fetch, "fetch", false, "download --pom dependencies missing from the local repository")
	fs.StringVar(&f.repoURL, "maven-repo", maven.DefaultRepository, "remote repository used by --fetch")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the snapshot cache")
	fs.BoolVar(&f.refresh, "refresh", false, "rescan even if a cached snapshot exists")
}

// options merges args, flags and cfg into pipeline options. Positional
// arguments and --classpath replace the configured classpath; other flags
// win over the config only when given.
func (f *scanFlags) options(cmd *cobra.Command, args []string, cfg *config.Config) (pipeline.Options, error) {
	scanOpts := cfg.ScanOptions()
	changed := cmd.Flags().Changed

	paths := splitPathList(append(append([]string{}, args...), f.classpath...))
	if len(paths) > 0 {
		scanOpts.Classpath = paths
	}

	if f.pom != "" {
		paths, err := f.pomClasspath(cmd.Context(), cfg)
		if err != nil {
			return pipeline.Options{}, err
		}
		scanOpts.Classpath = append(scanOpts.Classpath, paths...)
	}

	if changed("accept") {
		scanOpts.Filter.AcceptPackages = f.accept
	}
	if changed("accept-nonrecursive") {
		scanOpts.Filter.AcceptPackagesNonRecursive = f.acceptNonRecursive
	}
	if changed("reject") {
		scanOpts.Filter.RejectPackages = f.reject
	}
	if changed("workers") {
		scanOpts.Workers = f.workers
	}
	if changed("no-deps") {
		scanOpts.EnableInterClassDependencies = !f.noDeps
	}
	if changed("constant-pool") {
		scanOpts.EnableConstantPoolDependencies = f.constantPool
	}
	if changed("strict-names") {
		scanOpts.StrictNames = f.strictNames
	}
	if changed("invisible-annotations") {
		scanOpts.IncludeInvisibleAnnotations = f.invisible
	}

	if len(scanOpts.Classpath) == 0 {
		return pipeline.Options{}, errs.New(errs.ErrCodeInvalidInput,
			"no classpath: pass directories or jars, --classpath, --pom, or set classpath in %s", config.FileName)
	}

	ttl, err := cfg.TTL()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Scan:    scanOpts,
		Refresh: f.refresh,
		TTL:     ttl,
	}, nil
}

// pomClasspath resolves --pom, downloading missing jars first when
// --fetch is set. Jars that stay missing are reported but not fatal.
func (f *scanFlags) pomClasspath(ctx context.Context, cfg *config.Config) ([]string, error) {
	mvn, err := classpath.FromPOM(f.pom, f.m2)
	if err != nil {
		return nil, err
	}
	if f.fetch && len(mvn.Missing) > 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := f.fetchMissing(ctx, cfg, mvn.Missing); err != nil {
			return nil, err
		}
		if mvn, err = classpath.FromPOM(f.pom, f.m2); err != nil {
			return nil, err
		}
	}
	for _, coord := range mvn.Missing {
		printWarning("%s not found in the local repository", coord)
	}
	return mvn.Paths, nil
}

func (f *scanFlags) fetchMissing(ctx context.Context, cfg *config.Config, coords []string) error {
	repoDir := f.m2
	if repoDir == "" {
		repoDir = classpath.DefaultRepoDir()
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = cache.DefaultDir()
	}
	checksums, err := cache.NewFileCache(filepath.Join(dir, "maven"))
	if err != nil {
		return err
	}
	defer checksums.Close()

	logger := loggerFromContext(ctx)
	logger.Infof("Fetching %d artifacts from %s", len(coords), f.repoURL)
	prog := newProgress(logger)
	results, err := maven.NewClient(f.repoURL, checksums).FetchAll(ctx, coords, repoDir, maven.DefaultWorkers)
	if err != nil {
		return err
	}
	fetched := 0
	for _, r := range results {
		if r.Err != nil {
			printWarning("fetch %s: %v", r.Coordinate, r.Err)
			continue
		}
		fetched++
	}
	prog.done(fmt.Sprintf("Fetched %d of %d artifacts", fetched, len(coords)))
	return nil
}

// splitPathList expands entries like "a.jar:b.jar" and drops empties.
func splitPathList(entries []string) []string {
	var out []string
	for _, e := range entries {
		for _, p := range strings.Split(e, string(os.PathListSeparator)) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, filepath.Clean(p))
			}
		}
	}
	return out
}
