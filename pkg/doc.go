// Package pkg provides the core libraries for classscan, a JVM classfile
// scanner.
//
// # Overview
//
// classscan reads the compiled classes of a classpath (directories and
// jars), decodes their structural metadata, and links them into a class
// graph that records which class depends on which, and how. The pkg
// directory is organized into four areas:
//
//  1. Decoding: [classfile] and [signature]
//  2. The model: [classgraph] and [io]
//  3. Orchestration: [classpath], [scan] and [pipeline]
//  4. Infrastructure: [cache], [storage], [config], [render] and [integrations]
//
// # Architecture
//
// The typical data flow:
//
//	classpath elements (directories, jars, pom.xml)
//	         ↓
//	    [classpath] (enumerate and filter classfiles)
//	         ↓
//	    [classfile] + [signature] (decode on a worker pool)
//	         ↓
//	    [classgraph] (merge records, link dependencies)
//	         ↓
//	    [io] snapshot → JSON / YAML / DOT / SVG / PNG / PDF / SQLite
//
// # Quick Start
//
//	res, err := scan.Scan(ctx, scan.Options{
//	    Classpath:                    []string{"target/classes"},
//	    EnableInterClassDependencies: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//	g := res.Graph()
//	for _, dep := range g.DependenciesOf(g.Get("com.example.Service")) {
//	    fmt.Println(dep.Name)
//	}
//
// The [pipeline] package wraps the same steps with caching and rendering
// and is what the classscan command uses.
//
// # Testing
//
//	go test ./pkg/...                   # All tests
//	go test ./pkg/classgraph/...        # Specific package
//	go test -run Example ./pkg/...      # Examples only
//
// [classfile]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/classfile
// [signature]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/signature
// [classgraph]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/classgraph
// [io]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/io
// [classpath]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/classpath
// [scan]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/scan
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/storage
// [config]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/config
// [render]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/render
// [integrations]: https://pkg.go.dev/github.com/matzehuels/classscan/pkg/integrations
package pkg
