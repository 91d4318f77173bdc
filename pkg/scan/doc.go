// Package scan runs a classpath scan and exposes its result.
//
// [Scan] enumerates the accepted classfiles of a classpath, decodes them on
// a fixed pool of workers, and merges the decoded records into a
// [classgraph.Graph] from a single goroutine. Workers share no mutable
// state; they hand records to the merger over a bounded channel, so parsing
// never runs far ahead of merging.
//
// Every classfile is a unit with its own state:
//
//	PENDING -> PARSED -> MERGED
//	PENDING -> FAILED
//
// A unit that cannot be decoded fails on its own and never aborts the scan.
// Only a classpath that cannot be enumerated at all is fatal.
//
// A [Result] owns the open classpath elements and must be closed:
//
//	res, err := scan.Scan(ctx, scan.Options{
//	    Classpath:                    []string{"target/classes"},
//	    Filter:                       classpath.Filter{AcceptPackages: []string{"com.example"}},
//	    EnableClassInfo:              true,
//	    EnableInterClassDependencies: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//
//	y := res.GetClassInfo("com.example.Y")
//	deps, _ := res.ClassDependencyMap().Lookup("com.example.Y")
package scan
