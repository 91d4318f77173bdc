// Package classpath enumerates the classfile resources of a classpath.
//
// A classpath is an ordered list of elements. An element is either a
// directory tree ([Dir]) or a jar/zip archive ([Archive]). Resources are
// enumerated in classpath order; when two elements contain the same class,
// the one that comes first masks the other, as a JVM class loader would.
//
// A [Filter] decides which classes take part before any bytes are read:
//
//	f := classpath.Filter{
//	    AcceptPackages: []string{"com.example"},
//	    RejectClasses:  []string{"com.example.internal.Generated"},
//	}
//	cp, err := classpath.New([]string{"target/classes", "lib/api.jar"}, f)
//	if err != nil {
//	    return err
//	}
//	defer cp.Close()
//	resources, err := cp.Resources(ctx)
//
// [FromPOM] builds a classpath from a Maven pom.xml and a local repository.
package classpath
