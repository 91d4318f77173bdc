package classpath

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

// MavenClasspath is the classpath derived from a pom.xml.
type MavenClasspath struct {
	Project string   // groupId:artifactId:version of the project
	Paths   []string // Project output directory (when built) followed by dependency jars
	Missing []string // groupId:artifactId:version[:classifier] of dependencies with no jar in the repository
}

// DefaultRepoDir returns the local Maven repository, ~/.m2/repository.
func DefaultRepoDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

// FromPOM reads a pom.xml and lists the classpath entries of the project:
// its target/classes directory when present, then the jar of every direct
// compile or runtime dependency found in repoDir. Test, provided, system
// and optional dependencies are skipped. Versions may reference
// <properties>, the project's own coordinates, or be managed in
// <dependencyManagement>.
func FromPOM(pomPath, repoDir string) (*MavenClasspath, error) {
	data, err := os.ReadFile(pomPath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "read %s", pomPath)
	}
	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse %s", pomPath)
	}
	if repoDir == "" {
		repoDir = DefaultRepoDir()
	}

	props := pom.properties()
	result := &MavenClasspath{
		Project: props.expand(pom.groupID()) + ":" + pom.ArtifactID + ":" + props.expand(pom.version()),
	}

	classes := filepath.Join(filepath.Dir(pomPath), "target", "classes")
	if info, err := os.Stat(classes); err == nil && info.IsDir() {
		result.Paths = append(result.Paths, classes)
	}

	for _, dep := range extractDependencies(&pom, props) {
		jar := dep.jarPath(repoDir)
		if _, err := os.Stat(jar); err != nil {
			result.Missing = append(result.Missing, dep.String())
			continue
		}
		result.Paths = append(result.Paths, jar)
	}
	return result, nil
}

type artifact struct {
	GroupID, ArtifactID, Version, Classifier string
}

func (a artifact) coordinate() string {
	return a.GroupID + ":" + a.ArtifactID + ":" + a.Version
}

// String is the coordinate plus the classifier, if any.
func (a artifact) String() string {
	if a.Classifier != "" {
		return a.coordinate() + ":" + a.Classifier
	}
	return a.coordinate()
}

func (a artifact) jarPath(repoDir string) string {
	file := a.ArtifactID + "-" + a.Version
	if a.Classifier != "" {
		file += "-" + a.Classifier
	}
	parts := append(strings.Split(a.GroupID, "."), a.ArtifactID, a.Version, file+".jar")
	return filepath.Join(append([]string{repoDir}, parts...)...)
}

func extractDependencies(pom *pomProject, props pomProperties) []artifact {
	managed := make(map[string]string)
	for _, dep := range pom.Managed {
		managed[props.expand(dep.GroupID)+":"+props.expand(dep.ArtifactID)] = props.expand(dep.Version)
	}

	var out []artifact
	seen := make(map[string]bool)
	for _, dep := range pom.Dependencies {
		switch dep.Scope {
		case "test", "provided", "system", "import":
			continue
		}
		if dep.Optional == "true" || (dep.Type != "" && dep.Type != "jar") {
			continue
		}
		a := artifact{
			GroupID:    props.expand(dep.GroupID),
			ArtifactID: props.expand(dep.ArtifactID),
			Version:    props.expand(dep.Version),
			Classifier: props.expand(dep.Classifier),
		}
		if a.Version == "" {
			a.Version = managed[a.GroupID+":"+a.ArtifactID]
		}
		// Skip dependencies whose coordinates still hold unresolved properties
		if a.Version == "" || strings.Contains(a.GroupID+a.ArtifactID+a.Version, "${") {
			continue
		}
		if key := a.coordinate() + ":" + a.Classifier; !seen[key] {
			seen[key] = true
			out = append(out, a)
		}
	}
	return out
}

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
}

func (p *pomProject) groupID() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

func (p *pomProject) version() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

// properties returns the declared properties plus the project.* and
// parent.* built-ins. Declared properties win.
func (p *pomProject) properties() pomProperties {
	props := pomProperties{
		"project.groupId":    p.groupID(),
		"project.artifactId": p.ArtifactID,
		"project.version":    p.version(),
		"pom.version":        p.version(),
	}
	if p.Parent != nil {
		props["project.parent.groupId"] = p.Parent.GroupID
		props["project.parent.version"] = p.Parent.Version
	}
	for k, v := range p.Properties {
		props[k] = v
	}
	return props
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Classifier string `xml:"classifier"`
	Type       string `xml:"type"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// pomProperties holds the <properties> block, keyed by element name.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(pomProperties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

// expand substitutes ${name} references. Unknown references are left in
// place; expansion is repeated a bounded number of times so properties may
// refer to each other.
func (p pomProperties) expand(s string) string {
	s = strings.TrimSpace(s)
	for range 8 {
		start := strings.Index(s, "${")
		if start < 0 {
			return s
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return s
		}
		key := s[start+2 : start+end]
		v, ok := p[key]
		if !ok {
			return s
		}
		s = s[:start] + v + s[start+end+1:]
	}
	return s
}
