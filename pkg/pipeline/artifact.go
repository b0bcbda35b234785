package pipeline

import "strings"

// LatestVersion is the only version selector the pipeline uses.
const LatestVersion = "latest"

// Artifact is a reference to a tracked artifact, written "<name>:<version>".
type Artifact struct {
	Name    string
	Version string
}

// Latest references the latest version of the named artifact.
func Latest(name string) Artifact {
	return Artifact{Name: name, Version: LatestVersion}
}

// ParseArtifact splits a reference on its last colon. A reference without a colon has no version.
func ParseArtifact(ref string) Artifact {
	idx := strings.LastIndex(ref, ":")
	if idx < 0 {
		return Artifact{Name: ref}
	}

	return Artifact{Name: ref[:idx], Version: ref[idx+1:]}
}

func (a Artifact) String() string {
	if a.Version == "" {
		return a.Name
	}

	return a.Name + ":" + a.Version
}
