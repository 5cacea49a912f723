package ir

// ArtifactKey addresses an artifact.
type ArtifactKey struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

// Artifact is the output of one completed task. Artifacts are produced,
// never mutated.
type Artifact struct {
	Kind    Kind           `json:"kind"`
	Key     string         `json:"key"` // usually the entity identifier
	Content any            `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// NewArtifact builds an artifact. A nil meta is replaced with an empty map.
func NewArtifact(kind Kind, key string, content any, meta map[string]any) Artifact {
	if meta == nil {
		meta = map[string]any{}
	}
	return Artifact{Kind: kind, Key: key, Content: content, Meta: meta}
}

// Address returns the (kind, key) pair identifying the artifact.
func (a Artifact) Address() ArtifactKey {
	return ArtifactKey{Kind: a.Kind, Key: a.Key}
}
