package cache

// ReportKeyOpts are the options that change a detection report.
type ReportKeyOpts struct {
	Format             string `json:"format"`
	EnableTask         bool   `json:"enable_task"`
	RestrictToLoops    bool   `json:"restrict_to_loops"`
	RemoveDummies      bool   `json:"remove_dummies"`
	PipelineAllowDoAll bool   `json:"pipeline_allow_doall"`
	TaskOptions        string `json:"task_options,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered graph.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Normalize bool   `json:"normalize"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ReportKey addresses a rendered report for the input with hash inputHash.
	ReportKey(inputHash string, opts ReportKeyOpts) string
	// ArtifactKey addresses a rendered graph with the given fingerprint.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes its arguments into "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ReportKey(inputHash string, opts ReportKeyOpts) string {
	return hashKey("report", inputHash, opts)
}

func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
