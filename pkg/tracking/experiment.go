package tracking

// ExperimentTag is a key-value annotation on an experiment.
type ExperimentTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Experiment groups related runs under a name and an artifact location.
type Experiment struct {
	ExperimentID     string          `json:"experiment_id"`
	Name             string          `json:"name"`
	ArtifactLocation string          `json:"artifact_location"`
	LifecycleStage   string          `json:"lifecycle_stage"`
	Tags             []ExperimentTag `json:"tags,omitempty"`
	CreationTime     int64           `json:"creation_time"`
	LastUpdateTime   int64           `json:"last_update_time"`
}

// DefaultExperimentID is the experiment every store creates on first open.
// Runs started without an explicit experiment land here.
const DefaultExperimentID = "0"

// DefaultExperimentName is the name of the default experiment.
const DefaultExperimentName = "Default"

// Tag returns the value of the named experiment tag and whether it is set.
func (e *Experiment) Tag(key string) (string, bool) {
	for _, t := range e.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}

	return "", false
}
