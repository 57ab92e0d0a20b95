// labels.go defines the Docker label schema for job containers.
//
// Labels are the only state convoy leaves behind: if a run is killed
// before Cleanup, `convoy clean` rediscovers the orphaned containers
// purely from their labels.
package executor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/convoy-run/convoy/internal/model"
)

// Label key constants. All keys share the "ci.convoy." prefix to
// namespace them away from labels set by other tools.
const (
	// LabelPrefix is the common prefix for all convoy labels.
	LabelPrefix = "ci.convoy."

	// LabelManagedBy identifies containers created by convoy. This is
	// the primary filter label for discovery.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelRunID stores the pipeline run identifier.
	LabelRunID = LabelPrefix + "run-id"

	// LabelJobName stores the human-readable job label, e.g. "python 3.6".
	LabelJobName = LabelPrefix + "job-name"

	// LabelJobNumber stores the 1-based matrix index of the job.
	LabelJobNumber = LabelPrefix + "job-number"

	// LabelPython stores the job's interpreter version string.
	LabelPython = LabelPrefix + "python"

	// LabelCreatedAt stores the RFC3339 creation timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value of the LabelManagedBy label.
const ManagedByValue = "convoy"

// BuildJobLabels constructs the label map stamped on a job's container.
func BuildJobLabels(spec *model.JobSpec, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelRunID:     spec.RunID,
		LabelJobName:   spec.Name,
		LabelJobNumber: strconv.Itoa(spec.Index),
		LabelPython:    spec.Python,
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// JobContainer describes a convoy-labeled container discovered on the
// daemon, reconstructed entirely from its labels.
type JobContainer struct {
	// ID is the Docker container ID.
	ID string

	// Name is the container name without the API's leading slash.
	Name string

	// State is the Docker container state ("running", "exited", ...).
	State string

	// RunID, JobName, JobNumber and Python mirror the job labels.
	RunID     string
	JobName   string
	JobNumber int
	Python    string

	// CreatedAt is the label timestamp. Zero if unparseable.
	CreatedAt time.Time
}

// ParseJobLabels reconstructs job metadata from a container's labels.
// Returns an error when the required labels are missing, listing all of
// them at once for easier debugging.
func ParseJobLabels(labels map[string]string) (*JobContainer, error) {
	required := []string{LabelManagedBy, LabelRunID, LabelJobName, LabelJobNumber, LabelPython}
	var missing []string
	for _, key := range required {
		if labels[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("container is missing required labels: %s", strings.Join(missing, ", "))
	}

	number, err := strconv.Atoi(labels[LabelJobNumber])
	if err != nil {
		return nil, fmt.Errorf("invalid %s label %q: %w", LabelJobNumber, labels[LabelJobNumber], err)
	}

	jc := &JobContainer{
		RunID:     labels[LabelRunID],
		JobName:   labels[LabelJobName],
		JobNumber: number,
		Python:    labels[LabelPython],
	}

	// The timestamp is informational; a malformed value is not fatal.
	if ts := labels[LabelCreatedAt]; ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			jc.CreatedAt = parsed
		}
	}

	return jc, nil
}
