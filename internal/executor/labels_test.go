package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoy-run/convoy/internal/model"
)

// TestBuildJobLabels verifies the full label map stamped on a job
// container.
func TestBuildJobLabels(t *testing.T) {
	createdAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	spec := &model.JobSpec{
		Index:  2,
		Name:   "python 3.6",
		Python: "3.6",
		RunID:  "run-abc",
	}

	labels := BuildJobLabels(spec, createdAt)

	assert.Equal(t, ManagedByValue, labels[LabelManagedBy])
	assert.Equal(t, "run-abc", labels[LabelRunID])
	assert.Equal(t, "python 3.6", labels[LabelJobName])
	assert.Equal(t, "2", labels[LabelJobNumber])
	assert.Equal(t, "3.6", labels[LabelPython])
	assert.Equal(t, "2026-08-30T10:00:00Z", labels[LabelCreatedAt])
	assert.Len(t, labels, 6)
}

// TestParseJobLabels_RoundTrip verifies that a container's labels
// reconstruct the job metadata BuildJobLabels encoded.
func TestParseJobLabels_RoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	spec := &model.JobSpec{Index: 3, Name: "python 2.7", Python: "2.7", RunID: "run-xyz"}

	jc, err := ParseJobLabels(BuildJobLabels(spec, createdAt))
	require.NoError(t, err)

	assert.Equal(t, "run-xyz", jc.RunID)
	assert.Equal(t, "python 2.7", jc.JobName)
	assert.Equal(t, 3, jc.JobNumber)
	assert.Equal(t, "2.7", jc.Python)
	assert.True(t, jc.CreatedAt.Equal(createdAt))
}

// TestParseJobLabels_MissingLabels verifies that the error lists every
// missing required label, not just the first.
func TestParseJobLabels_MissingLabels(t *testing.T) {
	_, err := ParseJobLabels(map[string]string{
		LabelManagedBy: ManagedByValue,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelRunID)
	assert.Contains(t, err.Error(), LabelJobName)
	assert.Contains(t, err.Error(), LabelJobNumber)
	assert.Contains(t, err.Error(), LabelPython)
}

func TestParseJobLabels_BadJobNumber(t *testing.T) {
	labels := BuildJobLabels(&model.JobSpec{Index: 1, Name: "python 3.5", Python: "3.5", RunID: "r"}, time.Now())
	labels[LabelJobNumber] = "not-a-number"

	_, err := ParseJobLabels(labels)
	assert.Error(t, err)
}

// TestParseJobLabels_BadTimestamp verifies a malformed created-at label
// is tolerated: the timestamp is informational only.
func TestParseJobLabels_BadTimestamp(t *testing.T) {
	labels := BuildJobLabels(&model.JobSpec{Index: 1, Name: "python 3.5", Python: "3.5", RunID: "r"}, time.Now())
	labels[LabelCreatedAt] = "yesterday"

	jc, err := ParseJobLabels(labels)
	require.NoError(t, err)
	assert.True(t, jc.CreatedAt.IsZero())
}
