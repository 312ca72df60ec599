package health_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/book-expert/unified-tts/internal/health"
)

func TestInitialStateIsUnknown(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker([]string{"openaudio"})
	assert.Equal(t, health.Unknown, tr.State("openaudio"))
	assert.False(t, tr.IsDown("openaudio"))
}

func TestRecordSuccessMarksUp(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker([]string{"openaudio"})
	tr.RecordSuccess("openaudio")
	assert.Equal(t, health.Up, tr.State("openaudio"))
}

func TestRepeatedFailuresDemoteToDown(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker([]string{"voxcpm"})
	tr.RecordFailure("voxcpm")
	assert.Equal(t, health.Unknown, tr.State("voxcpm"))
	tr.RecordFailure("voxcpm")
	assert.Equal(t, health.Unknown, tr.State("voxcpm"))
	tr.RecordFailure("voxcpm")
	assert.True(t, tr.IsDown("voxcpm"))
}

func TestSuccessResetsFailureCounter(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker([]string{"voxcpm"})
	tr.RecordFailure("voxcpm")
	tr.RecordFailure("voxcpm")
	tr.RecordSuccess("voxcpm")
	tr.RecordFailure("voxcpm")
	assert.False(t, tr.IsDown("voxcpm"))
}

func TestDefinitiveFailureImmediatelyDemotes(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker([]string{"elevenlabs"})
	tr.RecordDefinitiveFailure("elevenlabs")
	assert.True(t, tr.IsDown("elevenlabs"))
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker([]string{"openaudio"})
	snap := tr.Snapshot()
	snap["openaudio"] = health.Down

	assert.Equal(t, health.Unknown, tr.State("openaudio"))
}

func TestUnregisteredKindReportsUnknown(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker(nil)
	assert.Equal(t, health.Unknown, tr.State("ghost"))
}
