package lane

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingStage(name string, order *[]string, err error) Stage {
	return Stage{
		Name: name,
		Run: func(ctx context.Context) error {
			*order = append(*order, name)
			return err
		},
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	var order []string

	p := New("release", nil)
	p.Add(
		recordingStage("run-tests", &order, nil),
		recordingStage("read-changelog", &order, nil),
		recordingStage("build-and-sign", &order, nil),
		recordingStage("publish-release", &order, nil),
		recordingStage("distribute-build", &order, nil),
	)

	err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"run-tests", "read-changelog", "build-and-sign", "publish-release", "distribute-build"}, order)
}

func TestPipelineAbortsOnFirstFailure(t *testing.T) {
	var order []string
	testErr := errors.New("simulator timed out")

	p := New("release", nil)
	p.Add(
		recordingStage("run-tests", &order, testErr),
		recordingStage("build-and-sign", &order, nil),
	)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, testErr)
	assert.Contains(t, err.Error(), `stage "run-tests" failed`)
	assert.Equal(t, []string{"run-tests"}, order, "no stage may run after a failure")
}

func TestPipelineCompletionHookFiresExactlyOnce(t *testing.T) {
	tt := []struct {
		name                string
		stageErr            error
		expectedFailedStage string
	}{
		{
			name:                "success",
			stageErr:            nil,
			expectedFailedStage: "",
		},
		{
			name:                "failure",
			stageErr:            errors.New("upload rejected"),
			expectedFailedStage: "distribute-build",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var order []string
			calls := 0
			var gotStage string
			var gotErr error

			p := New("beta", func(ctx context.Context, failedStage string, err error) {
				calls++
				gotStage = failedStage
				gotErr = err
			})
			p.Add(recordingStage("distribute-build", &order, tc.stageErr))

			err := p.Run(context.Background())

			require.Equal(t, 1, calls)
			assert.Equal(t, tc.expectedFailedStage, gotStage)
			if tc.stageErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, gotErr, tc.stageErr)
			} else {
				require.NoError(t, err)
				assert.NoError(t, gotErr)
			}
		})
	}
}

func TestPipelineHonorsCanceledContextBetweenStages(t *testing.T) {
	var order []string
	ctx, cancel := context.WithCancel(context.Background())

	p := New("release", nil)
	p.Add(
		Stage{
			Name: "run-tests",
			Run: func(ctx context.Context) error {
				order = append(order, "run-tests")
				cancel()
				return nil
			},
		},
		recordingStage("build-and-sign", &order, nil),
	)

	err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"run-tests"}, order)
}

func TestPipelineSummaryListsCompletedStages(t *testing.T) {
	var order []string

	p := New("release", nil)
	p.Add(
		recordingStage("run-tests", &order, nil),
		recordingStage("build-and-sign", &order, nil),
	)

	require.NoError(t, p.Run(context.Background()))

	summary := p.Summary()
	assert.Contains(t, summary, `Lane "release" summary:`)
	assert.Contains(t, summary, "run-tests")
	assert.Contains(t, summary, "build-and-sign")
}
