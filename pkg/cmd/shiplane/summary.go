package shiplane

import (
	"context"
	"fmt"
	"io"

	"github.com/shiplane-io/shiplane/pkg/lane"
)

// summaryStage prints the lane's per-stage timing table as its final
// step.
func summaryStage(p *lane.Pipeline, out io.Writer) lane.Stage {
	return lane.Stage{
		Name: "summary",
		Run: func(ctx context.Context) error {
			_, err := fmt.Fprint(out, p.Summary())
			return err
		},
	}
}
