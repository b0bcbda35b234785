package measure

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

// Summary writes one line per stage with its duration, then the total.
func Summary(wrt io.Writer, msr Measure) error {
	tw := tabwriter.NewWriter(wrt, 0, 0, 2, ' ', 0)

	_, err := fmt.Fprintln(tw, "STAGE\tDURATION")
	if err != nil {
		return errors.Wrap(err, "unable to write header")
	}

	for _, name := range msr.Order() {
		if name == model.StartStage.Name || name == model.EndStage.Name {
			continue
		}

		_, err := fmt.Fprintf(tw, "%s\t%s\n", name, describe(msr.GetMetric(name)))
		if err != nil {
			return errors.Wrapf(err, "unable to write %s", name)
		}
	}

	if end := msr.GetMetric(model.EndStage.Name); end != nil {
		_, err := fmt.Fprintf(tw, "total\t%s\n", describe(end))
		if err != nil {
			return errors.Wrap(err, "unable to write total")
		}
	}

	return errors.Wrap(tw.Flush(), "unable to flush summary")
}

func describe(mt Metric) string {
	if !mt.Done() {
		return "not finished"
	}

	return mt.GetDuration().String()
}
