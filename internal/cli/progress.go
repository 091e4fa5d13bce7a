package cli

import (
	"fmt"
	"io"
	"time"

	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/pipeline"
)

// Progress reports pipeline transitions on the terminal
type Progress struct {
	out     io.Writer
	started time.Time
	now     func() time.Time
}

// NewProgress creates a progress observer writing to out
func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out, now: time.Now}
}

func (p *Progress) OnTransition(from, to models.State, out *pipeline.Outcome) {
	switch to {
	case models.StateDryRunExit:
		fmt.Fprintln(p.out, RenderSummary(pipeline.Summary{
			Chain:       out.Chain,
			Recipient:   out.Intent.Recipient,
			AmountHuman: out.Intent.AmountHuman,
			AmountWei:   out.AmountWei,
			Reference:   out.Reference,
		}))
		fmt.Fprintln(p.out, warnStyle.Render("Dry run: no proof requested, nothing broadcast."))

	case models.StateCancelled:
		fmt.Fprintln(p.out, warnStyle.Render("Cancelled."))

	case models.StateProving:
		p.begin("Generating SP1 proof…")

	case models.StateProved:
		p.done("Proof generated.")
		fmt.Fprintln(p.out, RenderProof(out.Proof))

	case models.StateSubmitting:
		p.begin("Broadcasting quantumTransferZK…")

	case models.StateSubmitted:
		p.done("Transaction confirmed.")

	case models.StateReported:
		fmt.Fprintln(p.out, RenderResult(out))
		fmt.Fprintln(p.out, successStyle.Render("Done ✅"))

	case models.StateFailed:
		switch from {
		case models.StateProving:
			p.fail("Proof generation failed.")
		case models.StateSubmitting:
			p.fail("Transaction failed.")
		}
	}
}

func (p *Progress) begin(label string) {
	p.started = p.now()
	fmt.Fprintln(p.out, titleStyle.Render(label))
}

func (p *Progress) done(msg string) {
	fmt.Fprintf(p.out, "%s %s %s\n", successStyle.Render("✔"), msg, dimStyle.Render(p.elapsed()))
}

func (p *Progress) fail(msg string) {
	fmt.Fprintf(p.out, "%s %s %s\n", errorStyle.Render("✖"), msg, dimStyle.Render(p.elapsed()))
}

func (p *Progress) elapsed() string {
	return fmt.Sprintf("(%s)", p.now().Sub(p.started).Round(time.Second))
}
