// Package cli is the terminal collaborator of the pipeline: prompting for the
// intent, reporting progress and rendering summaries.
package cli

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"qrypta/pqc/internal/blockchain/evm"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/pipeline"
)

// hexPreview is how many hex characters of proof material are shown
const hexPreview = 16

var (
	cyan    = lipgloss.Color("#00E5FF")
	magenta = lipgloss.Color("#9B5CFF")
	green   = lipgloss.Color("#00FFB2")
	red     = lipgloss.Color("#E53935")
	yellow  = lipgloss.Color("#FFC107")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(magenta).
			Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(cyan)
	successStyle = lipgloss.NewStyle().Foreground(green).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

type row struct {
	key   string
	value string
}

// box renders aligned key/value rows inside a rounded border
func box(title string, rows []row) string {
	width := 0
	for _, r := range rows {
		if len(r.key) > width {
			width = len(r.key)
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if title != "" {
		lines = append(lines, titleStyle.Render(title))
	}
	for _, r := range rows {
		lines = append(lines, keyStyle.Width(width+2).Render(r.key+":")+r.value)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderSummary shows what will be proven and broadcast
func RenderSummary(s pipeline.Summary) string {
	rows := []row{
		{"Network", s.Chain.Name},
		{"Contract", s.Chain.ContractAddress},
		{"Recipient", s.Recipient},
		{"Amount", fmt.Sprintf("%s (wei: %s)", s.AmountHuman, s.AmountWei)},
	}
	if s.DeadlineMinutes > 0 {
		rows = append(rows, row{"Deadline", fmt.Sprintf("~%d minutes", s.DeadlineMinutes)})
	}
	if s.Fake {
		rows = append(rows, row{"Proof", "fake (development)"})
	}
	rows = append(rows, row{"ISO Ref", s.Reference.String()})
	return box("Transfer summary", rows)
}

// RenderProof shows the proof material returned by the prover
func RenderProof(bundle *models.ProofBundle) string {
	refHash := "(not provided)"
	if bundle.ReferenceHash != nil {
		refHash = bundle.ReferenceHash.String()
	}
	rows := []row{
		{"isoRefHash", refHash},
		{"publicValues", bundle.PublicValues.Short(hexPreview)},
		{"proofBytes", bundle.ProofBytes.Short(hexPreview)},
	}
	if bundle.Deadline != nil {
		rows = append(rows, row{"deadline", time.Unix(*bundle.Deadline, 0).UTC().Format(time.RFC3339)})
	}
	return box("Proof", rows)
}

// RenderResult shows the confirmed transaction
func RenderResult(out *pipeline.Outcome) string {
	result := out.Result
	status := successStyle.Render(result.Status)
	if result.Status != models.ReceiptStatusSuccess {
		status = errorStyle.Render(result.Status)
	}

	rows := []row{
		{"txHash", result.TxHash},
		{"status", fmt.Sprintf("%s (%d)", status, result.StatusCode)},
		{"block", fmt.Sprintf("%d", result.BlockNumber)},
		{"gasUsed", fmt.Sprintf("%d", result.GasUsed)},
	}
	if result.EffectiveGasPrice != nil {
		rows = append(rows, row{"gasPrice", formatGwei(result.EffectiveGasPrice)})
	}
	rows = append(rows,
		row{"logs", fmt.Sprintf("%d", result.LogCount)},
		row{"amount", fmt.Sprintf("%s (wei: %s)", evm.FormatBaseUnits(result.AmountWei), result.AmountWei)},
	)
	if out.Chain.ExplorerTxURL != "" {
		rows = append(rows, row{"explorer", out.Chain.ExplorerTxURL + result.TxHash})
	}
	return box("Transaction", rows)
}

// RenderFailure shows the failure kind and message
func RenderFailure(err error) string {
	kind := models.KindOf(err)
	if kind == "" {
		return errorStyle.Render("ERROR:") + " " + err.Error()
	}
	return errorStyle.Render("ERROR ("+string(kind)+"):") + " " + err.Error()
}

// formatGwei prints a wei amount in gwei
func formatGwei(wei *big.Int) string {
	gwei := new(big.Rat).SetFrac(wei, big.NewInt(1_000_000_000))
	return strings.TrimRight(strings.TrimRight(gwei.FloatString(9), "0"), ".") + " gwei"
}

// RenderHeader is the banner shown before an interactive run
func RenderHeader() string {
	banner := boxStyle.BorderForeground(cyan).Padding(0, 2)
	return banner.Render(titleStyle.Render("PQC Terminal Demo") + "\n" +
		dimStyle.Render("SP1 proof → quantumTransferZK → on-chain receipt"))
}

// RenderRun shows one journaled run
func RenderRun(run *models.Run) string {
	rows := []row{
		{"runId", run.RunID},
		{"created", run.CreatedAt.UTC().Format(time.RFC3339)},
		{"chain", run.Chain},
		{"recipient", run.Recipient},
		{"amount", fmt.Sprintf("%s (wei: %s)", run.AmountHuman, run.AmountWei)},
		{"state", string(run.State)},
	}
	if run.TxHash != nil {
		rows = append(rows, row{"txHash", *run.TxHash})
	}
	if run.TxStatus != nil {
		rows = append(rows, row{"status", *run.TxStatus})
	}
	if run.BlockNumber != nil {
		rows = append(rows, row{"block", fmt.Sprintf("%d", *run.BlockNumber)})
	}
	if run.GasUsed != nil {
		rows = append(rows, row{"gasUsed", fmt.Sprintf("%d", *run.GasUsed)})
	}
	if run.ErrorKind != nil {
		rows = append(rows, row{"errorKind", *run.ErrorKind})
	}
	if run.ErrorMessage != nil {
		rows = append(rows, row{"error", *run.ErrorMessage})
	}
	rows = append(rows, row{"ISO Ref", run.IsoReference})
	return box("Run", rows)
}
