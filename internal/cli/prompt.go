package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/pipeline"
	"qrypta/pqc/internal/validation"
)

// Prompt asks the operator for every field that was not preselected and
// re-prompts until the answer validates
type Prompt struct {
	in     *bufio.Reader
	out    io.Writer
	preset pipeline.StaticInput
}

// NewPrompt creates an interactive input provider. Non-empty preset fields are
// used as-is without prompting.
func NewPrompt(in io.Reader, out io.Writer, preset pipeline.StaticInput) *Prompt {
	return &Prompt{
		in:     bufio.NewReader(in),
		out:    out,
		preset: preset,
	}
}

func (p *Prompt) Chain(ctx context.Context, configured []models.ChainKey) (models.ChainKey, error) {
	if p.preset.ChainKey != "" {
		return p.preset.ChainKey, nil
	}

	fmt.Fprintln(p.out, titleStyle.Render("Select network:"))
	for i, key := range configured {
		fmt.Fprintf(p.out, "  %d) %s %s\n", i+1, config.ChainLabel(key), dimStyle.Render("["+string(key)+"]"))
	}

	for {
		answer, err := p.ask(ctx, fmt.Sprintf("Network [1-%d]: ", len(configured)))
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(configured) {
			return configured[n-1], nil
		}
		for _, key := range configured {
			if strings.EqualFold(answer, string(key)) {
				return key, nil
			}
		}
		p.warn("Invalid network")
	}
}

func (p *Prompt) Recipient(ctx context.Context) (string, error) {
	if p.preset.RecipientAddr != "" {
		return p.preset.RecipientAddr, nil
	}
	return p.askValid(ctx, "Recipient address (0x…): ", validation.ValidateAddress, "Invalid address")
}

func (p *Prompt) Amount(ctx context.Context) (string, error) {
	if p.preset.AmountHuman != "" {
		return p.preset.AmountHuman, nil
	}
	return p.askValid(ctx, "Amount (human, e.g. 1.25): ", validation.ValidateAmount, "Invalid amount")
}

func (p *Prompt) Title(ctx context.Context) (string, error) {
	if p.preset.ReferenceTitle != "" {
		return p.preset.ReferenceTitle, nil
	}
	return p.ask(ctx, fmt.Sprintf("ISO Reference title (%s): ", pipeline.DefaultReferenceTitle))
}

// Confirm shows the summary and defaults to no
func (p *Prompt) Confirm(ctx context.Context, summary pipeline.Summary) (bool, error) {
	fmt.Fprintln(p.out, RenderSummary(summary))

	answer, err := p.ask(ctx, "Generate proof + broadcast now? [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompt) askValid(ctx context.Context, question string, validate func(string) error, invalid string) (string, error) {
	for {
		answer, err := p.ask(ctx, question)
		if err != nil {
			return "", err
		}
		if err := validate(answer); err != nil {
			p.warn(invalid)
			continue
		}
		return answer, nil
	}
}

// ask reads one trimmed line. End of input is an error so an exhausted stdin
// never loops.
func (p *Prompt) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(p.out, keyStyle.Render("? ")+question)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompt) warn(msg string) {
	fmt.Fprintln(p.out, warnStyle.Render("  "+msg))
}
