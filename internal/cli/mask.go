package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/catsite/internal/mask"
)

// MaskResult is the compiled form of one wildcard mask.
type MaskResult struct {
	Mask  string `json:"mask"`
	Regex string `json:"regex,omitempty"`
	Valid bool   `json:"valid"`
}

// NewMaskCommand creates the mask command.
func NewMaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask <glob>...",
		Short: "Show the regular expression of wildcard masks",
		Long: `Compile each wildcard mask as the "match" transform does and print
the resulting regular expression, or "invalid" when the mask cannot be
compiled.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMask(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runMask(opts *RootOptions, masks []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	results := make([]MaskResult, 0, len(masks))
	invalid := 0
	for _, m := range masks {
		re, err := mask.Compile(m)
		if err != nil {
			formatter.VerboseLog("%s: %v", m, err)
			invalid++
			results = append(results, MaskResult{Mask: m})
			continue
		}
		results = append(results, MaskResult{Mask: m, Regex: re.String(), Valid: true})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(formatter.Writer, "%s\t%s\n", r.Mask, r.Regex)
			} else {
				fmt.Fprintf(formatter.Writer, "%s\tinvalid\n", r.Mask)
			}
		}
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d invalid mask(s)", ErrCodeInvalidMask, invalid))
	}
	return nil
}
