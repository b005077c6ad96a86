package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			masked := cc.Cfg.Masked()

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(masked)
			}

			data, err := yaml.Marshal(masked)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			if cc.Cfg.File != "" {
				r.Printf("# %s\n", cc.Cfg.File)
			}
			_, _ = r.Writer().Write(data)
			return nil
		},
	})
	return cmd
}
