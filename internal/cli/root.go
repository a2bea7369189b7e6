package cli

import "github.com/spf13/cobra"

// Execute runs the rulespec CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rulespec",
		Short:         "Generate OpenAPI documents from validation rules and resources",
		Long:          "rulespec builds an OpenAPI 3.0/3.1 document from an analysis manifest of routes, form request rules and API resources.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	g := newGenerateCmd()
	g.SetFlagErrorFunc(flagError)
	cmd.AddCommand(g)

	i := newInitCmd()
	i.SetFlagErrorFunc(flagError)
	cmd.AddCommand(i)

	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return usageErrorf("%w\n\n%s", err, c.UsageString())
}
