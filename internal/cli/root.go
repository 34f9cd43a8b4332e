package cli

import (
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions carries process-level inputs so tests can replace them.
type rootOptions struct {
	environment map[string]string
}

func newRootCmd(ro rootOptions) *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:   "notifytail",
		Short: "Follow marketplace notifications from the terminal",
		Long: "notifytail keeps a push connection to the marketplace open for a session, " +
			"prints new notifications as they arrive and can list or acknowledge them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Dotenv files to load before reading the environment")

	load := func() (Settings, error) {
		return loadSettings(ro, envFiles)
	}

	tail := newTailCmd(load)
	cmd.RunE = tail.RunE
	cmd.Flags().AddFlagSet(tail.Flags())

	cmd.AddCommand(tail)
	cmd.AddCommand(newListCmd(load))
	cmd.AddCommand(newReadCmd(load))
	cmd.AddCommand(newUnreadCmd(load))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// NewRootCmdForTest returns the root command reading from environment
// instead of the process environment.
func NewRootCmdForTest(environment map[string]string) *cobra.Command {
	return newRootCmd(rootOptions{environment: environment})
}

func Execute() error {
	return newRootCmd(rootOptions{}).Execute()
}
