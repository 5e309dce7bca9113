// Command refdata inspects reference tables and generates Go accessors for
// their codes.
//
//	refdata codes order_statuses
//	refdata gen order_statuses --package orders --out order_status_codes.go
//
// Connection settings come from flags, refdata.yaml or REFDATA_* variables.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-refdata/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	v        *viper.Viper
	settings settings
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "refdata",
		Short: "Inspect reference tables and generate code accessors",
		Long: `refdata reads the code column of reference tables and shows the
accessor and predicate names the runtime cache derives for each code.
The gen command writes those names out as Go constants and functions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(a.v, cmd.Flags())
			if err != nil {
				return err
			}
			a.settings = s
			logging.Setup(s.LogLevel, s.LogFormat)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./refdata.yaml)")
	flags.String("driver", "", "database driver: sqlite or postgres")
	flags.String("dsn", "", "database connection string")
	flags.String("code-column", "", "column holding the codes (default: code)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.Bool("query-debug", false, "log every query at debug level")

	root.AddCommand(newCodesCmd(a))
	root.AddCommand(newGenCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
