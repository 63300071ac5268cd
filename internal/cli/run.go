package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	runCmd := &cobra.Command{
		Use:   "run <suite-id>",
		Short: "Execute every endpoint of a suite in order",
		Long: `Start a batch run of the suite. The server executes endpoints
sequentially in the background; use 'suitectl show <suite-id> -r' to inspect
results as they land.`,
		Args: cobra.ExactArgs(1),
		Run:  runBatch,
	}

	execCmd := &cobra.Command{
		Use:   "exec <suite-id> <endpoint-id>",
		Short: "Execute a single endpoint and print the outcome",
		Args:  cobra.ExactArgs(2),
		Run:   runSingle,
	}
	execCmd.Flags().BoolP("results", "r", true, "Print the stored result body")

	stopCmd := &cobra.Command{
		Use:   "stop <suite-id>",
		Short: "Stop a running batch after the in-flight endpoint finishes",
		Args:  cobra.ExactArgs(1),
		Run:   runStop,
	}

	rootCmd.AddCommand(runCmd, execCmd, stopCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	var st batchStatusView
	if err := newClient(serverURL).post("/suites/"+escape(args[0])+"/execute", nil, &st); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Batch started for suite %s", st.SuiteID))
}

func runSingle(cmd *cobra.Command, args []string) {
	path := "/suites/" + escape(args[0]) + "/endpoints/" + escape(args[1]) + "/execute"

	var ep endpointView
	if err := newClient(serverURL).post(path, nil, &ep); err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	results, _ := cmd.Flags().GetBool("results")
	printEndpoint(&ep, results)
	if ep.Status == "failed" {
		os.Exit(1)
	}
}

func runStop(cmd *cobra.Command, args []string) {
	var st batchStatusView
	if err := newClient(serverURL).post("/suites/"+escape(args[0])+"/execute/stop", nil, &st); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Stop requested for suite %s", st.SuiteID))
}
