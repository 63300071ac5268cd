package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new current suite",
		Run:   runCreate,
	}
	createCmd.Flags().StringP("title", "t", "", "Suite title")
	createCmd.Flags().StringP("description", "d", "", "Suite description")

	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Show the current suite and its endpoints",
		Run:   runCurrent,
	}
	currentCmd.Flags().BoolP("results", "r", false, "Include stored endpoint results")

	showCmd := &cobra.Command{
		Use:   "show <suite-id>",
		Short: "Show a suite by id",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}
	showCmd.Flags().BoolP("results", "r", false, "Include stored endpoint results")

	attachCmd := &cobra.Command{
		Use:   "attach <request-line>",
		Short: "Attach a request line to a suite",
		Long: `Attach a request line to the current suite, creating one when none exists.

The request line is a quoted string of pipe-delimited directives, for example:
  suitectl attach 'HTTP POST | URL https://api.example.com/users | BODY {"name":"x"}'`,
		Args: cobra.MinimumNArgs(1),
		Run:  runAttach,
	}
	attachCmd.Flags().String("suite", "", "Attach to the given suite id instead of the current suite")
	attachCmd.Flags().StringP("title", "t", "", "Endpoint title")

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive the current suite",
		Run:   runArchive,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List archived suites",
		Run:   runSuiteHistory,
	}
	historyCmd.Flags().IntP("page", "p", 1, "Page number")
	historyCmd.Flags().IntP("limit", "n", 20, "Suites per page")

	loadCmd := &cobra.Command{
		Use:   "load <suite-id>",
		Short: "Restore an archived suite as the current suite",
		Args:  cobra.ExactArgs(1),
		Run:   runLoad,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <suite-id>",
		Short: "Delete an archived suite permanently",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete,
	}

	rootCmd.AddCommand(createCmd, currentCmd, showCmd, attachCmd, archiveCmd, historyCmd, loadCmd, deleteCmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	desc, _ := cmd.Flags().GetString("description")

	var s suiteView
	body := map[string]string{"title": title, "description": desc}
	if err := newClient(serverURL).post("/suites", body, &s); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Created suite %s", s.ID))
	printSuite(&s, false)
}

func runCurrent(cmd *cobra.Command, args []string) {
	var s suiteView
	if err := newClient(serverURL).get("/suites/current", &s); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	results, _ := cmd.Flags().GetBool("results")
	printSuite(&s, results)
}

func runShow(cmd *cobra.Command, args []string) {
	var s suiteView
	if err := newClient(serverURL).get("/suites/"+escape(args[0]), &s); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	results, _ := cmd.Flags().GetBool("results")
	printSuite(&s, results)
}

func runAttach(cmd *cobra.Command, args []string) {
	line := strings.Join(args, " ")
	title, _ := cmd.Flags().GetString("title")
	suiteID, _ := cmd.Flags().GetString("suite")

	path := "/suites/current/endpoints"
	if suiteID != "" {
		path = "/suites/" + escape(suiteID) + "/endpoints"
	}

	var ep endpointView
	body := map[string]string{"requestLine": line, "title": title}
	if err := newClient(serverURL).post(path, body, &ep); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Attached endpoint %s at position %d", ep.ID, ep.Position))
}

func runArchive(cmd *cobra.Command, args []string) {
	var s suiteView
	if err := newClient(serverURL).post("/suites/current/archive", nil, &s); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Archived suite %s (%s)", s.ID, s.Title))
}

func runSuiteHistory(cmd *cobra.Command, args []string) {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	var resp suiteHistoryView
	path := fmt.Sprintf("/history/suites?page=%d&page_size=%d", page, limit)
	if err := newClient(serverURL).get(path, &resp); err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	if len(resp.Suites) == 0 {
		dimColor.Println("No archived suites")
		return
	}
	printSuiteList(resp.Suites)
	if resp.Pagination.HasNext {
		dimColor.Printf("\npage %d of %d, %d suites total\n",
			resp.Pagination.Page, resp.Pagination.TotalPages, resp.Pagination.Total)
	}
}

func runLoad(cmd *cobra.Command, args []string) {
	var s suiteView
	if err := newClient(serverURL).post("/history/suites/"+escape(args[0])+"/load", nil, &s); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Suite %s is now current", s.ID))
	printSuite(&s, false)
}

func runDelete(cmd *cobra.Command, args []string) {
	if err := newClient(serverURL).del("/history/suites/" + escape(args[0])); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess("Suite deleted")
}
