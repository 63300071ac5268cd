package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage stored request variables",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all vault items",
		Run:   runVaultList,
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		Run:   runVaultGet,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Args:  cobra.ExactArgs(2),
		Run:   runVaultSet,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key from the vault",
		Args:  cobra.ExactArgs(1),
		Run:   runVaultDelete,
	}

	vaultCmd.AddCommand(listCmd, getCmd, setCmd, deleteCmd)

	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Show recently executed request lines",
		Run:   runRequests,
	}
	requestsCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")

	rootCmd.AddCommand(vaultCmd, requestsCmd)
}

func runVaultList(cmd *cobra.Command, args []string) {
	var items []vaultItemView
	if err := newClient(serverURL).get("/vault", &items); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printVaultItems(items)
}

func runVaultGet(cmd *cobra.Command, args []string) {
	var item vaultItemView
	if err := newClient(serverURL).get("/vault/"+escape(args[0]), &item); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	fmt.Println(sanitizeTerm(item.Value))
}

func runVaultSet(cmd *cobra.Command, args []string) {
	body := map[string]string{"value": args[1]}

	var item vaultItemView
	if err := newClient(serverURL).put("/vault/"+escape(args[0]), body, &item); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Stored %s", item.Key))
}

func runVaultDelete(cmd *cobra.Command, args []string) {
	if err := newClient(serverURL).del("/vault/" + escape(args[0])); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess("Key removed")
}

func runRequests(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	var entries []historyEntryView
	path := fmt.Sprintf("/history/requests?limit=%d", limit)
	if err := newClient(serverURL).get(path, &entries); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printRequestHistory(entries)
}
