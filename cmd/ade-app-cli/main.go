package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/0xADE/ade-app-ctld/client/app"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		socketPath string
		client     *app.Client
	)

	root := &cobra.Command{
		Use:          "ade-app-cli",
		Short:        "Query and launch applications indexed by ade-app-ctld",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			var err error
			if socketPath == "" {
				socketPath, err = app.DefaultSocketPath()
				if err != nil {
					return err
				}
			}
			client, err = app.NewClient(socketPath)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if client != nil {
				return client.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket (default $ADE_APPCTLD_SOCK or /tmp/ade-<uid>/appctld)")

	conn := func() *app.Client { return client }
	root.AddCommand(
		newListCommand(conn),
		newRunCommand(conn),
		newReindexCommand(conn),
		newStatusCommand(conn),
		newInteractiveCommand(conn),
	)
	return root
}

func newListCommand(conn func() *app.Client) *cobra.Command {
	var (
		all      bool
		name     string
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List launchable applications",
		Example: `
ade-app-cli list
ade-app-cli list --name term
ade-app-cli list --category Graphics --all
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := conn()
			if name != "" {
				if err := c.FilterName(name); err != nil {
					return err
				}
			}
			if category != "" {
				if err := c.FilterCategory(category); err != nil {
					return err
				}
			}
			apps, err := c.List(all)
			if err != nil {
				return err
			}
			printApplications(apps)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include Hidden and NoDisplay entries")
	cmd.Flags().StringVarP(&name, "name", "n", "", "only entries whose label contains this text")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only entries in this category")
	return cmd
}

func newRunCommand(conn func() *app.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Launch an application by entry name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return conn().Run(strings.Join(args, " "))
		},
	}
}

func newReindexCommand(conn func() *app.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Force a full rebuild of the application index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := conn().Reindex()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(color.Output, "indexed %d applications\n", n)
			return nil
		},
	}
}

func newStatusCommand(conn func() *app.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := conn().Status()
			if err != nil {
				return err
			}
			printAttrs(attrs)
			return nil
		},
	}
}

func newInteractiveCommand(conn func() *app.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Send raw protocol commands, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(conn())
		},
	}
}

func runInteractive(client *app.Client) error {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Interactive mode. Type commands or 'exit' to quit.")
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "exit" || line == "quit" {
			break
		}

		// Parse command
		parts := strings.Fields(line)
		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		// Arguments come first on the wire, the command word last
		resp, err := client.Do(parts[0], parts[1:])
		if err != nil {
			return err
		}
		printAttrs(resp.Attrs)
		for _, body := range resp.Body {
			fmt.Println(body)
		}

		fmt.Print("> ")
	}

	return scanner.Err()
}

func printApplications(apps []app.Application) {
	if len(apps) == 0 {
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("NAME"), bold("LABEL"))
	for _, a := range apps {
		tbl.AddRow(a.Name, a.Label)
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func printAttrs(attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tbl := uitable.New()
	tbl.Separator = " "
	for _, k := range keys {
		tbl.AddRow(color.CyanString(k+":"), attrs[k])
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}
