package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/cravetown/internal"
	"github.com/starford/cravetown/internal/commands"
)

// withBackend opens the backend with logs on stderr, so stdout only
// carries command output.
func withBackend(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.Backend) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := internal.Open(internal.WithConfig(cfg), internal.WithVersion(version), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b)
}

// invoke runs a registry command and prints its result.
func invoke(ctx context.Context, w io.Writer, b *internal.Backend, name string, args map[string]any) error {
	res, err := b.Registry.InvokeMap(ctx, name, args)
	if err != nil {
		return err
	}
	return printResult(w, res)
}

func printResult(w io.Writer, res any) error {
	switch v := res.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func requireArgs(cmd *cli.Command, names ...string) ([]string, error) {
	if cmd.Args().Len() != len(names) {
		return nil, fmt.Errorf("usage: %s %s", cmd.Name, strings.Join(names, " "))
	}
	return cmd.Args().Slice(), nil
}

// withDataDir prepends the resolved data directory to a directory command.
func withDataDir(ctx context.Context, b *internal.Backend, name string, args map[string]any) error {
	dataDir, err := b.Service.DataDir(ctx)
	if err != nil {
		return err
	}
	args["dataDir"] = dataDir
	return invoke(ctx, os.Stdout, b, name, args)
}

func commandsCmd() *cli.Command {
	return &cli.Command{
		Name:  "commands",
		Usage: "List invocable commands",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withBackend(ctx, cmd, func(_ context.Context, b *internal.Backend) error {
				for _, c := range b.Registry.Commands() {
					fmt.Printf("%-26s %s\n", c.Name, c.Description)
				}
				return nil
			})
		},
	}
}

func invokeCmd() *cli.Command {
	return &cli.Command{
		Name:      "invoke",
		Usage:     "Invoke a command with a JSON argument object",
		ArgsUsage: "<command> [json-args]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
				return fmt.Errorf("usage: invoke <command> [json-args]")
			}
			name, raw := cmd.Args().Get(0), cmd.Args().Get(1)
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				res, err := b.Registry.Invoke(ctx, name, json.RawMessage(raw))
				if err != nil {
					return err
				}
				return printResult(os.Stdout, res)
			})
		},
	}
}

func dataDirCmd() *cli.Command {
	return &cli.Command{
		Name:  "datadir",
		Usage: "Print the resolved data directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return invoke(ctx, os.Stdout, b, commands.GetDataDir, nil)
			})
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List versions on disk and in the manifest",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return invoke(ctx, os.Stdout, b, commands.ListVersions, nil)
			})
		},
	}
}

func createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a version directory with placeholder files",
		ArgsUsage: "<version-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "<version-id>")
			if err != nil {
				return err
			}
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return withDataDir(ctx, b, commands.CreateVersionDirectory, map[string]any{"versionId": args[0]})
			})
		},
	}
}

func cloneCmd() *cli.Command {
	return &cli.Command{
		Name:      "clone",
		Usage:     "Copy a version directory",
		ArgsUsage: "<source-id> <target-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "<source-id>", "<target-id>")
			if err != nil {
				return err
			}
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return withDataDir(ctx, b, commands.CloneVersionDirectory, map[string]any{
					"sourceId": args[0],
					"targetId": args[1],
				})
			})
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a version directory",
		ArgsUsage: "<version-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "<version-id>")
			if err != nil {
				return err
			}
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return withDataDir(ctx, b, commands.DeleteVersionDirectory, map[string]any{"versionId": args[0]})
			})
		},
	}
}

func readCmd() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Print the content of a file",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "<path>")
			if err != nil {
				return err
			}
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return invoke(ctx, os.Stdout, b, commands.ReadJSONFile, map[string]any{"filePath": args[0]})
			})
		},
	}
}

func writeCmd() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "Replace the content of a file with stdin",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "<path>")
			if err != nil {
				return err
			}
			content, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			return withBackend(ctx, cmd, func(ctx context.Context, b *internal.Backend) error {
				return invoke(ctx, os.Stdout, b, commands.WriteJSONFile, map[string]any{
					"filePath": args[0],
					"content":  string(content),
				})
			})
		},
	}
}
