package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/convert"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/markdown"
)

// The conversion commands work offline: they read a file (or stdin when the
// argument is missing or "-") and write to stdout.

func readInput(cmd *cli.Command) ([]byte, error) {
	name := cmd.Args().First()
	if name == "" || name == "-" {
		return io.ReadAll(cmd.Root().Reader)
	}
	return os.ReadFile(name)
}

func codecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "variable-pattern",
			Usage: "Regular expression for variable names",
		},
		&cli.StringFlag{
			Name:  "storage-host-pattern",
			Usage: "Regular expression matching attachment storage URLs",
		},
	}
}

func codecFrom(cmd *cli.Command) (*markdown.Codec, error) {
	return markdown.New(markdown.Options{
		VariablePattern:    cmd.String("variable-pattern"),
		StorageHostPattern: cmd.String("storage-host-pattern"),
	})
}

// loadCatalog reads a YAML list of variables. An empty path yields a
// catalog that resolves every name to itself.
func loadCatalog(path string) (catalog.Catalog, error) {
	if path == "" {
		return catalog.Passthrough{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var vars []catalog.Variable
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return catalog.FromSlice(vars), nil
}

func decodeText(cmd *cli.Command) (*document.Node, error) {
	codec, err := codecFrom(cmd)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cmd.String("catalog"))
	if err != nil {
		return nil, err
	}
	data, err := readInput(cmd)
	if err != nil {
		return nil, err
	}
	return convert.Decode(codec, string(data), cat, document.NewSequence("cli"))
}

func decodeFlags() []cli.Flag {
	return append(codecFlags(), &cli.StringFlag{
		Name:  "catalog",
		Usage: "YAML file listing variables (api_name, title, subtitle)",
	})
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Render a JSON node tree as wire text",
		ArgsUsage: "[file]",
		Flags:     codecFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			codec, err := codecFrom(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			records, err := document.UnmarshalRecords(data)
			if err != nil {
				return err
			}
			root, err := convert.Assemble(records, document.NewSequence("cli"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, convert.EncodeCurrentState(root, codec))
			return err
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Parse wire text into a JSON node tree",
		ArgsUsage: "[file]",
		Flags:     decodeFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			root, err := decodeText(cmd)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(document.Serialize(root))
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the node tree of wire text",
		ArgsUsage: "[file]",
		Flags:     decodeFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			root, err := decodeText(cmd)
			if err != nil {
				return err
			}
			return renderTree(cmd.Root().Writer, document.Serialize(root))
		},
	}
}

func canonicalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "canonicalize",
		Usage:     "Rewrite legacy tokens in wire text",
		ArgsUsage: "[file]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.Root().Writer, markdown.Canonicalize(string(data)))
			return err
		},
	}
}
