// udm - UDM document and schema CLI tool
//
// Usage:
//
//	udm fmt [--compact] [--no-header] [file]   Reformat a UDM document
//	udm check [file]                           Parse and report errors
//	udm paths [--attributes] [file]            List every resolvable path
//	udm get <path> [--raw] [file]              Resolve a path and print it
//	udm schema to-avro [--validate] [file]     Convert a USDL schema to Avro JSON
//	udm schema from-avro [--validate] [file]   Convert an Avro JSON schema to USDL
//	udm version                                Print version info
//
// If no file is given, commands read from stdin.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"github.com/utlx-lang/udm/udm"
	"github.com/utlx-lang/udm/usdl"
)

const (
	libVersion  = "0.3.0"
	specVersion = "1.0"
)

func main() {
	app := &cli.App{
		Name:  "udm",
		Usage: "work with UDM documents and USDL schemas",
		Commands: []*cli.Command{
			{
				Name:      "fmt",
				Usage:     "reformat a UDM document",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "compact", Usage: "emit single-line output"},
					&cli.BoolFlag{Name: "no-header", Usage: "omit the @udm-version header"},
				},
				Action: cmdFmt,
			},
			{
				Name:      "check",
				Usage:     "parse a document and report errors",
				ArgsUsage: "[file]",
				Action:    cmdCheck,
			},
			{
				Name:      "paths",
				Usage:     "list every resolvable path in a document",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "attributes", Usage: "include @attribute paths"},
				},
				Action: cmdPaths,
			},
			{
				Name:      "get",
				Usage:     "resolve a path against a document",
				ArgsUsage: "<path> [file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "raw", Usage: "dump the resolved value structure"},
				},
				Action: cmdGet,
			},
			{
				Name:  "schema",
				Usage: "convert between USDL and Avro schemas",
				Subcommands: []*cli.Command{
					{
						Name:      "to-avro",
						Usage:     "convert a USDL schema document to Avro JSON",
						ArgsUsage: "[file]",
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "validate", Usage: "reject incomplete schemas"}},
						Action:    cmdToAvro,
					},
					{
						Name:      "from-avro",
						Usage:     "convert an Avro JSON schema to a USDL document",
						ArgsUsage: "[file]",
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "validate", Usage: "reject malformed schemas"}},
						Action:    cmdFromAvro,
					},
				},
			},
			{
				Name:  "version",
				Usage: "print version info",
				Action: func(*cli.Context) error {
					fmt.Printf("udm %s (language %s)\n", libVersion, specVersion)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "udm: %v\n", err)
		os.Exit(1)
	}
}

// readInput returns the contents of the argument at index i, or stdin
// when the argument is missing or "-".
func readInput(ctx *cli.Context, i int) ([]byte, error) {
	name := ctx.Args().Get(i)
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func parseInput(ctx *cli.Context, i int) (*udm.Value, error) {
	raw, err := readInput(ctx, i)
	if err != nil {
		return nil, err
	}
	return udm.Parse(string(raw))
}

func cmdFmt(ctx *cli.Context) error {
	root, err := parseInput(ctx, 0)
	if err != nil {
		return err
	}
	opts := udm.PrettyOptions()
	if ctx.Bool("compact") {
		opts = udm.DefaultOptions()
	}
	opts.Header = !ctx.Bool("no-header")
	fmt.Println(udm.SerializeWithOptions(root, opts))
	return nil
}

func cmdCheck(ctx *cli.Context) error {
	if _, err := parseInput(ctx, 0); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func cmdPaths(ctx *cli.Context) error {
	root, err := parseInput(ctx, 0)
	if err != nil {
		return err
	}
	for _, p := range udm.GetAllPaths(root, ctx.Bool("attributes")) {
		fmt.Println(p)
	}
	return nil
}

func cmdGet(ctx *cli.Context) error {
	path := ctx.Args().Get(0)
	if path == "" {
		return fmt.Errorf("get: missing path argument")
	}
	root, err := parseInput(ctx, 1)
	if err != nil {
		return err
	}
	v, err := udm.Resolve(root, path)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("path %q not found", path)
	}
	if ctx.Bool("raw") {
		spew.Dump(v)
		return nil
	}
	if s, ok := udm.GetScalarValue(root, path); ok {
		fmt.Println(s)
		return nil
	}
	fmt.Println(udm.SerializeWithOptions(v, udm.Options{Pretty: true}))
	return nil
}

func cmdToAvro(ctx *cli.Context) error {
	root, err := parseInput(ctx, 0)
	if err != nil {
		return err
	}
	avro, err := usdl.ToAvro(root, usdl.BridgeOptions{Validate: ctx.Bool("validate")})
	if err != nil {
		return err
	}
	out, err := usdl.ToJSON(avro)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdFromAvro(ctx *cli.Context) error {
	raw, err := readInput(ctx, 0)
	if err != nil {
		return err
	}
	avro, err := usdl.FromJSON(raw)
	if err != nil {
		return err
	}
	schema, err := usdl.FromAvro(avro, usdl.BridgeOptions{Validate: ctx.Bool("validate")})
	if err != nil {
		return err
	}
	fmt.Println(udm.Serialize(schema))
	return nil
}
