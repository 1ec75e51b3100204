// Command ndview evaluates scene scripts from the command line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/ndview"
	"github.com/chazu/ndview/pkg/config"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/triangulate/backends"
)

// EnvConfig names the config file used when -config is not given.
const EnvConfig = "NDVIEW_CONFIG"

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  ndview [-config file] eval <file>                  Print meshes, camera and errors as JSON")
	fmt.Fprintln(os.Stderr, "  ndview [-config file] fit [-margin m] <file>       Print the fitted camera as JSON")
	fmt.Fprintln(os.Stderr, "  ndview [-config file] mask <file> <layer> <index>  Print a shape mask as 0/1 rows")
	fmt.Fprintln(os.Stderr, "  ndview backends                                    List triangulation backends")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	global := flag.NewFlagSet("ndview", flag.ContinueOnError)
	cfgPath := global.String("config", os.Getenv(EnvConfig), "YAML config file")
	global.Usage = usage
	if err := global.Parse(args); err != nil {
		return 2
	}
	args = global.Args()
	if len(args) == 0 {
		usage()
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	closer := logging.Init(cfg.Logging.Options())
	defer closer.Close()
	l := logging.WithComponent("cli")
	l.Debug("start", slog.String("command", args[0]), slog.String("config", *cfgPath))

	if args[0] == "backends" {
		return printJSON(out, backends.Available())
	}

	app, err := ndview.NewAppWithConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	switch args[0] {
	case "eval":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "eval requires <file>")
			usage()
			return 2
		}
		src, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		res := app.Evaluate(string(src))
		if code := printJSON(out, res); code != 0 {
			return code
		}
		if len(res.Errors) > 0 {
			return 1
		}
		return 0

	case "fit":
		fs := flag.NewFlagSet("fit", flag.ContinueOnError)
		margin := fs.Float64("margin", cfg.View.Margin, "fraction of the canvas left empty, in [0, 1)")
		if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "fit requires <file>")
			usage()
			return 2
		}
		src, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		cam, errs := app.Fit(string(src), *margin)
		if len(errs) > 0 {
			return printErrors(errs)
		}
		return printJSON(out, cam)

	case "mask":
		if len(args) != 4 {
			fmt.Fprintln(os.Stderr, "mask requires <file> <layer> <index>")
			usage()
			return 2
		}
		index, err := strconv.Atoi(args[3])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: index:", err)
			return 2
		}
		src, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		m, errs := app.Mask(string(src), args[2], index, nil)
		if len(errs) > 0 {
			return printErrors(errs)
		}
		if len(m.Shape) != 2 {
			return printJSON(out, m)
		}
		var sb strings.Builder
		for r := 0; r < m.Shape[0]; r++ {
			for c := 0; c < m.Shape[1]; c++ {
				if m.At(r, c) {
					sb.WriteByte('1')
				} else {
					sb.WriteByte('0')
				}
			}
			sb.WriteByte('\n')
		}
		fmt.Fprint(out, sb.String())
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		return 2
	}
}

func printJSON(out io.Writer, v any) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func printErrors(errs []ndview.EvalErrorData) int {
	for _, e := range errs {
		switch {
		case e.Line > 0:
			fmt.Fprintf(os.Stderr, "line %d: %s\n", e.Line, e.Message)
		case e.Layer != "":
			fmt.Fprintf(os.Stderr, "layer %q: %s\n", e.Layer, e.Message)
		default:
			fmt.Fprintln(os.Stderr, e.Message)
		}
	}
	return 1
}
