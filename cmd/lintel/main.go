// Command lintel turns the building elements of an IFC file into triangle
// meshes and property records.
//
//	lintel summary [flags] model.ifc
//	lintel export  [flags] -format csv|xlsx|sqlite|pdf|stl|dxf|json -o out model.ifc
//	lintel serve   [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/chazu/lintel/pkg/app"
	"github.com/chazu/lintel/pkg/config"
	"github.com/chazu/lintel/pkg/export"
	"github.com/chazu/lintel/pkg/ifc"
	"github.com/chazu/lintel/pkg/server"
	"github.com/chazu/lintel/pkg/tessellate"
)

const usage = `usage:
  lintel summary [flags] model.ifc
  lintel export  [flags] -format FORMAT -o OUT model.ifc
  lintel serve   [flags]

Run "lintel COMMAND -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Printf("[LINTEL] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "summary":
		return runSummary(ctx, rest, stdout)
	case "export":
		return runExport(ctx, rest, stdout)
	case "serve":
		return runServe(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

// common holds the flags every command takes.
type common struct {
	config      string
	engine      string
	workers     int
	maxElements int
	where       string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML or TOML configuration `file`")
	fs.StringVar(&c.engine, "engine", "", "boolean kernel: csg, sdfx or manifold")
	fs.IntVar(&c.workers, "workers", 0, "tessellation workers (default: number of CPUs)")
	fs.IntVar(&c.maxElements, "max-elements", 0, "process at most `n` elements")
	fs.StringVar(&c.where, "where", "", "element filter `expression`, e.g. '(is-a \"IfcWall\")'")
}

// load reads the configuration and applies flags over it.
func (c *common) load() (*app.App, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}
	if c.engine != "" {
		cfg.Engine = c.engine
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	if c.maxElements > 0 {
		cfg.MaxElements = c.maxElements
	}
	if c.where != "" {
		cfg.Filter = c.where
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func process(ctx context.Context, c *common, path string) (*app.App, *app.Result, error) {
	a, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	m, err := ifc.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[LINTEL] %s: %d instances, schema %s", path, m.Len(), m.Schema)
	res, err := a.Process(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	return a, res, nil
}

func runSummary(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	var c common
	c.register(fs)
	verbose := fs.Bool("v", false, "list every warning")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("summary: want one IFC file, got %d arguments", fs.NArg())
	}

	_, res, err := process(ctx, &c, fs.Arg(0))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TYPE\tELEMENTS\tSOLIDS\tOPENINGS\tBOOLEAN\tSKIPPED\tMESHED\t")
	for _, s := range res.Summary {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			s.Type, s.Elements, s.Solids, s.Openings, s.Boolean, s.Skipped, meshedCount(res, s.Type))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\n%d elements, %d warnings\n", len(res.Records), len(res.Warnings))
	if *verbose {
		for _, w := range res.Warnings {
			fmt.Fprintf(stdout, "  %s\n", w)
		}
	}
	return nil
}

func meshedCount(res *app.Result, elementType string) int {
	return lo.CountBy(res.Elements, func(em tessellate.ElementMesh) bool {
		return em.Element.ElementType == elementType && em.Produced()
	})
}

func runExport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var c common
	c.register(fs)
	format := fs.String("format", "", "output format: "+strings.Join(formatNames(), ", ")+" (default: from -o extension)")
	out := fs.String("o", "", "output `file`")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("export: want one IFC file, got %d arguments", fs.NArg())
	}
	if *out == "" {
		return errors.New("export: -o is required")
	}
	name := *format
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(*out), ".")
	}
	f, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	a, res, err := process(ctx, &c, fs.Arg(0))
	if err != nil {
		return err
	}
	opts := export.Options{
		Title:   filepath.Base(fs.Arg(0)),
		Summary: res.Summary,
		Color:   a.Color,
	}
	if err := export.Write(ctx, *out, f, res.Records, opts); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d elements to %s (%s), %d warnings\n", len(res.Records), *out, f, len(res.Warnings))
	return nil
}

func formatNames() []string {
	return lo.Map(export.Formats(), func(f export.Format, _ int) string { return string(f) })
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var c common
	c.register(fs)
	port := fs.String("port", "", "listen port (default from config or LINTEL_PORT)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := c.load()
	if err != nil {
		return err
	}
	if *port != "" {
		a.Config().Server.Port = *port
	}

	srv := server.New(a)
	go func() {
		<-ctx.Done()
		log.Printf("[LINTEL] shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("[LINTEL] shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", a.Config().Server.Port)
	log.Printf("[LINTEL] listening on %s (engine %s)", addr, a.Kernel().Name())
	return srv.Listen(addr)
}
