package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reoring/fusion"
	"github.com/reoring/fusion/internal/config"
	"github.com/reoring/fusion/internal/logging"
	"github.com/reoring/fusion/schemadef"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch sub := os.Args[1]; sub {
	case "canon":
		err = canonCmd(os.Args[2:], os.Stdin, os.Stdout)
	case "check":
		err = checkCmd(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("fusion %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "fusion CLI\n\nUsage:\n  fusion canon [-config f.yaml] [-schema a.yaml,b.json] [-type T] [-strip] [-indent s] [file]\n  fusion check [-config f.yaml] schema.yaml...\n\nNotes:\n  - canon reads every JSON value of the input and writes each in canonical form on its own line.\n  - Configuration may also come from FUSION_ environment variables.")
}

// setup loads configuration and installs the package logger.
func setup(cfgPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	fusion.SetLogger(logger)
	return cfg, logger, nil
}

func readOptions(cfg *config.Config, strip bool) []fusion.ReadOption {
	opts := []fusion.ReadOption{fusion.WithMaxDepth(cfg.Reader.MaxDepth)}
	if strip || cfg.Reader.Unknown == "strip" {
		opts = append(opts, fusion.WithUnknown(fusion.UnknownStrip))
	}
	switch cfg.Reader.Duplicates {
	case "warn":
		opts = append(opts, fusion.WithDuplicateKeys(fusion.DupWarn))
	case "ignore":
		opts = append(opts, fusion.WithDuplicateKeys(fusion.DupIgnore))
	}
	return opts
}

func canonCmd(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	var cfgPath, schemasCSV, typeName, indent string
	var strip bool
	fs.StringVar(&cfgPath, "config", "", "configuration file")
	fs.StringVar(&schemasCSV, "schema", "", "comma-separated schema documents to register")
	fs.StringVar(&typeName, "type", "", "qualified type of every input value, e.g. OBJECT.person or LIST.DATE")
	fs.BoolVar(&strip, "strip", false, "drop object fields unknown to the schema")
	fs.StringVar(&indent, "indent", "", "indent output (not canonical)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := setup(cfgPath)
	if err != nil {
		return err
	}
	files := append(cfg.Schemas.Files, splitCSV(schemasCSV)...)
	if _, err := schemadef.LoadAndRegister(files...); err != nil {
		return err
	}

	d := fusion.AnyDomain
	if typeName != "" {
		if d, err = fusion.ParseDomain(typeName, ""); err != nil {
			return err
		}
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()
	var wopts []fusion.WriteOption
	if indent != "" {
		wopts = append(wopts, fusion.Indent(indent))
	}
	w := fusion.NewWriter(out, wopts...)
	r := fusion.NewReader(bufio.NewReader(in), readOptions(cfg, strip)...)
	n := 0
	for r.More() {
		v, err := r.Read(d)
		if err != nil {
			return fmt.Errorf("value %d: %w", n+1, err)
		}
		if err := w.Write(v); err != nil {
			return err
		}
		if _, err := out.WriteString("\n"); err != nil {
			return err
		}
		n++
	}
	logger.Debug("canonicalized", slog.Int("values", n))
	return nil
}

func checkCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no schema documents given")
	}
	if _, _, err := setup(cfgPath); err != nil {
		return err
	}
	types, err := schemadef.LoadAndRegister(fs.Args()...)
	if err != nil {
		return err
	}
	for _, t := range types {
		fields := make([]string, 0, t.Schema().Len())
		for _, f := range t.Schema().Fields() {
			desc := f.Name() + " " + f.Domain().String()
			if f.Flags() != 0 {
				desc += " " + f.Flags().String()
			}
			fields = append(fields, desc)
		}
		fmt.Fprintf(stdout, "%s(%s)\n", t.Name(), strings.Join(fields, ", "))
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
