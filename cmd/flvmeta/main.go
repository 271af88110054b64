package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aminofox/flvmeta/pkg/config"
	"github.com/aminofox/flvmeta/pkg/flv"
	"github.com/aminofox/flvmeta/pkg/inject"
	"github.com/aminofox/flvmeta/pkg/logger"
	"github.com/aminofox/flvmeta/pkg/storage"
)

// onceFlag is a string flag that rejects being set twice.
type onceFlag struct {
	name  string
	value string
	set   bool
}

func (f *onceFlag) String() string {
	return f.value
}

func (f *onceFlag) Set(v string) error {
	if f.set {
		return fmt.Errorf("option -%s specified more than once", f.name)
	}
	f.value = v
	f.set = true
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("flvmeta", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = printUsage

	inFlag := onceFlag{name: "i"}
	outFlag := onceFlag{name: "o"}
	fs.Var(&inFlag, "i", "The source FLV file")
	fs.Var(&outFlag, "o", "The resulting FLV file, '-' for stdout")
	creatorFlag := onceFlag{name: "c"}
	fs.Var(&creatorFlag, "c", "A string written into the creator tag")
	configFile := fs.String("f", "", "Path to a YAML config file")
	upload := fs.Bool("upload", false, "Archive the result through the configured storage backend")
	logLevel := fs.String("log-level", "", "Minimum log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "%v. -h for help.\n", err)
		}
		return 1
	}

	infile := inFlag.value
	outfile := outFlag.value

	if infile == "" || outfile == "" {
		fmt.Fprintln(os.Stderr, "Please provide an input file and an output file. -h for help.")
		return 1
	}

	if infile == outfile {
		fmt.Fprintln(os.Stderr, "Input file and output file must not be the same.")
		return 1
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Couldn't load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *upload {
		cfg.Archive.Enabled = true
	}
	if creatorFlag.value != "" {
		cfg.Creator = creatorFlag.value
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	if _, err := os.Stat(infile); err != nil {
		fmt.Fprintf(os.Stderr, "Couldn't stat on %s.\n", infile)
		return 1
	}

	data, err := os.ReadFile(infile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Couldn't open %s.\n", infile)
		return 1
	}

	injector, err := inject.New(data, inject.Options{Creator: cfg.Creator, Logger: log})
	if err != nil {
		fmt.Fprintln(os.Stderr, "The input file is not a FLV.")
		return 1
	}

	var out io.Writer
	toStdout := outfile == "-"
	if toStdout {
		out = os.Stdout
	} else {
		f, err := os.Create(outfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Couldn't open %s.\n", outfile)
			return 1
		}
		defer f.Close()
		out = f
	}

	written, err := injector.WriteTo(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Couldn't write %s: %v\n", outfile, err)
		return 1
	}

	sum := injector.Summary()
	log.Info("Metadata injected",
		logger.String("input", infile),
		logger.String("output", outfile),
		logger.Int64("bytes", written),
		logger.Float64("duration", sum.Duration),
		logger.Int("keyframes", sum.Keyframes),
	)

	if cfg.Archive.Enabled && !toStdout {
		if err := archive(cfg, infile, outfile, sum, log); err != nil {
			fmt.Fprintf(os.Stderr, "Couldn't archive %s: %v\n", outfile, err)
			return 1
		}
	}

	return 0
}

// archive re-reads the finished output and pushes it, with its sidecar
// record, through the configured storage backend.
func archive(cfg *config.Config, infile, outfile string, sum *flv.Summary, log logger.Logger) error {
	data, err := os.ReadFile(outfile)
	if err != nil {
		return err
	}

	st, err := storage.New(storageConfig(cfg), log)
	if err != nil {
		return err
	}
	defer st.Close()

	key := path.Join(cfg.Archive.KeyPrefix, path.Base(outfile))
	sidecar := storage.NewSidecar(infile, outfile, data, sum)

	return storage.Archive(context.Background(), st, key, cfg.Archive.ContentType, data, sidecar, log)
}

func storageConfig(cfg *config.Config) storage.Config {
	sc := storage.DefaultConfig()
	sc.Type = storage.StorageType(cfg.Storage.Type)
	if cfg.Storage.BasePath != "" {
		sc.BasePath = cfg.Storage.BasePath
	}
	sc.Endpoint = cfg.Storage.S3.Endpoint
	if cfg.Storage.S3.Region != "" {
		sc.Region = cfg.Storage.S3.Region
	}
	sc.Bucket = cfg.Storage.S3.Bucket
	sc.AccessKeyID = cfg.Storage.S3.AccessKeyID
	sc.SecretAccessKey = cfg.Storage.S3.SecretAccessKey
	sc.UseSSL = cfg.Storage.S3.UseSSL
	if cfg.Storage.S3.MaxRetries > 0 {
		sc.MaxRetries = cfg.Storage.S3.MaxRetries
	}
	if cfg.Storage.S3.RetryDelay > 0 {
		sc.RetryDelay = cfg.Storage.S3.RetryDelay
	}
	return sc
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "NAME")
	fmt.Fprintln(os.Stderr, "\tflvmeta -- metadata injector for FLV")
	fmt.Fprintf(os.Stderr, "\tVersion: %s\n", inject.Version)
	fmt.Fprintln(os.Stderr, "")

	fmt.Fprintln(os.Stderr, "SYNOPSIS")
	fmt.Fprintln(os.Stderr, "\tflvmeta -i input file -o output file [-c creator] [-f config] [-upload] [-h]")
	fmt.Fprintln(os.Stderr, "")

	fmt.Fprintln(os.Stderr, "DESCRIPTION")
	fmt.Fprintln(os.Stderr, "\tflvmeta is a metadata injector for FLV files.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\tOptions:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\t-i\tThe source FLV file.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\t-o\tThe resulting FLV file with the metatags. If the")
	fmt.Fprintln(os.Stderr, "\t\toutput file is '-' the FLV file will be written to")
	fmt.Fprintln(os.Stderr, "\t\tstdout.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\t-c\tA string that will be written into the creator tag.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\t-f\tA YAML config file with defaults and archive settings.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\t-upload\tArchive the result through the configured storage backend.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "\t-h\tThis description.")
	fmt.Fprintln(os.Stderr, "")
}
