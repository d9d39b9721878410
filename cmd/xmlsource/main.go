package main

import (
	"io"
	"net/http"
	"os"

	"github.com/illuscio-dev/xmlsource-go/config"
	"github.com/illuscio-dev/xmlsource-go/encoding"
	"github.com/illuscio-dev/xmlsource-go/metrics"
	"github.com/illuscio-dev/xmlsource-go/mimetype"
	"github.com/illuscio-dev/xmlsource-go/source"
	"github.com/illuscio-dev/xmlsource-go/sourceerrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

type cli struct {
	cfg       *config.Config
	log       *logrus.Logger
	collector *metrics.Collector

	configPath  string
	target      string
	format      string
	contentType string
	indent      int
	dumpMetrics bool
}

func (c *cli) initConfig(cmd *cobra.Command, args []string) error {
	c.cfg = config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = loaded
	}
	if cmd.Flags().Changed("indent") {
		c.cfg.Indent = c.indent
	}

	c.log = c.cfg.Logger()
	c.log.SetOutput(cmd.ErrOrStderr())
	c.collector = metrics.NewCollector()
	return nil
}

// receiverFor returns a pointer for the engine to decode target into.
func receiverFor(target source.Target) interface{} {
	switch target {
	case source.TargetStream:
		return new(*source.StreamSource)
	case source.TargetSAX, source.TargetEvents:
		return new(*source.EventSource)
	case source.TargetTree:
		return new(*source.TreeSource)
	}
	return new(source.Source)
}

// convert reads a document from the file named in args, or stdin, turns it into the
// requested representation and writes that back out.
func (c *cli) convert(cmd *cobra.Command, args []string) (err error) {
	target, ok := source.ParseTarget(c.target)
	if !ok {
		return xerrors.New("unknown target '" + c.target + "'")
	}

	var input io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return xerrors.Errorf("error opening input: %w", err)
		}
		defer file.Close()
		input = file
	}

	defer func() {
		if err != nil {
			c.report(cmd, err)
		}
		if c.dumpMetrics {
			if dumpErr := c.writeMetrics(cmd.ErrOrStderr()); err == nil {
				err = dumpErr
			}
		}
	}()

	converter := c.cfg.Converter(c.log).WithRecorder(c.collector)
	engine := c.cfg.Engine(converter)

	mimeType := mimetype.FromString(c.contentType)
	hints := encoding.Hints{PreferredFormat: source.ParseFormat(c.format)}

	receiver := receiverFor(target)
	if err := engine.Decode(mimeType, receiver, input, hints); err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"target":       target.String(),
		"content_type": string(mimeType),
	}).Info("read document")

	return engine.Encode(mimeType, receiver, cmd.OutOrStdout())
}

// report logs the details of a failed conversion and writes its error headers to
// stderr, in the form a service would answer with.
func (c *cli) report(cmd *cobra.Command, err error) {
	var sourceErr *sourceerrors.SourceError
	if !xerrors.As(err, &sourceErr) {
		return
	}

	c.log.WithField("http_code", sourceErr.HttpCode()).Debug(sourceErr.LogMessage())

	header := make(http.Header)
	if headerErr := sourceErr.ToHeader(header); headerErr != nil {
		c.log.WithError(headerErr).Warn("could not write error headers")
		return
	}
	if writeErr := header.Write(cmd.ErrOrStderr()); writeErr != nil {
		c.log.WithError(writeErr).Warn("could not write error headers")
	}
}

// writeMetrics dumps the conversion counters in the prometheus text format.
func (c *cli) writeMetrics(writer io.Writer) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c.collector); err != nil {
		return xerrors.Errorf("error registering metrics: %w", err)
	}

	families, err := registry.Gather()
	if err != nil {
		return xerrors.Errorf("error gathering metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(writer, family); err != nil {
			return xerrors.Errorf("error writing metrics: %w", err)
		}
	}
	return nil
}

func newCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "xmlsource",
		Short:        "Convert xml documents between source representations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(
		&c.configPath, "config", "", "path to a yaml config file",
	)

	convert := &cobra.Command{
		Use:     "convert [file]",
		Short:   "Read a document into a representation and write it back out",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: c.initConfig,
		RunE:    c.convert,
	}
	convert.Flags().StringVar(
		&c.target, "target", source.TargetSource.String(),
		"representation to read into: source, stream, sax, events or tree",
	)
	convert.Flags().StringVar(
		&c.format, "format", "",
		"preferred format for the source target: sax or dom, defaults to the config",
	)
	convert.Flags().StringVar(
		&c.contentType, "content-type", string(mimetype.XML), "mimetype of the input",
	)
	convert.Flags().IntVar(
		&c.indent, "indent", 0, "spaces to indent tree output by",
	)
	convert.Flags().BoolVar(
		&c.dumpMetrics, "metrics", false, "write conversion metrics to stderr when done",
	)

	root.AddCommand(convert)
	return root
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
