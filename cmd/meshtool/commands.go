package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Faultbox/meshscope/internal/config"
	"github.com/Faultbox/meshscope/internal/geometry"
	"github.com/Faultbox/meshscope/internal/logger"
	"github.com/Faultbox/meshscope/internal/preview"
	"github.com/Faultbox/meshscope/internal/viewer"
	"github.com/Faultbox/meshscope/internal/watch"
	"github.com/Faultbox/meshscope/pkg/formats"
)

// command bundles the flags every subcommand shares.
type command struct {
	fs     *flag.FlagSet
	flags  *config.Flags
	mesh   *int
	subset *int
	cfg    *config.Config
}

func newCommand(name string, selection bool) *command {
	c := &command{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.flags = config.RegisterFlags(c.fs)
	if selection {
		c.mesh = c.fs.Int("mesh", 0, "Mesh index")
		c.subset = c.fs.Int("subset", 0, "Subset index")
	}
	return c
}

// parse reads flags, loads the configuration and sets up logging. It
// returns the container path.
func (c *command) parse(args []string) (string, error) {
	if err := c.fs.Parse(args); err != nil {
		return "", err
	}
	if c.fs.NArg() < 1 {
		return "", fmt.Errorf("usage: meshtool %s [options] <file>", c.fs.Name())
	}

	cfg, err := config.Load(c.flags)
	if err != nil {
		return "", err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return "", err
	}
	c.cfg = cfg
	return c.fs.Arg(0), nil
}

// session loads path and selects the requested subset.
func (c *command) session(path string) (*viewer.Session, error) {
	s := viewer.NewSession(c.cfg.Geometry.Options(), logger.Named("viewer"))
	if err := s.Load(path); err != nil {
		return nil, err
	}
	if err := s.Select(*c.mesh, *c.subset); err != nil {
		return nil, err
	}
	if s.Subset() == nil {
		return nil, fmt.Errorf("no subset %d in mesh %d (%d meshes loaded)", *c.subset, *c.mesh, len(s.Meshes()))
	}
	return s, nil
}

func cmdInfo(args []string, out io.Writer) error {
	c := newCommand("info", false)
	path, err := c.parse(args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", formats.ErrIO, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", formats.ErrIO, err)
	}
	trailer, err := formats.ReadTrailer(f, stat.Size())
	f.Close()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Container: %s\n", path)
	fmt.Fprintf(out, "Size:      %d bytes\n", stat.Size())
	fmt.Fprintf(out, "Magic:     %d\n", trailer.Magic)
	fmt.Fprintf(out, "Version:   %d\n", trailer.Version)
	fmt.Fprintf(out, "Entries:   %d\n", len(trailer.Entries))
	if !trailer.IsValid() {
		fmt.Fprintln(out, "Trailer is not a supported container")
		return nil
	}

	meshes, err := formats.LoadContainer(path, formats.WithLogger(logger.Named("formats")))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Meshes:    %d decoded\n\n", len(meshes))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MESH\tVERTICES\tSTRIDE\tATTRS\tINDICES\tINDEX TYPE\tSUBSETS\tJOINTS\tDRAW\tWINDING")
	for i, m := range meshes {
		indexCount := 0
		if size := m.IndexBuffer.ComponentType.Size(); size > 0 {
			indexCount = len(m.IndexBuffer.Data) / size
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%s\t%d\t%d\t%s\t%s\n",
			i, m.VertexBuffer.VertexCount(), m.VertexBuffer.Stride, len(m.VertexBuffer.Attributes),
			indexCount, m.IndexBuffer.ComponentType, len(m.Subsets()), len(m.Joints),
			m.DrawMode, m.WindingMode)
	}
	return w.Flush()
}

func cmdSubsets(args []string, out io.Writer) error {
	c := newCommand("subsets", false)
	path, err := c.parse(args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	meshes, err := formats.LoadContainer(path, formats.WithLogger(logger.Named("formats")))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MESH\tSUBSET\tNAME\tCOUNT\tMIN\tMAX\tFIELDS")
	for mi, m := range meshes {
		for si, s := range m.Subsets() {
			b := s.Bounds()
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\t%s\n",
				mi, si, s.Name(), s.Count(),
				formatVec(b.Min[:]), formatVec(b.Max[:]),
				fieldNames(s.Fields()))
		}
	}
	return w.Flush()
}

func cmdDump(args []string, out io.Writer) error {
	c := newCommand("dump", true)
	limit := c.fs.Int("n", 0, "Limit output to N vertices (0 = all)")
	path, err := c.parse(args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := c.session(path)
	if err != nil {
		return err
	}
	subset := s.Subset()
	fields := subset.Fields()

	fmt.Fprintf(out, "Subset: %s (%d vertices, %s, %s)\n\n",
		subset.Name(), subset.Count(), subset.DrawMode(), subset.WindingMode())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"#"}
	for _, f := range fields {
		header = append(header, f.Name)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	count := subset.Count()
	if *limit > 0 && *limit < count {
		count = *limit
	}
	for v := 0; v < count; v++ {
		row := []string{fmt.Sprint(v)}
		for _, f := range fields {
			row = append(row, subset.FormatValue(f, v))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func cmdGeometry(args []string, out io.Writer) error {
	c := newCommand("geometry", true)
	path, err := c.parse(args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := c.session(path)
	if err != nil {
		return err
	}
	printGeometry(out, s.Subset().Name(), s.Geometry())
	return nil
}

func printGeometry(out io.Writer, name string, bufs *geometry.Buffers) {
	fmt.Fprintf(out, "Subset: %s\n\n", name)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OUTPUT\tPRIMITIVE\tVERTICES\tINDICES\tSTRIDE\tATTRIBUTES")
	names := []string{"original", "wireframe", "normals", "tangents", "binormals"}
	for i, g := range bufs.All() {
		if g == nil {
			fmt.Fprintf(w, "%s\t-\t0\t0\t0\t\n", names[i])
			continue
		}
		var attrs []string
		for _, a := range g.Attributes {
			if a.Semantic == geometry.SemanticTexCoord {
				attrs = append(attrs, fmt.Sprintf("%s%d", a.Semantic, a.Channel))
				continue
			}
			attrs = append(attrs, a.Semantic.String())
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			names[i], g.Primitive, g.VertexCount, g.IndexCount, g.Stride, strings.Join(attrs, ","))
	}
	w.Flush()
}

func cmdPreview(args []string, out io.Writer) error {
	c := newCommand("preview", true)
	output := c.fs.String("o", "preview.png", "Output image (.png or .webp)")
	path, err := c.parse(args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := c.session(path)
	if err != nil {
		return err
	}
	if err := renderPreview(c.cfg, s, *output); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", *output)
	return nil
}

func renderPreview(cfg *config.Config, s *viewer.Session, output string) error {
	opts, err := preview.FromConfig(cfg.Preview)
	if err != nil {
		return err
	}
	img, err := preview.Render(s.Geometry(), opts)
	if err != nil {
		return err
	}
	return preview.WriteFile(output, img)
}

func cmdWatch(args []string, out io.Writer) error {
	c := newCommand("watch", true)
	output := c.fs.String("o", "", "Re-render a preview image on every change")
	path, err := c.parse(args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := c.session(path)
	if err != nil {
		return err
	}
	w, err := watch.New(path, c.cfg.Watch.Debounce, logger.Named("watch"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	refresh := func() {
		name := "(none)"
		if sub := s.Subset(); sub != nil {
			name = sub.Name()
		}
		printGeometry(out, name, s.Geometry())
		if *output == "" {
			return
		}
		if err := renderPreview(c.cfg, s, *output); err != nil && !errors.Is(err, preview.ErrNothingToDraw) {
			logger.Warn("preview failed", zap.Error(err))
		}
	}
	refresh()

	logger.Info("watching", zap.String("path", w.Path()))
	return w.Run(ctx, func() {
		if err := s.Reload(); err != nil {
			logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		refresh()
	})
}

// cmdConfig prints the effective configuration (defaults, then the config
// file, then flags) or writes it out as YAML.
func cmdConfig(args []string, out io.Writer) error {
	c := newCommand("config", false)
	output := c.fs.String("o", "", "Write the configuration to this path")
	save := c.fs.Bool("save", false, "Write the configuration to the user config directory")
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(c.flags)
	if err != nil {
		return err
	}

	switch {
	case *output != "":
		if err := cfg.SaveTo(*output); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", *output)
	case *save:
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", config.DefaultPath())
	default:
		return cfg.Write(out)
	}
	return nil
}

func fieldNames(fields []formats.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ",")
}

func formatVec(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
