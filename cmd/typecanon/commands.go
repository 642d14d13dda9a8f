package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/i5heu/typecanon"
	"github.com/i5heu/typecanon/internal/config"
	"github.com/i5heu/typecanon/internal/deffile"
	"github.com/i5heu/typecanon/pkg/logging"
	"github.com/i5heu/typecanon/pkg/metrics"
	"github.com/i5heu/typecanon/pkg/repository"
)

var version = "dev"

type canonFlags struct {
	configPath string
	stats      bool
	check      bool
	metrics    bool
	signatures bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "typecanon",
		Short:         "Canonicalize recursive structural type definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCanonCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newCanonCmd() *cobra.Command {
	var f canonFlags
	cmd := &cobra.Command{
		Use:   "canon [definitions.yaml]",
		Short: "Assign canonical ids to the definitions of a YAML file",
		Long: `Reads named definitions, splits them into strongly connected components
and prints one "name id" line per definition. Definitions describing the
same infinite type tree share an id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanon(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML config file")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "print the statistics snapshot")
	cmd.Flags().BoolVar(&f.check, "check", false, "validate after every insertion")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "print metrics in Prometheus text format")
	cmd.Flags().BoolVar(&f.signatures, "signatures", false, "print the fingerprint and structural key of every id")
	return cmd
}

func runCanon(stdout, stderr io.Writer, path string, f canonFlags) error { // A
	conf := config.Default()
	if f.configPath != "" {
		var err error
		conf, err = config.Load(f.configPath)
		if err != nil {
			return err
		}
	}
	if f.check {
		conf.Check = true
	}

	g, err := deffile.Load(path)
	if err != nil {
		return err
	}

	log := logging.NewWriter(stderr, logging.ParseLevel(conf.LogLevel), conf.NoColor)
	reg := prometheus.NewRegistry()
	c := typecanon.New(typecanon.Config{
		Logger:       log,
		ProbeLimit:   conf.ProbeLimit,
		DisableProbe: conf.DisableProbe,
		Check:        conf.Check,
		CheckWorkers: conf.ValidateWorkers,
		Observer:     metrics.New(reg),
	})

	ids, err := c.AddGraph(g.Labels, g.Succs)
	if err != nil {
		return err
	}
	for i, name := range g.Names {
		if f.signatures {
			sig, err := c.Signature(ids[i])
			if err != nil {
				return err
			}
			fp, err := c.Fingerprint(ids[i])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s %d %016x %s\n", name, ids[i], fp, sig)
			continue
		}
		fmt.Fprintf(stdout, "%s %d\n", name, ids[i])
	}

	if f.stats {
		rep := report{Stats: c.Stats()}
		if rss, err := residentBytes(); err != nil {
			log.Warn("resident memory unavailable", "error", err)
		} else {
			rep.ResidentBytes = rss
		}
		out, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		fmt.Fprintf(stdout, "---\n%s", out)
	}

	if f.metrics {
		families, err := reg.Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(stdout, mf); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
	}
	return nil
}

type report struct {
	repository.Stats `yaml:",inline"`
	ResidentBytes    uint64 `yaml:"residentBytes,omitempty"`
}

func residentBytes() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, fmt.Errorf("open process: %w", err)
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("memory info: %w", err)
	}
	return mi.RSS, nil
}
