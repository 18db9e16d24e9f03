package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/gitbuildnumber/internal/buildnumber"
	"github.com/dantte-lp/gitbuildnumber/internal/config"
	"github.com/dantte-lp/gitbuildnumber/internal/gitrepo"
	"github.com/dantte-lp/gitbuildnumber/internal/jsexpr"
	bnmetrics "github.com/dantte-lp/gitbuildnumber/internal/metrics"
)

// defaultJobs is the default number of modules resolved concurrently.
const defaultJobs = 4

// errInvalidJobs is returned when --jobs is below 1.
var errInvalidJobs = errors.New("--jobs must be >= 1")

// resolveOptions are the resolve flags that are not part of config.Config.
type resolveOptions struct {
	format string
	jobs   int
}

// resolveFlagTargets maps resolve flags onto config fields.
func resolveFlagTargets(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"expression":             &cfg.Buildnumber.Expression,
		"metrics-textfile":       &cfg.Metrics.Textfile,
		"revision-property":      &cfg.Properties.Revision,
		"branch-property":        &cfg.Properties.Branch,
		"tag-property":           &cfg.Properties.Tag,
		"commits-count-property": &cfg.Properties.CommitsCount,
		"buildnumber-property":   &cfg.Properties.Buildnumber,
	}
}

func resolveCmd() *cobra.Command {
	opts := resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [dir...]",
		Short: "Resolve build properties for one or more module directories",
		Long: "Each directory is treated as one build module. The repository is read once, " +
			"by the first module to resolve; the remaining modules reuse the cached values. " +
			"Without arguments, repository.directory from the configuration is used.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			for name, target := range resolveFlagTargets(cfg) {
				if flags.Changed(name) {
					v, err := flags.GetString(name)
					if err != nil {
						return fmt.Errorf("read --%s: %w", name, err)
					}
					*target = v
				}
			}

			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("validate flags: %w", err)
			}

			dirs := args
			if len(dirs) == 0 {
				dirs = []string{cfg.Repository.Directory}
			}

			return runResolve(cfg, dirs, opts, gitrepo.Extractor{}, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.String("expression", "",
		"JavaScript expression for the composite buildnumber (tag, branch, revision, shortRevision, commitsCount)")
	flags.String("metrics-textfile", "",
		"write Prometheus metrics to this file after resolving")
	flags.String("revision-property", "", "revision property name (default git.revision)")
	flags.String("branch-property", "", "branch property name (default git.branch)")
	flags.String("tag-property", "", "tag property name (default git.tag)")
	flags.String("commits-count-property", "", "commits count property name (default git.commitsCount)")
	flags.String("buildnumber-property", "", "buildnumber property name (default git.buildnumber)")
	flags.StringVar(&opts.format, "format", formatProperties, "output format: properties, json, yaml")
	flags.IntVar(&opts.jobs, "jobs", defaultJobs, "number of modules resolved concurrently")

	return cmd
}

// runResolve resolves every directory through one Coordinator and writes the
// results to stdout in argument order.
func runResolve(
	cfg *config.Config,
	dirs []string,
	opts resolveOptions,
	extractor buildnumber.Extractor,
	stdout io.Writer,
	stderr io.Writer,
) error {
	if opts.jobs < 1 {
		return errInvalidJobs
	}

	logger := newLogger(cfg.Log, stderr)

	reg := prometheus.NewRegistry()
	collector := bnmetrics.NewCollector(reg)

	coord := buildnumber.NewCoordinator(extractor, logger,
		buildnumber.WithEvaluator(jsexpr.New(cfg.Buildnumber.ExpressionTimeout)),
		buildnumber.WithMetrics(collector),
	)

	results := resolveModules(coord, dirs, cfg, opts.jobs)

	out, err := formatResults(results, opts.format)
	if err != nil {
		return fmt.Errorf("format results: %w", err)
	}
	if _, err := io.WriteString(stdout, out); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := bnmetrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return err
		}
		logger.Debug("metrics written", slog.String("path", cfg.Metrics.Textfile))
	}

	return nil
}

// resolveModules resolves dirs concurrently, at most jobs at a time, the way
// a parallel multi-module build would. Results keep the order of dirs.
func resolveModules(coord *buildnumber.Coordinator, dirs []string, cfg *config.Config, jobs int) []moduleResult {
	results := make([]moduleResult, len(dirs))

	var g errgroup.Group
	g.SetLimit(jobs)

	for i, dir := range dirs {
		g.Go(func() error {
			props := buildnumber.Properties{}
			outcome := coord.Resolve(buildnumber.Request{
				Directory:  dir,
				Names:      cfg.Properties.Names(),
				Expression: cfg.Buildnumber.Expression,
			}, props)

			results[i] = moduleResult{
				Directory:  dir,
				Outcome:    outcome.String(),
				Properties: props,
			}
			return nil
		})
	}

	// Resolve never fails, so neither does the group.
	_ = g.Wait()

	return results
}
