package dirorg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// App wires the pipeline together: scan, proposal, validation, preview,
// confirmed execution, logging. Preview and Apply are separate calls so
// the caller owns the confirmation step; nothing mutates the filesystem
// before Apply.
type App struct {
	cfg      *Config
	provider Provider
	log      *logrus.Logger
}

func NewApp(cfg *Config) (*App, error) {
	log := logrus.New()
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var provider Provider
	var err error
	switch cfg.PlanSource {
	case "", "api":
		provider, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Logger:  log,
		})
		if err != nil {
			return nil, err
		}
	case "stdin":
		provider = &ManualProvider{}
	case "clipboard":
		provider = &ManualProvider{FromClipboard: true}
	default:
		return nil, fmt.Errorf("unknown plan source %q", cfg.PlanSource)
	}

	return &App{cfg: cfg, provider: provider, log: log}, nil
}

// NewAppWithProvider builds an App around an explicit provider. Used by
// tests to run the pipeline against a deterministic stub.
func NewAppWithProvider(cfg *Config, provider Provider) *App {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return &App{cfg: cfg, provider: provider, log: log}
}

// PreviewResult carries everything the caller needs for the
// confirmation step.
type PreviewResult struct {
	Scan     *ScanResult
	Plan     *Plan
	Rendered string
}

// Preview runs the read-only half of the pipeline: scan, proposal,
// validation, rendering. Any error here aborts before mutation.
func (a *App) Preview(ctx context.Context) (*PreviewResult, error) {
	scanner := NewScanner(ScannerConfig{
		LargeFolderThreshold: a.cfg.LargeFolderThreshold,
		ProjectMarkers:       a.cfg.ProjectMarkers,
		Ignore:               LoadIgnoreFile(a.cfg.Root),
		Logger:               a.log,
	})

	a.log.Infof("scanning %s", a.cfg.Root)
	scan, err := scanner.Scan(a.cfg.Root)
	if err != nil {
		return nil, err
	}

	req := BuildRequest(scan, a.cfg.Style, a.cfg.RequestBudget)
	if req.Truncated {
		a.log.Warnf("tree listing truncated to %d bytes", a.cfg.RequestBudget)
	}
	a.log.Infof("requesting reorganization proposal (%d files)", req.FileCount)

	raw, err := a.provider.Propose(ctx, req)
	if err != nil {
		return nil, err
	}

	plan, err := NewValidator(scan).Validate(raw)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		Scan:     scan,
		Plan:     plan,
		Rendered: RenderPlan(plan, a.cfg.DryRun),
	}, nil
}

// Apply executes a validated plan. In dry-run mode the filesystem is
// untouched and every outcome is a skip; either way every attempted
// action lands in the change log before the next one starts.
func (a *App) Apply(ctx context.Context, plan *Plan) (*RunSummary, error) {
	changelog, err := NewChangeLogger(a.logPath())
	if err != nil {
		return nil, err
	}
	defer changelog.Close()

	a.log.Infof("dry run: %v", a.cfg.DryRun)
	executor := NewExecutor(a.cfg.Root, a.cfg.DryRun, changelog, a.log)
	outcomes, err := executor.Execute(ctx, plan)

	summary := summarize(plan, outcomes, a.cfg.DryRun)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// RecordAborted leaves the only trace a declined run is allowed to have.
func (a *App) RecordAborted() error {
	changelog, err := NewChangeLogger(a.logPath())
	if err != nil {
		return err
	}
	defer changelog.Close()
	return changelog.Note("run aborted by user")
}

func (a *App) logPath() string {
	if a.cfg.LogFile != "" {
		return a.cfg.LogFile
	}
	return filepath.Join(a.cfg.Root, DefaultLogName)
}

func summarize(plan *Plan, outcomes []ActionOutcome, dryRun bool) *RunSummary {
	s := &RunSummary{DryRun: dryRun, Outcomes: outcomes}
	for i, out := range outcomes {
		desc := describeAction(plan.Actions[i])
		switch out.Status {
		case OutcomeSucceeded:
			s.Succeeded = append(s.Succeeded, desc)
		case OutcomeFailed:
			s.Failed = append(s.Failed, fmt.Sprintf("%s (%s)", desc, out.Reason))
		case OutcomeSkipped:
			s.Skipped = append(s.Skipped, desc)
		}
	}
	if len(outcomes) < len(plan.Actions) {
		s.Message = fmt.Sprintf("run stopped after %d of %d actions", len(outcomes), len(plan.Actions))
	}
	return s
}

func describeAction(a MoveAction) string {
	switch a.Kind {
	case ActionMkdir:
		return fmt.Sprintf("create %s/", a.Dest)
	case ActionSkip:
		return fmt.Sprintf("skip %s", a.Source)
	case ActionMerge:
		return fmt.Sprintf("%s => %s", a.Source, a.Dest)
	default:
		return fmt.Sprintf("%s -> %s", a.Source, a.Dest)
	}
}
