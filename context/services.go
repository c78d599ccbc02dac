package context

import (
	"path/filepath"
	"time"

	"github.com/morten-olsen/aura/agent"
	"github.com/morten-olsen/aura/audit"
	"github.com/morten-olsen/aura/checkpoint"
	"github.com/morten-olsen/aura/config"
	"github.com/morten-olsen/aura/controller"
	"github.com/morten-olsen/aura/git"
	"github.com/morten-olsen/aura/notify"
	"github.com/morten-olsen/aura/prompt"
	"github.com/morten-olsen/aura/reasoning"
	"github.com/morten-olsen/aura/task"
	"github.com/morten-olsen/aura/ticket"
	"github.com/morten-olsen/aura/tools"
	"github.com/morten-olsen/aura/transcript"
)

// Config configures NewServices.
type Config struct {
	RepoPath string // Path to the git repository; empty runs without one
	StateDir string // Base directory for storage (default: ".aura" under the repo)

	// Reasoning overrides the CLI client. Leave nil to shell out to
	// ReasoningBinary.
	Reasoning        reasoning.Client
	ReasoningBinary  string // CLI binary to shell out to (default: "claude")
	Model            string // Model override (empty = per-phase selection)
	ReasoningTimeout time.Duration

	MaxTurns         int    // Turn budget stamped on new tickets (0 = ticket default)
	MaxPhaseCalls    int    // Per-run phase budget (0 = engine default)
	ApprovalRequired bool   // Whether new workflows suspend for plan approval
	BaseBranch       string // Branch ticket work is counted against

	NotifyWebhook string // Webhook for lifecycle events; with a channel it posts to Slack
	NotifyChannel string
}

// FromSettings maps resolved configuration onto service wiring.
func FromSettings(st *config.Settings, repoPath string) Config {
	return Config{
		RepoPath:         repoPath,
		StateDir:         st.StateDir,
		ReasoningBinary:  st.ReasoningBinary,
		Model:            st.Model,
		ReasoningTimeout: st.ReasoningTimeout,
		MaxTurns:         st.MaxTurns,
		MaxPhaseCalls:    st.MaxPhaseCalls,
		ApprovalRequired: st.ApprovalRequired,
		BaseBranch:       st.BaseBranch,
		NotifyWebhook:    st.NotifyWebhook,
		NotifyChannel:    st.NotifyChannel,
	}
}

// Services holds a wired aura stack: file-backed stores under the state
// directory, a reasoning client, the repository workspace, and the tool
// registry scoped to it. Fields can be swapped before building the engine
// and controller.
type Services struct {
	Git         *git.Context
	Reasoning   reasoning.Client
	Tickets     ticket.Store
	Checkpoints checkpoint.Store
	Transcripts transcript.Manager
	Tools       *tools.Registry
	Audit       audit.Log
	Prompts     *prompt.Loader
	Notifier    notify.Notifier

	cfg Config
}

// NewServices creates the service stack from configuration.
func NewServices(cfg Config) (*Services, error) {
	s := &Services{cfg: cfg}

	if cfg.RepoPath != "" {
		gitCtx, err := git.NewContext(cfg.RepoPath)
		if err != nil {
			return nil, err
		}
		s.Git = gitCtx
	}

	s.Reasoning = cfg.Reasoning
	if s.Reasoning == nil {
		client, err := reasoning.NewCLIClient(reasoning.CLIConfig{
			BinaryPath: cfg.ReasoningBinary,
			Model:      cfg.Model,
			Timeout:    cfg.ReasoningTimeout,
			WorkDir:    cfg.RepoPath,
		})
		if err != nil {
			return nil, err
		}
		s.Reasoning = client
	}

	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = ".aura"
	}
	if !filepath.IsAbs(stateDir) && cfg.RepoPath != "" {
		stateDir = filepath.Join(cfg.RepoPath, stateDir)
	}

	tickets, err := ticket.NewFileStore(filepath.Join(stateDir, "tickets"))
	if err != nil {
		return nil, err
	}
	s.Tickets = tickets

	checkpoints, err := checkpoint.NewFileStore(filepath.Join(stateDir, "checkpoints"))
	if err != nil {
		return nil, err
	}
	s.Checkpoints = checkpoints

	transcripts, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: stateDir})
	if err != nil {
		return nil, err
	}
	s.Transcripts = transcripts

	auditLog, err := audit.NewFileLog(filepath.Join(stateDir, "audit.jsonl"))
	if err != nil {
		return nil, err
	}
	s.Audit = auditLog

	registry := tools.NewRegistry()
	registry.Register(tools.NewCommandTool(nil, tools.WithWorkDir(cfg.RepoPath)))
	registry.Register(tools.NewReadFilesTool(cfg.RepoPath))
	s.Tools = registry

	s.Prompts = prompt.NewLoader(cfg.RepoPath)

	switch {
	case cfg.NotifyWebhook != "" && cfg.NotifyChannel != "":
		s.Notifier = notify.NewSlackNotifier(cfg.NotifyWebhook, notify.WithSlackChannel(cfg.NotifyChannel))
	case cfg.NotifyWebhook != "":
		s.Notifier = notify.NewWebhookNotifier(cfg.NotifyWebhook, nil)
	}

	return s, nil
}

// Engine builds the workflow engine over the wired reasoning client and
// checkpoint store. Without a model override, models are picked per phase.
func (s *Services) Engine(opts ...agent.Option) *agent.Engine {
	base := []agent.Option{
		agent.WithTools(s.Tools),
		agent.WithPrompts(s.Prompts),
	}
	if s.cfg.Model == "" {
		base = append(base, agent.WithModelFunc(task.PhaseModel()))
	}
	if s.cfg.MaxPhaseCalls > 0 {
		base = append(base, agent.WithMaxPhaseCalls(s.cfg.MaxPhaseCalls))
	}
	return agent.NewEngine(s.Reasoning, s.Checkpoints, append(base, opts...)...)
}

// Controller builds the lifecycle controller over the wired stores, with
// the workspace attached when a repository is configured.
func (s *Services) Controller(engine *agent.Engine, opts ...controller.Option) *controller.Controller {
	base := []controller.Option{
		controller.WithAudit(s.Audit),
		controller.WithTranscripts(s.Transcripts),
		controller.WithApprovalRequired(s.cfg.ApprovalRequired),
	}
	if s.cfg.MaxTurns > 0 {
		base = append(base, controller.WithMaxTurns(s.cfg.MaxTurns))
	}
	if s.Notifier != nil {
		base = append(base, controller.WithNotifier(s.Notifier))
	}
	if s.Git != nil {
		wsOpts := []git.WorkspaceOption{}
		if s.cfg.BaseBranch != "" {
			wsOpts = append(wsOpts, git.WithBaseBranch(s.cfg.BaseBranch))
		}
		base = append(base, controller.WithWorkspace(git.NewWorkspace(s.Git, wsOpts...)))
	}
	return controller.New(s.Tickets, s.Checkpoints, engine, append(base, opts...)...)
}
