package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/torosent/corpusrun/internal/extractor"
)

// DefaultFaultExitCode is the exit status a stage uses to report an internal
// crash rather than a rejected input (EX_SOFTWARE).
const DefaultFaultExitCode = 70

// CommandConfig describes the external commands that make up the pipeline.
// Each stage is an argv template; the placeholders {path}, {dialect} and
// {target} are substituted before the command runs.
type CommandConfig struct {
	Scan     []string
	Parse    []string
	Generate []string

	PrimaryDialect    string
	AlternateDialect  string
	AlternatePatterns []string

	// MessagePath (a gjson path) and MessagePattern (a regular expression)
	// pull the failure message out of a stage's output. Plain stderr is used
	// when neither is set or neither matches.
	MessagePath    string
	MessagePattern string
	FaultExitCode  int
	Env            []string
}

// CommandPipeline runs the scan, parse and generate stages as child
// processes. Stage output is piped to the next stage's stdin; generate runs
// once for each dialect.
type CommandPipeline struct {
	cfg     CommandConfig
	message extractor.Rule
}

// NewCommandPipeline validates cfg and returns a pipeline.
func NewCommandPipeline(cfg CommandConfig) (*CommandPipeline, error) {
	var missing []string
	if len(cfg.Scan) == 0 {
		missing = append(missing, "scan")
	}
	if len(cfg.Parse) == 0 {
		missing = append(missing, "parse")
	}
	if len(cfg.Generate) == 0 {
		missing = append(missing, "generate")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing command for stage(s): %s", strings.Join(missing, ", "))
	}
	if cfg.PrimaryDialect == "" {
		cfg.PrimaryDialect = "a"
	}
	if cfg.AlternateDialect == "" {
		cfg.AlternateDialect = "b"
	}
	if cfg.FaultExitCode == 0 {
		cfg.FaultExitCode = DefaultFaultExitCode
	}
	rule, err := extractor.Compile(cfg.MessagePath, cfg.MessagePattern)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &CommandPipeline{cfg: cfg, message: rule}, nil
}

// Attempt runs the three stages against path.
func (p *CommandPipeline) Attempt(ctx context.Context, path string) Outcome {
	dialect := DetectDialect(path, p.cfg.AlternatePatterns, p.cfg.PrimaryDialect, p.cfg.AlternateDialect)

	source, err := os.ReadFile(path)
	if err != nil {
		return Failed(ScanFailure, dialect, err.Error())
	}

	tokens, out, ok := p.stage(ctx, ScanFailure, p.cfg.Scan, placeholders(path, dialect, dialect), source, dialect)
	if !ok {
		return out
	}
	tree, out, ok := p.stage(ctx, ParseFailure, p.cfg.Parse, placeholders(path, dialect, dialect), tokens, dialect)
	if !ok {
		return out
	}
	for _, target := range []string{p.cfg.PrimaryDialect, p.cfg.AlternateDialect} {
		if _, out, ok := p.stage(ctx, GenerateFailure, p.cfg.Generate, placeholders(path, dialect, target), tree, dialect); !ok {
			return out
		}
	}
	return Succeeded(dialect)
}

func (p *CommandPipeline) stage(ctx context.Context, kind Kind, argv []string, vars *strings.Replacer, input []byte, dialect string) ([]byte, Outcome, bool) {
	args := expand(argv, vars)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	if len(p.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), p.cfg.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), Outcome{}, true
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, Failed(UncaughtFault, dialect, fmt.Sprintf("%s stage: %v", kind.Stage(), err)), false
	}
	code := exitErr.ExitCode()
	if code == -1 || code == p.cfg.FaultExitCode {
		trace := strings.TrimSpace(stderr.String())
		if trace == "" {
			trace = exitErr.Error()
		}
		return nil, Failed(UncaughtFault, dialect, fmt.Sprintf("%s stage: %s", kind.Stage(), trace)), false
	}
	return nil, Failed(kind, dialect, p.failureMessage(stdout.Bytes(), stderr.Bytes(), code)), false
}

func (p *CommandPipeline) failureMessage(stdout, stderr []byte, code int) string {
	if msg, ok := p.message.Extract(stderr, stdout); ok {
		return strings.TrimSpace(msg)
	}
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return msg
	}
	return fmt.Sprintf("exit status %d", code)
}

// placeholders substitutes in a single pass, so placeholder text inside a
// substituted value is left alone.
func placeholders(path, dialect, target string) *strings.Replacer {
	return strings.NewReplacer("{path}", path, "{dialect}", dialect, "{target}", target)
}

func expand(argv []string, vars *strings.Replacer) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = vars.Replace(arg)
	}
	return out
}
