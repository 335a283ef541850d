// Package main is the entry point for the skycheck CLI.
//
// The CLI verifies local cloud credentials per capability, reconciles the
// results into the enabled-infrastructure state file, and reports which
// clouds are usable.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/Maknee/skypilot/pkg/skycheck"

	"github.com/Maknee/skypilot/pkg/providers/cloudflare"

	// Import providers to register them
	_ "github.com/Maknee/skypilot/pkg/providers/aws"
	_ "github.com/Maknee/skypilot/pkg/providers/azure"
	_ "github.com/Maknee/skypilot/pkg/providers/gcp"
	_ "github.com/Maknee/skypilot/pkg/providers/kubernetes"
)

const (
	exitError         = 1
	exitNoCloudAccess = 2
)

const (
	ansiGreen = "\033[32m"
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// colorize wraps s in an ANSI code when stdout is a terminal.
func colorize(code, s string) string {
	if fi, err := os.Stdout.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return s
	}
	return code + s + ansiReset
}

func main() {
	err := run(os.Args[1:])
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var noAccess *skycheck.NoCloudAccessError
	if errors.As(err, &noAccess) {
		os.Exit(exitNoCloudAccess)
	}
	os.Exit(exitError)
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "check":
		return cmdCheck(ctx, cmdArgs)
	case "enabled":
		return cmdEnabled(ctx, cmdArgs)
	case "providers":
		return cmdProviders(ctx, cmdArgs)
	case "version":
		return cmdVersion()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nRun 'skycheck help' for usage", cmd)
	}
}

func printUsage() {
	fmt.Println(`skycheck - Cloud credential verification and enablement tracking

Usage:
  skycheck <command> [options]

Commands:
  check       Verify credentials for all (or selected) clouds and capabilities
  enabled     Print the clouds currently enabled for a capability
  providers   List known providers and their capabilities
  version     Show version information
  help        Show this help message

Check Options:
  -c, --capability <cap>  Restrict to one capability (compute, storage);
                          repeatable. Default: all capabilities.
  --clouds <names>        Comma-separated cloud names to check. Default: all.
  -v, --verbose           Include the active account identity per cloud.
  -q, --quiet             Print only the final enabled-cloud summary.
  --state <path>          State file path (default: ~/.skycheck/state.json)
  --config <path>         Config file path (default: ~/.skycheck/config.yaml)

Enabled Options:
  -c, --capability <cap>  Capability to report (default: compute)
  --refresh               Re-run checks instead of trusting cached state
  --state <path>          State file path (default: ~/.skycheck/state.json)
  --config <path>         Config file path (default: ~/.skycheck/config.yaml)

Exit Codes:
  0  at least one cloud is enabled
  1  invalid usage or internal failure
  2  no cloud access: every checked cloud is disabled`)
}

// checkOpts holds parsed flags for the check command.
type checkOpts struct {
	capabilities []skycheck.Capability
	clouds       []string
	verbose      bool
	quiet        bool
	statePath    string
	configPath   string
}

func parseCheckOpts(args []string) (*checkOpts, error) {
	opts := &checkOpts{
		statePath:  skycheck.DefaultStateStorePath(),
		configPath: skycheck.DefaultConfigPath(),
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--capability", "-c":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--capability requires an argument")
			}
			opts.capabilities = append(opts.capabilities, skycheck.Capability(args[i+1]))
			i++
		case "--clouds":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--clouds requires an argument")
			}
			for _, name := range strings.Split(args[i+1], ",") {
				if name = strings.TrimSpace(name); name != "" {
					opts.clouds = append(opts.clouds, name)
				}
			}
			i++
		case "--verbose", "-v":
			opts.verbose = true
		case "--quiet", "-q":
			opts.quiet = true
		case "--state":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--state requires a path argument")
			}
			opts.statePath = args[i+1]
			i++
		case "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--config requires a path argument")
			}
			opts.configPath = args[i+1]
			i++
		default:
			return nil, fmt.Errorf("unknown option: %s", args[i])
		}
	}

	for _, c := range opts.capabilities {
		if c != skycheck.CapabilityCompute && c != skycheck.CapabilityStorage {
			return nil, fmt.Errorf("unknown capability: %s (want compute or storage)", c)
		}
	}

	return opts, nil
}

// newChecker builds a Checker from CLI options: file-backed state, the
// allow-list from the config file, and the R2 pseudo-provider.
func newChecker(statePath, configPath string) (*skycheck.Checker, error) {
	store, err := skycheck.NewFileStateStore(statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}

	cfg, err := skycheck.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	checkerOpts := []skycheck.CheckerOption{
		skycheck.WithStateStore(store),
		skycheck.WithPseudoProvider(cloudflare.New()),
	}
	if len(cfg.AllowedClouds) > 0 {
		checkerOpts = append(checkerOpts, skycheck.WithAllowedClouds(cfg.AllowedClouds))
	}
	return skycheck.NewChecker(checkerOpts...), nil
}

func cmdCheck(ctx context.Context, args []string) error {
	opts, err := parseCheckOpts(args)
	if err != nil {
		return err
	}

	checker, err := newChecker(opts.statePath, opts.configPath)
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Println("Checking cloud credentials...")
	}

	report, checkErr := checker.Check(ctx, skycheck.CheckOptions{
		Clouds:       opts.clouds,
		Capabilities: opts.capabilities,
		Verbose:      opts.verbose,
	})
	if report != nil {
		renderReport(report, opts.verbose, opts.quiet)
	}
	return checkErr
}

// renderReport prints per-provider results followed by the enabled summary.
func renderReport(r *skycheck.Report, verbose, quiet bool) {
	if !quiet {
		fmt.Println()
		for _, p := range r.Providers {
			renderProvider(p, verbose)
		}
		if len(r.Disallowed) > 0 {
			names := make([]string, 0, len(r.Disallowed))
			for _, name := range r.Disallowed {
				names = append(names, string(name))
			}
			fmt.Printf("Skipped by allowed_clouds config: %s\n\n", strings.Join(names, ", "))
		}
	}

	if len(r.AllEnabled) == 0 {
		fmt.Println("No cloud is enabled.")
		return
	}

	fmt.Println("Enabled infrastructure:")
	caps := make([]string, 0, len(r.Enabled))
	for c := range r.Enabled {
		caps = append(caps, string(c))
	}
	sort.Strings(caps)
	for _, c := range caps {
		providers := r.Enabled[skycheck.Capability(c)]
		if len(providers) == 0 {
			continue
		}
		names := make([]string, 0, len(providers))
		for _, name := range providers {
			names = append(names, string(name))
		}
		fmt.Printf("  %s: %s\n", c, strings.Join(names, ", "))
	}
}

func renderProvider(p skycheck.ProviderReport, verbose bool) {
	status := colorize(ansiDim, "disabled")
	if p.Enabled() {
		caps := make([]string, 0, len(p.Results))
		for _, c := range p.EnabledCapabilities() {
			caps = append(caps, string(c))
		}
		status = colorize(ansiGreen, fmt.Sprintf("enabled [%s]", strings.Join(caps, ", ")))
	}
	fmt.Printf("%s: %s\n", p.Provider, status)

	if verbose && p.Identity != "" {
		fmt.Printf("  Identity: %s\n", p.Identity)
	}

	for _, res := range p.Results {
		if res.OK || res.Reason.IsZero() || res.Reason.Structured() {
			continue
		}
		fmt.Printf("  %s: %s\n", res.Capability, indentContinuation(res.Reason.Text, 4))
	}

	// Per-context statuses (e.g. one line per kubeconfig context).
	if len(p.Contexts) > 0 {
		names := make([]string, 0, len(p.Contexts))
		for name := range p.Contexts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, indentContinuation(p.Contexts[name], 4))
		}
	}
	fmt.Println()
}

// indentContinuation indents every line after the first so multi-line
// reasons stay aligned under their label.
func indentContinuation(s string, width int) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return s
	}
	pad := strings.Repeat(" ", width)
	return lines[0] + "\n" + pad + strings.Join(lines[1:], "\n"+pad)
}

// enabledOpts holds parsed flags for the enabled command.
type enabledOpts struct {
	capability skycheck.Capability
	refresh    bool
	statePath  string
	configPath string
}

func parseEnabledOpts(args []string) (*enabledOpts, error) {
	opts := &enabledOpts{
		capability: skycheck.CapabilityCompute,
		statePath:  skycheck.DefaultStateStorePath(),
		configPath: skycheck.DefaultConfigPath(),
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--capability", "-c":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--capability requires an argument")
			}
			opts.capability = skycheck.Capability(args[i+1])
			i++
		case "--refresh":
			opts.refresh = true
		case "--state":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--state requires a path argument")
			}
			opts.statePath = args[i+1]
			i++
		case "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--config requires a path argument")
			}
			opts.configPath = args[i+1]
			i++
		default:
			return nil, fmt.Errorf("unknown option: %s", args[i])
		}
	}

	if opts.capability != skycheck.CapabilityCompute && opts.capability != skycheck.CapabilityStorage {
		return nil, fmt.Errorf("unknown capability: %s (want compute or storage)", opts.capability)
	}

	return opts, nil
}

func cmdEnabled(ctx context.Context, args []string) error {
	opts, err := parseEnabledOpts(args)
	if err != nil {
		return err
	}

	checker, err := newChecker(opts.statePath, opts.configPath)
	if err != nil {
		return err
	}

	var enabled []skycheck.CloudProvider
	if opts.refresh {
		enabled, err = checker.CheckCapability(ctx, opts.capability, nil)
	} else {
		enabled, err = checker.CachedEnabledOrRefresh(ctx, opts.capability, false)
	}
	if err != nil {
		return err
	}

	if len(enabled) == 0 {
		fmt.Printf("No cloud is enabled for %s. Run: skycheck check\n", opts.capability)
		return nil
	}
	for _, name := range enabled {
		fmt.Println(name)
	}
	return nil
}

func cmdProviders(_ context.Context, _ []string) error {
	providers := skycheck.DescribeProviders(cloudflare.New())

	fmt.Println("=== Known Providers ===")
	fmt.Printf("%-15s %-20s %-7s %-9s %s\n", "NAME", "CAPABILITIES", "FILES", "IDENTITY", "PSEUDO")

	for _, p := range providers {
		files := "no"
		if p.HasFiles {
			files = "yes"
		}
		identity := "no"
		if p.HasIdentity {
			identity = "yes"
		}
		pseudo := "no"
		if p.Pseudo {
			pseudo = "yes"
		}

		caps := ""
		for i, c := range p.Capabilities {
			if i > 0 {
				caps += ", "
			}
			caps += string(c)
		}

		fmt.Printf("%-15s %-20s %-7s %-9s %s\n", p.Name, caps, files, identity, pseudo)
	}

	return nil
}

func cmdVersion() error {
	fmt.Println("skycheck version 0.1.0")
	fmt.Println("  Capabilities: compute, storage")
	fmt.Println("  Providers: aws, gcp, azure, kubernetes, cloudflare (R2, storage only)")
	return nil
}
