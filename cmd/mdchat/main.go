package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mdchat/pkg/ai"
	_ "mdchat/pkg/ai/providers"
	"mdchat/pkg/chat"
	"mdchat/pkg/config"
	"mdchat/pkg/logging"
	"mdchat/pkg/render"
	"mdchat/pkg/segment"
)

const usage = `mdchat - continue Markdown conversations with an LLM

Usage:
  mdchat [flags]          read a conversation from stdin, write the continued document to stdout
  mdchat run <file>       continue the conversation in <file>, updating it in place
  mdchat show <file>      pretty-print the conversation in <file>
  mdchat version          print version information

Flags:
  -provider name   override the configured provider (openai, openrouter, google, anthropic, copilot)
  -model name      override the configured model
  -dry-run         segment and log without calling the provider
`

func main() {
	var (
		providerFlag = flag.String("provider", "", "override the configured provider")
		modelFlag    = flag.String("model", "", "override the configured model")
		dryRunFlag   = flag.Bool("dry-run", false, "segment and log without calling the provider")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Println(VersionInfo())
			return
		case "help":
			fmt.Print(usage)
			return
		}
	}

	cfg, err := loadConfig(*providerFlag, *modelFlag, *dryRunFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args); err != nil {
		slog.Error("command_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		return continueStdin(ctx, cfg)
	}

	switch args[0] {
	case "run":
		if len(args) < 2 {
			return fmt.Errorf("usage: mdchat run <file>")
		}
		return continueFile(ctx, cfg, args[1])
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: mdchat show <file>")
		}
		return showFile(args[1])
	default:
		return fmt.Errorf("unknown command %q (try 'mdchat help')", args[0])
	}
}

func loadConfig(provider, model string, dryRun bool) (config.Config, error) {
	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if provider != "" {
		cfg.LLMProvider = provider
	}
	if dryRun {
		cfg.DryRun = true
	}
	if model != "" {
		cfg = overrideModel(cfg, model)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func overrideModel(cfg config.Config, model string) config.Config {
	switch cfg.LLMProvider {
	case "openai":
		cfg.Providers.OpenAI.Model = model
	case "openrouter":
		cfg.Providers.OpenRouter.Model = model
	case "google":
		cfg.Providers.Google.Model = model
	case "anthropic":
		cfg.Providers.Anthropic.Model = model
	case "copilot":
		cfg.Providers.Copilot.Model = model
	}
	return cfg
}

// continueStdin runs the filter mode: conversation in on stdin, the
// continued document out on stdout.
func continueStdin(ctx context.Context, cfg config.Config) error {
	doc, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	updated, replied, err := continueDocument(ctx, cfg, string(doc))
	if err != nil {
		return err
	}
	if !replied {
		slog.Info("no_reply_needed")
	}

	_, err = io.WriteString(os.Stdout, updated)
	return err
}

// continueFile continues the conversation in the named file, rewriting
// it only when a reply was appended.
func continueFile(ctx context.Context, cfg config.Config, path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	updated, replied, err := continueDocument(ctx, cfg, string(doc))
	if err != nil {
		return err
	}
	if !replied {
		slog.Info("no_reply_needed", "file", path)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("conversation_updated", "file", path)
	return nil
}

func continueDocument(ctx context.Context, cfg config.Config, doc string) (string, bool, error) {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = config.DefaultSystemPrompt
	}

	// A document that already ends with an assistant reply passes
	// through untouched, so the provider and its credentials must not
	// be resolved before the skip rule is.
	var provider ai.Provider
	if chat.ShouldReply(chat.BuildMessages(doc, systemPrompt)) && !cfg.DryRun {
		p, err := ai.GetProviderFromConfig(cfg)
		if err != nil {
			return "", false, err
		}
		provider = p
	}

	return chat.Continue(ctx, provider, chat.Options{
		SystemPrompt: systemPrompt,
		DryRun:       cfg.DryRun,
	}, doc)
}

func showFile(path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	messages := segment.Segment(string(doc))
	if len(messages) == 0 {
		fmt.Println("(empty conversation)")
		return nil
	}

	r := render.NewRenderer(terminalWidth())
	fmt.Print(r.Render(messages))
	return nil
}

func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		var w int
		if _, err := fmt.Sscanf(cols, "%d", &w); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
