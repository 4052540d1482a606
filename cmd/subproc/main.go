// Command subproc runs external commands with deadline enforcement and
// output capture, as a one-shot CLI or as an MCP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/subproc"
	"github.com/deixis/subproc/internal/config"
	submcp "github.com/deixis/subproc/internal/mcp"
	"github.com/deixis/subproc/internal/report"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("subproc: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(subproc.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "subproc: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: subproc <command> [flags] [args]

Commands:
  run         Run a command and exit with its exit code
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "subproc <command> -h" for command-specific flags.`)
}

// envFlags collects repeated -e KEY=VALUE flags.
type envFlags map[string]string

func (e envFlags) String() string { return "" }

func (e envFlags) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected KEY=VALUE, got %q", v)
	}
	e[k] = val
	return nil
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dir := fs.String("C", "", "working directory")
	timeoutFlag := fs.Duration("timeout", 0, "kill the command after this duration (0 = use config, which defaults to none)")
	shellFlag := fs.Bool("shell", false, "join the arguments and run them through the shell")
	stdinFlag := fs.Bool("stdin", false, "forward standard input to the command")
	noCapture := fs.Bool("no-capture", false, "discard the command's output instead of capturing it")
	verbose := fs.Bool("v", false, "log execution events")
	env := envFlags{}
	fs.Var(env, "e", "environment override KEY=VALUE (repeatable)")
	_ = fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		return fmt.Errorf("run: no command given")
	}

	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	exec := cfg.Executor()
	if *verbose {
		exec.Logger = log.Default()
	}

	var req subproc.Request
	if *shellFlag {
		req = subproc.Script(strings.Join(argv, " "))
	} else {
		req = subproc.Command(argv...)
	}
	req.Check = false // the exit code is passed through, not raised
	req.Capture = !*noCapture
	req.Dir = *dir
	req.Env = mergeEnv(cfg.Env, env)

	req.Timeout = cfg.Timeout()
	if *timeoutFlag > 0 {
		req.Timeout = *timeoutFlag
	}

	if *stdinFlag {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		req.Stdin = data
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := exec.Run(ctx, req)
	if err != nil {
		var te *subproc.TimeoutError
		if errors.As(err, &te) {
			// Partial output is still worth printing.
			fmt.Fprint(os.Stdout, te.Stdout)
			fmt.Fprint(os.Stderr, te.Stderr)
			fmt.Fprintf(os.Stderr, "subproc: %v\n", te)
			os.Exit(124)
		}
		return err
	}

	fmt.Fprint(os.Stdout, res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)
	if res.ExitCode != 0 {
		os.Exit(res.ExitCode)
	}
	return nil
}

func mergeEnv(base, extra map[string]string) map[string]string {
	if len(base) == 0 {
		return extra
	}
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(submcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	cfg, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	disk := report.NewDiskStore()
	store := report.NewLRUStore(5, disk)

	exec := cfg.Executor()
	exec.Logger = log.Default()

	server := submcp.NewServer(cfg, exec, store, workspace)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
