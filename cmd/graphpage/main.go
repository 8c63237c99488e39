package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hanpama/graphpage/internal/eventbus"
	"github.com/hanpama/graphpage/internal/forest"
	"github.com/hanpama/graphpage/internal/grpcexec"
	"github.com/hanpama/graphpage/internal/httpexec"
	"github.com/hanpama/graphpage/internal/language"
	"github.com/hanpama/graphpage/internal/otel"
	"github.com/hanpama/graphpage/internal/paging"
	"github.com/hanpama/graphpage/internal/wire"
)

const rootUsage = `graphpage — hierarchical cursor pagination for composite graph queries

USAGE:
  graphpage <command> [flags]

COMMANDS:
  paginate         Run a query shape against a remote executor until exhausted
  check-shape      Parse a shape document and print its dependency forest
  export-proto     Print the gRPC executor service contract (.proto)
  help             Show help for any command
`

const paginateUsage = `paginate FLAGS:
  -shape <file>                       Query shape document (required)
  -transport <grpc|http>              Executor transport (default: grpc)
  -transport.target <host:port>       gRPC executor endpoint. Repeatable
  -transport.endpoint <url>           HTTP executor endpoint
  -transport.max-conns-per-endpoint N Max TCP conns per endpoint (default: 2)
  -transport.rpc-timeout <duration>   Per-round timeout, e.g. 3s (default: 3s)
  -never-paginate <id>                Exempt a sub-query from cursor advancement. Repeatable
  -max-rounds <n>                     Abort after n rounds, 0 = unlimited (default: 0)
  -out <file>                         Write NDJSON items to file (default: stdout)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: graphpage)
`

const checkShapeUsage = `check-shape FLAGS:
  -shape <file>  Query shape document (required)
  (Prints the dependency forest; exits non-zero on shape errors)
`

const exportProtoUsage = `export-proto FLAGS:
  -out <file>  Write the .proto contract to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("graphpage", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "paginate":
		return cmdPaginate(cmdArgs)
	case "check-shape":
		return cmdCheckShape(cmdArgs)
	case "export-proto":
		return cmdExportProto(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "paginate":
		fmt.Print(paginateUsage)
	case "check-shape":
		fmt.Print(checkShapeUsage)
	case "export-proto":
		fmt.Print(exportProtoUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdPaginate(args []string) error {
	shapeFile := ""
	transport := "grpc"
	httpEndpoint := ""
	maxConns := 2
	rpcTimeout := 3 * time.Second
	maxRounds := 0
	outFile := ""
	otelEndpoint := ""
	otelService := "graphpage"
	var targets stringListFlag
	var neverPaginate stringListFlag

	fs := flag.NewFlagSet("paginate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&shapeFile, "shape", shapeFile, "Query shape document")
	fs.StringVar(&transport, "transport", transport, "Executor transport")
	fs.Var(&targets, "transport.target", "gRPC executor endpoint")
	fs.StringVar(&httpEndpoint, "transport.endpoint", httpEndpoint, "HTTP executor endpoint")
	fs.IntVar(&maxConns, "transport.max-conns-per-endpoint", maxConns, "Max conns per endpoint")
	fs.DurationVar(&rpcTimeout, "transport.rpc-timeout", rpcTimeout, "Per-round timeout")
	fs.Var(&neverPaginate, "never-paginate", "Exempt a sub-query from cursor advancement")
	fs.IntVar(&maxRounds, "max-rounds", maxRounds, "Abort after n rounds, 0 = unlimited")
	fs.StringVar(&outFile, "out", outFile, "Write NDJSON items to file")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, paginateUsage)
		return err
	}
	if shapeFile == "" {
		fmt.Fprint(os.Stderr, paginateUsage)
		return fmt.Errorf("-shape is required")
	}

	shape, err := loadShape(shapeFile)
	if err != nil {
		return err
	}

	var exec paging.Executor
	switch transport {
	case "grpc":
		if len(targets) == 0 {
			return fmt.Errorf("-transport.target is required for the grpc transport")
		}
		ge := grpcexec.New(
			grpcexec.WithProvider(grpcexec.NewStaticEndpoints(targets...)),
			grpcexec.WithMaxConnsPerEndpoint(maxConns),
			grpcexec.WithRPCTimeout(rpcTimeout),
		)
		defer func() { _ = ge.Close() }()
		exec = ge
	case "http":
		if httpEndpoint == "" {
			return fmt.Errorf("-transport.endpoint is required for the http transport")
		}
		exec = httpexec.New(httpEndpoint, httpexec.WithTimeout(rpcTimeout))
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	ids := make([]forest.ID, len(neverPaginate))
	for i, id := range neverPaginate {
		ids[i] = forest.ID(id)
	}
	session, err := paging.NewSession(exec, shape, paging.WithNeverPaginate(ids...))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	round := 0
	for !session.Finished() {
		round++
		if maxRounds > 0 && round > maxRounds {
			return fmt.Errorf("aborted after %d rounds with cursors still outstanding", maxRounds)
		}
		page, err := session.NextPage(context.Background())
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		for _, sq := range shape {
			for _, item := range page.Items[sq.ID] {
				line := map[string]any{"query": sq.ID, "round": round, "item": item}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func cmdCheckShape(args []string) error {
	shapeFile := ""
	fs := flag.NewFlagSet("check-shape", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&shapeFile, "shape", shapeFile, "Query shape document")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkShapeUsage)
		return err
	}
	if shapeFile == "" {
		fmt.Fprint(os.Stderr, checkShapeUsage)
		return fmt.Errorf("-shape is required")
	}

	shape, err := loadShape(shapeFile)
	if err != nil {
		return err
	}
	decls := make([]forest.Decl, len(shape))
	for i, sq := range shape {
		decls[i] = forest.Decl{ID: sq.ID, From: sq.From}
	}
	f, err := forest.Build(decls)
	if err != nil {
		return err
	}
	f.Walk(func(id forest.ID, depth int) {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), id)
	})
	return nil
}

func cmdExportProto(args []string) error {
	outFile := ""
	fs := flag.NewFlagSet("export-proto", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write the .proto contract to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, exportProtoUsage)
		return err
	}
	if outFile == "" {
		return wire.Render(os.Stdout)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return wire.Render(f)
}

func loadShape(path string) (paging.Shape, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	shape, err := language.ParseShape(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse shape %s: %w", path, err)
	}
	return shape, nil
}
