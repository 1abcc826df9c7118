// Command registry lists the agent manifests and shows how a query would be routed.
//
//	registry list
//	registry score [-io chat] [-top 5] <query>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/adapter/manifest"
	"github.com/RichardKnop/agentrouter/internal/app"
	"github.com/RichardKnop/agentrouter/pkg/config"
	"github.com/RichardKnop/agentrouter/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: registry list | registry score [-io chat] [-top 5] <query>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer l.Sync() //nolint:errcheck

	registry := manifest.New(cfg.Agents.Root, manifest.WithLogger(l))

	switch os.Args[1] {
	case "list":
		agents, err := registry.ListAgents(ctx)
		if err != nil {
			log.Fatal("list agents: ", err)
		}
		printAgents(agents)
	case "score":
		fs := flag.NewFlagSet("score", flag.ExitOnError)
		var (
			ioMode = fs.String("io", "chat", "io mode the query arrives in")
			top    = fs.Int("top", 5, "number of candidates to show")
		)
		if err := fs.Parse(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		query := strings.Join(fs.Args(), " ")
		if query == "" {
			usage()
		}

		models, err := app.NewModels(ctx, cfg.Adapter, l)
		if err != nil {
			log.Fatal("models: ", err)
		}
		defer models.Close() //nolint:errcheck

		// probing only scores descriptors, nothing is retrieved or stored
		ar, err := agentrouter.New(
			registry,
			models.Embedder,
			nil,
			models.Generative,
			nil,
			agentrouter.WithDescriptorCacheSize(cfg.Agents.CacheSize),
			agentrouter.WithLogger(l),
		)
		if err != nil {
			log.Fatal("agent router: ", err)
		}

		candidates, err := ar.ScoreAgents(ctx, query, *ioMode, *top)
		if err != nil {
			log.Fatal("score: ", err)
		}
		printCandidates(candidates)
	default:
		usage()
	}
}

func printAgents(agents []agentrouter.Agent) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENTRYPOINT\tIO MODES\tMANIFEST")
	for _, anAgent := range agents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", anAgent.Name, anAgent.Entrypoint, strings.Join(anAgent.IOModes, ","), anAgent.ManifestPath)
	}
	w.Flush()
}

func printCandidates(candidates []agentrouter.Candidate) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tSCORE\tSIMILARITY\tKEYWORDS")
	for _, aCandidate := range candidates {
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.1f\n", aCandidate.Agent.Name, aCandidate.Score, aCandidate.Similarity, aCandidate.KeywordPoints)
	}
	w.Flush()
}
