// Command ingest extracts, embeds and indexes the PDF files given as arguments. With
// -uploads it re-indexes every document archived by the HTTP upload endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/adapter/filestorage"
	"github.com/RichardKnop/agentrouter/adapter/manifest"
	"github.com/RichardKnop/agentrouter/internal/app"
	"github.com/RichardKnop/agentrouter/pkg/config"
	"github.com/RichardKnop/agentrouter/pkg/logger"
)

func main() {
	var (
		local   = flag.Bool("local", false, "read the PDF text layer in-process instead of calling the layout service")
		pageMin = flag.Int("page-min", 0, "first page to read in local mode")
		pageMax = flag.Int("page-max", 0, "last page to read in local mode, zero reads to the end")
		uploads = flag.Bool("uploads", false, "re-index every archived upload")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ingest [-local] [-page-min n] [-page-max n] [-uploads] [file.pdf...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 && !*uploads {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	if *local {
		cfg.Adapter.Extract.Local = true
		cfg.Adapter.Extract.PageMin = *pageMin
		cfg.Adapter.Extract.PageMax = *pageMax
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer l.Sync() //nolint:errcheck
	sugar := l.Sugar()

	models, err := app.NewModels(ctx, cfg.Adapter, l)
	if err != nil {
		sugar.Fatalw("models", "error", err)
	}
	defer models.Close() //nolint:errcheck

	retriever, err := app.NewRetriever(ctx, cfg.Redis, l)
	if err != nil {
		sugar.Fatalw("retriever", "error", err)
	}

	extractor, err := app.NewExtractor(ctx, cfg.Adapter.Extract, l)
	if err != nil {
		sugar.Fatalw("extractor", "error", err)
	}

	ar, err := agentrouter.New(
		manifest.New(cfg.Agents.Root, manifest.WithLogger(l)),
		models.Embedder,
		retriever,
		models.Generative,
		nil,
		agentrouter.WithExtractor(extractor),
		agentrouter.WithDocStore(retriever),
		agentrouter.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		agentrouter.WithLogger(l),
	)
	if err != nil {
		sugar.Fatalw("agent router", "error", err)
	}

	var total, failed int
	for _, path := range flag.Args() {
		total++
		if err := ingestFile(ctx, ar, path); err != nil {
			sugar.Errorw("ingest failed", "path", path, "error", err)
			failed++
		}
	}

	if *uploads {
		storage, err := filestorage.New(filestorage.WithDir(cfg.HTTP.UploadsDir), filestorage.WithLogger(l))
		if err != nil {
			sugar.Fatalw("upload storage", "error", err)
		}
		names, err := archivedUploads(storage)
		if err != nil {
			sugar.Fatalw("list uploads", "error", err)
		}
		for _, name := range names {
			total++
			if err := ingestUpload(ctx, ar, storage, name); err != nil {
				sugar.Errorw("ingest failed", "upload", name, "error", err)
				failed++
			}
		}
	}

	if failed > 0 {
		sugar.Fatalf("%d of %d files failed", failed, total)
	}
}

type uploadStorage interface {
	Dir() string
	Exists(filename string) (bool, error)
	Read(filename string) (io.ReadSeekCloser, error)
}

// archivedUploads lists the PDF files kept by the upload endpoint, skipping temporary files.
func archivedUploads(storage uploadStorage) ([]string, error) {
	entries, err := os.ReadDir(storage.Dir())
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

func ingestUpload(ctx context.Context, ar ingester, storage uploadStorage, name string) error {
	ok, err := storage.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("upload %s no longer exists", name)
	}

	f, err := storage.Read(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := os.Stat(filepath.Join(storage.Dir(), name))
	if err != nil {
		return err
	}

	// same source path as the upload endpoint so the document keeps its doc_id
	return ingest(ctx, ar, "uploads/"+name, f, info.ModTime())
}

type ingester interface {
	Ingest(ctx context.Context, sourcePath string, contents io.ReadSeeker, modTime time.Time) (agentrouter.IngestResult, error)
}

func ingestFile(ctx context.Context, ar ingester, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return ingest(ctx, ar, path, f, info.ModTime())
}

func ingest(ctx context.Context, ar ingester, sourcePath string, contents io.ReadSeeker, modTime time.Time) error {
	result, err := ar.Ingest(ctx, sourcePath, contents, modTime)
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\t%s\t%d chunks\n", sourcePath, result.Doc.DocID, result.Status, result.Chunks)
	return nil
}
