package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/bus"
	"main/internal/journal"
	"main/internal/mdg"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/store"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	journalDir := flag.String("journal-dir", "testdata/journal", "Journal directory (overridden by config)")
	eventCount := flag.Int("events", 1000, "Number of events to generate")
	interval := flag.Duration("interval", 0, "Delay between generated events")
	seed := flag.Int64("seed", 1, "Generator seed")
	depth := flag.Int("depth", 5, "Snapshot depth per side")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *journalDir, *eventCount, *interval, *seed, *depth); err != nil {
		logs.Errorf("ingest: %+v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, journalDir string, eventCount int, interval time.Duration, seed int64, depth int) error {
	loaded, err := loadConfig(configPath, journalDir)
	if err != nil {
		return err
	}

	gen, err := mdg.NewGenerator(loaded.Registry, seed, depth, 0, 0)
	if err != nil {
		return err
	}

	writer, err := journal.NewWriter(journal.Config{
		Dir:             loaded.Journal.Dir,
		SegmentMaxBytes: loaded.Journal.SegmentMaxBytes,
		FilePrefix:      loaded.Journal.FilePrefix,
	})
	if err != nil {
		return err
	}
	defer writer.Close()

	var archive *store.Archive
	if loaded.Archive.Enabled {
		archive, err = store.NewArchive(conn.Option{
			Host:     loaded.Archive.Host,
			Port:     loaded.Archive.Port,
			User:     loaded.Archive.User,
			Password: loaded.Archive.Password,
			Database: loaded.Archive.Database,
		})
		if err != nil {
			return err
		}
		defer archive.Close()
	}

	metrics := obs.NewMetrics()
	workers := make(map[model.InstrumentID]*bus.Worker, loaded.Registry.InstrumentCount())
	var wg sync.WaitGroup
	for i := 0; i < loaded.Registry.InstrumentCount(); i++ {
		inst, ok := loaded.Registry.InstrumentAt(i)
		if !ok {
			continue
		}
		worker := bus.NewWorker(
			bus.NewQueue(loaded.Feed.QueueCapacity),
			book.New(inst.ID, inst.BookType),
			metrics,
		)
		workers[inst.ID] = worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}

	logs.Infof("recording %d events for %d instruments into %s",
		eventCount, loaded.Registry.InstrumentCount(), loaded.Journal.Dir)

	for i := 0; i < eventCount; i++ {
		if ctx.Err() != nil {
			break
		}

		ev := gen.Next(time.Now())
		if err := writer.Append(ev); err != nil {
			return err
		}
		if archive != nil {
			if err := archive.SaveEvent(ctx, ev); err != nil {
				return err
			}
		}
		if worker, ok := workers[ev.Instrument()]; ok {
			_ = worker.Publish(ev)
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}

	for _, worker := range workers {
		worker.Close()
	}
	wg.Wait()

	if err := writer.Sync(); err != nil {
		return err
	}

	snap := metrics.Snapshot()
	logs.Infof("applied snapshots=%d deltas=%d batches=%d gaps=%d drops=%d apply_avg=%s",
		snap.AppliedSnapshots, snap.AppliedDeltas, snap.AppliedBatches,
		snap.SequenceGaps, snap.QueueDrops, snap.ApplyLatency.Avg)

	for id, worker := range workers {
		b := worker.Book()
		bid, okBid := b.BestBid()
		ask, okAsk := b.BestAsk()
		if okBid && okAsk {
			logs.Infof("%s top of book: bid %s x %s, ask %s x %s",
				id, bid.Price, bid.Size, ask.Price, ask.Size)
		}
	}
	return nil
}

// loadConfig reads the config file, or falls back to a small built-in
// registry so the binary runs without one.
func loadConfig(path, journalDir string) (ops.Loaded, error) {
	if path != "" {
		return ops.Load(path)
	}

	reg := ops.NewRegistry()
	if err := reg.AddVenue("SIM"); err != nil {
		return ops.Loaded{}, err
	}
	instruments := []ops.Instrument{
		{ID: model.NewInstrumentID("BTCUSDT", "SIM"), PricePrecision: 1, SizePrecision: 0, BookType: enum.BookTypeL2},
		{ID: model.NewInstrumentID("ETHUSDT", "SIM"), PricePrecision: 2, SizePrecision: 1, BookType: enum.BookTypeL2},
	}
	for _, inst := range instruments {
		if err := reg.AddInstrument(inst); err != nil {
			return ops.Loaded{}, err
		}
	}
	return ops.Loaded{
		Registry: reg,
		Journal:  ops.JournalConfig{Dir: journalDir},
		Feed:     ops.FeedConfig{QueueCapacity: 1024},
	}, nil
}
