package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/book"
	"main/internal/journal"
	"main/internal/model"
)

func main() {
	dir := flag.String("dir", "testdata/journal", "Journal directory")
	prefix := flag.String("prefix", "", "Journal file prefix (default: book)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	useInit := flag.Bool("use-init-time", false, "Pace by receipt timestamp instead of event timestamp")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	printEvery := flag.Int("print-every", 100, "Print top of book every N events (0=never)")
	profile := flag.Bool("profile", false, "Enable pyroscope profiling")
	profileAddr := flag.String("profile-addr", "http://localhost:4040", "Pyroscope server address")
	flag.Parse()

	if *profile {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "book/replay",
			ServerAddress:   *profileAddr,
			Tags: map[string]string{
				"env": "local",
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer profiler.Stop()
	}

	pb, err := journal.NewPlayback(journal.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		UseInitTime:     *useInit,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	books := make(map[model.InstrumentID]*book.OrderBook)
	ctx := context.Background()
	var index int
	err = pb.Run(ctx, func(header journal.EntryHeader, payload []byte) error {
		ev, err := journal.DecodeEvent(payload)
		if err != nil {
			return fmt.Errorf("entry %d: %w", index+1, err)
		}
		index++

		b, ok := books[ev.Instrument()]
		if !ok {
			b = book.New(ev.Instrument(), ev.Book())
			books[ev.Instrument()] = b
		}
		if err := applyEvent(b, ev); err != nil {
			return fmt.Errorf("entry %d (%s seq=%d): %w", index, header.Type, header.Seq, err)
		}

		if *printEvery > 0 && index%*printEvery == 0 {
			printTop(index, b)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("playback run failed: %v", err)
	}

	fmt.Printf("replayed %d events across %d instruments\n", index, len(books))
	for _, b := range books {
		printTop(index, b)
	}
}

func applyEvent(b *book.OrderBook, ev model.Event) error {
	switch e := ev.(type) {
	case model.OrderBookSnapshot:
		return b.ApplySnapshot(e)
	case model.OrderBookDelta:
		return b.ApplyDelta(e)
	case model.OrderBookDeltas:
		return b.ApplyDeltas(e)
	default:
		return fmt.Errorf("unsupported event type %T", ev)
	}
}

func printTop(index int, b *book.OrderBook) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		fmt.Printf("%06d %s one-sided book, status=%s\n", index, b.Instrument(), b.Status())
		return
	}
	spread, _ := b.Spread()
	mid, _ := b.MidPrice()
	fmt.Printf("%06d %s bid=%sx%s ask=%sx%s spread=%s mid=%s\n",
		index, b.Instrument(), bid.Price, bid.Size, ask.Price, ask.Size, spread, mid)
}
