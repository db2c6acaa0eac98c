package songsim_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/songsim"
	"github.com/hupe1980/songsim/lexical"
)

// Example_spatialTree demonstrates exact nearest-neighbor search with the
// R-tree backend.
func Example_spatialTree() {
	ctx := context.Background()

	eng, err := songsim.New(2)
	if err != nil {
		log.Fatal(err)
	}

	_ = eng.Insert(ctx, "a", []float32{0, 0})
	_ = eng.Insert(ctx, "b", []float32{3, 4})
	_ = eng.Insert(ctx, "c", []float32{1, 1})

	if err := eng.BuildIndex(ctx, songsim.BackendSpatialTree); err != nil {
		log.Fatal(err)
	}

	neighbors, _, err := eng.Search(ctx, []float32{0, 0}, 2)
	if err != nil {
		log.Fatal(err)
	}
	for _, n := range neighbors {
		fmt.Printf("%s %.3f\n", n.TrackID, n.Distance)
	}
	// Output:
	// a 0.000
	// c 1.414
}

// Example_similarTracks demonstrates excluding the query track from its own
// neighbors.
func Example_similarTracks() {
	ctx := context.Background()

	eng, err := songsim.New(2)
	if err != nil {
		log.Fatal(err)
	}

	_ = eng.Insert(ctx, "a", []float32{0, 0})
	_ = eng.Insert(ctx, "b", []float32{3, 4})
	_ = eng.Insert(ctx, "c", []float32{1, 1})
	_ = eng.BuildIndex(ctx, songsim.BackendSequential)

	similar, _, err := eng.SimilarTracks(ctx, "a", 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(similar[0].TrackID)
	// Output: c
}

// Example_textSearch demonstrates TF-IDF ranking over lyrics.
func Example_textSearch() {
	ctx := context.Background()

	eng, err := songsim.New(1)
	if err != nil {
		log.Fatal(err)
	}

	_, err = eng.BuildTextIndex(ctx, lexical.SliceSource{
		{ID: "t1", Text: "blue moon", Language: "en"},
		{ID: "t2", Text: "blue love", Language: "en"},
		{ID: "t3", Text: "summer love", Language: "en"},
	})
	if err != nil {
		log.Fatal(err)
	}

	results, _, err := eng.TextSearch(ctx, "moon", "en", 10)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		fmt.Printf("%s %.4f\n", r.DocID, r.Score)
	}
	// Output: t1 1.0986
}
