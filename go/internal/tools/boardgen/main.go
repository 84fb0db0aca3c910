package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/loteria/go/internal/boards"
)

func main() {
	configPath := flag.String("config", "", "YAML board spec (defaults to the Barranquilla deck)")
	outPath := flag.String("out", "loteria_boards.json", "JSON output file")
	seed := flag.Int64("seed", 0, "random seed (0 uses the current time)")
	printBoards := flag.Bool("print", false, "print boards to stdout")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	spec := boards.DefaultSpec()
	if *configPath != "" {
		loaded, err := boards.LoadSpec(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("failed to load board spec")
		}
		spec = loaded
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	log.Info().
		Str("game", spec.Game).
		Int("items", len(spec.Items)).
		Int("boards", spec.Boards).
		Int("items_per_board", spec.BoardSize()).
		Int64("seed", *seed).
		Msg("generating boards")

	generated, err := boards.Generate(spec, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatal().Err(err).Msg("board generation failed")
	}

	if *printBoards {
		if err := boards.Render(os.Stdout, spec, generated); err != nil {
			log.Fatal().Err(err).Msg("failed to print boards")
		}
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Str("out", *outPath).Msg("failed to create output file")
	}
	defer f.Close()

	if err := boards.WriteJSON(f, boards.NewExport(spec, generated)); err != nil {
		log.Fatal().Err(err).Msg("failed to export boards")
	}

	log.Info().Str("out", *outPath).Int("boards", len(generated)).Msg("boards exported")
}
