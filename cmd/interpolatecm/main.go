package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/craft"
	_ "github.com/carbocation/craft/compileinfoprint"
	"github.com/carbocation/craft/geneticmap"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Consumes a tab-delimited variant file (e.g., a .pvar) that has a "CM"
	// column. Consumes a genetic map with chr, basepair, and cM columns.
	// Rewrites the CM column by interpolating each position on the map.
	var pvarFile, mapFile, outFile, chromosome string
	cols := geneticmap.PLINKColumns
	flag.StringVar(&pvarFile, "pvar", "", "Tab-delimited variant file with a header. Must have a 'CM' column. May be local or gs://")
	flag.StringVar(&mapFile, "map", "", "Genetic map file. A HapMap header is detected; otherwise a headerless file is read using -chr, -bp and -cm. May be local or gs://")
	flag.IntVar(&cols.Chromosome, "chr", cols.Chromosome, "0-based column of a headerless map file that contains the chromosome")
	flag.IntVar(&cols.Position, "bp", cols.Position, "0-based column of a headerless map file that contains the basepair")
	flag.IntVar(&cols.CM, "cm", cols.CM, "0-based column of a headerless map file that contains the centiMorgan value")
	flag.StringVar(&chromosome, "chromosome", "", "(Optional) treat every map row as this chromosome, for per-chromosome maps without a chromosome column")
	flag.StringVar(&outFile, "out", "", "output file. If not specified, writes to stdout")
	flag.Parse()

	if pvarFile == "" || mapFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var client *storage.Client
	if strings.HasPrefix(pvarFile, "gs://") || strings.HasPrefix(mapFile, "gs://") {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	// Writer
	var outWriter io.WriteCloser
	if outFile == "" {
		outWriter = os.Stdout
	} else {
		var err error
		outWriter, err = os.Create(outFile)
		if err != nil {
			log.Fatalln(err)
		}
	}
	defer outWriter.Close()

	// Map
	mapReader, err := craft.Open(ctx, mapFile, client)
	if err != nil {
		log.Fatalln(err)
	}
	maps, err := geneticmap.Load(mapReader, cols, chromosome)
	mapReader.Close()
	if err != nil {
		log.Fatalln(err)
	}
	log.WithField("chromosomes", len(maps)).Infoln("Loaded genetic map from", mapFile)

	// PVAR
	pvarReader, err := craft.Open(ctx, pvarFile, client)
	if err != nil {
		log.Fatalln(err)
	}
	defer pvarReader.Close()

	// Process
	bw := bufio.NewWriter(outWriter)
	if err := processPVAR(pvarReader, bw, maps); err != nil {
		log.Fatalln(err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatalln(err)
	}
}
