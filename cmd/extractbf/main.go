package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/craft"
	_ "github.com/carbocation/craft/compileinfoprint"
	"github.com/carbocation/craft/finemap"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Consumes an index table and the FINEMAP .log_sss files of its loci.
	// Writes the index table with the Log10-BF of each locus appended.
	var indexFile, logDir, logPattern, outFile string
	flag.StringVar(&indexFile, "index", "", "Index table written by craft. May be local or gs://")
	flag.StringVar(&logDir, "logdir", "", "Directory (or gs:// prefix) containing <index_rsid>.log_sss files")
	flag.StringVar(&logPattern, "pattern", "*.log_sss", "Glob of FINEMAP log file names within -logdir")
	flag.StringVar(&outFile, "out", "", "output file. If not specified, writes to stdout")
	flag.Parse()

	if indexFile == "" || logDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var client *storage.Client
	if craft.IsGoogleStoragePath(indexFile) || craft.IsGoogleStoragePath(logDir) {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	logs, err := craft.Glob(ctx, strings.TrimSuffix(logDir, "/"), logPattern, client)
	if err != nil {
		log.Fatalln(err)
	}
	bfs, err := finemap.ReadLog10BFs(ctx, logs, client)
	if err != nil {
		log.Fatalln(err)
	}
	log.WithFields(log.Fields{
		"logs":    len(logs),
		"parsed":  len(bfs),
		"pattern": path.Join(logDir, logPattern),
	}).Infoln("Read FINEMAP logs")

	// Writer
	var outWriter io.WriteCloser
	if outFile == "" {
		outWriter = os.Stdout
	} else {
		outWriter, err = os.Create(outFile)
		if err != nil {
			log.Fatalln(err)
		}
	}
	defer outWriter.Close()

	index, err := craft.Open(ctx, indexFile, client)
	if err != nil {
		log.Fatalln(err)
	}
	defer index.Close()

	bw := bufio.NewWriter(outWriter)
	if err := finemap.AppendLog10BF(index, bw, bfs); err != nil {
		log.Fatalln(err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatalln(err)
	}
}
