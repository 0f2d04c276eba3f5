// Package main is a manual probe for the snapshot staging contract: a
// torn crash backup left by a dying process must never shadow the
// committed database file.
//
// Run the phases in order: seed commits a known record count, crash
// plants the debris of a process that died mid-stage, verify reopens
// and checks nothing was lost.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dossierdb/dossier"
)

const (
	dbFile = "workspace/lac.db"
	coll   = "lac"
	docs   = 500
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s seed|crash|verify", os.Args[0])
	}
	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "seed":
		err = seed(ctx)
	case "crash":
		err = crash()
	case "verify":
		err = verify(ctx)
	default:
		log.Fatalf("unknown phase %q", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

// seed commits a snapshot with a known record count.
func seed(ctx context.Context) error {
	if err := os.MkdirAll("workspace", 0o755); err != nil {
		return err
	}
	db, err := dossier.NewDB()
	if err != nil {
		return err
	}
	if err := db.Open(ctx, dbFile, dossier.OpenWriter|dossier.OpenCreate); err != nil {
		return err
	}
	for n := 0; n < docs; n++ {
		if _, err := db.Save(ctx, coll, dossier.M{"n": n, "payload": "somedata"}); err != nil {
			return err
		}
	}
	if err := db.Close(ctx); err != nil {
		return err
	}
	fmt.Printf("seeded %d records into %s\n", docs, dbFile)
	return nil
}

// crash leaves what a process dying mid-stage leaves: a truncated crash
// backup next to the committed file. The committed file is not touched.
func crash() error {
	torn := []byte("DOSS\x01\x00\x00\x00to")
	if err := os.WriteFile(dbFile+"~", torn, 0o644); err != nil {
		return err
	}
	fmt.Printf("planted torn staging file %s~\n", dbFile)
	return nil
}

// verify reopens the committed file, checks every record survived, then
// syncs so the engine replaces the stale staging file.
func verify(ctx context.Context) error {
	db, err := dossier.NewDB()
	if err != nil {
		return err
	}
	if err := db.Open(ctx, dbFile, dossier.OpenWriter); err != nil {
		return err
	}
	n, err := db.Count(ctx, coll, nil)
	if err != nil {
		return err
	}
	if n != docs {
		return fmt.Errorf("expected %d records after crash, found %d", docs, n)
	}
	if err := db.Sync(ctx); err != nil {
		return err
	}
	if _, err := os.Stat(dbFile + "~"); err == nil {
		return fmt.Errorf("stale staging file survived sync")
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := db.Close(ctx); err != nil {
		return err
	}
	fmt.Printf("all %d records intact, staging file cleared\n", n)
	return nil
}
