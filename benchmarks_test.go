package dossier_test

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/dossierdb/dossier"
)

type M = map[string]any

func BenchmarkNewDB(b *testing.B) {
	for b.Loop() {
		dossier.NewDB()
	}
}

func BenchmarkSave(b *testing.B) {
	ctx := context.Background()

	doc := M{"name": "jo", "age": 30}

	b.Run("InMemory=true", func(b *testing.B) {
		db, _ := dossier.NewDB()
		db.Open(ctx, "", 0)
		defer db.Close(ctx)

		for b.Loop() {
			db.Save(ctx, "people", doc)
		}
	})

	b.Run("InMemory=false", func(b *testing.B) {
		file := filepath.Join(b.TempDir(), "file.db")
		db, _ := dossier.NewDB()
		db.Open(ctx, file, 0)
		defer db.Close(ctx)

		for b.Loop() {
			db.Save(ctx, "people", doc)
		}
	})
}

func BenchmarkSaveBatch(b *testing.B) {
	ctx := context.Background()

	sizes := [...]int{1, 10, 100, 1_000, 10_000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			db, _ := dossier.NewDB()
			db.Open(ctx, "", 0)
			defer db.Close(ctx)

			docs := make([]any, size)
			for n := range docs {
				docs[n] = M{"n": n, "name": fmt.Sprintf("doc-%d", n)}
			}

			for b.Loop() {
				db.Save(ctx, "people", docs...)
			}
		})
	}
}

func BenchmarkFind(b *testing.B) {
	ctx := context.Background()

	seed := func(db dossier.DB) {
		docs := make([]any, 1_000)
		for n := range docs {
			docs[n] = M{"name": fmt.Sprintf("doc-%d", n), "age": rand.Intn(80)}
		}
		db.Save(ctx, "people", docs...)
	}

	drain := func(db dossier.DB, query M) {
		cur, _ := db.Find(ctx, "people", query)
		for cur.Next() {
			cur.Document()
		}
		cur.Close()
	}

	b.Run("Indexed=false", func(b *testing.B) {
		db, _ := dossier.NewDB()
		db.Open(ctx, "", 0)
		defer db.Close(ctx)
		seed(db)

		for b.Loop() {
			drain(db, M{"name": "doc-500"})
		}
	})

	b.Run("Indexed=true", func(b *testing.B) {
		db, _ := dossier.NewDB()
		db.Open(ctx, "", 0)
		defer db.Close(ctx)
		seed(db)
		db.EnsureStringIndex(ctx, "people", "name")

		for b.Loop() {
			drain(db, M{"name": "doc-500"})
		}
	})
}

func BenchmarkCount(b *testing.B) {
	ctx := context.Background()

	db, _ := dossier.NewDB()
	db.Open(ctx, "", 0)
	defer db.Close(ctx)

	docs := make([]any, 1_000)
	for n := range docs {
		docs[n] = M{"n": n, "even": n%2 == 0}
	}
	db.Save(ctx, "people", docs...)

	for b.Loop() {
		db.Count(ctx, "people", M{"even": true})
	}
}

func BenchmarkSync(b *testing.B) {
	ctx := context.Background()

	file := filepath.Join(b.TempDir(), "file.db")
	db, _ := dossier.NewDB()
	db.Open(ctx, file, 0)
	defer db.Close(ctx)

	docs := make([]any, 1_000)
	for n := range docs {
		docs[n] = M{"n": n, "name": fmt.Sprintf("doc-%d", n)}
	}
	db.Save(ctx, "people", docs...)

	for b.Loop() {
		db.Sync(ctx)
	}
}
