package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalProviderPut(t *testing.T) {
	dir := t.TempDir()
	p, err := NewLocalProvider(dir, "http://localhost:8080/artifacts/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	obj, err := p.Put(ctx, strings.NewReader("a,b\n1,2\n"), PutOptions{Folder: "datasets", Name: "ds-1.csv"})
	if err != nil {
		t.Fatal(err)
	}
	if obj.Key != "datasets/ds-1.csv" || obj.Size != 8 || obj.ContentType != "text/csv" {
		t.Fatalf("unexpected object %+v", obj)
	}
	if obj.URL != "http://localhost:8080/artifacts/datasets/ds-1.csv" {
		t.Fatalf("unexpected url %s", obj.URL)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "datasets", "ds-1.csv"))
	if err != nil || string(raw) != "a,b\n1,2\n" {
		t.Fatalf("file not written: %v %q", err, raw)
	}

	_, err = p.Put(ctx, strings.NewReader("x"), PutOptions{Folder: "datasets", Name: "ds-1.csv"})
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("expected ErrObjectExists, got %v", err)
	}
	if _, err := p.Put(ctx, strings.NewReader("x"), PutOptions{Folder: "datasets", Name: "ds-1.csv", Overwrite: true}); err != nil {
		t.Fatal(err)
	}

	if err := p.Delete(ctx, obj.Key); err != nil {
		t.Fatal(err)
	}
	if err := p.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("deleting a missing file should succeed, got %v", err)
	}
}

func TestObjectKeyRejectsTraversal(t *testing.T) {
	cases := []PutOptions{
		{Folder: "exports", Name: ""},
		{Folder: "exports", Name: "../x.pdf"},
		{Folder: "../../etc", Name: "passwd"},
	}
	for _, opts := range cases {
		if _, err := objectKey(opts); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("%+v: expected ErrInvalidKey, got %v", opts, err)
		}
	}

	key, err := objectKey(PutOptions{Folder: "exports\\abc", Name: "deck.pdf"})
	if err != nil || key != "exports/abc/deck.pdf" {
		t.Fatalf("unexpected key %q %v", key, err)
	}
}

func TestServiceFolders(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{LocalDir: t.TempDir(), LocalBaseURL: "/artifacts"})
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(p)
	if svc.ProviderName() != "local" {
		t.Fatalf("unexpected provider %s", svc.ProviderName())
	}

	obj, err := svc.SaveExport(context.Background(), "job-1", "q3-review.pdf", "", []byte("%PDF-1.3"))
	if err != nil {
		t.Fatal(err)
	}
	if obj.Key != "exports/job-1/q3-review.pdf" || obj.ContentType != "application/pdf" {
		t.Fatalf("unexpected export object %+v", obj)
	}
	// re-export replaces
	if _, err := svc.SaveExport(context.Background(), "job-1", "q3-review.pdf", "", []byte("%PDF-1.4")); err != nil {
		t.Fatal(err)
	}

	obj, err = svc.ArchiveDataset(context.Background(), "ds-9", "Sales.XLSX", strings.NewReader("xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	if obj.Key != "datasets/ds-9.xlsx" {
		t.Fatalf("unexpected dataset key %s", obj.Key)
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "ftp"}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
