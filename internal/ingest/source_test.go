package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeFetcher struct {
	body string
	err  error
	url  string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.url = url
	return []byte(f.body), f.err
}

func TestURLSource(t *testing.T) {
	f := &fakeFetcher{body: "\ufeffdate,contract\n2024-01-02,IF2401\n"}
	table, err := NewURLSource(f, "https://example.com/bars.csv").ReadTable(context.Background())
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if f.url != "https://example.com/bars.csv" {
		t.Errorf("fetched %q", f.url)
	}
	if table.Header[0] != "date" || len(table.Records) != 1 {
		t.Errorf("table = %+v", table)
	}

	failing := &fakeFetcher{err: errors.New("boom")}
	if _, err := NewURLSource(failing, "u").ReadTable(context.Background()); err == nil {
		t.Error("expected fetch error")
	}
}

func TestCSVSourceSemicolon(t *testing.T) {
	table, err := NewCSVSource(strings.NewReader("a;b\n1;2\n3\n")).WithComma(';').ReadTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 2 || len(table.Records[1]) != 1 {
		t.Errorf("records = %v", table.Records)
	}
}

func TestCSVSourceEmpty(t *testing.T) {
	if _, err := NewCSVSource(strings.NewReader("")).ReadTable(context.Background()); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestStaticSource(t *testing.T) {
	if _, err := (StaticSource{}).ReadTable(context.Background()); err == nil {
		t.Error("expected error for nil table")
	}
}
