package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/hubia/hubia/internal/storage"
)

func fixedClock() time.Time {
	return time.Date(2026, time.February, 19, 9, 30, 0, 0, time.UTC)
}

func sampleRecord(question string) Record {
	return Record{
		Question:   question,
		SQL:        "SELECT valor FROM ipca_7060_recife",
		Answer:     "O IPCA foi de 0,42%.",
		Outcome:    "answered",
		RowCount:   1,
		AnsweredAt: fixedClock(),
	}
}

func TestFlushUploadsEncodedSegment(t *testing.T) {
	store := &fakeObjectStore{}
	archiver := &Archiver{ObjectStore: store, Config: Config{Dataset: "answers"}, Clock: fixedClock}

	archiver.Append(sampleRecord("Qual foi o IPCA em Recife?"))
	archiver.Append(sampleRecord("Qual foi o IPCA em Recife em 2024?"))

	if err := archiver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if store.lastKey != "answers/date=2026-02-19/hour=09/answers-00000.parquet" {
		t.Fatalf("key = %q", store.lastKey)
	}

	reader := parquet.NewGenericReader[parquetAnswer](bytes.NewReader(store.lastPayload))
	defer func() { _ = reader.Close() }()
	rows := make([]parquetAnswer, 2)
	count, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("reader.Read() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("read rows = %d", count)
	}
	if rows[0].Question != "Qual foi o IPCA em Recife?" {
		t.Fatalf("question = %q", rows[0].Question)
	}
	if rows[0].AnsweredAtUnixMs != fixedClock().UnixMilli() {
		t.Fatalf("answered at = %d", rows[0].AnsweredAtUnixMs)
	}
}

func TestFlushWithEmptyBufferIsNoop(t *testing.T) {
	store := &fakeObjectStore{}
	archiver := &Archiver{ObjectStore: store, Clock: fixedClock}

	if err := archiver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("puts = %d, want 0", store.puts)
	}
}

func TestFlushRequeuesRecordsOnUploadFailure(t *testing.T) {
	store := &fakeObjectStore{putErr: errors.New("connection refused")}
	archiver := &Archiver{ObjectStore: store, Clock: fixedClock}

	archiver.Append(sampleRecord("pergunta"))

	if err := archiver.Flush(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}

	store.putErr = nil
	if err := archiver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() retry error = %v", err)
	}
	if store.puts != 2 {
		t.Fatalf("puts = %d, want 2", store.puts)
	}
	if len(store.lastPayload) == 0 {
		t.Fatal("expected requeued record to be uploaded")
	}
}

func TestAppendDropsOldestWhenBufferFull(t *testing.T) {
	archiver := &Archiver{ObjectStore: &fakeObjectStore{}, Config: Config{MaxBuffered: 2}, Clock: fixedClock}

	archiver.Append(sampleRecord("primeira"))
	archiver.Append(sampleRecord("segunda"))
	archiver.Append(sampleRecord("terceira"))

	archiver.mu.Lock()
	defer archiver.mu.Unlock()
	if len(archiver.pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(archiver.pending))
	}
	if archiver.pending[0].Question != "segunda" {
		t.Fatalf("oldest retained = %q", archiver.pending[0].Question)
	}
}

type fakeObjectStore struct {
	puts        int
	putErr      error
	lastKey     string
	lastPayload []byte
}

func (f *fakeObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	f.puts++
	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.lastKey = key
	f.lastPayload = payload
	return storage.ObjectInfo{Key: key, Size: int64(len(payload))}, nil
}

func (f *fakeObjectStore) Get(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, storage.ErrObjectNotFound
}

func (f *fakeObjectStore) Stat(_ context.Context, _ string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, storage.ErrObjectNotFound
}
