package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
)

func TestOpenSharedWaitsForWriter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ghostbot.sqlite")

	writer, err := utils.NewFileLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Lock(); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		db, err := openShared(dbPath)
		if err == nil {
			db.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("openShared returned while the writer held the lock: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := writer.Unlock(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("openShared: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("openShared did not return after the lock was released")
	}

	// The lock is released again once the schema is in place.
	again, err := utils.NewFileLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := again.Lock(); err != nil {
		t.Fatal(err)
	}
	again.Unlock()
}
