package zk

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestDecodeTime(t *testing.T) {
	// 2026-03-04 08:05:30 in the 31-day-month device calendar.
	var stamp uint32
	stamp = 26             // years since 2000
	stamp = stamp*12 + 2   // month - 1
	stamp = stamp*31 + 3   // day - 1
	stamp = stamp*24 + 8   // hour
	stamp = stamp*60 + 5   // minute
	stamp = stamp*60 + 30  // second

	got := decodeTime(stamp, time.UTC)
	want := time.Date(2026, 3, 4, 8, 5, 30, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChecksumIgnoresOwnField(t *testing.T) {
	packet := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(packet[0:], cmdConnect)
	sum := checksum(packet)

	binary.LittleEndian.PutUint16(packet[2:], sum)
	if checksum(packet) != sum {
		t.Fatal("checksum must not depend on the checksum field")
	}
}

func TestParseRecords(t *testing.T) {
	chunk := make([]byte, recordSize)
	copy(chunk[userCodeOffset:], "101")
	chunk[userCodeOffset+userCodeLen] = 1   // verify: fingerprint
	chunk[userCodeOffset+userCodeLen+1] = 0 // status: check-in
	var stamp uint32
	stamp = 26
	stamp = stamp*12 + 2
	stamp = stamp*31 + 3
	stamp = stamp*24 + 8
	stamp = stamp * 3600
	binary.LittleEndian.PutUint32(chunk[userCodeOffset+userCodeLen+2:], stamp)

	// An all-zero record is padding and must be skipped.
	raw := append(chunk, make([]byte, recordSize)...)

	c := &Client{loc: time.UTC}
	records, err := c.parseRecords(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.UserCode != "101" || rec.Status != 0 || rec.Verify != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.At.Equal(time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %v", rec.At)
	}
}
