package sparsearray

import (
	"math"
	"testing"
)

func TestExtentListCoalescesSameType(t *testing.T) {
	l, err := NewExtentList(0, 1000)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	if err := l.AddExtent(0, 100, ExtentData); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	if err := l.AddExtent(100, 100, ExtentData); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	if l.Count() != 1 {
		t.Fatalf("expected coalescing into 1 extent, got %d", l.Count())
	}
	if got := l.Get(0).Length; got != 200 {
		t.Fatalf("coalesced length = %d, want 200", got)
	}
}

func TestExtentListSeparatesDifferentTypes(t *testing.T) {
	l, err := NewExtentList(0, 1000)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	if err := l.AddExtent(0, 100, ExtentData); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	if err := l.AddExtent(100, 100, ExtentZero); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	if l.Count() != 2 {
		t.Fatalf("expected 2 distinct extents, got %d", l.Count())
	}
}

func TestExtentListOutOfOrderIsRangeError(t *testing.T) {
	l, err := NewExtentList(0, 1000)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	if err := l.AddExtent(0, 100, ExtentData); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	err = l.AddExtent(300, 100, ExtentData)
	if err == nil {
		t.Fatal("expected a range error for a non-contiguous AddExtent")
	}
	if !IsRange(err) {
		t.Fatalf("expected ErrRange, got %v", err)
	}
}

func TestExtentListClipsToWindowEnd(t *testing.T) {
	l, err := NewExtentList(0, 50)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	if err := l.AddExtent(0, 100, ExtentData); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	if got := l.Get(0).Length; got != 50 {
		t.Fatalf("extent should be clipped to window end, got length %d", got)
	}
}

func TestExtentListDropsFirstExtentEndingAtStart(t *testing.T) {
	l, err := NewExtentList(10, 100)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	// First extent ends exactly at start: silently accepted and dropped.
	if err := l.AddExtent(0, 10, ExtentData); err != nil {
		t.Fatalf("AddExtent: %v", err)
	}
	if l.Count() != 0 {
		t.Fatalf("extent ending exactly at start should be dropped, got %d entries", l.Count())
	}
}

func TestExtentListFirstExtentPastStartIsRangeError(t *testing.T) {
	l, err := NewExtentList(10, 100)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	err = l.AddExtent(20, 10, ExtentData)
	if err == nil || !IsRange(err) {
		t.Fatalf("expected a range error when the first extent starts after window start, got %v", err)
	}
}

func TestExtentListDropsExtentBeyondMaxExtents(t *testing.T) {
	l, err := NewExtentList(0, uint64(MaxExtents)*2)
	if err != nil {
		t.Fatalf("NewExtentList: %v", err)
	}
	var offset uint64
	for i := 0; i < MaxExtents+5; i++ {
		typ := ExtentType(i % 2)
		if err := l.AddExtent(offset, 1, typ); err != nil {
			t.Fatalf("AddExtent at %d: %v", offset, err)
		}
		offset++
	}
	if l.Count() > MaxExtents {
		t.Fatalf("extent count %d exceeds MaxExtents %d", l.Count(), MaxExtents)
	}
}

func TestNewExtentListRejectsInvertedWindow(t *testing.T) {
	_, err := NewExtentList(100, 50)
	if err == nil || !IsRange(err) {
		t.Fatalf("expected a range error for start > end, got %v", err)
	}
}

func TestNewExtentListRejectsBoundsAboveMaxInt64(t *testing.T) {
	const tooBig = uint64(math.MaxInt64) + 1

	if _, err := NewExtentList(tooBig, tooBig+10); err == nil || !IsRange(err) {
		t.Fatalf("expected a range error for start above 2^63-1, got %v", err)
	}
	if _, err := NewExtentList(0, tooBig); err == nil || !IsRange(err) {
		t.Fatalf("expected a range error for end above 2^63-1, got %v", err)
	}
	if _, err := NewExtentList(0, math.MaxInt64); err != nil {
		t.Fatalf("expected end == 2^63-1 to be accepted, got %v", err)
	}
}
