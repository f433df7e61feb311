package presence

import "testing"

func TestDetector_FlipsOnWindowFull(t *testing.T) {
	const w = 24
	d := New(w)

	for i := 1; i <= w; i++ {
		got := d.Observe(true)
		if i < w && got {
			t.Fatalf("present after %d frames, expected only after %d", i, w)
		}
		if i == w && !got {
			t.Fatalf("expected present on frame %d", w)
		}
	}
}

func TestDetector_SingleMissDoesNotDrop(t *testing.T) {
	const w = 5
	d := New(w)
	for i := 0; i < w; i++ {
		d.Observe(true)
	}

	if !d.Observe(false) {
		t.Fatal("a single missed frame should not drop presence")
	}
	if !d.Observe(true) {
		t.Fatal("expected presence to hold")
	}
}

func TestDetector_DropsWhenWindowEmptiesOfDetections(t *testing.T) {
	const w = 4
	d := New(w)
	for i := 0; i < w; i++ {
		d.Observe(true)
	}

	for i := 1; i < w; i++ {
		if !d.Observe(false) {
			t.Fatalf("dropped after %d misses, expected %d", i, w)
		}
	}
	if d.Observe(false) {
		t.Fatal("expected absence once every frame in the window missed")
	}
	if d.Present() {
		t.Fatal("Present() should agree with the last Observe")
	}
}

func TestDetector_SingleHitDoesNotRaise(t *testing.T) {
	const w = 4
	d := New(w)
	for i := 0; i < w; i++ {
		d.Observe(false)
	}

	if d.Observe(true) {
		t.Fatal("a single detection should not raise presence")
	}

	// Still needs a full window of detections.
	for i := 1; i < w-1; i++ {
		if d.Observe(true) {
			t.Fatalf("raised after %d detections", i+1)
		}
	}
	if !d.Observe(true) {
		t.Fatal("expected presence after a full window of detections")
	}
}

func TestDetector_Reset(t *testing.T) {
	d := New(2)
	d.Observe(true)
	d.Observe(true)
	d.Reset()

	if d.Present() {
		t.Fatal("expected absent after Reset")
	}
	if d.Observe(true) {
		t.Fatal("expected window to refill after Reset")
	}
}
