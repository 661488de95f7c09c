package memory

import "testing"

func TestGameStoreLifecycle(t *testing.T) {
	store := NewGameStore()

	g := store.GetOrCreate("game-1")
	if g == nil {
		t.Fatalf("expected game")
	}
	if again := store.GetOrCreate("game-1"); again != g {
		t.Fatalf("expected the same game instance")
	}
	if _, ok := store.Get("game-1"); !ok {
		t.Fatalf("expected game present")
	}

	store.Delete("game-1")
	if _, ok := store.Get("game-1"); ok {
		t.Fatalf("expected game removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
