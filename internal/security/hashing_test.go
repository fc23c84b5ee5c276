package security

import "testing"

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(4) // min cost to keep the test fast
	hash, err := h.Hash([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "correct horse battery staple" {
		t.Fatal("hash empty or equal to plaintext")
	}
	if !h.Verify([]byte("correct horse battery staple"), hash) {
		t.Error("Verify with correct password: want true")
	}
	if h.Verify([]byte("wrong password"), hash) {
		t.Error("Verify with wrong password: want false")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(4)
	if h.Verify([]byte("anything"), "not-a-bcrypt-hash") {
		t.Error("Verify with malformed hash: want false, not an error")
	}
	if h.Verify([]byte("anything"), "") {
		t.Error("Verify with empty hash: want false")
	}
}

func TestNewHasher_CostClamping(t *testing.T) {
	if h := NewHasher(0); h.Cost != 10 {
		t.Errorf("NewHasher(0).Cost = %d, want bcrypt default 10", h.Cost)
	}
	if h := NewHasher(2); h.Cost != 4 {
		t.Errorf("NewHasher(2).Cost = %d, want min 4", h.Cost)
	}
	if h := NewHasher(40); h.Cost != 31 {
		t.Errorf("NewHasher(40).Cost = %d, want max 31", h.Cost)
	}
}
