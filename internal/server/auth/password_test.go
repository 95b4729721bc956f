package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret-pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "s3cret-pw" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "s3cret-pw") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong-pw") {
		t.Fatalf("expected mismatching password to fail")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	t.Parallel()

	if CheckPassword("not-a-bcrypt-hash", "pw") {
		t.Fatalf("expected invalid hash to fail verification")
	}
}
