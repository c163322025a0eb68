package packet

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"
	"testing"
)

func TestBuildRSAPrivateMatchesPQSwap(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	priv.Precompute()
	p, q := priv.Primes[0], priv.Primes[1]

	// OpenPGP's secret "u" field is p^-1 mod q.
	u := new(big.Int).ModInverse(p, q)

	rebuilt := buildRSAPrivate(&priv.PublicKey, priv.D, p, q)
	if rebuilt.Precomputed.Qinv.Cmp(u) != 0 {
		t.Errorf("Qinv = %s, want u = %s", rebuilt.Precomputed.Qinv, u)
	}

	wantDq := new(big.Int).Mod(priv.D, new(big.Int).Sub(q, big.NewInt(1)))
	wantDp := new(big.Int).Mod(priv.D, new(big.Int).Sub(p, big.NewInt(1)))
	if rebuilt.Precomputed.Dp.Cmp(wantDq) != 0 {
		t.Errorf("Dp = %s, want d mod (q-1) = %s", rebuilt.Precomputed.Dp, wantDq)
	}
	if rebuilt.Precomputed.Dq.Cmp(wantDp) != 0 {
		t.Errorf("Dq = %s, want d mod (p-1) = %s", rebuilt.Precomputed.Dq, wantDp)
	}

	// The rebuilt key must still decrypt correctly regardless of the
	// internal prime-order swap.
	msg := []byte("round trip")
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, &priv.PublicKey, msg)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, rebuilt, ct)
	if err != nil {
		t.Fatal(err)
	}
	if string(pt) != string(msg) {
		t.Errorf("decrypted %q, want %q", pt, msg)
	}
}
