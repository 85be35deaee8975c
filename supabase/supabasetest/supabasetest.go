// Package supabasetest provides an in-process identity provider for tests:
// a JWKS endpoint whose keys can be rotated and helpers to mint tokens.
package supabasetest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWKSPath is where the server publishes its key set
const JWKSPath = "/auth/v1/jwks"

// Keypair is an RSA signing key with its kid
type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

// GenerateKeypair creates a 2048-bit RSA key
func GenerateKeypair(t testing.TB, kid string) Keypair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return Keypair{Kid: kid, Private: priv}
}

// JWKSServer serves a rotatable key set at JWKSPath
type JWKSServer struct {
	*httptest.Server

	body    atomic.Value // []byte
	hits    atomic.Int64
	failing atomic.Bool

	mux *http.ServeMux

	mu    sync.Mutex
	delay time.Duration
}

// NewJWKSServer starts a server publishing keys; it is closed on test cleanup
func NewJWKSServer(t testing.TB, keys ...Keypair) *JWKSServer {
	t.Helper()
	s := &JWKSServer{}
	s.SetKeys(keys...)

	mux := http.NewServeMux()
	s.mux = mux
	mux.HandleFunc(JWKSPath, func(w http.ResponseWriter, _ *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		delay := s.delay
		s.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if s.failing.Load() {
			http.Error(w, `{"message":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.body.Load().([]byte))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Handle mounts an extra endpoint next to the key set, such as a fake REST API
func (s *JWKSServer) Handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, h)
}

// SetKeys replaces the published key set
func (s *JWKSServer) SetKeys(keys ...Keypair) {
	type jwk struct {
		Kty string `json:"kty"`
		Use string `json:"use"`
		Alg string `json:"alg"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	}
	out := struct {
		Keys []jwk `json:"keys"`
	}{Keys: make([]jwk, 0, len(keys))}

	for _, kp := range keys {
		pub := kp.Private.PublicKey
		out.Keys = append(out.Keys, jwk{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kp.Kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	b, _ := json.Marshal(out)
	s.body.Store(b)
}

// SetFailing makes the endpoint answer 503
func (s *JWKSServer) SetFailing(failing bool) {
	s.failing.Store(failing)
}

// SetDelay holds every response for d
func (s *JWKSServer) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Hits returns how many times the key set was requested
func (s *JWKSServer) Hits() int {
	return int(s.hits.Load())
}

// JWKSURL returns the absolute key set URL
func (s *JWKSServer) JWKSURL() string {
	return s.URL + JWKSPath
}

// Claims returns claims for a valid, unexpired user token
func Claims(sub string, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   sub,
		"aud":   "authenticated",
		"email": sub + "@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// Mint signs claims with kp using RS256 and stamps its kid
func Mint(t testing.TB, kp Keypair, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kp.Kid
	signed, err := token.SignedString(kp.Private)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
